package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const defaultJobTimeout = 2 * time.Minute

// JobFunc trabajo programado. Recibe un contexto con timeout propio.
type JobFunc func(ctx context.Context) error

// Job trabajo registrado.
type Job struct {
	Name     string
	Schedule string
	Run      JobFunc
}

// Scheduler ejecuta trabajos de mantenimiento con expresiones cron.
// Un trabajo no se solapa consigo mismo: si la ejecución anterior sigue en curso, se salta.
type Scheduler struct {
	cron    *cron.Cron
	log     zerolog.Logger
	timeout time.Duration

	mu   sync.Mutex
	jobs map[string]Job
	ctx  context.Context
	stop context.CancelFunc
}

// New crea el scheduler sin trabajos.
func New(log zerolog.Logger) *Scheduler {
	printf := cron.PrintfLogger(&log)
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(printf), cron.SkipIfStillRunning(printf))),
		log:     log,
		timeout: defaultJobTimeout,
		jobs:    map[string]Job{},
		ctx:     ctx,
		stop:    cancel,
	}
}

// Register añade un trabajo. Un schedule vacío lo deja registrado (ejecutable con RunNow) pero sin programar.
func (s *Scheduler) Register(name, schedule string, run JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("trabajo duplicado: %s", name)
	}
	if schedule != "" {
		if _, err := s.cron.AddFunc(schedule, func() { _ = s.execute(s.ctx, name, run) }); err != nil {
			return fmt.Errorf("programar %s (%q): %w", name, schedule, err)
		}
	}
	s.jobs[name] = Job{Name: name, Schedule: schedule, Run: run}
	return nil
}

// Jobs devuelve los trabajos registrados ordenados por nombre.
func (s *Scheduler) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

// RunNow ejecuta un trabajo de inmediato en la goroutine actual.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("trabajo desconocido: %s", name)
	}
	return s.execute(ctx, name, job.Run)
}

func (s *Scheduler) execute(ctx context.Context, name string, run JobFunc) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	err := run(ctx)
	ev := s.log.Debug()
	if err != nil {
		ev = s.log.Error().Err(err)
	}
	ev.Str("job", name).Dur("duration", time.Since(start)).Msg("trabajo programado ejecutado")
	return err
}

// Start arranca el planificador en segundo plano.
func (s *Scheduler) Start() {
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler iniciado")
	s.cron.Start()
}

// Stop detiene el planificador y espera a los trabajos en curso hasta que ctx expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn().Msg("trabajos en curso interrumpidos al apagar")
	}
	s.stop()
}
