package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var jobName string

// jobsCmd corre solo el planificador, o un trabajo puntual con --job.
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Ejecuta los trabajos programados o uno solo por nombre",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApplication(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		sched, err := a.newScheduler()
		if err != nil {
			return err
		}
		if jobName != "" {
			return sched.RunNow(ctx, jobName)
		}
		for _, j := range sched.Jobs() {
			schedule := j.Schedule
			if schedule == "" {
				schedule = "manual"
			}
			fmt.Printf("%-16s %s\n", j.Name, schedule)
		}
		sched.Start()
		log.Info().Msg("planificador iniciado; Ctrl+C para salir")
		<-ctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		sched.Stop(stopCtx)
		return nil
	},
}

func init() {
	jobsCmd.Flags().StringVarP(&jobName, "job", "j", "", "ejecutar un trabajo por nombre y salir")
}
