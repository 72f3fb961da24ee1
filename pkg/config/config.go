package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App    AppConfig
	DB     DBConfig
	JWT    JWTConfig
	HTTP   HTTPConfig
	Redis  RedisConfig
	Kafka  KafkaConfig
	Outbox OutboxConfig
	Jobs   JobsConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env           string // development, staging, production
	Name          string
	LogLevel      string
	StorageDriver string // postgres | memory
}

// IsDevelopment indica si corre en modo desarrollo.
func (c AppConfig) IsDevelopment() bool { return c.Env == "development" }

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	AutoMigrate bool
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// TTL duración de los tokens emitidos.
func (c JWTConfig) TTL() time.Duration {
	return time.Duration(c.Expiration) * time.Minute
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  string
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig caché de lecturas. Addr vacío deshabilita la caché.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// KafkaConfig publicación de eventos del libro. Brokers vacío publica solo en el log.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	RequiredAcks int
	BatchTimeout time.Duration
}

// OutboxConfig relevo de eventos pendientes.
type OutboxConfig struct {
	BatchSize      int
	MaxRetries     int
	RetentionHours int
}

// JobsConfig expresiones cron de los trabajos programados (vacío = deshabilitado).
type JobsConfig struct {
	OutboxSchedule       string
	OutboxCleanSchedule  string
	ReconcileSchedule    string
	TokenCleanupSchedule string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, DB_PORT, JWT_SECRET, etc.
func Load() (*Config, error) {
	// .env al entorno del proceso; si no existe se ignora
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:           getString(v, "APP_ENV", "development"),
			Name:          getString(v, "APP_NAME", "almacen-api"),
			LogLevel:      getString(v, "LOG_LEVEL", "info"),
			StorageDriver: strings.ToLower(getString(v, "STORAGE_DRIVER", "postgres")),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "almacen"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 10),
			AutoMigrate: getBool(v, "DB_AUTO_MIGRATE", true),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "almacen-api"),
		},
		HTTP: HTTPConfig{
			Host:         getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:         getInt(v, "HTTP_PORT", 8080),
			ReadTimeout:  getDuration(v, "HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration(v, "HTTP_WRITE_TIMEOUT", 15*time.Second),
			CORSOrigins:  getString(v, "CORS_ORIGINS", "*"),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
			Prefix:   getString(v, "REDIS_PREFIX", "almacen"),
		},
		Kafka: KafkaConfig{
			Brokers:      splitList(getString(v, "KAFKA_BROKERS", "")),
			Topic:        getString(v, "KAFKA_TOPIC", "almacen.stock-movements"),
			RequiredAcks: getInt(v, "KAFKA_REQUIRED_ACKS", -1),
			BatchTimeout: getDuration(v, "KAFKA_BATCH_TIMEOUT", 10*time.Millisecond),
		},
		Outbox: OutboxConfig{
			BatchSize:      getInt(v, "OUTBOX_BATCH_SIZE", 100),
			MaxRetries:     getInt(v, "OUTBOX_MAX_RETRIES", 10),
			RetentionHours: getInt(v, "OUTBOX_RETENTION_HOURS", 72),
		},
		Jobs: JobsConfig{
			OutboxSchedule:       getString(v, "JOB_OUTBOX_SCHEDULE", "@every 5s"),
			OutboxCleanSchedule:  getString(v, "JOB_OUTBOX_CLEAN_SCHEDULE", "@daily"),
			ReconcileSchedule:    getString(v, "JOB_RECONCILE_SCHEDULE", "@hourly"),
			TokenCleanupSchedule: getString(v, "JOB_TOKEN_CLEANUP_SCHEDULE", "@hourly"),
		},
	}
	return cfg, nil
}

// Validate revisa combinaciones inválidas antes de arrancar.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" && !c.App.IsDevelopment() {
		errs = append(errs, errors.New("JWT_SECRET es obligatorio fuera de development"))
	}
	if c.JWT.Expiration <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINUTES debe ser positivo"))
	}
	switch c.App.StorageDriver {
	case "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER desconocido: %q", c.App.StorageDriver))
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT fuera de rango: %d", c.HTTP.Port))
	}
	if c.Outbox.BatchSize <= 0 || c.Outbox.MaxRetries <= 0 {
		errs = append(errs, errors.New("OUTBOX_BATCH_SIZE y OUTBOX_MAX_RETRIES deben ser positivos"))
	}
	return errors.Join(errs...)
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return b
	}
	return def
}

func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if v.IsSet(key) {
		d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return d
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
