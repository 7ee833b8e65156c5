// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Webhook       WebhookConfig      `mapstructure:"webhook"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Queue         QueueConfig        `mapstructure:"queue"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address        string `mapstructure:"address"`
	MetricsAddress string `mapstructure:"metrics_address"`
	ReadTimeout    int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout   int    `mapstructure:"write_timeout"` // milliseconds
}

// WebhookConfig holds settings for the inbound change-event webhook.
type WebhookConfig struct {
	Secret      string `mapstructure:"secret"`
	TargetTable string `mapstructure:"target_table"`
	EventType   string `mapstructure:"event_type"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// QueueConfig holds the task queue and worker pool settings.
// Time limits follow the broker contract: the soft limit logs and flags
// a long-running task, the hard limit cancels its context.
type QueueConfig struct {
	MaxWorkers     int `mapstructure:"max_workers"`
	MaxRetries     int `mapstructure:"max_retries"`
	RetryBaseDelay int `mapstructure:"retry_base_delay"` // seconds
	RetryMaxDelay  int `mapstructure:"retry_max_delay"`  // seconds
	SoftTimeLimit  int `mapstructure:"soft_time_limit"`  // seconds
	HardTimeLimit  int `mapstructure:"hard_time_limit"`  // seconds
	ResultExpiry   int `mapstructure:"result_expiry"`    // seconds
	SchedulerPoll  int `mapstructure:"scheduler_poll"`   // milliseconds
}

// NotificationConfig holds settings for the delivery channels.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled            bool   `mapstructure:"enabled"`
		SenderID           string `mapstructure:"sender_id"`
		DefaultCountryCode string `mapstructure:"default_country_code"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	TemplatePath string `mapstructure:"template_path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
