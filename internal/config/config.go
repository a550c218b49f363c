// Package config loads application configuration and initializes the
// global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Dataset  DatasetConfig  `yaml:"dataset" mapstructure:"dataset"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	SendGrid SendGridConfig `yaml:"sendgrid" mapstructure:"sendgrid"`
	Outreach OutreachConfig `yaml:"outreach" mapstructure:"outreach"`
	Template TemplateConfig `yaml:"template" mapstructure:"template"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DatasetConfig configures canonical dataset snapshots.
type DatasetConfig struct {
	// OutputDir holds CLEAN_ snapshots and the daily run logs.
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
}

// StoreConfig configures the outreach state backend.
type StoreConfig struct {
	// Driver selects the backend: "file", "sqlite", or "postgres".
	Driver string `yaml:"driver" mapstructure:"driver"`
	// Path is the state file (file driver) or database file (sqlite).
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SendGridConfig holds SendGrid API settings.
type SendGridConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// OutreachConfig configures the campaign scheduler. Every knob is
// injected here rather than hard-coded so tests can vary them.
type OutreachConfig struct {
	FromEmail string `yaml:"from_email" mapstructure:"from_email"`
	FromName  string `yaml:"from_name" mapstructure:"from_name"`
	ReplyTo   string `yaml:"reply_to" mapstructure:"reply_to"`

	// DailyQuota caps how many new contacts are messaged per run.
	DailyQuota int `yaml:"daily_quota" mapstructure:"daily_quota"`

	// AllowedWeekdays are time.Weekday indices (0 = Sunday) eligible
	// for sending.
	AllowedWeekdays []int `yaml:"allowed_weekdays" mapstructure:"allowed_weekdays"`

	// StartHour/EndHour bound the sending window as [start, end) in
	// local time.
	StartHour int `yaml:"start_hour" mapstructure:"start_hour"`
	EndHour   int `yaml:"end_hour" mapstructure:"end_hour"`

	// InterMessageDelay spaces consecutive dispatches within a run.
	InterMessageDelay time.Duration `yaml:"inter_message_delay" mapstructure:"inter_message_delay"`

	// LockPath guards against overlapping invocations.
	LockPath string `yaml:"lock_path" mapstructure:"lock_path"`
}

// TemplateConfig points at the email template file.
type TemplateConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the stats API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("dataset.output_dir", "output")
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.path", "output/sent_emails.json")
	v.SetDefault("store.database_url", "")
	v.SetDefault("sendgrid.key", "")
	v.SetDefault("sendgrid.base_url", "https://api.sendgrid.com/v3")
	v.SetDefault("outreach.from_email", "")
	v.SetDefault("outreach.from_name", "")
	v.SetDefault("outreach.reply_to", "")
	v.SetDefault("outreach.daily_quota", 20)
	v.SetDefault("outreach.allowed_weekdays", []int{1, 2, 3, 4, 5})
	v.SetDefault("outreach.start_hour", 7)
	v.SetDefault("outreach.end_hour", 16)
	v.SetDefault("outreach.inter_message_delay", "3s")
	v.SetDefault("outreach.lock_path", "output/outreach.lock")
	v.SetDefault("template.path", "templates/partnership.yaml")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks settings that every command depends on.
func (c *Config) Validate() error {
	if c.Outreach.DailyQuota <= 0 {
		return eris.New("config: outreach.daily_quota must be positive")
	}
	if c.Outreach.StartHour < 0 || c.Outreach.StartHour > 23 {
		return eris.Errorf("config: outreach.start_hour %d out of range", c.Outreach.StartHour)
	}
	if c.Outreach.EndHour < 1 || c.Outreach.EndHour > 24 {
		return eris.Errorf("config: outreach.end_hour %d out of range", c.Outreach.EndHour)
	}
	if c.Outreach.EndHour <= c.Outreach.StartHour {
		return eris.New("config: outreach sending window is empty")
	}
	for _, d := range c.Outreach.AllowedWeekdays {
		if d < 0 || d > 6 {
			return eris.Errorf("config: outreach.allowed_weekdays contains invalid day %d", d)
		}
	}
	switch c.Store.Driver {
	case "file", "sqlite", "postgres":
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
