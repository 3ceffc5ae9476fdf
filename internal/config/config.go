package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultBatchSize is the number of records committed per transaction.
const DefaultBatchSize = 500

type Settings struct {
	Server      string `env:"MYSQL_SERVER"`
	User        string `env:"MYSQL_USER"`
	Password    string `env:"MYSQL_PASSWORD"`
	Database    string `env:"MYSQL_DATABASE"`
	Input       string `env:"MTGSQLIVE_INPUT"`
	BatchSize   int    `env:"BATCH_SIZE"   envDefault:"500"`
	StrictMode  bool   `env:"STRICT_MODE"  envDefault:"false"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"INFO"`
	MetricsFile string `env:"METRICS_FILE"`

	// ToggleF and ToggleR carry the -f and -r switches. They are recorded
	// and logged but do not change behavior.
	ToggleF bool
	ToggleR bool

	// PasswordSet is true when a password was supplied, even an empty one.
	PasswordSet bool
}

func LoadSettings() (*Settings, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			slog.Warn("Error loading .env file", "error", err)
		}
	}

	cfg := Settings{}
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if _, ok := os.LookupEnv("MYSQL_PASSWORD"); ok {
		cfg.PasswordSet = true
	}

	return &cfg, nil
}

// ErrMissingSetting is wrapped by Validate for every absent required value.
var ErrMissingSetting = errors.New("missing required setting")

// ValidateConnection checks the values needed to reach the database.
func (s *Settings) ValidateConnection() error {
	var missing []string
	if strings.TrimSpace(s.Server) == "" {
		missing = append(missing, "server (-s)")
	}
	if strings.TrimSpace(s.User) == "" {
		missing = append(missing, "user (-u)")
	}
	if strings.TrimSpace(s.Database) == "" {
		missing = append(missing, "database (-d)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}
	return nil
}

// Validate checks everything an import run needs.
func (s *Settings) Validate() error {
	if err := s.ValidateConnection(); err != nil {
		return err
	}
	if strings.TrimSpace(s.Input) == "" {
		return fmt.Errorf("%w: input (-i)", ErrMissingSetting)
	}
	if s.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", s.BatchSize)
	}
	return nil
}
