// Package cli provides the initialization shared by the commands:
// logging, .env loading, configuration and the optional run journal.
package cli

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"timesheets/internal/config"
	"timesheets/internal/log"
	"timesheets/internal/storage"
)

// SetupLogger initializes structured logging at the given level and sets
// it as the default logger. An unknown level falls back to info.
func SetupLogger(level string, out io.Writer) *log.Logger {
	lvl, err := log.ParseLevel(level)
	logger := log.New(log.Config{Level: lvl, Component: log.ComponentApp, Output: out})
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info level", log.FieldError, err)
	}
	return logger
}

// LoadEnvFile loads a .env file for local development. A missing default
// file is not an error; a missing explicit file is.
func LoadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	return godotenv.Load(path)
}

// LoadAndValidateConfig loads configuration from the environment, applies
// the overrides in order and validates the result.
func LoadAndValidateConfig(logger *log.Logger, overrides ...func(*config.Config)) (*config.Config, error) {
	cfg := config.Load()
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		return nil, err
	}
	return cfg, nil
}

// InitJournal opens the run journal. An empty path disables it.
func InitJournal(logger *log.Logger, dbPath string) (*storage.Journal, error) {
	if dbPath == "" {
		logger.Info("Run journal disabled")
		return nil, nil
	}
	j, err := storage.NewJournal(dbPath)
	if err != nil {
		logger.Error("Failed to open run journal", log.FieldError, err, "path", dbPath)
		return nil, err
	}
	return j, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
