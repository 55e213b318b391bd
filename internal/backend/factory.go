package backend

import (
	"context"
	"errors"
	"fmt"

	"timesheets/internal/amqp"
	"timesheets/internal/export"
	"timesheets/internal/log"
	"timesheets/internal/services"
	gsheet "timesheets/internal/sheets/google"
	"timesheets/internal/sheets/local"
	"timesheets/internal/sheets/memory"
	"timesheets/internal/storage"
)

// localParentID names the sub-directory of the output tree holding the
// per-acronym folders.
const localParentID = "timesheets"

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.FromDefault(log.ComponentBackend)
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		ws  services.Workspace
		err error
	)
	switch config.Type {
	case SheetsBackend:
		ws, err = f.createSheetsWorkspace(ctx, config)
	case MemoryBackend:
		ws, err = f.createMemoryWorkspace(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	res := &BackendResult{Workspace: ws}
	if config.SQLiteDBPath != "" {
		res.Journal, err = storage.NewJournal(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open run journal: %w", err)
		}
		f.logger.Info("Opened run journal", "db_path", config.SQLiteDBPath)
	}

	// The notifier is optional: a broker outage must not block generation.
	if config.AMQPURL != "" {
		res.Notifier, err = amqp.NewClient(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
			res.Notifier = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	journal, notifier := res.Journal, res.Notifier
	res.Cleanup = func() error {
		var errs []error
		if notifier != nil {
			errs = append(errs, notifier.Close())
		}
		if journal != nil {
			errs = append(errs, journal.Close())
		}
		return errors.Join(errs...)
	}
	return res, nil
}

func (f *DefaultFactory) createSheetsWorkspace(ctx context.Context, config Config) (services.Workspace, error) {
	cli, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
		OAuthClientJSON:    config.GoogleOAuthClientJSON,
		OAuthClientFile:    config.GoogleOAuthClientFile,
		OAuthTokenJSON:     config.GoogleOAuthTokenJSON,
		OAuthTokenFile:     config.GoogleOAuthTokenFile,
	})
	if err != nil {
		return services.Workspace{}, fmt.Errorf("failed to initialize Google client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend",
		"spreadsheet_id", config.GoogleSpreadsheetID,
		log.FieldFolder, config.DriveParentFolderID)

	return services.Workspace{
		Book:           cli,
		Exporter:       cli,
		Folders:        cli,
		Sheets:         config.Sheets,
		ParentFolderID: config.DriveParentFolderID,
	}, nil
}

func (f *DefaultFactory) createMemoryWorkspace(ctx context.Context, config Config) (services.Workspace, error) {
	store, err := memory.NewFromFiles(config.DataDirectory)
	if err != nil {
		return services.Workspace{}, fmt.Errorf("failed to load workbook: %w", err)
	}

	renderer := export.NewClient(config.GotenbergURL, config.GotenbergTimeout)
	if err := renderer.Ping(ctx); err != nil {
		f.logger.Warn("Gotenberg is not reachable, PDF export will fail", "url", config.GotenbergURL, log.FieldError, err)
	}
	exporter, err := export.NewSheetExporter(store, renderer)
	if err != nil {
		return services.Workspace{}, fmt.Errorf("failed to initialize exporter: %w", err)
	}

	f.logger.Info("Initialized memory backend",
		"data_directory", config.DataDirectory,
		"output_directory", config.OutputDirectory,
		"sheets", len(store.Names()))

	return services.Workspace{
		Book:           store,
		Exporter:       exporter,
		Folders:        local.New(config.OutputDirectory),
		Sheets:         config.Sheets,
		ParentFolderID: localParentID,
	}, nil
}
