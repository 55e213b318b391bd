// Package backend builds the workspace a generation run talks to, for
// either the Google backend or the local memory backend.
package backend

import (
	"context"
	"time"

	"timesheets/internal/amqp"
	"timesheets/internal/services"
	"timesheets/internal/storage"
)

// CleanupFunc releases the resources opened for a backend.
type CleanupFunc func() error

// BackendResult is a ready workspace plus its optional journal and
// notifier. Journal and Notifier are nil when disabled.
type BackendResult struct {
	Workspace services.Workspace
	Journal   *storage.Journal
	Notifier  *amqp.Client
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	Sheets services.SheetNames

	// Run journal, disabled when empty
	SQLiteDBPath string

	// Event publishing, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google specific
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string
	GoogleOAuthClientJSON    string
	GoogleOAuthTokenJSON     string
	DriveParentFolderID      string

	// Memory backend specific
	DataDirectory    string
	OutputDirectory  string
	GotenbergURL     string
	GotenbergTimeout time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
