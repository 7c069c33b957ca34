package backend

import (
	"context"

	"fintrack/internal/ledger"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the constructed Ledger Store and its optional
// collaborators. Events and Mirror are nil interfaces when not configured.
type BackendResult struct {
	Store   ledger.Store
	Events  services.EventPublisher
	Mirror  sheets.Mirror
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string

	// Optional; an empty URL disables events.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Optional; an empty spreadsheet id disables the mirror.
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
