package store

import (
	"context"
	"fmt"
	"time"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendXLSX   = "xlsx"
	BackendSheets = "sheets"
)

// Config selects and configures a RecordStore backend.
type Config struct {
	// Backend is one of "sqlite", "xlsx", "sheets". Default: "sqlite".
	Backend string `koanf:"backend"`

	// Path is the sqlite database file or the xlsx workbook.
	Path string `koanf:"path"`

	// SpreadsheetID and CredentialsFile configure the sheets backend.
	SpreadsheetID   string `koanf:"spreadsheet_id"`
	CredentialsFile string `koanf:"credentials_file"`

	// WriteAttempts is how many times an Append is tried before the error
	// is surfaced. 1 means no retry. Retried writes may duplicate rows;
	// readers deduplicate submissions by id.
	WriteAttempts int           `koanf:"write_attempts"`
	RetryWait     time.Duration `koanf:"retry_wait"`
}

// DefaultConfig returns the sqlite backend with no write retries.
func DefaultConfig() Config {
	return Config{
		Backend:       BackendSQLite,
		WriteAttempts: 1,
		RetryWait:     500 * time.Millisecond,
	}
}

// Validate checks backend-specific requirements.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendXLSX:
	case BackendSheets:
		if c.SpreadsheetID == "" {
			return fmt.Errorf("store.spreadsheet_id is required for the sheets backend")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	if c.WriteAttempts < 1 {
		return fmt.Errorf("store.write_attempts must be at least 1, got %d", c.WriteAttempts)
	}
	return nil
}

// Open builds the configured backend and wraps it with write retries.
func Open(ctx context.Context, cfg Config) (RecordStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		rs  RecordStore
		err error
	)
	switch cfg.Backend {
	case BackendSQLite:
		path := cfg.Path
		if path == "" {
			if path, err = DefaultDBPath(); err != nil {
				return nil, fmt.Errorf("resolve database path: %w", err)
			}
		} else if err := EnsureDir(path); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
		rs, err = OpenSQLite(path)
	case BackendXLSX:
		if cfg.Path == "" {
			return nil, fmt.Errorf("store.path is required for the xlsx backend")
		}
		rs, err = OpenXLSX(cfg.Path)
	case BackendSheets:
		rs, err = OpenSheets(ctx, cfg.SpreadsheetID, SheetsOptionsFromEnv(cfg.CredentialsFile)...)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}

	if cfg.WriteAttempts > 1 {
		rs = WithRetry(rs, cfg.WriteAttempts, cfg.RetryWait)
	}
	return rs, nil
}
