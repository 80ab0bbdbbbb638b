package types

import (
	"errors"
	"time"
)

// Config holds backend selection and parameters for Backend.Attach.
type Config struct {
	Backend string       `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir string       `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	SQLite  SQLiteConfig `json:"sqlite" yaml:"sqlite" mapstructure:"sqlite"`
}

// SQLiteConfig tunes the SQLite connection. Zero values select defaults.
type SQLiteConfig struct {
	JournalMode   string `json:"journal_mode" yaml:"journal_mode" mapstructure:"journal_mode"`
	BusyTimeoutMs int    `json:"busy_timeout_ms" yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`

	// PollIntervalMs, when positive, makes the backend check for commits by
	// other processes at this interval and refresh live queries.
	PollIntervalMs int `json:"poll_interval_ms,omitempty" yaml:"poll_interval_ms,omitempty" mapstructure:"poll_interval_ms"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// SQLite journal modes.
const (
	JournalWAL    = "wal"
	JournalDelete = "delete"
	JournalMemory = "memory"
)

const defaultBusyTimeoutMs = 5000

// Config validation errors.
var (
	ErrBackendEmpty        = errors.New("backend must not be empty")
	ErrBackendUnknown      = errors.New("unknown backend")
	ErrJournalModeUnknown  = errors.New("unknown journal mode")
	ErrBusyTimeoutNegative = errors.New("busy timeout must not be negative")
	ErrPollIntervalInvalid = errors.New("poll interval must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

var knownJournalModes = map[string]bool{
	JournalWAL:    true,
	JournalDelete: true,
	JournalMemory: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.SQLite.JournalMode != "" && !knownJournalModes[c.SQLite.JournalMode] {
		return ErrJournalModeUnknown
	}
	if c.SQLite.BusyTimeoutMs < 0 {
		return ErrBusyTimeoutNegative
	}
	if c.SQLite.PollIntervalMs < 0 {
		return ErrPollIntervalInvalid
	}
	return nil
}

// GetJournalMode returns the configured journal mode, defaulting to WAL.
func (s SQLiteConfig) GetJournalMode() string {
	if s.JournalMode == "" {
		return JournalWAL
	}
	return s.JournalMode
}

// GetBusyTimeoutMs returns the busy timeout, defaulting to 5000ms.
func (s SQLiteConfig) GetBusyTimeoutMs() int {
	if s.BusyTimeoutMs == 0 {
		return defaultBusyTimeoutMs
	}
	return s.BusyTimeoutMs
}

// PollInterval returns the external-change poll interval; zero disables
// polling.
func (s SQLiteConfig) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalMs) * time.Millisecond
}
