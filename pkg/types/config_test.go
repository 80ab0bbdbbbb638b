package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DataDir: "/tmp/data"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "postgres", DataDir: "/tmp/data"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "valid sqlite config",
			config:  Config{Backend: "sqlite", DataDir: "/tmp/data"},
			wantErr: nil,
		},
		{
			name:    "sqlite with empty DataDir is valid at config level",
			config:  Config{Backend: "sqlite", DataDir: ""},
			wantErr: nil,
		},
		{
			name:    "unknown journal mode",
			config:  Config{Backend: "sqlite", SQLite: SQLiteConfig{JournalMode: "truncate-ish"}},
			wantErr: ErrJournalModeUnknown,
		},
		{
			name:    "negative busy timeout",
			config:  Config{Backend: "sqlite", SQLite: SQLiteConfig{BusyTimeoutMs: -1}},
			wantErr: ErrBusyTimeoutNegative,
		},
		{
			name:    "negative poll interval",
			config:  Config{Backend: "sqlite", SQLite: SQLiteConfig{PollIntervalMs: -5}},
			wantErr: ErrPollIntervalInvalid,
		},
		{
			name:    "explicit memory journal",
			config:  Config{Backend: "sqlite", SQLite: SQLiteConfig{JournalMode: JournalMemory}},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSQLiteConfigDefaults(t *testing.T) {
	var s SQLiteConfig
	assert.Equal(t, JournalWAL, s.GetJournalMode())
	assert.Equal(t, 5000, s.GetBusyTimeoutMs())

	s = SQLiteConfig{JournalMode: JournalDelete, BusyTimeoutMs: 250}
	assert.Equal(t, JournalDelete, s.GetJournalMode())
	assert.Equal(t, 250, s.GetBusyTimeoutMs())
	assert.Zero(t, s.PollInterval())

	s.PollIntervalMs = 1500
	assert.Equal(t, 1500*time.Millisecond, s.PollInterval())
}
