// Package sqlite implements the SQLite storage backend for padkit.
// The backend owns one database handle, two table accessors (profiles and
// macros), and the change notifier that drives live queries.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/padkit/pkg/live"
	"github.com/mesh-intelligence/padkit/pkg/types"
)

// dbFileName is the database file created inside Config.DataDir.
const dbFileName = "padkit.db"

// Compile-time interface check.
var _ types.Backend = (*Backend)(nil)

// Backend implements types.Backend on SQLite. Reads share b.mu; writes hold
// it exclusively, which also serializes every activation change.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	notifier *live.Notifier
	pollDone chan struct{}
	logger   *slog.Logger

	profiles *profilesTable
	macros   *macrosTable
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	b := &Backend{
		logger: slog.Default().With("component", "store"),
	}
	b.profiles = &profilesTable{backend: b}
	b.macros = &macrosTable{backend: b}
	return b
}

// Profiles returns the profile store. Calls fail with ErrStoreUnavailable
// while the backend is detached.
func (b *Backend) Profiles() types.ProfileStore {
	return b.profiles
}

// Macros returns the macro store.
func (b *Backend) Macros() types.MacroStore {
	return b.macros
}

// Attach opens (or creates) the database under config.DataDir and applies
// the schema. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("%w: creating data directory: %v", types.ErrStoreUnavailable, err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)
	db, err := sql.Open("sqlite", dsn(dbPath, config.SQLite))
	if err != nil {
		return fmt.Errorf("%w: opening database: %v", types.ErrStoreUnavailable, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("%w: pinging database: %v", types.ErrStoreUnavailable, err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return fmt.Errorf("applying schema: %w", err)
	}

	notifier := live.NewNotifier(b.logger)
	if interval := config.SQLite.PollInterval(); interval > 0 {
		conn, err := db.Conn(context.Background())
		if err != nil {
			notifier.Close()
			db.Close()
			return fmt.Errorf("%w: reserving poll connection: %v", types.ErrStoreUnavailable, err)
		}
		b.pollDone = make(chan struct{})
		go pollExternal(conn, interval, notifier, b.logger, b.pollDone)
	}

	b.db = db
	b.config = config
	b.notifier = notifier
	b.attached = true

	b.logger.Info("SQLite store attached", "path", dbPath,
		"journal_mode", config.SQLite.GetJournalMode())
	return nil
}

// Detach closes every live subscription and the database handle.
// After Detach, all operations return ErrStoreUnavailable. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.notifier.Close()
	if b.pollDone != nil {
		<-b.pollDone
		b.pollDone = nil
	}
	b.attached = false

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
		b.db = nil
	}

	b.logger.Info("SQLite store detached")
	return nil
}

// dsn builds a modernc.org/sqlite connection string with per-connection
// pragmas.
func dsn(path string, cfg types.SQLiteConfig) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.GetBusyTimeoutMs()))
	q.Add("_pragma", fmt.Sprintf("journal_mode(%s)", cfg.GetJournalMode()))
	return "file:" + path + "?" + q.Encode()
}

// withRead runs fn with the read lock held and the database attached.
func (b *Backend) withRead(fn func(db *sql.DB) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrStoreUnavailable
	}
	return fn(b.db)
}

// withWrite runs fn inside a transaction with the write lock held. On
// commit, subscribers of each topic in notify are signalled.
func (b *Backend) withWrite(ctx context.Context, notify []string, fn func(tx *sql.Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreUnavailable
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	for _, topic := range notify {
		b.notifier.Publish(topic)
	}
	return nil
}

// watch subscribes q to changes on topic.
func watch[T any](ctx context.Context, b *Backend, topic string, q live.Query[T]) (*live.Subscription[T], error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreUnavailable
	}
	return live.Watch(ctx, b.notifier, topic, q)
}
