package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/padkit/pkg/live"
)

// dataVersion reads PRAGMA data_version, which changes on conn whenever
// another connection commits.
func dataVersion(ctx context.Context, conn *sql.Conn) (int64, error) {
	var v int64
	err := conn.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v)
	return v, err
}

// pollExternal signals every topic when the database changes underneath
// this backend, for example when another process writes to the same file.
// It holds one dedicated connection and exits when n is closed.
func pollExternal(conn *sql.Conn, interval time.Duration, n *live.Notifier, logger *slog.Logger, done chan<- struct{}) {
	defer close(done)
	defer conn.Close()

	ctx := context.Background()
	last, err := dataVersion(ctx, conn)
	if err != nil {
		logger.Warn("external change polling disabled", "error", err)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-n.Done():
			return
		case <-ticker.C:
		}

		v, err := dataVersion(ctx, conn)
		if err != nil {
			logger.Warn("polling data version", "error", err)
			continue
		}
		if v == last {
			continue
		}
		last = v
		logger.Debug("external change detected", "data_version", v)
		n.Publish(tableProfiles)
		n.Publish(tableMacros)
	}
}
