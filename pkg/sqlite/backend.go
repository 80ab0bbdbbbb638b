// Package sqlite exposes the SQLite padkit backend while keeping its
// implementation internal.
package sqlite

import (
	"github.com/mesh-intelligence/padkit/internal/sqlite"
	"github.com/mesh-intelligence/padkit/pkg/types"
)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	backend := sqlite.NewBackend()
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".padkit-db",
//	})
//	defer backend.Detach()
//	repo := repository.New(backend.Profiles(), backend.Macros())
func NewBackend() types.Backend {
	return sqlite.NewBackend()
}
