package types

import (
	"context"
	"errors"

	"github.com/mesh-intelligence/padkit/pkg/live"
)

// ProfileStore provides durable access to controller profiles. Lookups that
// find nothing return a nil profile and a nil error; deletes of missing ids
// succeed.
type ProfileStore interface {
	// GetAll returns a live, id-ordered view of every profile.
	GetAll(ctx context.Context) (*live.Subscription[[]*ControllerProfile], error)

	// GetByID returns the profile with the given id, or nil if none exists.
	GetByID(ctx context.Context, id int64) (*ControllerProfile, error)

	// GetActive returns the active profile, or nil if none is active.
	// Returns ErrInvariantViolation if more than one profile is active.
	GetActive(ctx context.Context) (*ControllerProfile, error)

	// GetActiveLive is the live variant of GetActive.
	GetActiveLive(ctx context.Context) (*live.Subscription[*ControllerProfile], error)

	// Insert persists p under a freshly assigned id, which is written back to
	// p.ID and returned. Any id already on p is ignored.
	Insert(ctx context.Context, p *ControllerProfile) (int64, error)

	// Update replaces the stored row matching p.ID.
	// Returns ErrNotFound if no such row exists.
	Update(ctx context.Context, p *ControllerProfile) error

	// Delete and DeleteByID remove a profile. Both are idempotent.
	Delete(ctx context.Context, p *ControllerProfile) error
	DeleteByID(ctx context.Context, id int64) error

	// SetActive marks the profile as active without touching any other row.
	// Callers deactivate the rest first, or use ActivateExclusively.
	SetActive(ctx context.Context, id int64) error

	// DeactivateAll clears the active flag on every profile.
	DeactivateAll(ctx context.Context) error

	// ActivateExclusively deactivates every other profile and activates id in
	// a single transaction.
	ActivateExclusively(ctx context.Context, id int64) error

	// Search returns a live view of profiles whose name or description match
	// the LIKE pattern (escape character '\'), case-insensitively.
	Search(ctx context.Context, pattern string) (*live.Subscription[[]*ControllerProfile], error)
}

// MacroStore provides durable access to macros.
type MacroStore interface {
	GetAll(ctx context.Context) (*live.Subscription[[]*Macro], error)
	GetByID(ctx context.Context, id int64) (*Macro, error)

	// GetByIDs returns every stored macro whose id is in ids, each once.
	// Missing ids are skipped.
	GetByIDs(ctx context.Context, ids []int64) ([]*Macro, error)

	Insert(ctx context.Context, m *Macro) (int64, error)
	Update(ctx context.Context, m *Macro) error
	Delete(ctx context.Context, m *Macro) error
	DeleteByID(ctx context.Context, id int64) error
	Search(ctx context.Context, pattern string) (*live.Subscription[[]*Macro], error)
}

// Backend owns the storage connection and hands out the two stores.
type Backend interface {
	// Attach opens the store described by config. Returns ErrAlreadyAttached
	// if called twice without Detach.
	Attach(config Config) error

	// Detach closes the store and every open subscription. Idempotent.
	Detach() error

	Profiles() ProfileStore
	Macros() MacroStore

	// Export writes profiles.jsonl and macros.jsonl into dir.
	Export(ctx context.Context, dir string) error

	// Import replaces the store contents with the JSONL files in dir.
	Import(ctx context.Context, dir string) error
}

// Store errors.
var (
	ErrNotFound           = errors.New("entity not found")
	ErrInvariantViolation = errors.New("more than one active profile")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// Input errors.
var (
	ErrInvalidID   = errors.New("invalid entity ID")
	ErrInvalidName = errors.New("invalid name")
	ErrInvalidData = errors.New("invalid entity data")
)

// Backend lifecycle errors.
var (
	ErrAlreadyAttached = errors.New("backend is already attached")
)
