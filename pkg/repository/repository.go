// Package repository is the single entry point for presentation code. It
// composes the profile and macro stores and adds the operations that span
// more than one store call: default-profile bootstrap, duplication, and
// exclusive activation.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mesh-intelligence/padkit/pkg/live"
	"github.com/mesh-intelligence/padkit/pkg/types"
)

// Option configures a Repository.
type Option func(*Repository)

// WithClock sets the time source used for duplicated profiles.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithLogger sets the logger. The repository adds its own component attribute.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) { r.logger = logger }
}

// Repository delegates to the two stores. It holds no entity state of its
// own.
type Repository struct {
	profiles types.ProfileStore
	macros   types.MacroStore
	now      func() time.Time
	logger   *slog.Logger

	// bootstrap serializes EnsureDefaultProfile callers.
	bootstrap sync.Mutex
}

// New returns a Repository over the given stores.
func New(profiles types.ProfileStore, macros types.MacroStore, opts ...Option) *Repository {
	r := &Repository{
		profiles: profiles,
		macros:   macros,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "repository")
	return r
}

// likeEscaper escapes the LIKE metacharacters. Backslash goes first so the
// escapes it adds are not doubled.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns raw user text into a substring LIKE pattern.
func likePattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

// Profiles

// AllProfiles returns a live, id-ordered view of every profile.
func (r *Repository) AllProfiles(ctx context.Context) (*live.Subscription[[]*types.ControllerProfile], error) {
	return r.profiles.GetAll(ctx)
}

// ProfileByID returns the profile with id, or nil if there is none.
func (r *Repository) ProfileByID(ctx context.Context, id int64) (*types.ControllerProfile, error) {
	return r.profiles.GetByID(ctx, id)
}

// ActiveProfile returns the active profile, or nil if none is active.
func (r *Repository) ActiveProfile(ctx context.Context) (*types.ControllerProfile, error) {
	return r.profiles.GetActive(ctx)
}

// ActiveProfileLive returns a live view of the active profile.
func (r *Repository) ActiveProfileLive(ctx context.Context) (*live.Subscription[*types.ControllerProfile], error) {
	return r.profiles.GetActiveLive(ctx)
}

// InsertProfile stores p and returns its newly assigned id.
func (r *Repository) InsertProfile(ctx context.Context, p *types.ControllerProfile) (int64, error) {
	return r.profiles.Insert(ctx, p)
}

// UpdateProfile replaces the stored profile with p.
// Returns ErrNotFound if p.ID does not exist.
func (r *Repository) UpdateProfile(ctx context.Context, p *types.ControllerProfile) error {
	return r.profiles.Update(ctx, p)
}

// DeleteProfile removes p. Deleting a missing profile is not an error.
func (r *Repository) DeleteProfile(ctx context.Context, p *types.ControllerProfile) error {
	return r.profiles.Delete(ctx, p)
}

// DeleteProfileByID removes the profile with id, if any.
func (r *Repository) DeleteProfileByID(ctx context.Context, id int64) error {
	return r.profiles.DeleteByID(ctx, id)
}

// SetActiveProfile is the second half of the two-step activation protocol:
// callers run DeactivateAllProfiles first. Prefer ActivateProfile.
func (r *Repository) SetActiveProfile(ctx context.Context, id int64) error {
	return r.profiles.SetActive(ctx, id)
}

// DeactivateAllProfiles clears the active flag on every profile.
func (r *Repository) DeactivateAllProfiles(ctx context.Context) error {
	return r.profiles.DeactivateAll(ctx)
}

// SearchProfiles returns a live view of profiles whose name or description
// contains query. query is matched literally.
func (r *Repository) SearchProfiles(ctx context.Context, query string) (*live.Subscription[[]*types.ControllerProfile], error) {
	return r.profiles.Search(ctx, likePattern(query))
}

// ActivateProfile makes id the only active profile in one atomic step.
func (r *Repository) ActivateProfile(ctx context.Context, id int64) error {
	if err := r.profiles.ActivateExclusively(ctx, id); err != nil {
		return fmt.Errorf("activating profile %d: %w", id, err)
	}
	r.logger.Debug("profile activated", "profile_id", id)
	return nil
}

// CreateDefaultProfile inserts the active default profile and returns its
// id. It does not deactivate anything first, so it fails with
// ErrInvariantViolation if another profile is already active.
func (r *Repository) CreateDefaultProfile(ctx context.Context) (int64, error) {
	p := &types.ControllerProfile{
		Name:        types.DefaultProfileName,
		Description: types.DefaultProfileDescription,
		IsActive:    true,
	}
	id, err := r.profiles.Insert(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("creating default profile: %w", err)
	}
	r.logger.Info("default profile created", "profile_id", id)
	return id, nil
}

// EnsureDefaultProfile creates the default profile when the store holds no
// profiles. It reports whether it created one. When profiles already exist
// it returns the active profile's id, or 0 if none is active.
func (r *Repository) EnsureDefaultProfile(ctx context.Context) (int64, bool, error) {
	r.bootstrap.Lock()
	defer r.bootstrap.Unlock()

	sub, err := r.profiles.GetAll(ctx)
	if err != nil {
		return 0, false, err
	}
	all, err := live.First(ctx, sub)
	if err != nil {
		return 0, false, fmt.Errorf("listing profiles: %w", err)
	}

	if len(all) > 0 {
		active, err := r.profiles.GetActive(ctx)
		if err != nil {
			return 0, false, err
		}
		if active == nil {
			return 0, false, nil
		}
		return active.ID, false, nil
	}

	id, err := r.CreateDefaultProfile(ctx)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// DuplicateProfile copies the profile originalID under newName. The copy is
// inactive and stamped with the current time. If originalID does not exist
// it returns 0 and false with no error, and nothing is written.
func (r *Repository) DuplicateProfile(ctx context.Context, originalID int64, newName string) (int64, bool, error) {
	src, err := r.profiles.GetByID(ctx, originalID)
	if err != nil {
		return 0, false, fmt.Errorf("reading profile %d: %w", originalID, err)
	}
	if src == nil {
		return 0, false, nil
	}

	dup := src.Duplicate(newName, r.now())
	id, err := r.profiles.Insert(ctx, dup)
	if err != nil {
		return 0, false, fmt.Errorf("duplicating profile %d: %w", originalID, err)
	}
	r.logger.Debug("profile duplicated", "source_id", originalID, "profile_id", id)
	return id, true, nil
}

// Macros

// AllMacros returns a live, id-ordered view of every macro.
func (r *Repository) AllMacros(ctx context.Context) (*live.Subscription[[]*types.Macro], error) {
	return r.macros.GetAll(ctx)
}

// MacroByID returns the macro with id, or nil if there is none.
func (r *Repository) MacroByID(ctx context.Context, id int64) (*types.Macro, error) {
	return r.macros.GetByID(ctx, id)
}

// MacrosByIDs returns each existing macro named in ids once.
// Missing ids are skipped.
func (r *Repository) MacrosByIDs(ctx context.Context, ids []int64) ([]*types.Macro, error) {
	return r.macros.GetByIDs(ctx, ids)
}

// InsertMacro stores m and returns its newly assigned id.
func (r *Repository) InsertMacro(ctx context.Context, m *types.Macro) (int64, error) {
	return r.macros.Insert(ctx, m)
}

// UpdateMacro replaces the stored macro with m.
// Returns ErrNotFound if m.ID does not exist.
func (r *Repository) UpdateMacro(ctx context.Context, m *types.Macro) error {
	return r.macros.Update(ctx, m)
}

// DeleteMacro removes m. Deleting a missing macro is not an error.
func (r *Repository) DeleteMacro(ctx context.Context, m *types.Macro) error {
	return r.macros.Delete(ctx, m)
}

// DeleteMacroByID removes the macro with id, if any.
func (r *Repository) DeleteMacroByID(ctx context.Context, id int64) error {
	return r.macros.DeleteByID(ctx, id)
}

// SearchMacros returns a live view of macros whose name or description
// contains query. query is matched literally.
func (r *Repository) SearchMacros(ctx context.Context, query string) (*live.Subscription[[]*types.Macro], error) {
	return r.macros.Search(ctx, likePattern(query))
}
