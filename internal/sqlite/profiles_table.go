package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/padkit/pkg/live"
	"github.com/mesh-intelligence/padkit/pkg/types"
)

// Compile-time interface check: profilesTable must implement ProfileStore.
var _ types.ProfileStore = (*profilesTable)(nil)

const profileColumns = "profile_id, name, description, is_active, created_at, updated_at"

// profilesTable implements types.ProfileStore. Every write commits in its own
// transaction and then signals the profiles topic.
type profilesTable struct {
	backend *Backend
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func hydrateProfile(row rowScanner) (*types.ControllerProfile, error) {
	var (
		p                    types.ControllerProfile
		active               int
		createdAt, updatedAt int64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.IsActive = active == 1
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return &p, nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// selectProfiles runs a SELECT over profiles and hydrates every row in id
// order. It never returns a nil slice on success.
func selectProfiles(ctx context.Context, q queryer, where string, args ...any) ([]*types.ControllerProfile, error) {
	query := "SELECT " + profileColumns + " FROM profiles"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY profile_id ASC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying profiles: %w", err)
	}
	defer rows.Close()

	out := []*types.ControllerProfile{}
	for rows.Next() {
		p, err := hydrateProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profiles: %w", err)
	}
	return out, nil
}

func (pt *profilesTable) queryProfiles(ctx context.Context, where string, args ...any) ([]*types.ControllerProfile, error) {
	var out []*types.ControllerProfile
	err := pt.backend.withRead(func(db *sql.DB) error {
		var err error
		out, err = selectProfiles(ctx, db, where, args...)
		return err
	})
	return out, err
}

// GetAll returns a live, id-ordered view of every profile.
func (pt *profilesTable) GetAll(ctx context.Context) (*live.Subscription[[]*types.ControllerProfile], error) {
	return watch(ctx, pt.backend, tableProfiles, func(ctx context.Context) ([]*types.ControllerProfile, error) {
		return pt.queryProfiles(ctx, "")
	})
}

// GetByID returns the profile, or nil if no row has that id.
func (pt *profilesTable) GetByID(ctx context.Context, id int64) (*types.ControllerProfile, error) {
	var p *types.ControllerProfile
	err := pt.backend.withRead(func(db *sql.DB) error {
		if id <= 0 {
			return nil
		}
		row := db.QueryRowContext(ctx,
			"SELECT "+profileColumns+" FROM profiles WHERE profile_id = ?", id)
		var err error
		p, err = hydrateProfile(row)
		if errors.Is(err, sql.ErrNoRows) {
			p = nil
			return nil
		}
		if err != nil {
			return fmt.Errorf("getting profile %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetActive returns the active profile or nil. More than one active row is
// reported as ErrInvariantViolation rather than resolved.
func (pt *profilesTable) GetActive(ctx context.Context) (*types.ControllerProfile, error) {
	active, err := pt.queryProfiles(ctx, "is_active = 1")
	if err != nil {
		return nil, err
	}
	switch len(active) {
	case 0:
		return nil, nil
	case 1:
		return active[0], nil
	default:
		pt.backend.logger.Error("multiple active profiles", "count", len(active))
		return nil, fmt.Errorf("%w: found %d", types.ErrInvariantViolation, len(active))
	}
}

// GetActiveLive is the live variant of GetActive.
func (pt *profilesTable) GetActiveLive(ctx context.Context) (*live.Subscription[*types.ControllerProfile], error) {
	return watch(ctx, pt.backend, tableProfiles, pt.GetActive)
}

// Insert assigns a fresh id, persists the profile, and returns the id.
// Zero timestamps are filled with the current time.
func (pt *profilesTable) Insert(ctx context.Context, p *types.ControllerProfile) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = nowMillis()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	var id int64
	err := pt.backend.withWrite(ctx, []string{tableProfiles}, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO profiles (name, description, is_active, name_fold, description_fold, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.Name, p.Description, boolToInt(p.IsActive), foldText(p.Name), foldText(p.Description),
			toMillis(p.CreatedAt), toMillis(p.UpdatedAt),
		)
		if err != nil {
			return wrapActiveErr("inserting profile", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading profile id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	p.ID = id
	return id, nil
}

// Update replaces the row matching p.ID. Returns ErrNotFound if it does not
// exist. A zero UpdatedAt is set to now.
func (pt *profilesTable) Update(ctx context.Context, p *types.ControllerProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = nowMillis()
	}
	return pt.backend.withWrite(ctx, []string{tableProfiles}, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE profiles
			 SET name = ?, description = ?, is_active = ?, name_fold = ?, description_fold = ?, created_at = ?, updated_at = ?
			 WHERE profile_id = ?`,
			p.Name, p.Description, boolToInt(p.IsActive), foldText(p.Name), foldText(p.Description),
			toMillis(p.CreatedAt), toMillis(p.UpdatedAt), p.ID,
		)
		if err != nil {
			return wrapActiveErr(fmt.Sprintf("updating profile %d", p.ID), err)
		}
		return requireAffected(res, "profile", p.ID)
	})
}

// Delete removes the profile with p.ID. Idempotent.
func (pt *profilesTable) Delete(ctx context.Context, p *types.ControllerProfile) error {
	if p == nil {
		return nil
	}
	return pt.DeleteByID(ctx, p.ID)
}

// DeleteByID removes the profile. Missing ids are not an error.
func (pt *profilesTable) DeleteByID(ctx context.Context, id int64) error {
	return pt.backend.withWrite(ctx, []string{tableProfiles}, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM profiles WHERE profile_id = ?", id); err != nil {
			return fmt.Errorf("deleting profile %d: %w", id, err)
		}
		return nil
	})
}

// SetActive marks one profile active and leaves every other row alone. If
// another profile is already active the write is rejected with
// ErrInvariantViolation.
func (pt *profilesTable) SetActive(ctx context.Context, id int64) error {
	return pt.backend.withWrite(ctx, []string{tableProfiles}, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE profiles SET is_active = 1 WHERE profile_id = ?", id)
		if err != nil {
			return wrapActiveErr(fmt.Sprintf("activating profile %d", id), err)
		}
		return requireAffected(res, "profile", id)
	})
}

// DeactivateAll clears the active flag on every profile.
func (pt *profilesTable) DeactivateAll(ctx context.Context) error {
	return pt.backend.withWrite(ctx, []string{tableProfiles}, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "UPDATE profiles SET is_active = 0 WHERE is_active = 1"); err != nil {
			return fmt.Errorf("deactivating profiles: %w", err)
		}
		return nil
	})
}

// ActivateExclusively deactivates every other profile and activates id in
// one transaction. Returns ErrNotFound, with nothing changed, if id is
// unknown.
func (pt *profilesTable) ActivateExclusively(ctx context.Context, id int64) error {
	return pt.backend.withWrite(ctx, []string{tableProfiles}, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM profiles WHERE profile_id = ?", id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("profile %d: %w", id, types.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("checking profile existence: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE profiles SET is_active = 0 WHERE is_active = 1 AND profile_id != ?", id); err != nil {
			return fmt.Errorf("deactivating profiles: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE profiles SET is_active = 1 WHERE profile_id = ?", id); err != nil {
			return wrapActiveErr(fmt.Sprintf("activating profile %d", id), err)
		}
		return nil
	})
}

// Search returns a live view of profiles whose name or description match
// pattern. Both sides are case-folded before comparison.
func (pt *profilesTable) Search(ctx context.Context, pattern string) (*live.Subscription[[]*types.ControllerProfile], error) {
	folded := foldText(pattern)
	return watch(ctx, pt.backend, tableProfiles, func(ctx context.Context) ([]*types.ControllerProfile, error) {
		return pt.queryProfiles(ctx, likeClause, folded, folded)
	})
}

// requireAffected returns ErrNotFound when an UPDATE matched no rows.
func requireAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, types.ErrNotFound)
	}
	return nil
}
