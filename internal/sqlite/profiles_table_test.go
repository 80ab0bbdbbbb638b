package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/padkit/pkg/live"
	"github.com/mesh-intelligence/padkit/pkg/types"
)

func insertProfile(t *testing.T, b *Backend, name string, active bool) int64 {
	t.Helper()
	id, err := b.Profiles().Insert(t.Context(), &types.ControllerProfile{
		Name:        name,
		Description: name + " layout",
		IsActive:    active,
	})
	require.NoError(t, err)
	return id
}

func TestProfilesInsert(t *testing.T) {
	b := setupBackend(t)
	ctx := t.Context()

	p := &types.ControllerProfile{ID: 99, Name: "Racing", Description: "Wheel and pedals"}
	id, err := b.Profiles().Insert(ctx, p)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, id, p.ID, "Insert writes the assigned id back")
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)

	got, err := b.Profiles().GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Racing", got.Name)
	assert.Equal(t, "Wheel and pedals", got.Description)
	assert.False(t, got.IsActive)
	assert.Equal(t, p.CreatedAt, got.CreatedAt)
}

func TestProfilesInsertKeepsTimestamps(t *testing.T) {
	b := setupBackend(t)
	ctx := t.Context()

	created := time.Date(2025, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	updated := created.Add(time.Hour)
	id, err := b.Profiles().Insert(ctx, &types.ControllerProfile{
		Name: "Old", CreatedAt: created, UpdatedAt: updated,
	})
	require.NoError(t, err)

	got, err := b.Profiles().GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, updated, got.UpdatedAt)
}

func TestProfilesInsertValidation(t *testing.T) {
	b := setupBackend(t)

	tests := []struct {
		name    string
		profile *types.ControllerProfile
		wantErr error
	}{
		{"nil profile", nil, types.ErrInvalidData},
		{"empty name", &types.ControllerProfile{}, types.ErrInvalidName},
		{"name too long", &types.ControllerProfile{Name: string(make([]byte, 129))}, types.ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Profiles().Insert(t.Context(), tt.profile)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProfilesInsertIDsUnique(t *testing.T) {
	b := setupBackend(t)
	ctx := t.Context()

	seen := map[int64]bool{}
	var last int64
	for i := range 5 {
		id := insertProfile(t, b, "P", false)
		assert.False(t, seen[id], "id %d reused", id)
		seen[id] = true
		if i == 4 {
			last = id
		}
	}

	// Deleted ids are never reissued.
	require.NoError(t, b.Profiles().DeleteByID(ctx, last))
	next := insertProfile(t, b, "After delete", false)
	assert.Greater(t, next, last)
}

func TestProfilesGetByIDMissing(t *testing.T) {
	b := setupBackend(t)
	ctx := t.Context()

	for _, id := range []int64{-1, 0, 42} {
		got, err := b.Profiles().GetByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got, "id %d", id)
	}
}

func TestProfilesUpdate(t *testing.T) {
	b := setupBackend(t)
	ctx := t.Context()

	id := insertProfile(t, b, "FPS", false)
	p, err := b.Profiles().GetByID(ctx, id)
	require.NoError(t, err)

	p.Name = "FPS Low Sens"
	p.Description = "Lower stick curve"
	p.UpdatedAt = time.Time{}
	require.NoError(t, b.Profiles().Update(ctx, p))
	assert.False(t, p.UpdatedAt.IsZero(), "zero UpdatedAt is filled")

	got, err := b.Profiles().GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "FPS Low Sens", got.Name)
	assert.Equal(t, "Lower stick curve", got.Description)
	assert.Equal(t, p.CreatedAt, got.CreatedAt)
}

func TestProfilesUpdateMissing(t *testing.T) {
	b := setupBackend(t)

	err := b.Profiles().Update(t.Context(), &types.ControllerProfile{ID: 777, Name: "Ghost"})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestProfilesDeleteIdempotent(t *testing.T) {
	b := setupBackend(t)
	ctx := t.Context()

	id := insertProfile(t, b, "Temp", false)
	p, err := b.Profiles().GetByID(ctx, id)
	require.NoError(t, err)

	require.NoError(t, b.Profiles().Delete(ctx, p))
	require.NoError(t, b.Profiles().Delete(ctx, p))
	require.NoError(t, b.Profiles().DeleteByID(ctx, id))
	require.NoError(t, b.Profiles().DeleteByID(ctx, 12345))
	require.NoError(t, b.Profiles().Delete(ctx, nil))

	got, err := b.Profiles().GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProfilesSetActive(t *testing.T) {
	b := setupBackend(t)
	ctx := t.Context()

	a := insertProfile(t, b, "A", false)
	c := insertProfile(t, b, "C", false)

	require.NoError(t, b.Profiles().SetActive(ctx, a))
	active, err := b.Profiles().GetActive(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, a, active.ID)

	// Idempotent on the already-active row.
	require.NoError(t, b.Profiles().SetActive(ctx, a))

	// A second active row is rejected, leaving the first in place.
	err = b.Profiles().SetActive(ctx, c)
	assert.ErrorIs(t, err, types.ErrInvariantViolation)
	active, err = b.Profiles().GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, active.ID)

	// The two-step path works once the first row is cleared.
	require.NoError(t, b.Profiles().DeactivateAll(ctx))
	none, err := b.Profiles().GetActive(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, b.Profiles().SetActive(ctx, c))
	active, err = b.Profiles().GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, c, active.ID)

	assert.ErrorIs(t, b.Profiles().SetActive(ctx, 999), types.ErrNotFound)
}

func TestProfilesInsertSecondActiveRejected(t *testing.T) {
	b := setupBackend(t)
	ctx := t.Context()

	insertProfile(t, b, "First", true)
	_, err := b.Profiles().Insert(ctx, &types.ControllerProfile{Name: "Second", IsActive: true})
	assert.ErrorIs(t, err, types.ErrInvariantViolation)

	sub, err := b.Profiles().GetAll(ctx)
	require.NoError(t, err)
	all, err := live.First(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, []string{"First"}, profileNames(all))
}

func TestProfilesActivateExclusively(t *testing.T) {
	b := setupBackend(t)
	ctx := t.Context()

	a := insertProfile(t, b, "A", true)
	c := insertProfile(t, b, "C", false)

	require.NoError(t, b.Profiles().ActivateExclusively(ctx, c))

	pa, err := b.Profiles().GetByID(ctx, a)
	require.NoError(t, err)
	assert.False(t, pa.IsActive)
	active, err := b.Profiles().GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, c, active.ID)

	// Unknown id changes nothing.
	err = b.Profiles().ActivateExclusively(ctx, 4242)
	assert.ErrorIs(t, err, types.ErrNotFound)
	active, err = b.Profiles().GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, c, active.ID)
}

func TestProfilesActivateExclusivelyConcurrent(t *testing.T) {
	b := setupBackend(t)
	ctx := t.Context()

	ids := make([]int64, 8)
	for i := range ids {
		ids[i] = insertProfile(t, b, "P", false)
	}

	var wg sync.WaitGroup
	for range 4 {
		for _, id := range ids {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, b.Profiles().ActivateExclusively(ctx, id))
			}()
		}
	}
	wg.Wait()

	sub, err := b.Profiles().GetAll(ctx)
	require.NoError(t, err)
	all, err := live.First(ctx, sub)
	require.NoError(t, err)

	activeCount := 0
	for _, p := range all {
		if p.IsActive {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)
}

func TestProfilesGetActiveDetectsViolation(t *testing.T) {
	b := setupBackend(t)
	ctx := t.Context()

	// Bypass the guard to simulate a store written by something else.
	_, err := b.db.ExecContext(ctx, "DROP INDEX idx_profiles_single_active")
	require.NoError(t, err)
	insertProfile(t, b, "One", true)
	insertProfile(t, b, "Two", true)

	_, err = b.Profiles().GetActive(ctx)
	assert.ErrorIs(t, err, types.ErrInvariantViolation)

	sub, err := b.Profiles().GetActiveLive(ctx)
	require.NoError(t, err)
	defer sub.Cancel()
	select {
	case snap := <-sub.C():
		assert.ErrorIs(t, snap.Err, types.ErrInvariantViolation)
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot")
	}
}

func TestProfilesGetAllLive(t *testing.T) {
	b := setupBackend(t)
	ctx := t.Context()

	sub, err := b.Profiles().GetAll(ctx)
	require.NoError(t, err)
	defer sub.Cancel()

	first := waitFor(t, sub, func([]*types.ControllerProfile) bool { return true })
	assert.Empty(t, first)
	assert.NotNil(t, first)

	id := insertProfile(t, b, "Live", false)
	waitFor(t, sub, func(ps []*types.ControllerProfile) bool {
		return len(ps) == 1 && ps[0].ID == id
	})

	p, err := b.Profiles().GetByID(ctx, id)
	require.NoError(t, err)
	p.Name = "Live Renamed"
	require.NoError(t, b.Profiles().Update(ctx, p))
	waitFor(t, sub, func(ps []*types.ControllerProfile) bool {
		return len(ps) == 1 && ps[0].Name == "Live Renamed"
	})

	require.NoError(t, b.Profiles().DeleteByID(ctx, id))
	waitFor(t, sub, func(ps []*types.ControllerProfile) bool { return len(ps) == 0 })
}

func TestProfilesGetActiveLive(t *testing.T) {
	b := setupBackend(t)
	ctx := t.Context()

	a := insertProfile(t, b, "A", false)
	c := insertProfile(t, b, "C", false)

	sub, err := b.Profiles().GetActiveLive(ctx)
	require.NoError(t, err)
	defer sub.Cancel()

	waitFor(t, sub, func(p *types.ControllerProfile) bool { return p == nil })

	require.NoError(t, b.Profiles().ActivateExclusively(ctx, a))
	waitFor(t, sub, func(p *types.ControllerProfile) bool { return p != nil && p.ID == a })

	require.NoError(t, b.Profiles().ActivateExclusively(ctx, c))
	waitFor(t, sub, func(p *types.ControllerProfile) bool { return p != nil && p.ID == c })

	require.NoError(t, b.Profiles().DeactivateAll(ctx))
	waitFor(t, sub, func(p *types.ControllerProfile) bool { return p == nil })
}

func TestProfilesDetachClosesSubscriptions(t *testing.T) {
	b := setupBackend(t)
	ctx := t.Context()

	sub, err := b.Profiles().GetAll(ctx)
	require.NoError(t, err)
	waitFor(t, sub, func([]*types.ControllerProfile) bool { return true })

	require.NoError(t, b.Detach())

	_, err = sub.Next(ctx)
	assert.ErrorIs(t, err, live.ErrClosed)

	_, err = b.Profiles().GetAll(ctx)
	assert.ErrorIs(t, err, types.ErrStoreUnavailable)
}

func TestProfilesSearch(t *testing.T) {
	b := setupBackend(t)
	ctx := t.Context()

	for _, p := range []types.ControllerProfile{
		{Name: "Racing", Description: "Wheel and pedals"},
		{Name: "FPS", Description: "Low RACING sensitivity"},
		{Name: "Straße", Description: "Driving on city streets"},
		{Name: "100% Turbo", Description: "Rapid fire"},
		{Name: "1000 Turbo", Description: "Slow fire"},
		{Name: "snake_case", Description: ""},
		{Name: "snakeXcase", Description: ""},
	} {
		_, err := b.Profiles().Insert(ctx, &p)
		require.NoError(t, err)
	}

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"case-insensitive over name and description", "%racing%", []string{"Racing", "FPS"}},
		{"upper-case pattern", "%RACING%", []string{"Racing", "FPS"}},
		{"unicode folding", "%STRASSE%", []string{"Straße"}},
		{"escaped percent", `%100\%%`, []string{"100% Turbo"}},
		{"raw percent is a wildcard", "%100%", []string{"100% Turbo", "1000 Turbo"}},
		{"escaped underscore", `%snake\_case%`, []string{"snake_case"}},
		{"raw underscore is a wildcard", "%snake_case%", []string{"snake_case", "snakeXcase"}},
		{"match never spans name and description", "%racing%wheel%", []string{}},
		{"newline between fields does not match", "%racing\nwheel%", []string{}},
		{"no match", "%joystick%", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := b.Profiles().Search(t.Context(), tt.pattern)
			require.NoError(t, err)
			got, err := live.First(t.Context(), sub)
			require.NoError(t, err)
			assert.Equal(t, tt.want, profileNames(got))
		})
	}
}

func TestProfilesSearchLive(t *testing.T) {
	b := setupBackend(t)
	ctx := t.Context()

	sub, err := b.Profiles().Search(ctx, "%arcade%")
	require.NoError(t, err)
	defer sub.Cancel()

	waitFor(t, sub, func(ps []*types.ControllerProfile) bool { return len(ps) == 0 })
	insertProfile(t, b, "Arcade Stick", false)
	insertProfile(t, b, "Flight", false)
	got := waitFor(t, sub, func(ps []*types.ControllerProfile) bool { return len(ps) == 1 })
	assert.Equal(t, "Arcade Stick", got[0].Name)
}

func TestProfilesContextCancelled(t *testing.T) {
	b := setupBackend(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := b.Profiles().Insert(ctx, &types.ControllerProfile{Name: "Never"})
	assert.Error(t, err)

	all, err := b.profiles.queryProfiles(t.Context(), "")
	require.NoError(t, err)
	assert.Empty(t, all)
}
