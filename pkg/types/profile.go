package types

import "time"

// Default profile values used for first-run bootstrap.
const (
	DefaultProfileName        = "Default Profile"
	DefaultProfileDescription = "Default controller configuration"
)

// ControllerProfile is a named controller configuration. At most one profile
// in a store may be active.
type ControllerProfile struct {
	ID          int64     `json:"id"`                              // Assigned by the store on insert; 0 means unpersisted.
	Name        string    `json:"name" validate:"required,max=128"` // Display name (required, non-empty).
	Description string    `json:"description" validate:"max=1024"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Persisted reports whether the profile has been assigned an id by a store.
func (p *ControllerProfile) Persisted() bool {
	return p.ID > 0
}

// Duplicate returns an unpersisted, inactive copy of the profile named name,
// with both timestamps set to now. The receiver is not modified.
func (p *ControllerProfile) Duplicate(name string, now time.Time) *ControllerProfile {
	cp := *p
	cp.ID = 0
	cp.Name = name
	cp.IsActive = false
	cp.CreatedAt = now
	cp.UpdatedAt = now
	return &cp
}

// Touch sets UpdatedAt to now. Callers use it before Update.
func (p *ControllerProfile) Touch(now time.Time) {
	p.UpdatedAt = now
}
