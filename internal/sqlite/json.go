package sqlite

import "github.com/mesh-intelligence/padkit/pkg/types"

// JSON record structures for profiles.jsonl and macros.jsonl. Timestamps are
// milliseconds since the Unix epoch, matching the table columns.

// profileJSON represents a profile in profiles.jsonl.
type profileJSON struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// macroJSON represents a macro in macros.jsonl.
type macroJSON struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Events      []types.InputEvent `json:"events"`
	CreatedAt   int64              `json:"created_at"`
	UpdatedAt   int64              `json:"updated_at"`
}

func profileToJSON(p *types.ControllerProfile) profileJSON {
	return profileJSON{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		IsActive:    p.IsActive,
		CreatedAt:   toMillis(p.CreatedAt),
		UpdatedAt:   toMillis(p.UpdatedAt),
	}
}

func (r profileJSON) profile() *types.ControllerProfile {
	return &types.ControllerProfile{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
		CreatedAt:   fromMillis(r.CreatedAt),
		UpdatedAt:   fromMillis(r.UpdatedAt),
	}
}

func macroToJSON(m *types.Macro) macroJSON {
	return macroJSON{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Events:      m.Events,
		CreatedAt:   toMillis(m.CreatedAt),
		UpdatedAt:   toMillis(m.UpdatedAt),
	}
}

func (r macroJSON) macro() *types.Macro {
	return &types.Macro{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Events:      r.Events,
		CreatedAt:   fromMillis(r.CreatedAt),
		UpdatedAt:   fromMillis(r.UpdatedAt),
	}
}
