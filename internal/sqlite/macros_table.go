package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/padkit/pkg/live"
	"github.com/mesh-intelligence/padkit/pkg/types"
)

// Compile-time interface check: macrosTable must implement MacroStore.
var _ types.MacroStore = (*macrosTable)(nil)

const macroColumns = "macro_id, name, description, events, created_at, updated_at"

// maxIDsPerQuery bounds the IN list of a single GetByIDs statement.
const maxIDsPerQuery = 500

// macrosTable implements types.MacroStore. Events are kept as a JSON array.
type macrosTable struct {
	backend *Backend
}

func hydrateMacro(row rowScanner) (*types.Macro, error) {
	var (
		m                    types.Macro
		eventsJSON           string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&m.ID, &m.Name, &m.Description, &eventsJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(eventsJSON), &m.Events); err != nil {
		return nil, fmt.Errorf("parsing macro %d events: %w", m.ID, err)
	}
	if m.Events == nil {
		m.Events = []types.InputEvent{}
	}
	m.CreatedAt = fromMillis(createdAt)
	m.UpdatedAt = fromMillis(updatedAt)
	return &m, nil
}

func encodeEvents(events []types.InputEvent) (string, error) {
	if events == nil {
		events = []types.InputEvent{}
	}
	b, err := json.Marshal(events)
	if err != nil {
		return "", fmt.Errorf("encoding macro events: %w", err)
	}
	return string(b), nil
}

// selectMacros runs a SELECT over macros and hydrates every row in id order.
func selectMacros(ctx context.Context, q queryer, where string, args ...any) ([]*types.Macro, error) {
	query := "SELECT " + macroColumns + " FROM macros"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY macro_id ASC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying macros: %w", err)
	}
	defer rows.Close()

	out := []*types.Macro{}
	for rows.Next() {
		m, err := hydrateMacro(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning macro: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating macros: %w", err)
	}
	return out, nil
}

func (mt *macrosTable) queryMacros(ctx context.Context, where string, args ...any) ([]*types.Macro, error) {
	var out []*types.Macro
	err := mt.backend.withRead(func(db *sql.DB) error {
		var err error
		out, err = selectMacros(ctx, db, where, args...)
		return err
	})
	return out, err
}

// GetAll returns a live, id-ordered view of every macro.
func (mt *macrosTable) GetAll(ctx context.Context) (*live.Subscription[[]*types.Macro], error) {
	return watch(ctx, mt.backend, tableMacros, func(ctx context.Context) ([]*types.Macro, error) {
		return mt.queryMacros(ctx, "")
	})
}

// GetByID returns the macro, or nil if no row has that id.
func (mt *macrosTable) GetByID(ctx context.Context, id int64) (*types.Macro, error) {
	var m *types.Macro
	err := mt.backend.withRead(func(db *sql.DB) error {
		if id <= 0 {
			return nil
		}
		row := db.QueryRowContext(ctx, "SELECT "+macroColumns+" FROM macros WHERE macro_id = ?", id)
		var err error
		m, err = hydrateMacro(row)
		if errors.Is(err, sql.ErrNoRows) {
			m = nil
			return nil
		}
		if err != nil {
			return fmt.Errorf("getting macro %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetByIDs returns every stored macro whose id is in ids, each once, in
// ascending id order. Duplicate and missing ids are ignored.
func (mt *macrosTable) GetByIDs(ctx context.Context, ids []int64) ([]*types.Macro, error) {
	unique := slices.Clone(ids)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	out := []*types.Macro{}
	err := mt.backend.withRead(func(db *sql.DB) error {
		for chunk := range slices.Chunk(unique, maxIDsPerQuery) {
			placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(chunk)), ", ")
			args := make([]any, len(chunk))
			for i, id := range chunk {
				args[i] = id
			}
			found, err := selectMacros(ctx, db, "macro_id IN ("+placeholders+")", args...)
			if err != nil {
				return err
			}
			out = append(out, found...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Insert assigns a fresh id, persists the macro, and returns the id.
func (mt *macrosTable) Insert(ctx context.Context, m *types.Macro) (int64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	events, err := encodeEvents(m.Events)
	if err != nil {
		return 0, err
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = nowMillis()
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}

	var id int64
	err = mt.backend.withWrite(ctx, []string{tableMacros}, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO macros (name, description, events, name_fold, description_fold, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			m.Name, m.Description, events, foldText(m.Name), foldText(m.Description),
			toMillis(m.CreatedAt), toMillis(m.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting macro: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading macro id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	m.ID = id
	return id, nil
}

// Update replaces the row matching m.ID. Returns ErrNotFound if it does not
// exist.
func (mt *macrosTable) Update(ctx context.Context, m *types.Macro) error {
	if err := m.Validate(); err != nil {
		return err
	}
	events, err := encodeEvents(m.Events)
	if err != nil {
		return err
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = nowMillis()
	}
	return mt.backend.withWrite(ctx, []string{tableMacros}, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE macros
			 SET name = ?, description = ?, events = ?, name_fold = ?, description_fold = ?, created_at = ?, updated_at = ?
			 WHERE macro_id = ?`,
			m.Name, m.Description, events, foldText(m.Name), foldText(m.Description),
			toMillis(m.CreatedAt), toMillis(m.UpdatedAt), m.ID,
		)
		if err != nil {
			return fmt.Errorf("updating macro %d: %w", m.ID, err)
		}
		return requireAffected(res, "macro", m.ID)
	})
}

// Delete removes the macro with m.ID. Idempotent.
func (mt *macrosTable) Delete(ctx context.Context, m *types.Macro) error {
	if m == nil {
		return nil
	}
	return mt.DeleteByID(ctx, m.ID)
}

// DeleteByID removes the macro. Missing ids are not an error.
func (mt *macrosTable) DeleteByID(ctx context.Context, id int64) error {
	return mt.backend.withWrite(ctx, []string{tableMacros}, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM macros WHERE macro_id = ?", id); err != nil {
			return fmt.Errorf("deleting macro %d: %w", id, err)
		}
		return nil
	})
}

// Search returns a live view of macros whose name or description match
// pattern, case-insensitively.
func (mt *macrosTable) Search(ctx context.Context, pattern string) (*live.Subscription[[]*types.Macro], error) {
	folded := foldText(pattern)
	return watch(ctx, mt.backend, tableMacros, func(ctx context.Context) ([]*types.Macro, error) {
		return mt.queryMacros(ctx, likeClause, folded, folded)
	})
}
