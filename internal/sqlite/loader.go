package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/padkit/pkg/types"
)

// Export writes every profile and macro to profiles.jsonl and macros.jsonl in
// dir. Both tables are read in one transaction so the files agree with each
// other.
func (b *Backend) Export(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	var (
		profiles []*types.ControllerProfile
		macros   []*types.Macro
	)
	err := b.withRead(func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning export transaction: %w", err)
		}
		defer tx.Rollback()

		if profiles, err = selectProfiles(ctx, tx, ""); err != nil {
			return err
		}
		if macros, err = selectMacros(ctx, tx, ""); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return err
	}

	profileRecs := make([]profileJSON, len(profiles))
	for i, p := range profiles {
		profileRecs[i] = profileToJSON(p)
	}
	macroRecs := make([]macroJSON, len(macros))
	for i, m := range macros {
		macroRecs[i] = macroToJSON(m)
	}

	if err := exportFile(filepath.Join(dir, profilesFile), profileRecs); err != nil {
		return err
	}
	if err := exportFile(filepath.Join(dir, macrosFile), macroRecs); err != nil {
		return err
	}

	b.logger.Info("exported store", "dir", dir, "profiles", len(profiles), "macros", len(macros))
	return nil
}

func exportFile[T any](path string, values []T) error {
	records, err := marshalRecords(values)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := writeJSONL(path, records); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Import replaces the contents of both tables with the records in dir.
// Loading is transactional: either every valid record lands or nothing
// changes. Malformed lines and records that fail validation are skipped. A
// missing file counts as empty. Two active profiles abort the import with
// ErrInvariantViolation. Record ids are preserved.
func (b *Backend) Import(ctx context.Context, dir string) error {
	profileRecs, err := importFile(filepath.Join(dir, profilesFile))
	if err != nil {
		return err
	}
	macroRecs, err := importFile(filepath.Join(dir, macrosFile))
	if err != nil {
		return err
	}

	var loadedProfiles, loadedMacros int
	err = b.withWrite(ctx, []string{tableProfiles, tableMacros}, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM profiles"); err != nil {
			return fmt.Errorf("clearing profiles: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM macros"); err != nil {
			return fmt.Errorf("clearing macros: %w", err)
		}

		for _, rec := range profileRecs {
			var r profileJSON
			if err := json.Unmarshal(rec, &r); err != nil {
				continue
			}
			p := r.profile()
			if p.ID <= 0 || p.Validate() != nil {
				b.logger.Warn("skipping invalid profile record", "id", r.ID)
				continue
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO profiles (profile_id, name, description, is_active, name_fold, description_fold, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				p.ID, p.Name, p.Description, boolToInt(p.IsActive), foldText(p.Name), foldText(p.Description),
				r.CreatedAt, r.UpdatedAt,
			)
			if isSingleActiveViolation(err) {
				return fmt.Errorf("loading %s: %w", profilesFile, types.ErrInvariantViolation)
			}
			if err != nil {
				b.logger.Warn("skipping profile record", "id", r.ID, "error", err)
				continue
			}
			loadedProfiles++
		}

		for _, rec := range macroRecs {
			var r macroJSON
			if err := json.Unmarshal(rec, &r); err != nil {
				continue
			}
			m := r.macro()
			if m.ID <= 0 || m.Validate() != nil {
				b.logger.Warn("skipping invalid macro record", "id", r.ID)
				continue
			}
			events, err := encodeEvents(m.Events)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO macros (macro_id, name, description, events, name_fold, description_fold, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				m.ID, m.Name, m.Description, events, foldText(m.Name), foldText(m.Description),
				r.CreatedAt, r.UpdatedAt,
			)
			if err != nil {
				b.logger.Warn("skipping macro record", "id", r.ID, "error", err)
				continue
			}
			loadedMacros++
		}
		return nil
	})
	if err != nil {
		return err
	}

	b.logger.Info("imported store", "dir", dir, "profiles", loadedProfiles, "macros", loadedMacros)
	return nil
}

// importFile reads a JSONL file, treating a missing file as empty.
func importFile(path string) ([]json.RawMessage, error) {
	records, err := readJSONL(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return records, nil
}
