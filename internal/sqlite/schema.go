package sqlite

import (
	"database/sql"
	"fmt"
)

// Table names double as live-query topics.
const (
	tableProfiles = "profiles"
	tableMacros   = "macros"
)

// Schema DDL. AUTOINCREMENT keeps deleted ids from ever being reissued.
const (
	createProfiles = `CREATE TABLE IF NOT EXISTS profiles (
    profile_id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    is_active INTEGER NOT NULL DEFAULT 0 CHECK (is_active IN (0, 1)),
    name_fold TEXT NOT NULL,
    description_fold TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);`

	createMacros = `CREATE TABLE IF NOT EXISTS macros (
    macro_id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    events TEXT NOT NULL DEFAULT '[]',
    name_fold TEXT NOT NULL,
    description_fold TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);`
)

// Index DDL. idxProfilesSingleActive makes a second active row a constraint
// failure, so no write path can break exclusivity.
const (
	idxProfilesSingleActive = `CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_single_active
    ON profiles(is_active) WHERE is_active = 1;`
	idxProfilesName = `CREATE INDEX IF NOT EXISTS idx_profiles_name ON profiles(name);`
	idxMacrosName   = `CREATE INDEX IF NOT EXISTS idx_macros_name ON macros(name);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createProfiles,
	createMacros,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxProfilesSingleActive,
	idxProfilesName,
	idxMacrosName,
}

// applySchema creates missing tables and indexes in one transaction.
func applySchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", firstLine(stmt), err)
		}
	}
	return tx.Commit()
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
