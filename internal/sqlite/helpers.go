package sqlite

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/padkit/pkg/types"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// nowMillis returns the current time truncated to what the store keeps.
func nowMillis() time.Time {
	return fromMillis(toMillis(time.Now()))
}

// foldText returns the case-folded form used for search columns and
// patterns. A Caser is stateful, so each call builds its own.
func foldText(s string) string {
	return cases.Fold().String(s)
}

// likeClause matches a folded pattern against name_fold and description_fold
// separately, so a match never spans both fields. The pattern is bound twice
// and built by the caller; backslash is its escape character.
const likeClause = `(name_fold LIKE ? ESCAPE '\' OR description_fold LIKE ? ESCAPE '\')`

// isSingleActiveViolation reports whether err came from the unique index
// that guards profile exclusivity.
func isSingleActiveViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE {
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, "profiles.is_active")
}

// wrapActiveErr maps a single-active constraint failure to
// ErrInvariantViolation and wraps anything else with context.
func wrapActiveErr(op string, err error) error {
	if isSingleActiveViolation(err) {
		return fmt.Errorf("%s: %w", op, types.ErrInvariantViolation)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
