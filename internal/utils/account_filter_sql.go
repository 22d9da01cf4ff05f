package utils

import (
	"fmt"
	"strings"

	"github.com/geocoder89/medid/internal/domain/account"
	"github.com/google/uuid"
)

// Placeholder renders the n-th (1-based) bind parameter of a SQL dialect.
type Placeholder func(n int) string

func DollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

// NumberedPlaceholder is SQLite's ?NNN form, which lets one argument be referenced twice.
func NumberedPlaceholder(n int) string { return fmt.Sprintf("?%d", n) }

// LikePattern escapes LIKE wildcards with a backslash and wraps the lower-cased
// needle for a substring match.
func LikePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(search))) + "%"
}

// searchColumns are matched by the free-text account search.
var searchColumns = []string{"first_name", "last_name", "email", "hospital_name", "lab_name"}

// BuildAccountWhere renders the filter as a WHERE clause (empty when there is nothing to filter)
// and its arguments. Parameters are numbered from 1.
func BuildAccountWhere(f account.Filter, ph Placeholder) (string, []any) {
	var conds []string
	var args []any
	pos := 1

	if f.Role != nil {
		conds = append(conds, "role = "+ph(pos))
		args = append(args, string(*f.Role))
		pos++
	}

	if f.IsActive != nil {
		conds = append(conds, "is_active = "+ph(pos))
		args = append(args, *f.IsActive)
		pos++
	}

	if f.Search != nil && strings.TrimSpace(*f.Search) != "" {
		p := ph(pos)
		ors := make([]string, 0, len(searchColumns))
		for _, col := range searchColumns {
			ors = append(ors, fmt.Sprintf(`LOWER(%s) LIKE %s ESCAPE '\'`, col, p))
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
		args = append(args, LikePattern(*f.Search))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// IsUUID reports whether s is a canonical UUID string.
func IsUUID(s string) bool {
	return uuid.Validate(s) == nil
}
