package sqlxrepos

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/tarajali/core"
)

// ext resolves the executor for a call: the transaction handed down by the
// service when there is one, the repository's pooled connection otherwise.
func ext(db *sqlx.DB, exec []core.DBExecutor) sqlx.ExtContext {
	if len(exec) > 0 {
		if e, ok := exec[0].(sqlx.ExtContext); ok {
			return e
		}
	}
	return db
}

// orderBy builds an ORDER BY clause from the requested ordering. Only fields
// present in allowed make it into the SQL; the map value is the column
// expression to sort on. Unknown fields are dropped, never interpolated.
func orderBy(ordering []core.DBOrdering, allowed map[string]string) string {
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := allowed[ord.Field]
		if !ok {
			continue
		}
		direction := "DESC"
		if ord.Ascending {
			direction = "ASC"
		}
		clauses = append(clauses, col+" "+direction)
	}
	if len(clauses) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}
