package sqlxrepos

import (
	"testing"

	"github.com/trezcool/tarajali/core"
)

func TestOrderBy(t *testing.T) {
	allowed := map[string]string{
		"name":       "name",
		"created_at": "s.created_at",
	}

	tests := []struct {
		name     string
		ordering []core.DBOrdering
		expected string
	}{
		{"nil ordering", nil, ""},
		{"ascending", []core.DBOrdering{{Field: "name", Ascending: true}}, " ORDER BY name ASC"},
		{"descending", []core.DBOrdering{{Field: "name"}}, " ORDER BY name DESC"},
		{"aliased column", []core.DBOrdering{{Field: "created_at", Ascending: true}}, " ORDER BY s.created_at ASC"},
		{
			"multiple fields",
			[]core.DBOrdering{{Field: "name", Ascending: true}, {Field: "created_at"}},
			" ORDER BY name ASC, s.created_at DESC",
		},
		{"unknown field dropped", []core.DBOrdering{{Field: "password_hash"}}, ""},
		{
			"unknown field dropped among known",
			[]core.DBOrdering{{Field: "name; DROP TABLE student", Ascending: true}, {Field: "name"}},
			" ORDER BY name DESC",
		},
		{
			"sql in field never interpolated",
			[]core.DBOrdering{{Field: "(SELECT password_hash FROM \"user\")"}},
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := orderBy(tt.ordering, allowed); got != tt.expected {
				t.Errorf("orderBy() = %q; expected %q", got, tt.expected)
			}
		})
	}
}
