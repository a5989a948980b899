package query_test

import (
	"testing"

	"github.com/mickamy/cqlcore/query"
)

func TestBind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cql  string
		args []string
		want string
	}{
		{"no args", "SELECT * FROM users", nil, "SELECT * FROM users"},
		{"string arg quoted", "WHERE name = ?", []string{"alice"}, "WHERE name = 'alice'"},
		{"numeric arg bare", "WHERE id = ?", []string{"42"}, "WHERE id = 42"},
		{"boolean and null bare", "SET a = ?, b = ?", []string{"true", "null"}, "SET a = true, b = null"},
		{"quote escaped", "WHERE name = ?", []string{"it's"}, "WHERE name = 'it''s'"},
		{"more placeholders than args", "WHERE a = ? AND b = ?", []string{"1"}, "WHERE a = 1 AND b = ?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := query.Bind(tt.cql, tt.args); got != tt.want {
				t.Errorf("Bind(%q, %v)\n got  %q\n want %q", tt.cql, tt.args, got, tt.want)
			}
		})
	}
}
