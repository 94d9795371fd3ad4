package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseBasicSchema(t *testing.T) {
	defs := parseFixture(t, "basic.sql")
	want := []*TableDef{
		{
			Name: "users",
			Columns: []ColumnDef{
				{Name: "id", Type: "INTEGER", InlinePrimaryKey: true},
				{Name: "name", Type: "VARCHAR(10)", Constraints: "NOT NULL"},
				{Name: "balance", Type: "DECIMAL(10,2)", Constraints: "DEFAULT 0"},
			},
		},
		{
			Name: "orders",
			Columns: []ColumnDef{
				{Name: "id", Type: "INTEGER", InlinePrimaryKey: true},
				{Name: "user_id", Type: "INTEGER", Constraints: "NOT NULL"},
				{Name: "note", Type: "TEXT"},
			},
			ForeignKeys: []ForeignKeyDef{
				{
					Name:       "fk_orders_user",
					Columns:    []string{"user_id"},
					RefTable:   "users",
					RefColumns: []string{"id"},
				},
			},
		},
	}
	if diff := cmp.Diff(want, defs); diff != "" {
		t.Fatalf("parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCompositeKeys(t *testing.T) {
	defs := parseFixture(t, "composite.sql")
	if len(defs) != 1 {
		t.Fatalf("got %d tables, want 1", len(defs))
	}
	def := defs[0]
	if def.PrimaryKey == nil {
		t.Fatalf("expected table-level primary key")
	}
	wantPK := []string{"user_id", "group_id"}
	if diff := cmp.Diff(wantPK, def.PrimaryKey.Columns); diff != "" {
		t.Fatalf("primary key mismatch (-want +got):\n%s", diff)
	}
	if len(def.ForeignKeys) != 1 {
		t.Fatalf("got %d foreign keys, want 1", len(def.ForeignKeys))
	}
	fk := def.ForeignKeys[0]
	if fk.Name != "" {
		t.Fatalf("unnamed foreign key should keep empty name, got %q", fk.Name)
	}
	if fk.RefTable != "grants" {
		t.Fatalf("ref table = %q, want grants", fk.RefTable)
	}
	if diff := cmp.Diff([]string{"user_id", "group_id"}, fk.RefColumns); diff != "" {
		t.Fatalf("ref columns mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSkipsOtherStatements(t *testing.T) {
	defs := parseFixture(t, "mixed.sql")
	if len(defs) != 1 {
		t.Fatalf("got %d tables, want 1", len(defs))
	}
	if defs[0].Name != "users" {
		t.Fatalf("table name = %q, want users", defs[0].Name)
	}
	if len(defs[0].Columns) != 1 || !defs[0].Columns[0].InlinePrimaryKey {
		t.Fatalf("expected single inline primary key column, got %+v", defs[0].Columns)
	}
}

func TestParseQuotedIdentifiers(t *testing.T) {
	sql := "CREATE TABLE \"user accounts\" ([id] INTEGER, `display name` TEXT NOT NULL);"
	defs, err := Parse("quoted.sql", []byte(sql))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("got %d tables, want 1", len(defs))
	}
	def := defs[0]
	if def.Name != "user accounts" {
		t.Fatalf("table name = %q, want %q", def.Name, "user accounts")
	}
	if def.Columns[0].Name != "id" {
		t.Fatalf("first column = %q, want id", def.Columns[0].Name)
	}
	if def.Columns[1].Name != "display name" {
		t.Fatalf("second column = %q, want %q", def.Columns[1].Name, "display name")
	}
}

func TestParseInlinePrimaryKeyRemovedFromConstraints(t *testing.T) {
	sql := "CREATE TABLE t (id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT);"
	defs, err := Parse("t.sql", []byte(sql))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	col := defs[0].Columns[0]
	if !col.InlinePrimaryKey {
		t.Fatalf("inline primary key not detected")
	}
	if col.Constraints != "NOT NULL AUTOINCREMENT" {
		t.Fatalf("constraints = %q, want marker removed", col.Constraints)
	}
}

func TestParseTableLevelPrimaryKeyLastWins(t *testing.T) {
	sql := "CREATE TABLE t (a INTEGER, b INTEGER, PRIMARY KEY (a), PRIMARY KEY (b));"
	defs, err := Parse("t.sql", []byte(sql))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pk := defs[0].PrimaryKey
	if pk == nil || len(pk.Columns) != 1 || pk.Columns[0] != "b" {
		t.Fatalf("primary key = %+v, want the later clause to win", pk)
	}
}

func TestParseEmptyPrimaryKeyClause(t *testing.T) {
	sql := "CREATE TABLE t (a INTEGER, PRIMARY KEY ());"
	defs, err := Parse("t.sql", []byte(sql))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pk := defs[0].PrimaryKey
	if pk == nil {
		t.Fatalf("expected primary key clause to be recorded")
	}
	if len(pk.Columns) != 0 {
		t.Fatalf("primary key columns = %v, want empty", pk.Columns)
	}
}

func TestParseDropsUnusableClauses(t *testing.T) {
	cases := []struct {
		name string
		sql  string
	}{
		{name: "single token clause", sql: "CREATE TABLE t (a INTEGER, b);"},
		{name: "malformed foreign key", sql: "CREATE TABLE t (a INTEGER, FOREIGN KEY (a) REFERENCES);"},
		{name: "foreign key missing ref columns", sql: "CREATE TABLE t (a INTEGER, FOREIGN KEY (a) REFERENCES other);"},
		{name: "check constraint", sql: "CREATE TABLE t (a INTEGER, CONSTRAINT positive CHECK (a > 0));"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			defs, err := Parse("t.sql", []byte(tc.sql))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			def := defs[0]
			if len(def.Columns) != 1 || def.Columns[0].Name != "a" {
				t.Fatalf("columns = %+v, want only column a", def.Columns)
			}
			if len(def.ForeignKeys) != 0 {
				t.Fatalf("foreign keys = %+v, want none", def.ForeignKeys)
			}
		})
	}
}

func TestParseEmptyInput(t *testing.T) {
	defs, err := Parse("empty.sql", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 0 {
		t.Fatalf("got %d tables, want 0", len(defs))
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name    string
		sql     string
		message string
	}{
		{name: "missing table name", sql: "CREATE TABLE (id INTEGER);", message: "expected table name after CREATE TABLE"},
		{name: "missing body", sql: "CREATE TABLE t id INTEGER;", message: "expected ( after table name t"},
		{name: "unbalanced parentheses", sql: "CREATE TABLE t (id INTEGER", message: "unbalanced parentheses in CREATE TABLE t"},
		{name: "unterminated string", sql: "CREATE TABLE t (a TEXT DEFAULT 'oops);", message: "unterminated string literal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			defs, err := Parse("bad.sql", []byte(tc.sql))
			if err == nil {
				t.Fatalf("expected error, got %+v", defs)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if parseErr.Message != tc.message {
				t.Fatalf("message = %q, want %q", parseErr.Message, tc.message)
			}
			if parseErr.Path != "bad.sql" || parseErr.Line < 1 || parseErr.Column < 1 {
				t.Fatalf("position missing from error: %+v", parseErr)
			}
		})
	}
}

func BenchmarkParseBasic(b *testing.B) {
	src := readFile(b, fixturePath("basic.sql"))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Parse("basic.sql", src); err != nil {
			b.Fatalf("parse failed: %v", err)
		}
	}
}

func parseFixture(t *testing.T, filename string) []*TableDef {
	t.Helper()
	path := fixturePath(filename)
	defs, err := Parse(path, readFile(t, path))
	if err != nil {
		t.Fatalf("parse %s: %v", filename, err)
	}
	return defs
}

func fixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

func readFile(tb testing.TB, path string) []byte {
	tb.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("read %s: %v", path, err)
	}
	return data
}
