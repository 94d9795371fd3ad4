// Package ast maps raw parse results onto the normalized schema model.
package ast

import (
	"fmt"

	"github.com/reltools/reltools/internal/schema/model"
	"github.com/reltools/reltools/internal/schema/parser"
)

// MalformedInputError reports an intermediate parse result missing a field
// required for schema construction. It indicates a bug in the producer of the
// raw definitions rather than bad DDL, and is surfaced immediately.
type MalformedInputError struct {
	Message string
}

func (e *MalformedInputError) Error() string {
	return "malformed parse result: " + e.Message
}

func malformedf(format string, args ...any) error {
	return &MalformedInputError{Message: fmt.Sprintf(format, args...)}
}

// Build constructs a Schema from raw table definitions, preserving
// declaration order throughout. No referential validation happens here;
// duplicate names and dangling foreign keys build fine and are reported by
// the validator.
//
// The primary key is taken from the table-level clause when one was declared;
// otherwise it is collected from inline-marked columns in declaration order.
func Build(defs []*parser.TableDef) (*model.Schema, error) {
	schema := &model.Schema{Tables: make([]*model.Table, 0, len(defs))}
	for i, def := range defs {
		if def == nil {
			return nil, malformedf("table definition at index %d is nil", i)
		}
		table, err := buildTable(def)
		if err != nil {
			return nil, err
		}
		schema.Tables = append(schema.Tables, table)
	}
	return schema, nil
}

func buildTable(def *parser.TableDef) (*model.Table, error) {
	if def.Name == "" {
		return nil, malformedf("table definition has empty name")
	}
	table := &model.Table{Name: def.Name}

	var inline []string
	for _, col := range def.Columns {
		if col.Name == "" {
			return nil, malformedf("table %q has a column with empty name", def.Name)
		}
		table.Columns = append(table.Columns, &model.Column{
			Name:        col.Name,
			Type:        col.Type,
			Constraints: col.Constraints,
		})
		if col.InlinePrimaryKey {
			inline = append(inline, col.Name)
		}
	}

	switch {
	case def.PrimaryKey != nil:
		table.PrimaryKey = &model.PrimaryKey{Columns: append([]string(nil), def.PrimaryKey.Columns...)}
	case len(inline) > 0:
		table.PrimaryKey = &model.PrimaryKey{Columns: inline}
	}

	for _, fk := range def.ForeignKeys {
		if fk.RefTable == "" {
			return nil, malformedf("table %q has a foreign key with empty referenced table", def.Name)
		}
		if len(fk.Columns) == 0 {
			return nil, malformedf("table %q has a foreign key with no local columns", def.Name)
		}
		table.ForeignKeys = append(table.ForeignKeys, &model.ForeignKey{
			Name:       fk.Name,
			Columns:    append([]string(nil), fk.Columns...),
			RefTable:   fk.RefTable,
			RefColumns: append([]string(nil), fk.RefColumns...),
		})
	}
	return table, nil
}
