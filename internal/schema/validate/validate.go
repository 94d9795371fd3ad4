// Package validate checks structural and referential invariants of a schema.
//
// Validation collects every violation it finds in one pass instead of failing
// on the first. The tool exists to support iterative schema cleanup, and
// seeing every problem at once beats one-at-a-time discovery. The only
// deliberate exception: foreign key checks that depend on a missing referenced
// table are skipped for that key, so one missing table does not cascade into a
// pile of column noise.
package validate

import (
	"fmt"
	"strings"

	"github.com/reltools/reltools/internal/schema/model"
)

// SchemaValidationError carries the complete, ordered list of violations
// found during one validation pass.
type SchemaValidationError struct {
	Violations []string
}

func (e *SchemaValidationError) Error() string {
	switch len(e.Violations) {
	case 0:
		return "schema validation failed"
	case 1:
		return "schema validation failed: " + e.Violations[0]
	default:
		return fmt.Sprintf("schema validation failed with %d violations:\n  - %s",
			len(e.Violations), strings.Join(e.Violations, "\n  - "))
	}
}

// Schema validates the complete schema graph. It returns nil on success or a
// *SchemaValidationError listing every violation. Table names must be unique
// (exact match, no case normalization), column names unique per table,
// primary key entries must name owned columns, and each foreign key must
// line up with existing tables and columns on both ends. Validation reads the
// schema without mutating it, so validating twice yields the same answer.
func Schema(s *model.Schema) error {
	v := &validator{columnsByTable: make(map[string]map[string]struct{}, len(s.Tables))}

	seen := make(map[string]struct{}, len(s.Tables))
	for _, table := range s.Tables {
		if _, dup := seen[table.Name]; dup {
			v.reportf("duplicate table name %q", table.Name)
		}
		seen[table.Name] = struct{}{}
		v.validateTable(table)
	}
	for _, table := range s.Tables {
		for _, fk := range table.ForeignKeys {
			v.validateForeignKey(table, fk)
		}
	}

	if len(v.violations) > 0 {
		return &SchemaValidationError{Violations: v.violations}
	}
	return nil
}

type validator struct {
	violations []string
	// columnsByTable indexes column names per table so foreign key checks
	// stay near-constant instead of scanning column lists.
	columnsByTable map[string]map[string]struct{}
}

func (v *validator) validateTable(table *model.Table) {
	cols := make(map[string]struct{}, len(table.Columns))
	for _, col := range table.Columns {
		if _, dup := cols[col.Name]; dup {
			v.reportf("table %q: duplicate column name %q", table.Name, col.Name)
			continue
		}
		cols[col.Name] = struct{}{}
	}
	// Later tables with a duplicate name keep the first table's index entry;
	// their foreign keys are checked against the first definition.
	if _, ok := v.columnsByTable[table.Name]; !ok {
		v.columnsByTable[table.Name] = cols
	}

	if table.PrimaryKey == nil {
		return
	}
	if len(table.PrimaryKey.Columns) == 0 {
		v.reportf("table %q: primary key declared with no columns", table.Name)
		return
	}
	for _, name := range table.PrimaryKey.Columns {
		if _, ok := cols[name]; !ok {
			v.reportf("table %q: primary key column %q not found", table.Name, name)
		}
	}
}

func (v *validator) validateForeignKey(table *model.Table, fk *model.ForeignKey) {
	label := foreignKeyLabel(fk)
	if len(fk.Columns) != len(fk.RefColumns) {
		v.reportf("table %q: %s has mismatched column counts: %d columns but %d ref_columns",
			table.Name, label, len(fk.Columns), len(fk.RefColumns))
	}
	ownCols := v.columnsByTable[table.Name]
	for _, name := range fk.Columns {
		if _, ok := ownCols[name]; !ok {
			v.reportf("table %q: %s references non-existent column %q", table.Name, label, name)
		}
	}
	refCols, ok := v.columnsByTable[fk.RefTable]
	if !ok {
		v.reportf("table %q: %s references non-existent table %q", table.Name, label, fk.RefTable)
		return
	}
	for _, name := range fk.RefColumns {
		if _, ok := refCols[name]; !ok {
			v.reportf("table %q: %s references non-existent column %q in table %q",
				table.Name, label, name, fk.RefTable)
		}
	}
}

func (v *validator) reportf(format string, args ...any) {
	v.violations = append(v.violations, fmt.Sprintf(format, args...))
}

func foreignKeyLabel(fk *model.ForeignKey) string {
	if fk.Name != "" {
		return fmt.Sprintf("foreign key %q", fk.Name)
	}
	return fmt.Sprintf("foreign key (%s)", strings.Join(fk.Columns, ", "))
}
