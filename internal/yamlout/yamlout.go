// Package yamlout renders a schema as a YAML document with stable key order.
//
// The document shape is fixed for diff-stability: within each mapping the keys
// appear as name, columns/type, constraints, primary_key, foreign_keys. A
// column's constraints key is present only when non-empty, and a table with no
// foreign keys omits the foreign_keys key entirely. primary_key is always
// present, as an empty list when the table declares none.
package yamlout

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/reltools/reltools/internal/schema/model"
)

// Document is the serialized form of a schema. yaml.v3 preserves struct field
// order, which pins the key ordering of the output.
type Document struct {
	Tables []TableDoc `yaml:"tables"`
}

// TableDoc mirrors one table in the output document.
type TableDoc struct {
	Name        string          `yaml:"name"`
	Columns     []ColumnDoc     `yaml:"columns"`
	PrimaryKey  []string        `yaml:"primary_key"`
	ForeignKeys []ForeignKeyDoc `yaml:"foreign_keys,omitempty"`
}

// ColumnDoc mirrors one column in the output document.
type ColumnDoc struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Constraints string `yaml:"constraints,omitempty"`
}

// ForeignKeyDoc mirrors one foreign key in the output document. Name is kept
// even when empty so re-ingested documents stay structurally complete.
type ForeignKeyDoc struct {
	Name       string   `yaml:"name"`
	Columns    []string `yaml:"columns"`
	RefTable   string   `yaml:"ref_table"`
	RefColumns []string `yaml:"ref_columns"`
}

// FromSchema converts a schema into its document form.
func FromSchema(s *model.Schema) Document {
	doc := Document{Tables: make([]TableDoc, 0, len(s.Tables))}
	for _, table := range s.Tables {
		td := TableDoc{
			Name:       table.Name,
			Columns:    make([]ColumnDoc, 0, len(table.Columns)),
			PrimaryKey: []string{},
		}
		for _, col := range table.Columns {
			td.Columns = append(td.Columns, ColumnDoc{
				Name:        col.Name,
				Type:        col.Type,
				Constraints: col.Constraints,
			})
		}
		if pk := table.PrimaryKeyColumns(); len(pk) > 0 {
			td.PrimaryKey = append([]string(nil), pk...)
		}
		for _, fk := range table.ForeignKeys {
			td.ForeignKeys = append(td.ForeignKeys, ForeignKeyDoc{
				Name:       fk.Name,
				Columns:    append([]string(nil), fk.Columns...),
				RefTable:   fk.RefTable,
				RefColumns: append([]string(nil), fk.RefColumns...),
			})
		}
		doc.Tables = append(doc.Tables, td)
	}
	return doc
}

// ToSchema converts a document back into the schema model, for consumers that
// re-ingest rendered output.
func (d Document) ToSchema() *model.Schema {
	schema := &model.Schema{Tables: make([]*model.Table, 0, len(d.Tables))}
	for _, td := range d.Tables {
		table := &model.Table{Name: td.Name}
		for _, cd := range td.Columns {
			table.Columns = append(table.Columns, &model.Column{
				Name:        cd.Name,
				Type:        cd.Type,
				Constraints: cd.Constraints,
			})
		}
		if len(td.PrimaryKey) > 0 {
			table.PrimaryKey = &model.PrimaryKey{Columns: append([]string(nil), td.PrimaryKey...)}
		}
		for _, fd := range td.ForeignKeys {
			table.ForeignKeys = append(table.ForeignKeys, &model.ForeignKey{
				Name:       fd.Name,
				Columns:    append([]string(nil), fd.Columns...),
				RefTable:   fd.RefTable,
				RefColumns: append([]string(nil), fd.RefColumns...),
			})
		}
		schema.Tables = append(schema.Tables, table)
	}
	return schema
}

// Render serializes the schema to YAML. It never fails on a schema produced
// by the AST builder.
func Render(s *model.Schema) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(FromSchema(s)); err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	return buf.Bytes(), nil
}

// Parse re-ingests a rendered document.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode schema document: %w", err)
	}
	return doc, nil
}
