// Package model defines the normalized schema types produced by the AST builder.
//
// The types are plain data holders with structural equality. Declaration order
// is significant everywhere: tables appear in the order their CREATE TABLE
// statements were parsed, and columns, primary key entries, and foreign keys
// appear in the order they were declared. Nothing mutates a Schema after the
// builder returns it.
package model

// Schema is the root collection of tables parsed from one DDL source.
type Schema struct {
	Tables []*Table
}

// Table models a parsed table definition with associated constraints.
type Table struct {
	Name        string
	Columns     []*Column
	PrimaryKey  *PrimaryKey
	ForeignKeys []*ForeignKey
}

// Column describes a table column. Type keeps the raw type text including any
// parameter list (e.g. "DECIMAL(10,2)"). Constraints holds the remaining raw
// constraint text, empty when none was declared.
type Column struct {
	Name        string
	Type        string
	Constraints string
}

// PrimaryKey captures a table's primary key declaration. A nil *PrimaryKey on
// a Table means no primary key was declared; a non-nil value with an empty
// Columns list means a primary key clause was declared without naming any
// column, which the validator reports.
type PrimaryKey struct {
	Columns []string
}

// ForeignKey models a FOREIGN KEY constraint referencing another table.
// Name is empty when the constraint was not named in the source.
type ForeignKey struct {
	Name       string
	Columns    []string
	RefTable   string
	RefColumns []string
}

// PrimaryKeyColumns returns the primary key column list, or nil when the table
// declares no primary key.
func (t *Table) PrimaryKeyColumns() []string {
	if t.PrimaryKey == nil {
		return nil
	}
	return t.PrimaryKey.Columns
}
