package database

import "strings"

// Table identifies a table by schema and name.
type Table struct {
	Schema string
	Name   string
}

// ParseTable parses a possibly schema-qualified table name.
// An unqualified name is placed in the given default schema.
func ParseTable(name, defaultSchema string) Table {
	if schema, table, ok := strings.Cut(name, "."); ok {
		return Table{Schema: schema, Name: table}
	}
	if defaultSchema == "" {
		defaultSchema = "public"
	}
	return Table{Schema: defaultSchema, Name: name}
}

// String returns the unquoted schema-qualified name, e.g. public.events.
func (t Table) String() string {
	return t.Schema + "." + t.Name
}

// Ident returns the quoted schema-qualified identifier for use in SQL.
func (t Table) Ident() string {
	return QuoteIdent(t.Schema) + "." + QuoteIdent(t.Name)
}

// Intermediate returns the staging table that receives copied rows
// before the swap.
func (t Table) Intermediate() Table {
	return Table{Schema: t.Schema, Name: t.Name + "_intermediate"}
}

// Retired returns the original table's post-swap name.
func (t Table) Retired() Table {
	return Table{Schema: t.Schema, Name: t.Name + "_retired"}
}

// QuoteIdent quotes a single SQL identifier, doubling embedded quotes.
func QuoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
