package model

// CatalogRecord is one row of the product sheet, keyed by the header row's
// column names. Records are immutable once fetched; identity is structural.
type CatalogRecord map[string]string

// Field returns the value of the named column, or "" when the column is
// absent or empty.
func (r CatalogRecord) Field(name string) string {
	return r[name]
}
