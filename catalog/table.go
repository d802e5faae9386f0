package catalog

// Table is a reference to a database table known by the catalog.
// Triggers only hold a *Table, they never copy or read its contents.
type Table struct {
	SearchPath  string    // the search path (schema) for the table
	Name        string    // the name of the table
	Description string    // the description of the table
	Columns     []*Column // the columns of the table, informational
}

// Column describes a column of a Table.
type Column struct {
	Table *Table // the table this column belongs to

	Name string
	Type string // e.g. "bigint", "text"
}

// QualifiedName returns the table name prefixed by its search path,
// e.g. public.customers.
func (td *Table) QualifiedName() string {
	if td.SearchPath == "" {
		return td.Name
	}

	return td.SearchPath + "." + td.Name
}

// AddColumns adds the given columns to the table definition.
func (td *Table) AddColumns(columns ...*Column) {
	for _, c := range columns {
		c.Table = td
	}
	td.Columns = append(td.Columns, columns...)
}

// ListColumnNames returns the column names of the table definition.
func (td *Table) ListColumnNames() []string {
	names := make([]string, 0, len(td.Columns))
	for _, c := range td.Columns {
		names = append(names, c.Name)
	}

	return names
}
