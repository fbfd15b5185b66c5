package models

const (
	ColumnRegions       = "Regions"
	ColumnPublicIDsList = "Public_IDs_List"

	RegionUS = "US"

	IDTypeEIN = "EIN"
	IDTypeFEC = "FEC"
)

// Table is an advertiser CSV held in memory: the header row and every data
// row padded to the header width.
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

func NewTable(header []string, rows [][]string) *Table {
	t := &Table{Header: header, Rows: rows, index: make(map[string]int, len(header))}
	for i, name := range header {
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}
	return t
}

// Column returns the position of a header, or -1.
func (t *Table) Column(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Value returns the named cell of a row, empty when the column is unknown.
func (t *Table) Value(row []string, column string) string {
	i := t.Column(column)
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Subset returns a table with the same header and the given rows.
func (t *Table) Subset(rows [][]string) *Table {
	return NewTable(t.Header, rows)
}

// Extraction is the outcome of pulling EIN tokens out of Public_IDs_List.
type Extraction struct {
	// EINs are unique, in order of first occurrence.
	EINs []string
	// Unparsed holds identifier lists that mention EIN but do not match
	// the "EIN ID <number>" pattern.
	Unparsed []string
}
