package excel

// table is one sheet worth of cells: a header row followed by data rows
type table struct {
	Headers []string
	Rows    [][]interface{}
}

func (t *table) add(cells ...interface{}) {
	t.Rows = append(t.Rows, cells)
}
