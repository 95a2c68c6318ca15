package models

// TabularDataset is the structured result of parsing an uploaded delimited
// file. It holds the header row plus a bounded prefix of the data rows.
// A dataset is immutable once parsed; a new upload produces a new dataset.
//
// Row lengths are positional: a row may be shorter or longer than the
// header row. Missing trailing cells read as empty strings via Cell and
// extra cells are preserved at their original positions.
type TabularDataset struct {
	SourceName string     `json:"source_name"`
	SizeBytes  int64      `json:"size_bytes"`
	Headers    []string   `json:"headers"`
	Rows       [][]string `json:"rows"`
}

// ColumnCount returns the number of header columns.
func (d *TabularDataset) ColumnCount() int {
	return len(d.Headers)
}

// RowCount returns the number of preview rows held by the dataset.
func (d *TabularDataset) RowCount() int {
	return len(d.Rows)
}

// Cell returns the value at (row, col), or "" when the row is shorter than
// the header row at that position or the indexes are out of range.
func (d *TabularDataset) Cell(row, col int) string {
	if row < 0 || row >= len(d.Rows) {
		return ""
	}
	r := d.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}
