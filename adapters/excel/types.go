package excel

// RawRowData represents a row of raw Excel data as string key-value pairs
type RawRowData map[string]string

// ExcelData represents the complete Excel dataset
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
	Lines   []int        // Source line of each data row, 1-based
}

// line returns the source line of data row i.
func (d *ExcelData) line(i int) int {
	if i < len(d.Lines) {
		return d.Lines[i]
	}
	return i + 2
}
