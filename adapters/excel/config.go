package excel

// ExcelConfig holds configuration for tabular data sources
type ExcelConfig struct {
	// SheetName is the worksheet to read; when absent from the workbook the
	// first sheet is used.
	SheetName string `json:"sheet_name"`
	// TargetColumn holds the labels (+1, -1, 0, or empty for unlabeled).
	TargetColumn string `json:"target_column"`
	// IDColumn holds integer example ids. When empty a column named "id" is
	// used if present; otherwise rows are numbered 1..n in file order.
	IDColumn string `json:"id_column"`
}

// DefaultExcelConfig returns sensible defaults for Excel processing
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		SheetName:    "Sheet1",
		TargetColumn: "target",
	}
}
