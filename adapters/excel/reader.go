package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gojsm/domain/core"
	"gojsm/domain/dataset"
	"gojsm/domain/jsm"
	"gojsm/internal"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	config ExcelConfig
	logger *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(config ExcelConfig, logger *internal.Logger) *DataReader {
	if config.SheetName == "" {
		config.SheetName = "Sheet1"
	}
	if config.TargetColumn == "" {
		config.TargetColumn = "target"
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{config: config, logger: logger.With("DataReader")}
}

// Supports reports whether the file name has a tabular extension.
func Supports(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	default:
		return false
	}
}

// ReadFile reads an .xlsx or .csv file into a dataset.
func (r *DataReader) ReadFile(ctx context.Context, path string) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(fileType(path)), path)
		}
		return nil, err
	}
	defer f.Close()
	return r.Read(ctx, path, f)
}

// Read parses a tabular stream; name selects the format by extension.
func (r *DataReader) Read(ctx context.Context, name string, in io.Reader) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := r.ReadData(name, in)
	if err != nil {
		return nil, err
	}
	ds, err := r.ToDataset(data)
	if err != nil {
		return nil, err
	}
	ds.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	ds.Source = dataset.SourceExcel
	if fileType(name) == "csv" {
		ds.Source = dataset.SourceCSV
	}
	return ds, nil
}

// ReadData reads data from Excel or CSV streams into structured format
func (r *DataReader) ReadData(name string, in io.Reader) (*ExcelData, error) {
	switch fileType(name) {
	case "csv":
		return r.readCSVData(in)
	case "xlsx":
		return r.readExcelData(in)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", core.ErrInvalidValue, filepath.Ext(name))
	}
}

func fileType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return "csv"
	case ".xlsx", ".xlsm":
		return "xlsx"
	default:
		return ""
	}
}

// readExcelData reads the configured sheet, or the first one when it is missing
func (r *DataReader) readExcelData(in io.Reader) (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(in)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.config.SheetName
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", core.ErrSchemaMismatch)
		}
		r.logger.Debug("sheet %q not found, reading %q", sheet, sheets[0])
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	r.logger.Debug("%s read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	lines := make([]int, len(rows))
	for i := range rows {
		lines[i] = i + 1
	}
	return r.processRows(rows, lines, "xlsx")
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData(in io.Reader) (*ExcelData, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	readStart := time.Now()
	var (
		rows  [][]string
		lines []int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV file: %w", err)
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, record)
		lines = append(lines, line)
	}
	r.logger.Debug("CSV read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	return r.processRows(rows, lines, "csv")
}

// processRows converts raw string rows into ExcelData format. Blank rows are
// skipped; lines[i] is the source line of rows[i].
func (r *DataReader) processRows(rows [][]string, lines []int, kind string) (*ExcelData, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s file has no header row", core.ErrSchemaMismatch, strings.ToUpper(kind))
	}

	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	var (
		dataRows  []RawRowData
		dataLines []int
	)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		rowData := make(RawRowData, len(headers))
		blank := true

		for j, cell := range row {
			if j < len(headers) {
				cell = strings.TrimSpace(cell)
				rowData[headers[j]] = cell
				if cell != "" {
					blank = false
				}
			}
		}
		if blank {
			continue
		}
		dataRows = append(dataRows, rowData)
		dataLines = append(dataLines, lines[i])
	}

	r.logger.Info("%s file processed (%d columns, %d rows)", strings.ToUpper(kind), len(headers), len(dataRows))

	return &ExcelData{
		Headers: headers,
		Rows:    dataRows,
		Lines:   dataLines,
	}, nil
}

// DetectIDColumn returns the configured id column, a column named "id"
// (any case), or "" when rows should be numbered in file order.
func (r *DataReader) DetectIDColumn(data *ExcelData) (string, error) {
	if r.config.IDColumn != "" {
		for _, h := range data.Headers {
			if h == r.config.IDColumn {
				return h, nil
			}
		}
		return "", fmt.Errorf("%w: id column %q not found", core.ErrSchemaMismatch, r.config.IDColumn)
	}
	for _, h := range data.Headers {
		if strings.EqualFold(h, "id") {
			return h, nil
		}
	}
	return "", nil
}

// ToDataset interprets the raw table: the target column holds labels, the
// optional id column holds example ids, every other column is a boolean
// attribute in header order.
func (r *DataReader) ToDataset(data *ExcelData) (*dataset.Dataset, error) {
	idColumn, err := r.DetectIDColumn(data)
	if err != nil {
		return nil, err
	}

	hasTarget := false
	var attributes []string
	for _, h := range data.Headers {
		switch h {
		case r.config.TargetColumn:
			hasTarget = true
		case idColumn:
		default:
			attributes = append(attributes, h)
		}
	}
	if !hasTarget {
		return nil, fmt.Errorf("%w: target column %q not found", core.ErrSchemaMismatch, r.config.TargetColumn)
	}

	ds := &dataset.Dataset{Attributes: attributes, Rows: make([]dataset.Row, 0, len(data.Rows))}
	for i, raw := range data.Rows {
		line := data.line(i)

		id := jsm.ExampleID(i + 1)
		if idColumn != "" {
			parsed, err := strconv.ParseInt(raw[idColumn], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: id %q is not an integer", core.ErrInvalidValue, line, raw[idColumn])
			}
			id = jsm.ExampleID(parsed)
		}

		label, err := jsm.ParseLabel(raw[r.config.TargetColumn])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		values := make([]bool, len(attributes))
		for a, name := range attributes {
			v, err := dataset.ParseBool(raw[name])
			if err != nil {
				return nil, fmt.Errorf("row %d, column %s: %w", line, name, err)
			}
			values[a] = v
		}

		ds.Rows = append(ds.Rows, dataset.Row{ID: id, Values: values, Label: label})
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}
