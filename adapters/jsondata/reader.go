// Package jsondata reads JSM datasets encoded as JSON:
//
//	{"attributes": ["a", "b"], "examples": [{"id": 1, "values": [1, 0], "label": 1}]}
//
// Values may be booleans, 0/1 numbers or the strings accepted for spreadsheet
// cells. Labels are +1, -1, 0, or null/absent for unlabeled examples. The
// document may be nested inside a larger response; DataPath selects it.
package jsondata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"gojsm/domain/core"
	"gojsm/domain/dataset"
	"gojsm/domain/jsm"
	"gojsm/internal"
)

// Config controls where the dataset lives inside the document.
type Config struct {
	// DataPath is a gjson path to the dataset object; empty means the root.
	DataPath string
	// Timeout bounds Fetch requests.
	Timeout time.Duration
	// MaxBytes caps the document size.
	MaxBytes int64
}

// DefaultConfig returns the reader defaults
func DefaultConfig() Config {
	return Config{Timeout: 30 * time.Second, MaxBytes: 64 << 20}
}

// Reader parses JSON datasets from files, streams and HTTP endpoints.
type Reader struct {
	config     Config
	httpClient *http.Client
	logger     *internal.Logger
}

// NewReader creates a JSON dataset reader
func NewReader(config Config, logger *internal.Logger) *Reader {
	if config.MaxBytes <= 0 {
		config.MaxBytes = DefaultConfig().MaxBytes
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Reader{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger.With("JSONReader"),
	}
}

// Supports reports whether the file name has a .json extension.
func Supports(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}

// ReadFile reads a dataset from a JSON file.
func (r *Reader) ReadFile(ctx context.Context, path string) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.Read(ctx, path, f)
}

// Read reads a dataset from a JSON stream.
func (r *Reader) Read(ctx context.Context, name string, in io.Reader) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(in, r.config.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}
	if int64(len(body)) > r.config.MaxBytes {
		return nil, fmt.Errorf("%w: document exceeds %d bytes", core.ErrInvalidValue, r.config.MaxBytes)
	}

	ds, err := r.Parse(body)
	if err != nil {
		return nil, err
	}
	if ds.Name == "" {
		ds.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	return ds, nil
}

// Fetch downloads a dataset document from url.
func (r *Reader) Fetch(ctx context.Context, url string) (*dataset.Dataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}
	r.logger.Debug("fetched %s in %s", url, time.Since(start))

	ds, err := r.Read(ctx, url, resp.Body)
	if err != nil {
		return nil, err
	}
	ds.Source = dataset.SourceUpload
	return ds, nil
}

// Parse decodes a dataset document.
func (r *Reader) Parse(body []byte) (*dataset.Dataset, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: malformed JSON", core.ErrInvalidValue)
	}

	doc := gjson.ParseBytes(body)
	if r.config.DataPath != "" {
		doc = doc.Get(r.config.DataPath)
		if !doc.Exists() {
			return nil, fmt.Errorf("%w: data path %q not found", core.ErrSchemaMismatch, r.config.DataPath)
		}
	}
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: dataset must be a JSON object", core.ErrSchemaMismatch)
	}

	attrs := doc.Get("attributes")
	if !attrs.IsArray() {
		return nil, fmt.Errorf("%w: \"attributes\" must be an array of names", core.ErrSchemaMismatch)
	}
	ds := &dataset.Dataset{Name: doc.Get("name").String(), Source: dataset.SourceJSON}
	for _, a := range attrs.Array() {
		ds.Attributes = append(ds.Attributes, a.String())
	}

	examples := doc.Get("examples")
	if examples.Exists() && !examples.IsArray() {
		return nil, fmt.Errorf("%w: \"examples\" must be an array", core.ErrSchemaMismatch)
	}

	var parseErr error
	index := 0
	examples.ForEach(func(_, ex gjson.Result) bool {
		row, err := parseExample(index, ex)
		index++
		if err != nil {
			parseErr = err
			return false
		}
		ds.Rows = append(ds.Rows, row)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	r.logger.Debug("parsed %d examples over %d attributes", len(ds.Rows), len(ds.Attributes))
	return ds, nil
}

func parseExample(index int, ex gjson.Result) (dataset.Row, error) {
	row := dataset.Row{ID: jsm.ExampleID(index + 1)}

	if id := ex.Get("id"); id.Exists() {
		if id.Type != gjson.Number || id.Num != float64(id.Int()) {
			return row, fmt.Errorf("%w: example %d: id %s is not an integer", core.ErrInvalidValue, index, id.Raw)
		}
		row.ID = jsm.ExampleID(id.Int())
	}

	values := ex.Get("values")
	if !values.IsArray() {
		return row, fmt.Errorf("%w: example %d has no values array", core.ErrSchemaMismatch, row.ID)
	}
	for i, v := range values.Array() {
		b, err := parseValue(v)
		if err != nil {
			return row, fmt.Errorf("example %d, attribute %d: %w", row.ID, i, err)
		}
		row.Values = append(row.Values, b)
	}

	label := ex.Get("label")
	if !label.Exists() {
		label = ex.Get("target")
	}
	switch label.Type {
	case gjson.Null:
		row.Label = jsm.Undecided
	case gjson.Number:
		if label.Num != float64(label.Int()) {
			return row, fmt.Errorf("%w: example %d: %s", core.ErrUnknownLabel, row.ID, label.Raw)
		}
		l, err := jsm.LabelFromTarget(int(label.Int()))
		if err != nil {
			return row, fmt.Errorf("example %d: %w", row.ID, err)
		}
		row.Label = l
	case gjson.String:
		l, err := jsm.ParseLabel(label.Str)
		if err != nil {
			return row, fmt.Errorf("example %d: %w", row.ID, err)
		}
		row.Label = l
	default:
		return row, fmt.Errorf("%w: example %d: %s", core.ErrUnknownLabel, row.ID, label.Raw)
	}
	return row, nil
}

func parseValue(v gjson.Result) (bool, error) {
	switch v.Type {
	case gjson.True:
		return true, nil
	case gjson.False:
		return false, nil
	case gjson.Number:
		switch v.Num {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
	case gjson.String:
		return dataset.ParseBool(v.Str)
	}
	return false, fmt.Errorf("%w: %s is not a boolean", core.ErrInvalidValue, v.Raw)
}
