package dataset

import (
	"fmt"
	"strings"

	"gojsm/domain/core"
	"gojsm/domain/jsm"
)

// Source records where a dataset was read from.
type Source string

const (
	SourceExcel  Source = "excel"
	SourceCSV    Source = "csv"
	SourceJSON   Source = "json"
	SourceUpload Source = "upload"
)

// Row is one example: its identifier, attribute values and initial label.
type Row struct {
	ID     jsm.ExampleID `json:"id"`
	Values []bool        `json:"values"`
	Label  jsm.Label     `json:"label"`
}

// Dataset is a boolean example table ready to be fitted.
type Dataset struct {
	Name       string   `json:"name,omitempty"`
	Source     Source   `json:"source,omitempty"`
	Attributes []string `json:"attributes"`
	Rows       []Row    `json:"examples"`
}

// Validate checks the schema, row widths, labels and id uniqueness.
func (d *Dataset) Validate() error {
	schema, err := jsm.NewSchema(d.Attributes)
	if err != nil {
		return err
	}
	seen := make(map[jsm.ExampleID]bool, len(d.Rows))
	for i, r := range d.Rows {
		if len(r.Values) != schema.Len() {
			return fmt.Errorf("row %d (id %d): %w", i+1, r.ID, core.NewSchemaMismatchError(schema.Len(), len(r.Values)))
		}
		if seen[r.ID] {
			return core.NewDuplicateExampleError(int64(r.ID))
		}
		if !r.Label.Valid() {
			return fmt.Errorf("%w: example %d", core.ErrUnknownLabel, r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}

// Observations splits the dataset into model inputs. Unlabeled rows are left
// out of the label map.
func (d *Dataset) Observations() ([]jsm.Observation, map[jsm.ExampleID]jsm.Label) {
	obs := make([]jsm.Observation, len(d.Rows))
	labels := make(map[jsm.ExampleID]jsm.Label)
	for i, r := range d.Rows {
		obs[i] = jsm.Observation{ID: r.ID, Values: r.Values}
		if r.Label != jsm.Undecided {
			labels[r.ID] = r.Label
		}
	}
	return obs, labels
}

// Counts returns the number of rows per initial label.
func (d *Dataset) Counts() map[jsm.Label]int {
	counts := make(map[jsm.Label]int, len(jsm.Labels))
	for _, r := range d.Rows {
		counts[r.Label]++
	}
	return counts
}

// Records renders the schema and every row in a stable textual form, suitable
// for fingerprinting.
func (d *Dataset) Records() []string {
	out := make([]string, 0, len(d.Rows)+1)
	out = append(out, strings.Join(d.Attributes, ","))
	for _, r := range d.Rows {
		out = append(out, fmt.Sprintf("%d:%s:%s", r.ID, jsm.VectorOf(r.Values), r.Label))
	}
	return out
}

// ParseBool accepts the boolean cell encodings found in spreadsheets:
// 1/0, true/false, yes/no, t/f and y/n, in any case.
func ParseBool(cell string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "1", "1.0", "true", "t", "yes", "y":
		return true, nil
	case "0", "0.0", "false", "f", "no", "n":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q is not a boolean", core.ErrInvalidValue, cell)
	}
}
