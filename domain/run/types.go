package run

import (
	"time"

	"gojsm/domain/core"
	"gojsm/domain/jsm"
)

// Status of a persisted run
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is a finished fit+predict execution together with its causes and
// final labeling.
type Run struct {
	Manifest

	Status       Status          `json:"status"`
	Error        string          `json:"error,omitempty"`
	Attributes   []string        `json:"attributes"`
	Rounds       int             `json:"rounds"`
	FinalStep    int             `json:"final_step"`
	Migrations   int             `json:"migrations"`
	FixedPoint   bool            `json:"fixed_point"`
	Complete     bool            `json:"complete"`
	LostPositive []jsm.ExampleID `json:"lost_positive"`
	LostNegative []jsm.ExampleID `json:"lost_negative"`
	Causes       []CauseRecord   `json:"causes"`
	Results      []jsm.ResultRow `json:"results"`
	DurationMS   int64           `json:"duration_ms"`
}

// CauseRecord is a cause flattened for storage and display.
type CauseRecord struct {
	Label      jsm.Label       `json:"label"`
	Intent     string          `json:"intent"`
	Attributes []string        `json:"attributes"`
	Extent     []jsm.ExampleID `json:"extent"`
	Step       int             `json:"step"`
}

// NewCauseRecords flattens a cause set, positive causes first.
func NewCauseRecords(causes jsm.CauseSet, schema jsm.Schema) []CauseRecord {
	out := make([]CauseRecord, 0, len(causes.Positive)+len(causes.Negative))
	for _, l := range []jsm.Label{jsm.Positive, jsm.Negative} {
		for _, c := range causes.For(l) {
			out = append(out, CauseRecord{
				Label:      l,
				Intent:     c.Intent.String(),
				Attributes: schema.Describe(c.Intent),
				Extent:     c.Extent.Slice(),
				Step:       c.Step,
			})
		}
	}
	return out
}

// CausesFor returns the records of label l.
func (r *Run) CausesFor(l jsm.Label) []CauseRecord {
	var out []CauseRecord
	for _, c := range r.Causes {
		if c.Label == l {
			out = append(out, c)
		}
	}
	return out
}

// Summary returns the listing view of the run.
func (r *Run) Summary() Summary {
	counts := make(map[string]int, len(jsm.Labels))
	for _, row := range r.Results {
		counts[row.Label.String()]++
	}
	return Summary{
		ID:          r.RunID,
		DatasetName: r.DatasetName,
		Method:      r.Method,
		Fingerprint: r.Fingerprint.Fingerprint,
		Status:      r.Status,
		FinalStep:   r.FinalStep,
		Complete:    r.Complete,
		Causes:      len(r.Causes),
		Labels:      counts,
		CreatedAt:   r.CreatedAt,
	}
}

// Summary is the short form of a run used in listings.
type Summary struct {
	ID          core.RunID     `json:"id" db:"id"`
	DatasetName string         `json:"dataset_name" db:"dataset_name"`
	Method      string         `json:"method" db:"method"`
	Fingerprint core.Hash      `json:"fingerprint" db:"fingerprint"`
	Status      Status         `json:"status" db:"status"`
	FinalStep   int            `json:"final_step" db:"final_step"`
	Complete    bool           `json:"complete" db:"complete"`
	Causes      int            `json:"causes" db:"cause_count"`
	Labels      map[string]int `json:"labels,omitempty" db:"-"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// RunFingerprint identifies the inputs of a run: the same dataset, options
// and code version always produce the same fingerprint.
type RunFingerprint struct {
	DatasetHash core.Hash `json:"dataset_hash"`
	CodeVersion string    `json:"code_version"`
	Fingerprint core.Hash `json:"fingerprint"`
}

// NewRunFingerprint hashes the dataset records, then combines that hash with
// the run parameters and the code version.
func NewRunFingerprint(records []string, params map[string]interface{}, codeVersion string) RunFingerprint {
	datasetHash := core.ComputeFingerprint(records, nil)

	combined := make(map[string]interface{}, len(params)+2)
	for k, v := range params {
		combined[k] = v
	}
	combined["dataset"] = datasetHash
	combined["code"] = codeVersion

	return RunFingerprint{
		DatasetHash: datasetHash,
		CodeVersion: codeVersion,
		Fingerprint: core.ComputeFingerprint(nil, combined),
	}
}
