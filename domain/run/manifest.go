package run

import (
	"fmt"
	"time"

	"gojsm/domain/core"
)

// CodeVersion is stamped into every run fingerprint.
const CodeVersion = "1.0.0"

// Manifest describes everything a run was started with: which dataset, which
// engine parameters, and the fingerprint derived from both. It exists before
// any result and is enough to replay the run.
type Manifest struct {
	RunID              core.RunID     `json:"run_id"`
	DatasetName        string         `json:"dataset_name"`
	Source             string         `json:"source"`
	Method             string         `json:"method"`
	ExtThreshold       int            `json:"ext_threshold"`
	IntThreshold       int            `json:"int_threshold"`
	BanCounterexamples bool           `json:"ban_counterexamples"`
	MaxSteps           int            `json:"max_steps"`
	Fingerprint        RunFingerprint `json:"fingerprint"`
	CreatedAt          time.Time      `json:"created_at"`
}

// Params returns the engine parameters that enter the fingerprint.
func (m *Manifest) Params() map[string]interface{} {
	return map[string]interface{}{
		"method":              m.Method,
		"ext_threshold":       m.ExtThreshold,
		"int_threshold":       m.IntThreshold,
		"ban_counterexamples": m.BanCounterexamples,
		"max_steps":           m.MaxSteps,
	}
}

// Seal computes the fingerprint from the dataset records and the manifest
// parameters.
func (m *Manifest) Seal(records []string) {
	m.Fingerprint = NewRunFingerprint(records, m.Params(), CodeVersion)
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return fmt.Errorf("run manifest: run_id cannot be empty")
	}
	if m.Method == "" {
		return fmt.Errorf("run manifest: method cannot be empty")
	}
	if m.Fingerprint.Fingerprint.IsEmpty() {
		return fmt.Errorf("run manifest: fingerprint not computed")
	}
	return nil
}
