package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	emptyID := ID("")
	if !emptyID.IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}

	nonEmptyID := ID("not-empty")
	if nonEmptyID.IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseRunID tests run ID parsing
func TestParseRunID(t *testing.T) {
	tests := []struct {
		input    string
		expected RunID
		hasError bool
	}{
		{"run-123", RunID("run-123"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, test := range tests {
		result, err := ParseRunID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

func TestComputeFingerprint_Deterministic(t *testing.T) {
	params := map[string]interface{}{"method": "norris", "ext": 2, "int": 3}
	a := ComputeFingerprint([]string{"1:110", "2:101"}, params)
	b := ComputeFingerprint([]string{"1:110", "2:101"}, map[string]interface{}{"int": 3, "ext": 2, "method": "norris"})
	if a != b {
		t.Errorf("Fingerprints not identical: %s vs %s", a, b)
	}

	reordered := ComputeFingerprint([]string{"2:101", "1:110"}, params)
	if a == reordered {
		t.Error("Expected record order to change the fingerprint")
	}
	if len(a.Short()) != 12 {
		t.Errorf("Expected 12-char short hash, got %q", a.Short())
	}
}

func TestErrorClassification(t *testing.T) {
	if !IsInputError(NewSchemaMismatchError(3, 2)) {
		t.Error("Expected schema mismatch to be an input error")
	}
	if !IsInputError(NewDuplicateExampleError(7)) {
		t.Error("Expected duplicate id to be an input error")
	}
	if IsInputError(ErrInvalidThreshold) {
		t.Error("Threshold error must not be classified as input error")
	}
	if !IsConfigError(ErrUnknownMethod) {
		t.Error("Expected unknown method to be a config error")
	}
	if !IsNotFoundError(NewNotFoundError("run", "abc")) {
		t.Error("Expected not-found classification")
	}
}
