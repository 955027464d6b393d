package jsm

import (
	"encoding/json"
	"fmt"
	"strings"

	"gojsm/domain/core"
)

// Label is the class assignment of an example. The zero value is Undecided.
type Label int8

const (
	Undecided Label = iota
	Positive
	Negative
	Contradictory
)

// Labels lists every recognized label in result order.
var Labels = []Label{Positive, Negative, Contradictory, Undecided}

func (l Label) String() string {
	switch l {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	case Contradictory:
		return "contradictory"
	case Undecided:
		return "undecided"
	default:
		return fmt.Sprintf("label(%d)", int8(l))
	}
}

// Valid reports whether l is one of the four recognized labels.
func (l Label) Valid() bool {
	return l >= Undecided && l <= Contradictory
}

// Opposite returns the opposing label for Positive and Negative; any other
// label is returned unchanged.
func (l Label) Opposite() Label {
	switch l {
	case Positive:
		return Negative
	case Negative:
		return Positive
	default:
		return l
	}
}

// Target returns the external target encoding: +1, -1, 0, or nil when
// the example is unlabeled.
func (l Label) Target() *int {
	var v int
	switch l {
	case Positive:
		v = 1
	case Negative:
		v = -1
	case Contradictory:
		v = 0
	default:
		return nil
	}
	return &v
}

// LabelFromTarget maps the external +1/-1/0 encoding to a Label.
func LabelFromTarget(target int) (Label, error) {
	switch target {
	case 1:
		return Positive, nil
	case -1:
		return Negative, nil
	case 0:
		return Contradictory, nil
	default:
		return Undecided, fmt.Errorf("%w: %d", core.ErrUnknownLabel, target)
	}
}

// ParseLabel accepts the textual encodings found in tabular input.
// Empty cells and NA-style markers mean unlabeled.
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "+1", "1.0", "+1.0", "positive", "pos", "+":
		return Positive, nil
	case "-1", "-1.0", "negative", "neg", "-":
		return Negative, nil
	case "0", "0.0", "contradictory", "contra":
		return Contradictory, nil
	case "", "na", "n/a", "nan", "none", "null", "?", "undecided", "tau":
		return Undecided, nil
	default:
		return Undecided, fmt.Errorf("%w: %q", core.ErrUnknownLabel, s)
	}
}

// MarshalJSON encodes the label as its target value (or null).
func (l Label) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Target())
}

// UnmarshalJSON accepts a target number, null, or a label name.
func (l *Label) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*l = Undecided
		return nil
	case float64:
		if v != float64(int(v)) {
			return fmt.Errorf("%w: %v", core.ErrUnknownLabel, v)
		}
		parsed, err := LabelFromTarget(int(v))
		if err != nil {
			return err
		}
		*l = parsed
		return nil
	case string:
		parsed, err := ParseLabel(v)
		if err != nil {
			return err
		}
		*l = parsed
		return nil
	default:
		return fmt.Errorf("%w: %v", core.ErrUnknownLabel, raw)
	}
}
