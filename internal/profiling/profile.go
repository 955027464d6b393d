// Package profiling summarizes a finished run: size distributions of the
// causes, how often each attribute takes part in a cause, and how specific
// each cause is to its label.
package profiling

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"gojsm/domain/jsm"
	"gojsm/domain/run"
)

// Summary holds the usual descriptive statistics of a sample.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// Summarize computes a Summary; an empty sample yields the zero Summary.
// Quartiles use the nearest-rank method so one-element samples work.
func Summarize(data []float64) (Summary, error) {
	s := Summary{Count: len(data)}
	if len(data) == 0 {
		return s, nil
	}

	var err error
	if s.Mean, err = stats.Mean(data); err != nil {
		return s, err
	}
	if s.StdDev, err = stats.StandardDeviation(data); err != nil {
		return s, err
	}
	if s.Min, err = stats.Min(data); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(data); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(data); err != nil {
		return s, err
	}
	if s.Q25, err = stats.PercentileNearestRank(data, 25); err != nil {
		return s, err
	}
	if s.Q75, err = stats.PercentileNearestRank(data, 75); err != nil {
		return s, err
	}
	return s, nil
}

// CauseProfile describes one cause against the final labeling.
type CauseProfile struct {
	run.CauseRecord
	// Matches counts decided (positive or negative) examples containing the intent.
	Matches int `json:"matches"`
	// Precision is the share of Matches carrying the cause's label.
	Precision float64 `json:"precision"`
	// PValue is the binomial tail probability of seeing at least that many
	// same-label matches if labels were assigned at the base rate.
	PValue float64 `json:"p_value"`
}

// LabelProfile aggregates the causes of one label.
type LabelProfile struct {
	Label       jsm.Label `json:"label"`
	Causes      int       `json:"causes"`
	IntentSizes Summary   `json:"intent_sizes"`
	ExtentSizes Summary   `json:"extent_sizes"`
	// AttributeShare[i] is the fraction of causes whose intent contains attribute i.
	AttributeShare []float64 `json:"attribute_share"`
}

// Profile is the statistical digest of a run.
type Profile struct {
	Labels  map[string]int          `json:"labels"`
	ByLabel map[string]LabelProfile `json:"by_label"`
	Causes  []CauseProfile          `json:"causes"`
}

// ProfileRun digests the causes and results of rn.
func ProfileRun(rn *run.Run) (*Profile, error) {
	p := &Profile{
		Labels:  make(map[string]int, len(jsm.Labels)),
		ByLabel: make(map[string]LabelProfile, 2),
	}

	decided := make([]jsm.ResultRow, 0, len(rn.Results))
	for _, row := range rn.Results {
		p.Labels[row.Label.String()]++
		if row.Label == jsm.Positive || row.Label == jsm.Negative {
			decided = append(decided, row)
		}
	}

	for _, l := range []jsm.Label{jsm.Positive, jsm.Negative} {
		lp, err := profileLabel(l, rn.CausesFor(l), len(rn.Attributes))
		if err != nil {
			return nil, err
		}
		p.ByLabel[l.String()] = lp
	}

	for _, c := range rn.Causes {
		p.Causes = append(p.Causes, profileCause(c, decided, p.Labels))
	}
	return p, nil
}

func profileLabel(l jsm.Label, causes []run.CauseRecord, width int) (LabelProfile, error) {
	lp := LabelProfile{Label: l, Causes: len(causes), AttributeShare: make([]float64, width)}

	intentSizes := make([]float64, 0, len(causes))
	extentSizes := make([]float64, 0, len(causes))
	row := make([]float64, width)
	for _, c := range causes {
		intentSizes = append(intentSizes, float64(len(c.Attributes)))
		extentSizes = append(extentSizes, float64(len(c.Extent)))

		for i := range row {
			row[i] = 0
			if i < len(c.Intent) && c.Intent[i] == '1' {
				row[i] = 1
			}
		}
		floats.Add(lp.AttributeShare, row)
	}
	if len(causes) > 0 {
		floats.Scale(1/float64(len(causes)), lp.AttributeShare)
	}

	var err error
	if lp.IntentSizes, err = Summarize(intentSizes); err != nil {
		return lp, err
	}
	if lp.ExtentSizes, err = Summarize(extentSizes); err != nil {
		return lp, err
	}
	return lp, nil
}

func profileCause(c run.CauseRecord, decided []jsm.ResultRow, labels map[string]int) CauseProfile {
	cp := CauseProfile{CauseRecord: c, PValue: 1}
	intent, err := jsm.ParseVector(c.Intent)
	if err != nil {
		return cp
	}

	same := 0
	for _, row := range decided {
		if len(row.Values) != intent.Len() || !intent.IsSubsetOf(jsm.VectorOf(row.Values)) {
			continue
		}
		cp.Matches++
		if row.Label == c.Label {
			same++
		}
	}
	if cp.Matches == 0 {
		return cp
	}
	cp.Precision = float64(same) / float64(cp.Matches)

	total := labels[jsm.Positive.String()] + labels[jsm.Negative.String()]
	base := float64(labels[c.Label.String()]) / float64(total)
	if base <= 0 || base >= 1 || same == 0 {
		return cp
	}
	tail := distuv.Binomial{N: float64(cp.Matches), P: base}
	cp.PValue = math.Max(0, math.Min(1, 1-tail.CDF(float64(same-1))))
	return cp
}
