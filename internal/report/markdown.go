// Package report renders finished runs for people: Markdown for the UI and
// files, and a compact plain-text form for terminals.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"gojsm/domain/jsm"
	"gojsm/domain/run"
	"gojsm/internal/profiling"
)

// Markdown renders the full report of rn. prof may be nil.
func Markdown(rn *run.Run, prof *profiling.Profile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# JSM run %s\n\n", rn.RunID)
	fmt.Fprintf(&b, "Dataset **%s** (%s), %d attributes, %d examples.\n\n",
		orDash(rn.DatasetName), orDash(rn.Source), len(rn.Attributes), len(rn.Results))

	b.WriteString("## Configuration\n\n")
	b.WriteString("| Parameter | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Method | %s |\n", rn.Method)
	fmt.Fprintf(&b, "| Extensional threshold | %d |\n", rn.ExtThreshold)
	fmt.Fprintf(&b, "| Intensional threshold | %d |\n", rn.IntThreshold)
	fmt.Fprintf(&b, "| Ban counterexamples | %v |\n", rn.BanCounterexamples)
	fmt.Fprintf(&b, "| Step budget | %s |\n", budget(rn.MaxSteps))
	fmt.Fprintf(&b, "| Fingerprint | `%s` |\n\n", rn.Fingerprint.Fingerprint.Short())

	b.WriteString("## Verdict\n\n")
	fmt.Fprintf(&b, "Finished at step %d after %d rounds with %d migrations", rn.FinalStep, rn.Rounds, rn.Migrations)
	if rn.FixedPoint {
		b.WriteString(" (fixed point reached).\n\n")
	} else {
		b.WriteString(" (step budget exhausted).\n\n")
	}
	if rn.Complete {
		b.WriteString("Causal completeness: **complete**. Every labeled example is explained by a cause of its label.\n\n")
	} else {
		b.WriteString("Causal completeness: **incomplete**.\n\n")
		fmt.Fprintf(&b, "- Lost positive: %s\n", ids(rn.LostPositive))
		fmt.Fprintf(&b, "- Lost negative: %s\n\n", ids(rn.LostNegative))
	}

	var profiles map[string]profiling.CauseProfile
	if prof != nil {
		profiles = make(map[string]profiling.CauseProfile, len(prof.Causes))
		for _, cp := range prof.Causes {
			profiles[causeKey(cp.CauseRecord)] = cp
		}
	}

	for _, l := range []jsm.Label{jsm.Positive, jsm.Negative} {
		causes := rn.CausesFor(l)
		fmt.Fprintf(&b, "## %s causes (%d)\n\n", title(l.String()), len(causes))
		if len(causes) == 0 {
			b.WriteString("_None._\n\n")
			continue
		}
		if profiles != nil {
			b.WriteString("| Attributes | Extent | Step | Precision | p-value |\n|---|---|---|---|---|\n")
		} else {
			b.WriteString("| Attributes | Extent | Step |\n|---|---|---|\n")
		}
		for _, c := range causes {
			fmt.Fprintf(&b, "| %s | %s | %d |", attrs(c.Attributes), ids(c.Extent), c.Step)
			if profiles != nil {
				cp := profiles[causeKey(c)]
				fmt.Fprintf(&b, " %.2f | %.3g |", cp.Precision, cp.PValue)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if prof != nil {
		writeStatistics(&b, rn, prof)
	}

	b.WriteString("## Examples\n\n| Id | Label | Step |\n|---|---|---|\n")
	for _, row := range rn.Results {
		fmt.Fprintf(&b, "| %d | %s | %d |\n", row.ID, row.Label, row.Step)
	}
	return b.String()
}

func writeStatistics(b *strings.Builder, rn *run.Run, prof *profiling.Profile) {
	b.WriteString("## Statistics\n\n")
	b.WriteString("| Label | Causes | Mean intent size | Median intent size | Mean extent size | Max extent size |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, l := range []jsm.Label{jsm.Positive, jsm.Negative} {
		lp := prof.ByLabel[l.String()]
		fmt.Fprintf(b, "| %s | %d | %.2f | %.1f | %.2f | %.0f |\n", l, lp.Causes,
			lp.IntentSizes.Mean, lp.IntentSizes.Median, lp.ExtentSizes.Mean, lp.ExtentSizes.Max)
	}
	b.WriteString("\n")

	type share struct {
		name     string
		pos, neg float64
	}
	var shares []share
	pos, neg := prof.ByLabel[jsm.Positive.String()], prof.ByLabel[jsm.Negative.String()]
	for i, name := range rn.Attributes {
		s := share{name: name}
		if i < len(pos.AttributeShare) {
			s.pos = pos.AttributeShare[i]
		}
		if i < len(neg.AttributeShare) {
			s.neg = neg.AttributeShare[i]
		}
		if s.pos > 0 || s.neg > 0 {
			shares = append(shares, s)
		}
	}
	if len(shares) == 0 {
		return
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].pos+shares[i].neg > shares[j].pos+shares[j].neg
	})

	b.WriteString("### Attribute participation\n\n| Attribute | Positive causes | Negative causes |\n|---|---|---|\n")
	for _, s := range shares {
		fmt.Fprintf(b, "| %s | %.0f%% | %.0f%% |\n", s.name, 100*s.pos, 100*s.neg)
	}
	b.WriteString("\n")
}

// Text writes a terminal summary of rn to w.
func Text(w io.Writer, rn *run.Run) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "run\t%s\n", rn.RunID)
	fmt.Fprintf(tw, "dataset\t%s\n", orDash(rn.DatasetName))
	fmt.Fprintf(tw, "method\t%s (ext %d, int %d, ban %v)\n", rn.Method, rn.ExtThreshold, rn.IntThreshold, rn.BanCounterexamples)
	fmt.Fprintf(tw, "steps\t%d (rounds %d, migrations %d, fixed point %v)\n", rn.FinalStep, rn.Rounds, rn.Migrations, rn.FixedPoint)
	fmt.Fprintf(tw, "complete\t%v\n", rn.Complete)
	if !rn.Complete {
		fmt.Fprintf(tw, "lost positive\t%s\n", ids(rn.LostPositive))
		fmt.Fprintf(tw, "lost negative\t%s\n", ids(rn.LostNegative))
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "label\tcause\textent\tstep")
	for _, c := range rn.Causes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", c.Label, attrs(c.Attributes), ids(c.Extent), c.Step)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "id\tlabel\tstep")
	for _, row := range rn.Results {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", row.ID, row.Label, row.Step)
	}
	return tw.Flush()
}

func causeKey(c run.CauseRecord) string {
	return c.Label.String() + ":" + c.Intent
}

func attrs(names []string) string {
	if len(names) == 0 {
		return "(empty)"
	}
	return strings.Join(names, " & ")
}

func ids(list []jsm.ExampleID) string {
	if len(list) == 0 {
		return "none"
	}
	return jsm.NewIDSet(list...).String()
}

func budget(steps int) string {
	if steps <= 0 {
		return "until fixed point"
	}
	return fmt.Sprintf("%d", steps)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
