package regression

import (
	"fmt"

	"github.com/ChelseaVadlapati/packet-analyzer/internal/metrics"
)

// Status is the per-field comparison outcome in the structured mismatch
// table.
type Status string

const (
	StatusOK       Status = "OK"
	StatusMismatch Status = "MISMATCH"
	StatusWarn     Status = "WARN"
)

// FieldComparison is one row of the compatibility table: a field name, its
// baseline and current values (pre-formatted for display), and its status.
type FieldComparison struct {
	Name     string
	Baseline string
	Current  string
	Status   Status
}

// CompatibilityResult is the outcome of the pre-comparison gate.
type CompatibilityResult struct {
	// HardMismatch is true if any must-match field differs between a
	// present baseline metadata and the current run's metadata.
	HardMismatch bool
	Fields       []FieldComparison
	// LegacyWarning is set when the baseline carries no metadata at all;
	// the gate passes but the comparison proceeds on faith.
	LegacyWarning bool
}

type fieldSpec struct {
	name        string
	mustMatch   bool
	baselineVal func(*metrics.Metadata) string
	currentVal  func(metrics.Metadata) string
}

func integer(v int) string { return fmt.Sprintf("%d", v) }

var fieldSpecs = []fieldSpec{
	{"filter", true,
		func(m *metrics.Metadata) string { return m.Filter },
		func(m metrics.Metadata) string { return m.Filter }},
	{"threads", true,
		func(m *metrics.Metadata) string { return integer(m.Threads) },
		func(m metrics.Metadata) string { return integer(m.Threads) }},
	{"warmup_sec", true,
		func(m *metrics.Metadata) string { return integer(m.WarmupSec) },
		func(m metrics.Metadata) string { return integer(m.WarmupSec) }},
	{"duration_sec", true,
		func(m *metrics.Metadata) string { return integer(m.DurationSec) },
		func(m metrics.Metadata) string { return integer(m.DurationSec) }},
	{"traffic_mode", true,
		func(m *metrics.Metadata) string { return m.TrafficMode },
		func(m metrics.Metadata) string { return m.TrafficMode }},
	{"traffic_target", true,
		func(m *metrics.Metadata) string { return m.TrafficTarget },
		func(m metrics.Metadata) string { return m.TrafficTarget }},
	{"traffic_rate", true,
		func(m *metrics.Metadata) string { return integer(m.TrafficRate) },
		func(m metrics.Metadata) string { return integer(m.TrafficRate) }},
	{"interface", false,
		func(m *metrics.Metadata) string { return m.Interface },
		func(m metrics.Metadata) string { return m.Interface }},
	{"os", false,
		func(m *metrics.Metadata) string { return m.OS },
		func(m metrics.Metadata) string { return m.OS }},
	{"bpf_buffer_size", false,
		func(m *metrics.Metadata) string { return integer(m.BPFBufferSize) },
		func(m metrics.Metadata) string { return integer(m.BPFBufferSize) }},
	{"git_sha", false,
		func(m *metrics.Metadata) string { return m.GitSHA },
		func(m metrics.Metadata) string { return m.GitSHA }},
}

// notSet reports whether a baseline value is the empty/zero value, which
// means "not recorded" and never triggers a mismatch for that field.
func notSet(v string) bool {
	return v == "" || v == "0"
}

// CheckCompatibility runs the must-match/advisory gate. baseline may be nil
// (absent baseline metadata), in which case the gate passes with
// LegacyWarning set and no per-field rows are produced.
func CheckCompatibility(baseline *metrics.Metadata, current metrics.Metadata) CompatibilityResult {
	if baseline == nil {
		return CompatibilityResult{LegacyWarning: true}
	}

	result := CompatibilityResult{}
	for _, spec := range fieldSpecs {
		baseVal := spec.baselineVal(baseline)
		curVal := spec.currentVal(current)

		status := StatusOK
		if notSet(baseVal) {
			status = StatusOK
		} else if baseVal != curVal {
			if spec.mustMatch {
				status = StatusMismatch
				result.HardMismatch = true
			} else {
				status = StatusWarn
			}
		}

		result.Fields = append(result.Fields, FieldComparison{
			Name:     spec.name,
			Baseline: baseVal,
			Current:  curVal,
			Status:   status,
		})
	}

	return result
}

// FormatTable renders the structured mismatch table as column-aligned text,
// in the style of the original implementation's compatibility report.
func FormatTable(result CompatibilityResult) string {
	if result.LegacyWarning {
		return "WARNING: baseline has no metadata; compatibility not verified (legacy baseline)\n"
	}

	out := fmt.Sprintf("%-16s %-20s %-20s %s\n", "FIELD", "BASELINE", "CURRENT", "STATUS")
	for _, f := range result.Fields {
		out += fmt.Sprintf("%-16s %-20s %-20s [%s]\n", f.Name, f.Baseline, f.Current, f.Status)
	}
	return out
}
