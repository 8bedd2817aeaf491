package usecases

import (
	"strings"

	"github.com/samirrijal/zonebuf/internal/core/domain"
)

// SkipReason says why a selected street gets no buffer.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipRamp
	SkipHighway
)

func (r SkipReason) String() string {
	switch r {
	case SkipRamp:
		return "ramp"
	case SkipHighway:
		return "highway"
	default:
		return "none"
	}
}

// LabelDecision is the outcome of the label policy for one street.
type LabelDecision struct {
	Label *string
	Skip  SkipReason
}

// LabelPolicy maps street names to assignment labels and drops streets that only add clutter.
// Markers are matched as case-insensitive substrings.
type LabelPolicy struct {
	Unnamed  []string // streets carrying no label
	Ramp     string   // unnamed streets with this marker are skipped
	Excluded []string // named streets with these markers are skipped
}

// DefaultLabelPolicy returns the policy used for US street centerline data.
func DefaultLabelPolicy() LabelPolicy {
	return LabelPolicy{
		Unnamed:  []string{"UNNAMED", "STATE HIGHWAY"},
		Ramp:     " RAMP",
		Excluded: []string{"INTERSTATE"},
	}
}

// Decide applies the policy to a chain name.
func (p LabelPolicy) Decide(street string) LabelDecision {
	upper := strings.ToUpper(street)
	if containsAny(upper, p.Unnamed) {
		if p.Ramp != "" && strings.Contains(upper, strings.ToUpper(p.Ramp)) {
			return LabelDecision{Skip: SkipRamp}
		}
		return LabelDecision{}
	}
	if containsAny(upper, p.Excluded) {
		return LabelDecision{Skip: SkipHighway}
	}
	label := domain.BaseName(street)
	return LabelDecision{Label: &label}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(s, strings.ToUpper(m)) {
			return true
		}
	}
	return false
}
