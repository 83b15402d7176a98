package screening

import (
	"fmt"
	"math"
)

// Verdict statuses.
const (
	StatusNoRequirements = "no-requirements"
	StatusMeetsAll       = "meets-all"
)

// PartialStatus formats the status label for a candidate that fails one
// or more criteria.
func PartialStatus(percent int) string {
	return fmt.Sprintf("partial:%d%%", percent)
}

// Verdict is the computed fitness result for one candidate against one
// requirement set. Verdicts are ephemeral: computed per request, never
// persisted.
type Verdict struct {
	SatisfiedCount  int    `json:"satisfied_count"`
	TotalCount      int    `json:"total_count"`
	FailedImportant bool   `json:"failed_important"`
	Percent         int    `json:"percent"`
	Status          string `json:"status"`
}

// Evaluate computes a verdict for one snapshot against one requirement
// set. It is a pure function: no I/O, no side effects, identical inputs
// give identical output.
//
// The percent is the average of value/min over criteria with a positive
// minimum, times 100. Individual ratios are deliberately not capped at
// 100%: scoring far above a threshold pushes the percent above 100 as an
// overqualification signal. Criteria with a zero or absent minimum never
// contribute ratio weight, so a set made only of those reports percent 0
// even when its status is meets-all.
func Evaluate(rs RequirementSet, snap Snapshot) Verdict {
	v := Verdict{TotalCount: len(rs.Criteria)}
	if v.TotalCount == 0 {
		v.Status = StatusNoRequirements
		return v
	}

	var ratioSum float64
	var ratioCount int
	for _, c := range rs.Criteria {
		value, present := snap[c.Key]
		ok := present && !c.Unsatisfiable && value >= c.Min
		if ok {
			v.SatisfiedCount++
		} else if c.Important {
			v.FailedImportant = true
		}
		if !c.Unsatisfiable && c.Min > 0 {
			contribution := 0.0
			if present {
				contribution = value
			}
			ratioSum += contribution / c.Min
			ratioCount++
		}
	}

	if ratioCount > 0 {
		v.Percent = int(math.Round(ratioSum / float64(ratioCount) * 100))
	}

	if !v.FailedImportant && v.SatisfiedCount == v.TotalCount {
		v.Status = StatusMeetsAll
	} else {
		v.Status = PartialStatus(v.Percent)
	}
	return v
}
