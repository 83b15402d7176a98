package screening

import (
	"reflect"
	"testing"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		criteria []Criterion
		snapshot Snapshot
		expected Verdict
	}{
		{
			name:     "no requirements short-circuits",
			criteria: nil,
			snapshot: Snapshot{"comm": 90},
			expected: Verdict{
				SatisfiedCount:  0,
				TotalCount:      0,
				FailedImportant: false,
				Percent:         0,
				Status:          StatusNoRequirements,
			},
		},
		{
			name:     "important criterion satisfied with overqualification",
			criteria: []Criterion{{Key: "comm", Min: 50, Important: true}},
			snapshot: Snapshot{"comm": 70},
			expected: Verdict{
				SatisfiedCount: 1,
				TotalCount:     1,
				Percent:        140,
				Status:         StatusMeetsAll,
			},
		},
		{
			name:     "missing key fails important criterion but keeps percent",
			criteria: []Criterion{{Key: "comm", Min: 50, Important: true}},
			snapshot: Snapshot{},
			expected: Verdict{
				SatisfiedCount:  0,
				TotalCount:      1,
				FailedImportant: true,
				Percent:         0,
				Status:          "partial:0%",
			},
		},
		{
			name: "zero minimum satisfied but ratio-weightless",
			criteria: []Criterion{
				{Key: "a", Min: 0},
				{Key: "b", Min: 10},
			},
			snapshot: Snapshot{"a": 5, "b": 5},
			expected: Verdict{
				SatisfiedCount: 1,
				TotalCount:     2,
				Percent:        50,
				Status:         "partial:50%",
			},
		},
		{
			name: "all zero minimums report meets-all with percent 0",
			criteria: []Criterion{
				{Key: "a", Min: 0},
				{Key: "b", Min: 0, Important: true},
			},
			snapshot: Snapshot{"a": 1, "b": 2},
			expected: Verdict{
				SatisfiedCount: 2,
				TotalCount:     2,
				Percent:        0,
				Status:         StatusMeetsAll,
			},
		},
		{
			name:     "overqualification ratio is not clamped",
			criteria: []Criterion{{Key: "x", Min: 10}},
			snapshot: Snapshot{"x": 50},
			expected: Verdict{
				SatisfiedCount: 1,
				TotalCount:     1,
				Percent:        500,
				Status:         StatusMeetsAll,
			},
		},
		{
			name: "ratio averages only thresholded criteria",
			criteria: []Criterion{
				{Key: "a", Min: 10},
				{Key: "b", Min: 20},
				{Key: "c", Min: 0},
			},
			snapshot: Snapshot{"a": 10, "b": 10, "c": 100},
			expected: Verdict{
				SatisfiedCount: 2,
				TotalCount:     3,
				Percent:        75,
				Status:         "partial:75%",
			},
		},
		{
			name: "missing score counts as zero in ratio",
			criteria: []Criterion{
				{Key: "a", Min: 10},
				{Key: "b", Min: 10},
			},
			snapshot: Snapshot{"a": 10},
			expected: Verdict{
				SatisfiedCount: 1,
				TotalCount:     2,
				Percent:        50,
				Status:         "partial:50%",
			},
		},
		{
			name:     "unsatisfiable criterion never passes and has no ratio weight",
			criteria: []Criterion{{Key: "a", Min: 0, Unsatisfiable: true, Important: true}},
			snapshot: Snapshot{"a": 100},
			expected: Verdict{
				SatisfiedCount:  0,
				TotalCount:      1,
				FailedImportant: true,
				Percent:         0,
				Status:          "partial:0%",
			},
		},
		{
			name:     "non-important failure reports partial with computed percent",
			criteria: []Criterion{{Key: "b", Min: 10}},
			snapshot: Snapshot{"b": 5},
			expected: Verdict{
				SatisfiedCount: 0,
				TotalCount:     1,
				Percent:        50,
				Status:         "partial:50%",
			},
		},
		{
			name: "rounding to nearest integer",
			criteria: []Criterion{
				{Key: "a", Min: 3},
			},
			snapshot: Snapshot{"a": 1},
			expected: Verdict{
				SatisfiedCount: 0,
				TotalCount:     1,
				Percent:        33,
				Status:         "partial:33%",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := RequirementSet{Criteria: tt.criteria}
			got := Evaluate(rs, tt.snapshot)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Evaluate() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestEvaluateIsPure(t *testing.T) {
	rs := RequirementSet{Criteria: []Criterion{
		{Key: "comm", Min: 50, Important: true},
		{Key: "tech", Min: 40},
	}}
	snap := Snapshot{"comm": 60, "tech": 20}

	first := Evaluate(rs, snap)
	second := Evaluate(rs, snap)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Evaluate is not idempotent: %+v != %+v", first, second)
	}

	// Inputs must come back untouched.
	if len(rs.Criteria) != 2 || rs.Criteria[0].Key != "comm" {
		t.Errorf("Evaluate mutated the requirement set: %+v", rs.Criteria)
	}
	if snap["comm"] != 60 || snap["tech"] != 20 || len(snap) != 2 {
		t.Errorf("Evaluate mutated the snapshot: %+v", snap)
	}
}
