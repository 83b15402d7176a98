package screening

import (
	"testing"
	"time"
)

func TestRank(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []ReportEntry{
		{ApplicationID: 1, Percent: 50, CreatedAt: base.Add(2 * time.Hour)},
		{ApplicationID: 2, Percent: 140, CreatedAt: base.Add(3 * time.Hour)},
		{ApplicationID: 3, Percent: 50, CreatedAt: base},
		{ApplicationID: 4, Percent: 0, CreatedAt: base},
		{ApplicationID: 5, Percent: 140, CreatedAt: base.Add(time.Hour)},
	}

	Rank(entries)

	want := []int64{5, 2, 3, 1, 4}
	for i, id := range want {
		if entries[i].ApplicationID != id {
			t.Fatalf("position %d = application %d, want %d (order: %+v)", i, entries[i].ApplicationID, id, entries)
		}
	}
}

func TestRankIsStable(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// Equal percent and equal submission time: original order must
	// survive the sort.
	entries := []ReportEntry{
		{ApplicationID: 10, Percent: 80, CreatedAt: at},
		{ApplicationID: 11, Percent: 80, CreatedAt: at},
		{ApplicationID: 12, Percent: 80, CreatedAt: at},
	}

	Rank(entries)

	for i, id := range []int64{10, 11, 12} {
		if entries[i].ApplicationID != id {
			t.Fatalf("stable order broken at %d: got %d, want %d", i, entries[i].ApplicationID, id)
		}
	}
}

func TestRankEarlierApplicantWinsTie(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []ReportEntry{
		{ApplicationID: 1, Percent: 75, CreatedAt: at.Add(time.Minute)},
		{ApplicationID: 2, Percent: 75, CreatedAt: at},
	}

	Rank(entries)

	if entries[0].ApplicationID != 2 {
		t.Fatalf("expected earlier applicant first, got %+v", entries)
	}
}
