package screening

import "sort"

// Rank orders report entries for presentation: percent descending, then
// application submission time ascending so earlier applicants win ties.
// The sort is stable, so entries equal on both keys keep their original
// relative order.
func Rank(entries []ReportEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Percent != entries[j].Percent {
			return entries[i].Percent > entries[j].Percent
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}
