package screening

import "encoding/json"

// Snapshot is a candidate's recorded numeric scores per criterion key.
// A key missing from the snapshot means "no score", not zero, for
// threshold comparison; ratio computation treats it as zero.
type Snapshot map[string]float64

// ParseSnapshot decodes stored profile scores into a snapshot. Entries
// whose value is not a number are dropped, which makes them read as
// absent during evaluation. Absent or malformed input yields the empty
// snapshot.
func ParseSnapshot(raw json.RawMessage) Snapshot {
	snap := Snapshot{}
	if len(raw) == 0 {
		return snap
	}
	var scores map[string]any
	if err := json.Unmarshal(raw, &scores); err != nil {
		return snap
	}
	for key, value := range scores {
		if n, ok := value.(float64); ok {
			snap[key] = n
		}
	}
	return snap
}
