package screening

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Criterion is one scoring dimension declared by a job: a stable key, an
// optional minimum threshold, and an importance flag. Failing an
// important criterion forces overall failure regardless of the aggregate
// ratio.
type Criterion struct {
	Key       string  `json:"key"`
	Min       float64 `json:"min"`
	Important bool    `json:"important"`

	// Unsatisfiable marks a criterion whose declared minimum could not
	// be read as a number. It never passes and carries no ratio weight.
	Unsatisfiable bool `json:"-"`
}

// RequirementSet is the full collection of criteria for one job, in
// stored document order. Order does not affect correctness, only the
// reproducibility of the returned report.
type RequirementSet struct {
	Criteria []Criterion
}

// ParseRequirements decodes a job's stored requirements document of
// shape {"scores": {key: {min?, important?}}} into a typed requirement
// set. An absent, empty, or malformed document yields an empty set, not
// an error; a single malformed criterion never aborts the rest.
func ParseRequirements(raw json.RawMessage) RequirementSet {
	var rs RequirementSet
	if len(raw) == 0 {
		return rs
	}

	var doc struct {
		Scores json.RawMessage `json:"scores"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil || len(doc.Scores) == 0 {
		return rs
	}

	// Token-stream decode so criteria come out in stored key order.
	dec := json.NewDecoder(bytes.NewReader(doc.Scores))
	tok, err := dec.Token()
	if err != nil {
		return rs
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return rs
	}

	seen := make(map[string]bool)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return rs
		}
		key, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return rs
		}
		if key == "" || seen[key] {
			continue
		}

		var entry struct {
			Min       any  `json:"min"`
			Important bool `json:"important"`
		}
		if err := json.Unmarshal(value, &entry); err != nil {
			continue
		}

		seen[key] = true
		rs.Criteria = append(rs.Criteria, newCriterion(key, entry.Min, entry.Important))
	}
	return rs
}

// newCriterion coerces a stored minimum into a numeric threshold.
// Absent means "no threshold" (zero); a value that cannot be read as a
// number makes the criterion unsatisfiable rather than raising.
func newCriterion(key string, min any, important bool) Criterion {
	c := Criterion{Key: key, Important: important}
	switch v := min.(type) {
	case nil:
		// no threshold
	case float64:
		c.Min = v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			c.Unsatisfiable = true
		} else {
			c.Min = f
		}
	case bool:
		c.Unsatisfiable = true
	default:
		c.Unsatisfiable = true
	}
	if c.Min < 0 {
		c.Min = 0
	}
	return c
}
