// Package metrics computes flat quality records over a scene. Every metric is
// a float64 keyed by a stable snake_case name so records can be diffed,
// gated and weighted without schema churn.
package metrics

import (
	"encoding/json"
	"io"
	"sort"
)

// Record is one fixture's metric values.
type Record map[string]float64

// Merge copies every entry of o into r, overwriting duplicates.
func (r Record) Merge(o Record) {
	for k, v := range o {
		r[k] = v
	}
}

// Keys returns the metric names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Result is a fixture outcome: either a metric record or an engine failure.
// Failures are data, not Go errors, so a broken fixture flows through gates
// and comparisons instead of aborting the run.
type Result struct {
	Metrics Record
	Err     string
}

// Failed reports whether the fixture errored instead of producing metrics.
func (r Result) Failed() bool {
	return r.Err != ""
}

type errorEnvelope struct {
	Error string `json:"error"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Err != "" {
		return json.Marshal(errorEnvelope{Error: r.Err})
	}
	if r.Metrics == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.Metrics)
}

func (r *Result) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if msg, ok := raw["error"]; ok {
		var s string
		if err := json.Unmarshal(msg, &s); err == nil {
			*r = Result{Err: s}
			return nil
		}
	}
	rec := make(Record, len(raw))
	for k, v := range raw {
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			// non-numeric fields are carried by other tooling; skip
			continue
		}
		rec[k] = f
	}
	*r = Result{Metrics: rec}
	return nil
}

// Results maps fixture name to outcome. This is the wire format shared by the
// gate, the comparator and the weight profiler.
type Results map[string]Result

// Fixtures returns the fixture names in sorted order.
func (rs Results) Fixtures() []string {
	names := make([]string, 0, len(rs))
	for name := range rs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ReadResults(r io.Reader) (Results, error) {
	var rs Results
	dec := json.NewDecoder(r)
	if err := dec.Decode(&rs); err != nil {
		return nil, err
	}
	return rs, nil
}

func WriteResults(w io.Writer, rs Results) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rs)
}
