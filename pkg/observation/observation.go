// Package observation holds what the target system looked like after a
// fault plan was applied, as reported by the executor.
package observation

// Span is one unit of work in a distributed trace.
type Span struct {
	TraceID       string `json:"trace_id"`
	SpanID        string `json:"span_id"`
	OperationName string `json:"operation_name"`
	DurationUS    int64  `json:"duration_us"`
	Status        string `json:"status,omitempty"` // "ok", "unset", "error", or empty
}

// IsError reports whether the span carries an explicit error status.
func (s Span) IsError() bool {
	return s.Status != "" && s.Status != "ok" && s.Status != "unset"
}

// Trace is a sequence of spans produced by one trial.
type Trace struct {
	Spans []Span `json:"spans"`
}

// OperationSequence returns the ordered operation names, used for
// Levenshtein comparison between baseline and current traces.
func (t Trace) OperationSequence() []string {
	seq := make([]string, len(t.Spans))
	for i, s := range t.Spans {
		seq[i] = s.OperationName
	}
	return seq
}

// ErrorSpanCount returns how many spans carry an explicit error status.
func (t Trace) ErrorSpanCount() int {
	n := 0
	for _, s := range t.Spans {
		if s.IsError() {
			n++
		}
	}
	return n
}

// Observation is what the executor returned for one trial. At least one
// field must be populated — an all-absent Observation is meaningless.
type Observation struct {
	StatusCode *int     `json:"status_code,omitempty"`
	LatencyMS  *float64 `json:"latency_ms,omitempty"`
	ErrorRate  *float64 `json:"error_rate,omitempty"`
	ErrorLogs  []string `json:"error_logs,omitempty"`
	Trace      *Trace   `json:"trace,omitempty"`
}

// IsEmpty reports whether no field of the observation carries data.
func (o Observation) IsEmpty() bool {
	return o.StatusCode == nil && o.LatencyMS == nil && o.ErrorRate == nil &&
		len(o.ErrorLogs) == 0 && o.Trace == nil
}
