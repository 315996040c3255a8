package harness

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq int64  `json:"seq"`
	Op  string `json:"op"`

	A      string `json:"a,omitempty"`
	B      string `json:"b,omitempty"`
	Filter string `json:"filter,omitempty"`
	Src    string `json:"src,omitempty"`
	Sink   string `json:"sink,omitempty"`

	// Result is the caps result in text form. For negotiate and link it is
	// the fixated format.
	Result string `json:"result,omitempty"`

	// Bool is the result of a predicate op.
	Bool *bool `json:"bool,omitempty"`

	// Session, Cached and Error describe negotiate and link steps.
	Session string `json:"session,omitempty"`
	Cached  *bool  `json:"cached,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step met its expectation.
	Pass bool `json:"pass"`

	// Trace holds one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// canonicalMap converts an event for canonical JSON. Empty fields are
// omitted.
func (e TraceEvent) canonicalMap() map[string]any {
	m := map[string]any{
		"seq": e.Seq,
		"op":  e.Op,
	}
	for k, v := range map[string]string{
		"a":       e.A,
		"b":       e.B,
		"filter":  e.Filter,
		"src":     e.Src,
		"sink":    e.Sink,
		"result":  e.Result,
		"session": e.Session,
		"error":   e.Error,
	} {
		if v != "" {
			m[k] = v
		}
	}
	if e.Bool != nil {
		m["bool"] = *e.Bool
	}
	if e.Cached != nil {
		m["cached"] = *e.Cached
	}
	return m
}
