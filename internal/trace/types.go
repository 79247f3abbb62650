package trace

// Event is one step of a dispatch trace.
//
// Types:
//   - "attempt_failed": one failed duplication attempt (Attempt, Error)
//   - "dispatched": the single outcome routing (Handler, and ChildPID
//     or Attempts/Error depending on the outcome)
//   - "exit": the default error handler terminated the process (Code)
type Event struct {
	Type    string `json:"type"`
	Seq     int64  `json:"seq"`
	Attempt int    `json:"attempt,omitempty"`
	Error   string `json:"error,omitempty"`
	// Handler names the routed handler: "parent", "child", "error", or
	// "default_error".
	Handler  string `json:"handler,omitempty"`
	ChildPID int    `json:"child_pid,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
	Code     int    `json:"code,omitempty"`
}

// Snapshot captures the complete trace of one scenario execution.
type Snapshot struct {
	ScenarioName string  `json:"scenario_name"`
	ChainToken   string  `json:"chain_token"`
	Events       []Event `json:"events"`
}

// CanonicalJSON serializes the snapshot as RFC 8785 canonical JSON for
// golden comparison. Zero-valued optional fields are omitted, matching
// the json struct tags.
func (s *Snapshot) CanonicalJSON() ([]byte, error) {
	events := make([]any, len(s.Events))
	for i, e := range s.Events {
		m := map[string]any{
			"type": e.Type,
			"seq":  e.Seq,
		}
		if e.Attempt != 0 {
			m["attempt"] = e.Attempt
		}
		if e.Error != "" {
			m["error"] = e.Error
		}
		if e.Handler != "" {
			m["handler"] = e.Handler
		}
		if e.ChildPID != 0 {
			m["child_pid"] = e.ChildPID
		}
		if e.Attempts != 0 {
			m["attempts"] = e.Attempts
		}
		if e.Code != 0 {
			m["code"] = e.Code
		}
		events[i] = m
	}

	return MarshalCanonical(map[string]any{
		"scenario_name": s.ScenarioName,
		"chain_token":   s.ChainToken,
		"events":        events,
	})
}
