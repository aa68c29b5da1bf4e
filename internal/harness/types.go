package harness

import "github.com/pneff/databorg-client/internal/journal"

// Trace event types.
const (
	EventRequest  = "request"
	EventResponse = "response"
	EventError    = "error"
)

// TraceEvent is one observation made while running a scenario.
type TraceEvent struct {
	Seq  int    `json:"seq"`
	Step int    `json:"step"`
	Type string `json:"type"`

	// Request events.
	Path  string `json:"path,omitempty"`
	Query string `json:"query,omitempty"`

	// Response events.
	ID       string `json:"id,omitempty"`
	Response any    `json:"response,omitempty"`

	// Error events carry the error class (see errorClass).
	Error string `json:"error,omitempty"`
}

// JournalRecord is the deterministic part of a journal entry.
type JournalRecord struct {
	Seq    int64          `json:"seq"`
	ID     string         `json:"id"`
	Kind   string         `json:"kind"`
	Status journal.Status `json:"status"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	// Journal lists the recorded requests, oldest first.
	Journal []JournalRecord `json:"journal"`

	// Errors is empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Journal: []JournalRecord{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addEvent(e TraceEvent) {
	e.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, e)
}
