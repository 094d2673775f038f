package types

import "time"

// EventKind names one delegation state transition.
type EventKind string

const (
	EventHop               EventKind = "hop"
	EventSuccess           EventKind = "success"
	EventLimitation        EventKind = "limitation"
	EventToolFailure       EventKind = "toolFailure"
	EventLocalTrip         EventKind = "localTrip"
	EventGlobalTrip        EventKind = "globalTrip"
	EventDepthExceeded     EventKind = "depthExceeded"
	EventEscalate          EventKind = "escalate"
	EventTerminalSuccess   EventKind = "terminalSuccess"
	EventTerminalExhausted EventKind = "terminalExhausted"
)

// Event is the structured record emitted per state transition. It is the
// sole log-visible state of a request; sinks may persist it but no other
// format is mandated.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
	Kind      EventKind `json:"event"`

	// Path is the delegation path at the time of the event.
	Path []string `json:"path"`

	// Node is the node the event refers to, when narrower than the path
	// tail (e.g. the denied candidate on a trip).
	Node string `json:"node,omitempty"`

	// Detail is a human-readable annotation: the proposal justification
	// on a hop, the failure reason on a limitation, the cancel marker on
	// an exhausted terminal.
	Detail string `json:"detail,omitempty"`

	// FailureCounts is a snapshot of per-worker consecutive failures.
	FailureCounts map[string]int `json:"failure_counts,omitempty"`
}
