package schema

import "time"

// Severity tags an output entry.
type Severity string

const (
	// SeverityInfo is regular program output.
	SeverityInfo Severity = "info"
	// SeverityWarn is a warning, including output suppression notices.
	SeverityWarn Severity = "warn"
	// SeverityError is an error surfaced from a backend.
	SeverityError Severity = "error"
)

// SeverityFromLevel maps a console method name to a severity.
func SeverityFromLevel(level string) Severity {
	switch level {
	case "error":
		return SeverityError
	case "warn":
		return SeverityWarn
	default:
		return SeverityInfo
	}
}

// OutputEvent is one entry in the output channel.
type OutputEvent struct {
	Seq      uint64   `json:"seq"`
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
	// Generation is the run generation that produced the event.
	Generation uint64 `json:"generation"`
}

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	// RunStarted is published when a run is dispatched.
	RunStarted RunStatus = "started"
	// RunDone indicates natural completion.
	RunDone RunStatus = "done"
	// RunError indicates the backend reported an error.
	RunError RunStatus = "error"
	// RunTimeout indicates a wall clock cap expired.
	RunTimeout RunStatus = "timeout"
	// RunCanceled indicates the run was superseded or aborted.
	RunCanceled RunStatus = "canceled"
)

// Terminal reports whether the status ends a run.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunDone, RunError, RunTimeout, RunCanceled:
		return true
	default:
		return false
	}
}

// StatusEvent reports a run lifecycle transition.
type StatusEvent struct {
	Generation uint64        `json:"generation"`
	Language   Language      `json:"language"`
	Status     RunStatus     `json:"status"`
	Duration   time.Duration `json:"duration,omitempty"`
}

// PreviewEvent announces a freshly rendered preview document.
type PreviewEvent struct {
	Key int    `json:"key"`
	ID  string `json:"id"`
}
