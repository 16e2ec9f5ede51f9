package types

import "time"

// State represents the pipeline state machine for one ingestion run.
type State string

const (
	StateIdle        State = "idle"
	StateDiscovering State = "discovering"
	StateFetching    State = "fetching"
	StateExtracting  State = "extracting"
	StateStoring     State = "storing"
	StateComparing   State = "comparing"
	StateError       State = "error"
)

// ItemFailure records a per-descriptor failure inside a run. Failures
// are isolated: they never abort sibling descriptors.
type ItemFailure struct {
	Name            string `json:"name"`
	NotificationURL string `json:"notification_url"`
	Kind            string `json:"kind"`
	Message         string `json:"message"`
}

// RunReport is the terminal result of one ingestion run for one date.
type RunReport struct {
	Date       string        `json:"date"`
	Discovered int           `json:"discovered"`
	Stored     int           `json:"stored"`
	Failures   []ItemFailure `json:"failures,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// LogEntry is a single timestamped progress line kept by the run state
// manager for the status endpoint.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// StatusResponse is the JSON response for GET /api/status.
type StatusResponse struct {
	State      State      `json:"state"`
	Logs       []LogEntry `json:"logs"`
	LastReport *RunReport `json:"last_report,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// StoredEvent is the payload published for each successfully stored
// circular when event publication is configured.
type StoredEvent struct {
	SourceDocumentRef string    `json:"source_document_ref"`
	Name              string    `json:"name"`
	CircularDate      string    `json:"circular_date"`
	StoredAt          time.Time `json:"stored_at"`
}
