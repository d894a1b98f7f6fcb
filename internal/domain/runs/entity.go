package runs

import (
	"time"
)

// ID tipe untuk Run
type ID string

// Status enum
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusTimeout Status = "timeout"
	StatusError   Status = "error"
)

// Run is the history record of one slim-leaderboard invocation.
type Run struct {
	ID           ID        `json:"id"`
	TargetURL    string    `json:"target_url"`
	TargetType   string    `json:"target_type"`
	OutputFormat string    `json:"output_format"`
	Status       Status    `json:"status"`
	ExitCode     int       `json:"exit_code"`
	DurationMS   int64     `json:"duration_ms"`
	ArtifactURL  string    `json:"artifact_url,omitempty"`
	TriggeredAt  time.Time `json:"triggered_at"`
}
