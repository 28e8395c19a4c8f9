package event

import (
	"time"
	"watchtower/internals/modules/probe"

	"github.com/google/uuid"
)

// Event is one immutable record of a single check execution. Never mutated
// after insert; retained for historical uptime and incident computation.
type Event struct {
	ID                uuid.UUID
	MonitorID         uuid.UUID
	Region            string
	CheckedAt         time.Time
	Status            probe.Status
	StatusCode        int32 // 0 when the check produced no HTTP status
	Timing            probe.Timing
	ResponseSizeBytes int64
	Violations        []string
	ErrorType         string
	ErrorMessage      string
	Degraded          bool // set when global mode fell back to local (no healthy region)
}
