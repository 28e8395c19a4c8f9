package status

import (
	"time"

	"github.com/google/uuid"
)

type Current string

const (
	Unknown Current = "unknown"
	Up      Current = "up"
	Down    Current = "down"
)

// MonitorStatus is the authoritative rolling health state, one row per
// monitor, overwritten after every check (never appended).
type MonitorStatus struct {
	MonitorID            uuid.UUID
	CurrentStatus        Current
	ConsecutiveSuccesses int32
	ConsecutiveFailures  int32
	LastCheckedAt        time.Time
	NextCheckAt          time.Time
}
