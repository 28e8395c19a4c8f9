package scheduler

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// oncePrefix marks ad-hoc members in the schedule set so an immediate check
// can coexist with the monitor's recurring entry under a distinct member.
const oncePrefix = "once:"

// JobPayload is what travels from the claim loop to the executor workers.
// DueAt is the score the job was stored under, which keeps recurring
// schedules drift free: the next firing is computed from DueAt, not from
// whenever the worker got around to it.
type JobPayload struct {
	MonitorID uuid.UUID
	DueAt     time.Time
	OneOff    bool
	Member    string
}

// MemberFor is the recurring schedule member for a monitor.
func MemberFor(monitorID uuid.UUID) string {
	return monitorID.String()
}

// OnceMemberFor is the ad-hoc member for an immediate check of a monitor.
func OnceMemberFor(monitorID uuid.UUID) string {
	return oncePrefix + monitorID.String()
}

// ParseMember turns a raw schedule member back into its monitor id,
// reporting whether it was an ad-hoc entry.
func ParseMember(member string) (uuid.UUID, bool, error) {
	raw := member
	oneOff := false

	if strings.HasPrefix(member, oncePrefix) {
		raw = strings.TrimPrefix(member, oncePrefix)
		oneOff = true
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, err
	}

	return id, oneOff, nil
}
