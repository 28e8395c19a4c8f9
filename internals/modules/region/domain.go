package region

import "time"

// LocalCode is the reserved region meaning "execute in-process". It is never
// health-polled and never stored with an endpoint.
const LocalCode = "local"

type Region struct {
	Code          string    `json:"code"`
	EndpointURL   string    `json:"endpoint_url"`
	Enabled       bool      `json:"enabled"`
	Healthy       bool      `json:"healthy"`
	LastCheckedAt time.Time `json:"last_checked_at"`
}

// Target is one execution location chosen for a job. Degraded marks the
// local fallback taken when a global monitor had no healthy region left.
type Target struct {
	Region   string
	Degraded bool
}
