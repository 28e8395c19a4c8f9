package monitor

import (
	"fmt"
	"time"
	"watchtower/internals/modules/probe"
	"watchtower/internals/modules/rules"

	"github.com/google/uuid"
)

type Type string

const (
	TypeHTTP Type = "http"
	TypeTCP  Type = "tcp"
)

type Mode string

const (
	ModeLocal  Mode = "local"
	ModeGlobal Mode = "global"
)

const (
	MinIntervalSec = 30
	MaxIntervalSec = 86400
)

// Monitor is a user-defined check target. The CRUD service owns writes;
// this core only reads it at execution time so edits made between scheduling
// and firing are honored automatically.
type Monitor struct {
	ID          uuid.UUID         `json:"id"`
	OrgID       uuid.UUID         `json:"org_id"`
	Type        Type              `json:"type"`
	IntervalSec int32             `json:"interval_sec"`
	TimeoutSec  int32             `json:"timeout_sec"`
	Enabled     bool              `json:"enabled"`
	Mode        Mode              `json:"mode"`
	Regions     []string          `json:"regions,omitempty"`
	HTTP        *probe.HTTPConfig `json:"http,omitempty"`
	TCP         *probe.TCPConfig  `json:"tcp,omitempty"`
	Rules       []rules.Rule      `json:"rules,omitempty"`
}

func (m *Monitor) Interval() time.Duration {
	return time.Duration(m.IntervalSec) * time.Second
}

func (m *Monitor) Timeout() time.Duration {
	return time.Duration(m.TimeoutSec) * time.Second
}

// Validate is the configuration-error boundary: invalid definitions are
// rejected before scheduling and never reach the executor.
func (m *Monitor) Validate() error {
	if m.IntervalSec < MinIntervalSec || m.IntervalSec > MaxIntervalSec {
		return fmt.Errorf("interval %ds out of bounds [%d, %d]", m.IntervalSec, MinIntervalSec, MaxIntervalSec)
	}

	switch m.Type {
	case TypeHTTP:
		if m.HTTP == nil || m.HTTP.URL == "" {
			return fmt.Errorf("http monitor needs a url")
		}
	case TypeTCP:
		if m.TCP == nil || m.TCP.Host == "" || m.TCP.Port <= 0 || m.TCP.Port > 65535 {
			return fmt.Errorf("tcp monitor needs a host and a valid port")
		}
	default:
		return fmt.Errorf("unknown monitor type %q", m.Type)
	}

	if m.Mode != ModeLocal && m.Mode != ModeGlobal {
		return fmt.Errorf("unknown monitoring mode %q", m.Mode)
	}

	return rules.ValidateAll(m.Rules)
}
