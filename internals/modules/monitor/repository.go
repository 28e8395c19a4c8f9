package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"watchtower/internals/modules/probe"
	"watchtower/internals/modules/rules"
	"watchtower/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type Repository struct {
	pool   *pgxpool.Pool
	logger *zerolog.Logger
}

func NewRepository(pool *pgxpool.Pool, logger *zerolog.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: logger,
	}
}

const getMonitorByIDQuery = `
SELECT id, org_id, type, interval_sec, timeout_sec, enabled, mode, regions, config, rules
FROM monitors
WHERE id = $1 AND deleted_at IS NULL
`

func (r *Repository) GetByID(ctx context.Context, monitorID uuid.UUID) (*Monitor, error) {
	const op string = "repo.monitor.get_by_id"

	var (
		m          Monitor
		configJSON []byte
		rulesJSON  []byte
	)

	err := r.pool.QueryRow(ctx, getMonitorByIDQuery, utils.ToPgUUID(monitorID)).Scan(
		&m.ID,
		&m.OrgID,
		&m.Type,
		&m.IntervalSec,
		&m.TimeoutSec,
		&m.Enabled,
		&m.Mode,
		&m.Regions,
		&configJSON,
		&rulesJSON,
	)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, true, r.logger)
	}

	if err := unmarshalConfig(&m, configJSON); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(rulesJSON) > 0 {
		var rs []rules.Rule
		if err := json.Unmarshal(rulesJSON, &rs); err != nil {
			return nil, fmt.Errorf("%s: decode rules: %w", op, err)
		}
		m.Rules = rs
	}

	return &m, nil
}

const listEnabledSchedulesQuery = `
SELECT id, interval_sec
FROM monitors
WHERE enabled = true AND deleted_at IS NULL
`

// ScheduleSeed is the minimal projection used to rebuild the schedule queue
// on startup.
type ScheduleSeed struct {
	ID          uuid.UUID
	IntervalSec int32
}

func (r *Repository) ListEnabledSchedules(ctx context.Context) ([]ScheduleSeed, error) {
	const op string = "repo.monitor.list_enabled_schedules"

	rows, err := r.pool.Query(ctx, listEnabledSchedulesQuery)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	var seeds []ScheduleSeed
	for rows.Next() {
		var s ScheduleSeed
		if err := rows.Scan(&s.ID, &s.IntervalSec); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		seeds = append(seeds, s)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return seeds, nil
}

func unmarshalConfig(m *Monitor, configJSON []byte) error {
	switch m.Type {
	case TypeHTTP:
		var cfg probe.HTTPConfig
		if err := json.Unmarshal(configJSON, &cfg); err != nil {
			return fmt.Errorf("decode http config: %w", err)
		}
		m.HTTP = &cfg
	case TypeTCP:
		var cfg probe.TCPConfig
		if err := json.Unmarshal(configJSON, &cfg); err != nil {
			return fmt.Errorf("decode tcp config: %w", err)
		}
		m.TCP = &cfg
	default:
		return fmt.Errorf("unknown monitor type %q", m.Type)
	}
	return nil
}
