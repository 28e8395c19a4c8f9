package region

import (
	"context"
	"time"
	"watchtower/pkg/utils"

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

const listEnabledQuery = `
SELECT code, endpoint_url, enabled, healthy, COALESCE(last_checked_at, 'epoch'::timestamptz)
FROM regions
WHERE enabled = true AND code <> 'local'
ORDER BY code
`

func (r *Repository) ListEnabled(ctx context.Context) ([]Region, error) {
	const op string = "repo.region.list_enabled"

	rows, err := r.pool.Query(ctx, listEnabledQuery)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	var regions []Region
	for rows.Next() {
		var reg Region
		if err := rows.Scan(&reg.Code, &reg.EndpointURL, &reg.Enabled, &reg.Healthy, &reg.LastCheckedAt); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		regions = append(regions, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return regions, nil
}

const updateHealthQuery = `
UPDATE regions
SET healthy = $2, last_checked_at = $3
WHERE code = $1
`

// UpdateHealth is a single-row upsert keyed by region code; concurrent
// sweeps stay commutative-safe without locking.
func (r *Repository) UpdateHealth(ctx context.Context, code string, healthy bool, checkedAt time.Time) error {
	const op string = "repo.region.update_health"

	_, err := r.pool.Exec(ctx, updateHealthQuery, code, healthy, utils.ToPgTimestamptz(checkedAt))
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}
