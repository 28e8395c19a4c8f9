package status

import (
	"context"
	"errors"
	"time"
	"watchtower/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

// Counter arithmetic and the monotonic last-checked-at guard live in one
// statement, so concurrent workers (and worker processes) stay safe without
// locks: an older, slower check can never overwrite a newer result.
const applyQuery = `
INSERT INTO monitor_status AS ms
(monitor_id, current_status, consecutive_successes, consecutive_failures, last_checked_at, next_check_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (monitor_id) DO UPDATE SET
    current_status        = EXCLUDED.current_status,
    consecutive_successes = CASE WHEN EXCLUDED.current_status = 'up'   THEN ms.consecutive_successes + 1 ELSE 0 END,
    consecutive_failures  = CASE WHEN EXCLUDED.current_status = 'down' THEN ms.consecutive_failures + 1  ELSE 0 END,
    last_checked_at       = EXCLUDED.last_checked_at,
    next_check_at         = EXCLUDED.next_check_at
WHERE ms.last_checked_at <= EXCLUDED.last_checked_at
RETURNING current_status, consecutive_successes, consecutive_failures
`

// Apply records one check outcome. Returns applied=false when the monotonic
// guard rejected a stale result; that is not an error.
func (r *Repository) Apply(ctx context.Context, monitorID uuid.UUID, success bool, checkedAt, nextCheckAt time.Time) (MonitorStatus, bool, error) {
	const op string = "repo.status.apply"

	current := Down
	successes, failures := int32(0), int32(1)
	if success {
		current = Up
		successes, failures = 1, 0
	}

	st := MonitorStatus{
		MonitorID:     monitorID,
		LastCheckedAt: checkedAt,
		NextCheckAt:   nextCheckAt,
	}

	err := r.pool.QueryRow(ctx, applyQuery,
		utils.ToPgUUID(monitorID),
		string(current),
		successes,
		failures,
		utils.ToPgTimestamptz(checkedAt),
		utils.ToPgTimestamptz(nextCheckAt),
	).Scan(&st.CurrentStatus, &st.ConsecutiveSuccesses, &st.ConsecutiveFailures)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// stale result lost the monotonic race
			return MonitorStatus{}, false, nil
		}
		return MonitorStatus{}, false, utils.WrapRepoError(op, err, false, r.logger)
	}

	return st, true, nil
}
