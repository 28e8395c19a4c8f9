package event

import (
	"context"
	"encoding/json"
	"watchtower/pkg/utils"

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

var eventColumns = []string{
	"id", "monitor_id", "region", "checked_at", "status", "status_code",
	"dns_ms", "connect_ms", "tls_ms", "ttfb_ms", "transfer_ms", "total_ms",
	"response_size_bytes", "violations", "error_type", "error_message", "degraded",
}

const insertEventQuery = `
INSERT INTO monitor_events
(id, monitor_id, region, checked_at, status, status_code,
 dns_ms, connect_ms, tls_ms, ttfb_ms, transfer_ms, total_ms,
 response_size_bytes, violations, error_type, error_message, degraded)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
`

func (r *Repository) Insert(ctx context.Context, e Event) error {
	const op string = "repo.event.insert"

	_, err := r.pool.Exec(ctx, insertEventQuery, eventRow(e)...)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

// BulkInsert appends a batch through the COPY protocol; global-mode jobs
// produce one event per region in a single round trip.
func (r *Repository) BulkInsert(ctx context.Context, events []Event) error {
	const op string = "repo.event.bulk_insert"

	if len(events) == 0 {
		return nil
	}
	if len(events) == 1 {
		return r.Insert(ctx, events[0])
	}

	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"monitor_events"},
		eventColumns,
		pgx.CopyFromSlice(len(events), func(i int) ([]any, error) {
			return eventRow(events[i]), nil
		}),
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

func eventRow(e Event) []any {
	var violationsJSON []byte
	if len(e.Violations) > 0 {
		violationsJSON, _ = json.Marshal(e.Violations)
	}

	var statusCode any
	if e.StatusCode != 0 {
		statusCode = e.StatusCode
	}

	return []any{
		utils.ToPgUUID(e.ID),
		utils.ToPgUUID(e.MonitorID),
		e.Region,
		utils.ToPgTimestamptz(e.CheckedAt),
		string(e.Status),
		statusCode,
		e.Timing.DNSMs,
		e.Timing.ConnectMs,
		e.Timing.TLSMs,
		e.Timing.TTFBMs,
		e.Timing.TransferMs,
		e.Timing.TotalMs,
		e.ResponseSizeBytes,
		violationsJSON,
		utils.ToPgText(e.ErrorType),
		utils.ToPgText(e.ErrorMessage),
		e.Degraded,
	}
}
