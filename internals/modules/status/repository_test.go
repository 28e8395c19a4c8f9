package status

// These tests run the real upsert statement and need a database. Point
// TEST_DATABASE_URL at a postgres with db/schema.sql applied; they skip
// otherwise.

import (
	"context"
	"os"
	"testing"
	"time"
	"watchtower/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

func testRepository(t *testing.T) (*Repository, *pgxpool.Pool) {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	logger := zerolog.Nop()
	return NewRepository(pool, &logger), pool
}

func insertTestMonitor(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO monitors (id, org_id, type, interval_sec, config) VALUES ($1, $2, 'http', 60, '{}')`,
		utils.ToPgUUID(id), utils.ToPgUUID(uuid.New()),
	)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM monitor_status WHERE monitor_id = $1`, utils.ToPgUUID(id))
		_, _ = pool.Exec(context.Background(), `DELETE FROM monitors WHERE id = $1`, utils.ToPgUUID(id))
	})

	return id
}

func TestApplyCounterArithmetic(t *testing.T) {
	repo, pool := testRepository(t)
	id := insertTestMonitor(t, pool)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	interval := time.Minute

	// three failures in a row accumulate the failure streak
	for i := 1; i <= 3; i++ {
		checkedAt := base.Add(time.Duration(i) * interval)
		st, applied, err := repo.Apply(ctx, id, false, checkedAt, checkedAt.Add(interval))
		if err != nil {
			t.Fatal(err)
		}
		if !applied {
			t.Fatalf("check %d: in-order result must apply", i)
		}
		if st.CurrentStatus != Down {
			t.Fatalf("check %d: want down, got %s", i, st.CurrentStatus)
		}
		if st.ConsecutiveFailures != int32(i) || st.ConsecutiveSuccesses != 0 {
			t.Fatalf("check %d: want failures=%d successes=0, got failures=%d successes=%d",
				i, i, st.ConsecutiveFailures, st.ConsecutiveSuccesses)
		}
	}

	// one success flips the status and resets the failure streak
	checkedAt := base.Add(4 * interval)
	st, applied, err := repo.Apply(ctx, id, true, checkedAt, checkedAt.Add(interval))
	if err != nil {
		t.Fatal(err)
	}
	if !applied {
		t.Fatal("recovery result must apply")
	}
	if st.CurrentStatus != Up {
		t.Fatalf("recovery: want up, got %s", st.CurrentStatus)
	}
	if st.ConsecutiveSuccesses != 1 || st.ConsecutiveFailures != 0 {
		t.Fatalf("recovery: want successes=1 failures=0, got successes=%d failures=%d",
			st.ConsecutiveSuccesses, st.ConsecutiveFailures)
	}
}

func TestApplyRejectsStaleResult(t *testing.T) {
	repo, pool := testRepository(t)
	id := insertTestMonitor(t, pool)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)

	if _, applied, err := repo.Apply(ctx, id, true, base.Add(2*time.Minute), base.Add(3*time.Minute)); err != nil || !applied {
		t.Fatalf("seed result must apply, applied=%v err=%v", applied, err)
	}

	// a slower worker finishing an older check must lose the race quietly
	_, applied, err := repo.Apply(ctx, id, false, base.Add(time.Minute), base.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("stale result is not an error, got %v", err)
	}
	if applied {
		t.Fatal("stale result must not apply")
	}

	var current string
	var successes, failures int32
	var lastCheckedAt time.Time
	err = pool.QueryRow(ctx,
		`SELECT current_status, consecutive_successes, consecutive_failures, last_checked_at
		 FROM monitor_status WHERE monitor_id = $1`,
		utils.ToPgUUID(id),
	).Scan(&current, &successes, &failures, &lastCheckedAt)
	if err != nil {
		t.Fatal(err)
	}

	if current != string(Up) || successes != 1 || failures != 0 {
		t.Fatalf("stale write leaked into the row: status=%s successes=%d failures=%d", current, successes, failures)
	}
	if !lastCheckedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("last_checked_at moved backwards to %v", lastCheckedAt)
	}
}
