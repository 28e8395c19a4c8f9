package redisstore

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const scheduleKey string = "watchtower:schedule"
const inflightKey string = "watchtower:inflight"

// ScheduledJob is one claimed queue entry. Member is either a bare monitor id
// (recurring) or "once:<id>" (ad-hoc), DueAt the score it was stored under.
type ScheduledJob struct {
	Member string
	DueAt  time.Time
}

// Schedule upserts the recurring entry for a monitor. ZADD on an existing
// member replaces its score, so re-scheduling can never create a duplicate.
func (c *Client) Schedule(ctx context.Context, member string, nextRun time.Time) error {
	return retry(ctx, 3, func() error {
		return c.rdb.ZAdd(ctx, scheduleKey, redis.Z{
			Score:  float64(nextRun.UnixMilli()),
			Member: member,
		}).Err()
	})
}

// ScheduleIfAbsent adds the entry only when the member is not already
// queued. Startup reconciliation uses it so a live schedule survives a
// process restart untouched.
func (c *Client) ScheduleIfAbsent(ctx context.Context, member string, nextRun time.Time) error {
	return retry(ctx, 3, func() error {
		return c.rdb.ZAddNX(ctx, scheduleKey, redis.Z{
			Score:  float64(nextRun.UnixMilli()),
			Member: member,
		}).Err()
	})
}

func (c *Client) DelSchedule(ctx context.Context, members ...string) error {
	if len(members) == 0 {
		return nil
	}

	args := make([]any, 0, len(members))
	for _, m := range members {
		args = append(args, m)
	}

	return retry(ctx, 3, func() error {
		return c.rdb.ZRem(ctx, scheduleKey, args...).Err()
	})
}

// ClaimDue atomically moves due members from the schedule set into the
// inflight set (scored at now + visibilityTimeout) and returns them with
// their original due timestamps.
func (c *Client) ClaimDue(ctx context.Context, script string, now time.Time, limit int, visibilityTimeout time.Duration) ([]ScheduledJob, error) {

	nowMillis := now.UnixMilli()
	visibilityMillis := visibilityTimeout.Milliseconds()

	result, err := c.rdb.Eval(
		ctx,
		script,
		[]string{scheduleKey, inflightKey},
		nowMillis,
		limit,
		visibilityMillis,
	).Result()

	if err != nil {
		return nil, err
	}

	rawItems, ok := result.([]any)
	if !ok {
		return nil, nil
	}

	// flat [member, score, member, score, ...] from WITHSCORES
	jobs := make([]ScheduledJob, 0, len(rawItems)/2)

	for i := 0; i+1 < len(rawItems); i += 2 {
		member, ok := rawItems[i].(string)
		if !ok {
			continue
		}
		scoreStr, ok := rawItems[i+1].(string)
		if !ok {
			continue
		}
		scoreMillis, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}
		jobs = append(jobs, ScheduledJob{
			Member: member,
			DueAt:  time.UnixMilli(int64(scoreMillis)),
		})
	}

	return jobs, nil
}

func (c *Client) AckJob(ctx context.Context, member string) error {
	return c.rdb.ZRem(ctx, inflightKey, member).Err()
}

func (c *Client) ReclaimJobs(ctx context.Context, script string, now time.Time, limit int) (int64, error) {

	nowMillis := now.UnixMilli()

	result, err := c.rdb.Eval(ctx, script, []string{inflightKey, scheduleKey}, nowMillis, limit).Result()
	if err != nil {
		return 0, err
	}
	count, ok := result.(int64)
	if !ok {
		return 0, nil
	}

	return count, nil
}
