package redisstore

import (
	"context"
	"fmt"
	"time"
)

// Monitor config cache. Values are opaque JSON owned by the monitor module;
// a miss is not an error, callers fall through to the database.

func (c *Client) SetMonitor(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	key := fmt.Sprintf("watchtower:monitor:%v", id)

	return c.rdb.Set(ctx, key, data, ttl).Err()
}

func (c *Client) GetMonitor(ctx context.Context, id string) ([]byte, bool) {
	key := fmt.Sprintf("watchtower:monitor:%v", id)

	res, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}

	return res, true
}

func (c *Client) DelMonitor(ctx context.Context, id string) error {
	key := fmt.Sprintf("watchtower:monitor:%v", id)

	return c.rdb.Del(ctx, key).Err()
}
