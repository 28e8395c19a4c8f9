package probe

import (
	"context"
	"net"
	"strconv"
	"time"
)

// ExecuteTCP attempts a raw connect within the timeout. Only connect
// success/failure and total timing are reported.
func (e *Engine) ExecuteTCP(ctx context.Context, cfg *TCPConfig, timeout time.Duration) Result {

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	address := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	start := time.Now()

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, "tcp", address)
	total := time.Since(start).Milliseconds()

	if err != nil {
		status, checkErr := Classify(err)
		return Result{
			Status: status,
			Timing: Timing{TotalMs: total},
			Err:    checkErr,
		}
	}
	_ = conn.Close()

	return Result{
		Status: StatusSuccess,
		Timing: Timing{ConnectMs: total, TotalMs: total},
	}
}
