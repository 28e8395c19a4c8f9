package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"strings"
	"time"
)

const (
	maxRedirects = 5

	// maxBodySample bounds the slice retained for body rules. The full body
	// is still drained and counted in BodySizeBytes, but content rules only
	// see this window.
	maxBodySample = 64 * 1024
)

// Engine runs checks in-process. The transport disables keep-alives so every
// probe measures a fresh DNS/connect/TLS sequence instead of a reused socket.
type Engine struct {
	transport *http.Transport
}

func NewEngine() *Engine {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: -1,
	}

	return &Engine{
		transport: &http.Transport{
			DialContext:           dialer.DialContext,
			DisableKeepAlives:     true,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

func (e *Engine) ExecuteHTTP(ctx context.Context, cfg *HTTPConfig, timeout time.Duration) Result {

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var dnsStart, dnsDone, connStart, connDone, tlsStart, tlsDone, firstByte time.Time

	trace := &httptrace.ClientTrace{
		DNSStart:     func(httptrace.DNSStartInfo) { dnsStart = time.Now() },
		DNSDone:      func(httptrace.DNSDoneInfo) { dnsDone = time.Now() },
		ConnectStart: func(string, string) { connStart = time.Now() },
		ConnectDone:  func(string, string, error) { connDone = time.Now() },
		TLSHandshakeStart: func() { tlsStart = time.Now() },
		TLSHandshakeDone: func(tls.ConnectionState, error) { tlsDone = time.Now() },
		GotFirstResponseByte: func() {
			if firstByte.IsZero() {
				firstByte = time.Now()
			}
		},
	}

	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if cfg.Body != "" {
		bodyReader = strings.NewReader(cfg.Body)
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(
		httptrace.WithClientTrace(reqCtx, trace),
		method, cfg.URL, bodyReader,
	)
	if err != nil {
		// bad config slipped past creation-time validation; not retryable
		return Result{
			Status: StatusFailure,
			Err:    &CheckError{Type: ErrInvalidRequest, Message: err.Error()},
		}
	}

	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	applyAuth(req, cfg.Auth)

	client := &http.Client{
		Transport: e.transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errors.New("too many redirects")
			}
			return nil
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		status, checkErr := Classify(err)
		return Result{
			Status: status,
			Timing: Timing{TotalMs: time.Since(start).Milliseconds()},
			Err:    checkErr,
		}
	}
	defer resp.Body.Close()

	sample := make([]byte, 0, 4096)
	var size int64
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			size += int64(n)
			if len(sample) < maxBodySample {
				room := maxBodySample - len(sample)
				if n < room {
					room = n
				}
				sample = append(sample, buf[:room]...)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			status, checkErr := Classify(readErr)
			return Result{
				Status:     status,
				StatusCode: resp.StatusCode,
				Timing:     Timing{TotalMs: time.Since(start).Milliseconds()},
				Headers:    resp.Header,
				Err:        checkErr,
			}
		}
	}

	total := time.Since(start)

	return Result{
		Status:        StatusSuccess,
		StatusCode:    resp.StatusCode,
		Timing:        buildTiming(start, dnsStart, dnsDone, connStart, connDone, tlsStart, tlsDone, firstByte, total),
		Headers:       resp.Header,
		BodySizeBytes: size,
		BodySample:    sample,
		BodyCaptured:  true,
	}
}

func buildTiming(start, dnsStart, dnsDone, connStart, connDone, tlsStart, tlsDone, firstByte time.Time, total time.Duration) Timing {
	t := Timing{TotalMs: total.Milliseconds()}

	if !dnsStart.IsZero() && !dnsDone.IsZero() {
		t.DNSMs = dnsDone.Sub(dnsStart).Milliseconds()
	}
	if !connStart.IsZero() && !connDone.IsZero() {
		t.ConnectMs = connDone.Sub(connStart).Milliseconds()
	}
	if !tlsStart.IsZero() && !tlsDone.IsZero() {
		t.TLSMs = tlsDone.Sub(tlsStart).Milliseconds()
	}
	if !firstByte.IsZero() {
		t.TTFBMs = firstByte.Sub(start).Milliseconds()
		// transfer derived by subtraction, not measured
		t.TransferMs = t.TotalMs - t.TTFBMs
		if t.TransferMs < 0 {
			t.TransferMs = 0
		}
	}
	return t
}

func applyAuth(req *http.Request, auth *AuthConfig) {
	if auth == nil {
		return
	}
	switch auth.Mode {
	case AuthBasic:
		req.SetBasicAuth(auth.Username, auth.Password)
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+auth.Token)
	case AuthHeader:
		if auth.HeaderName != "" {
			req.Header.Set(auth.HeaderName, auth.HeaderValue)
		}
	}
}
