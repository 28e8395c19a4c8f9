package probe

import "net/http"

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusTimeout Status = "timeout"
)

// Transport error classifications. Stored on the event, never raised.
const (
	ErrTimeout        = "timeout"
	ErrDNSFailure     = "dns_failure"
	ErrConnRefused    = "connection_refused"
	ErrTLS            = "tls_error"
	ErrNetwork        = "network_error"
	ErrInvalidRequest = "invalid_request"
)

type AuthMode string

const (
	AuthNone   AuthMode = "none"
	AuthBasic  AuthMode = "basic"
	AuthBearer AuthMode = "bearer"
	AuthHeader AuthMode = "header" // API key via custom header
)

type AuthConfig struct {
	Mode        AuthMode `json:"mode,omitempty"`
	Username    string   `json:"username,omitempty"`
	Password    string   `json:"password,omitempty"`
	Token       string   `json:"token,omitempty"`
	HeaderName  string   `json:"header_name,omitempty"`
	HeaderValue string   `json:"header_value,omitempty"`
}

type HTTPConfig struct {
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
	Auth    *AuthConfig       `json:"auth,omitempty"`
}

type TCPConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Timing is the per-phase breakdown in milliseconds. TCP checks fill only
// TotalMs. TLSMs and TransferMs are derived by subtraction where the
// transport does not expose them directly.
type Timing struct {
	DNSMs      int64 `json:"dns_ms"`
	ConnectMs  int64 `json:"connect_ms"`
	TLSMs      int64 `json:"tls_ms"`
	TTFBMs     int64 `json:"ttfb_ms"`
	TransferMs int64 `json:"transfer_ms"`
	TotalMs    int64 `json:"total_ms"`
}

type CheckError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Result struct {
	Status        Status
	StatusCode    int
	Timing        Timing
	Headers       http.Header
	BodySizeBytes int64
	BodySample    []byte
	BodyCaptured  bool
	Err           *CheckError
}
