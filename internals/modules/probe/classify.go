package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"syscall"
)

// Classify maps a transport error to a result status and classification.
// Order matters: timeouts first (a cancelled DNS lookup surfaces as a
// DNSError with IsTimeout set), then the specific failure families.
func Classify(err error) (Status, *CheckError) {

	if errors.Is(err, context.DeadlineExceeded) {
		return StatusTimeout, &CheckError{Type: ErrTimeout, Message: err.Error()}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StatusTimeout, &CheckError{Type: ErrTimeout, Message: err.Error()}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return StatusFailure, &CheckError{Type: ErrDNSFailure, Message: err.Error()}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return StatusFailure, &CheckError{Type: ErrConnRefused, Message: err.Error()}
	}

	if isTLSError(err) {
		return StatusFailure, &CheckError{Type: ErrTLS, Message: err.Error()}
	}

	return StatusFailure, &CheckError{Type: ErrNetwork, Message: err.Error()}
}

func isTLSError(err error) bool {
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return true
	}
	var invalidCert x509.CertificateInvalidError
	return errors.As(err, &invalidCert)
}
