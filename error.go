package apicall

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

var (
	ErrNotConfigured   = errors.New("[apicall] api address is not configured")
	ErrNotDispatchable = errors.New("[apicall] method name has no recognized prefix")
)

// Transport error codes. Numbering follows libcurl's CURLcode values.
const (
	CodeUnknown             = -1
	CodeUnsupportedProtocol = 1
	CodeMalformedURL        = 3
	CodeResolveProxy        = 5
	CodeResolveHost         = 6
	CodeConnect             = 7
	CodeTimeout             = 28
	CodeSSLConnect          = 35
	CodeAborted             = 42
	CodeRecv                = 56
	CodePeerVerification    = 60
)

// TransportError is returned when a request could not be completed.
type TransportError struct {
	Code    int
	Message string
	e       error
}

// NewTransportError classifies err and wraps it.
func NewTransportError(err error) *TransportError {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	return &TransportError{Code: classify(err), Message: err.Error(), e: err}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("[apicall] transport error %d: %s", e.Code, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.e
}

func classify(err error) int {
	if errors.Is(err, context.Canceled) {
		return CodeAborted
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return CodeTimeout
	}

	var cve *tls.CertificateVerificationError
	var uae x509.UnknownAuthorityError
	var cie x509.CertificateInvalidError
	var he x509.HostnameError
	var sre x509.SystemRootsError
	if errors.As(err, &cve) || errors.As(err, &uae) || errors.As(err, &cie) || errors.As(err, &he) || errors.As(err, &sre) {
		return CodePeerVerification
	}
	var rhe tls.RecordHeaderError
	if errors.As(err, &rhe) {
		return CodeSSLConnect
	}

	var oe *net.OpError
	hasOp := errors.As(err, &oe)
	var dnse *net.DNSError
	if errors.As(err, &dnse) {
		if hasOp && oe.Op == "proxyconnect" {
			return CodeResolveProxy
		}
		return CodeResolveHost
	}
	if hasOp {
		switch oe.Op {
		case "dial", "proxyconnect":
			return CodeConnect
		case "read":
			return CodeRecv
		}
	}

	var ue *url.Error
	if errors.As(err, &ue) && ue.Op == "parse" {
		return CodeMalformedURL
	}
	if strings.Contains(err.Error(), "unsupported protocol scheme") {
		return CodeUnsupportedProtocol
	}
	return CodeUnknown
}
