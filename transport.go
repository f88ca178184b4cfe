package apicall

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Transport opens a new Handle for every call. Handles are never shared
// between calls.
type Transport interface {
	Open(cfg Config) (Handle, error)
}

// Handle is a single-use connection to the remote API.
type Handle interface {
	// Execute performs the request and returns the raw response body.
	Execute(ctx context.Context, t *Target) (string, error)
	// Close releases the handle.
	Close() error
}

// DefaultTransport is used by clients that were not given a Transport.
var DefaultTransport Transport = RestyTransport{}

// RestyTransport opens handles backed by a dedicated resty client.
type RestyTransport struct{}

type restyHandle struct {
	client *resty.Client
	tr     *http.Transport
	cfg    Config
	closed bool
}

// Open builds a resty client configured from cfg: timeout, IPv4-only
// resolution and proxy settings. TLS verification is applied by Execute.
func (RestyTransport) Open(cfg Config) (Handle, error) {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 5 * time.Second,
		DisableKeepAlives:     true,
	}

	if cfg.ResolveIPv4 {
		tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if network == "tcp" {
				network = "tcp4"
			}
			return dialer.DialContext(ctx, network, addr)
		}
	}

	if cfg.UseProxy {
		u, err := proxyURL(cfg)
		if err != nil {
			return nil, err
		}
		if u != nil {
			tr.Proxy = http.ProxyURL(u)
		}
	}

	c := resty.New().
		SetTransport(tr).
		SetLogger(restyLogger{}).
		SetCloseConnection(true).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}))
	if cfg.Timeout > 0 {
		c.SetTimeout(time.Duration(cfg.Timeout) * time.Second)
	}

	return &restyHandle{client: c, tr: tr, cfg: cfg}, nil
}

func (h *restyHandle) Execute(ctx context.Context, t *Target) (string, error) {
	if h.closed {
		return "", errors.New("handle already closed")
	}
	// certificate names are checked against the target host, known only now
	if u, err := url.Parse(t.URL); err == nil {
		h.tr.TLSClientConfig = tlsConfig(h.cfg, u.Hostname())
	}

	r := h.client.R().SetContext(ctx)
	if t.Method == http.MethodPost {
		r.SetHeader("Content-Type", "application/x-www-form-urlencoded")
		if t.Body != "" {
			r.SetBody(t.Body)
		}
	}

	resp, err := r.Execute(t.Method, t.URL)
	if err != nil {
		return "", err
	}
	return strings.Trim(string(resp.Body()), whitespace), nil
}

func (h *restyHandle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.client.GetClient().CloseIdleConnections()
	return nil
}

// tlsConfig maps the peer/host verification flags onto a tls.Config. The
// standard verifier checks both at once, so when only one of them is wanted
// the check is done by hand in VerifyConnection, host being the name the
// certificate must match.
func tlsConfig(cfg Config, host string) *tls.Config {
	if cfg.VerifyPeer && cfg.VerifyHost {
		return &tls.Config{}
	}

	res := &tls.Config{InsecureSkipVerify: true}
	if !cfg.VerifyPeer && !cfg.VerifyHost {
		return res
	}

	verifyPeer, verifyHost := cfg.VerifyPeer, cfg.VerifyHost
	res.VerifyConnection = func(cs tls.ConnectionState) error {
		if len(cs.PeerCertificates) == 0 {
			return errors.New("tls: no peer certificate")
		}
		leaf := cs.PeerCertificates[0]
		if verifyPeer {
			inter := x509.NewCertPool()
			for _, c := range cs.PeerCertificates[1:] {
				inter.AddCert(c)
			}
			if _, err := leaf.Verify(x509.VerifyOptions{Intermediates: inter}); err != nil {
				return err
			}
		}
		if verifyHost {
			name := host
			if name == "" {
				name = cs.ServerName
			}
			if err := leaf.VerifyHostname(name); err != nil {
				return err
			}
		}
		return nil
	}
	return res
}

// proxyURL builds the proxy URL from cfg. The address may be a bare host,
// host:port or a full URL; ProxyPort only applies when the address has no
// port. A nil URL means the environment proxy settings apply.
func proxyURL(cfg Config) (*url.URL, error) {
	addr := strings.TrimSpace(cfg.ProxyAddress)
	if addr == "" {
		return nil, nil
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy address: %w", err)
	}
	if u.Port() == "" && cfg.ProxyPort > 0 {
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(cfg.ProxyPort))
	}
	if cfg.ProxyUserPassword != "" {
		if user, pass, ok := strings.Cut(cfg.ProxyUserPassword, ":"); ok {
			u.User = url.UserPassword(user, pass)
		} else {
			u.User = url.User(user)
		}
	}
	return u, nil
}

// restyLogger forwards resty's internal messages to slog.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...any) {
	slog.Error(fmt.Sprintf(format, v...), "event", "apicall:resty")
}

func (restyLogger) Warnf(format string, v ...any) {
	slog.Warn(fmt.Sprintf(format, v...), "event", "apicall:resty")
}

func (restyLogger) Debugf(format string, v ...any) {
	if Debug {
		slog.Debug(fmt.Sprintf(format, v...), "event", "apicall:resty")
	}
}
