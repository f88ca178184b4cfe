// Package apicall provides a small client for calling REST style APIs by
// operation name. A name such as "apiGetUserList" is turned into a GET request
// on <address>/user/list, parameters being passed in the query string for GET
// and as a form-encoded body for POST. The raw response body is returned as is.
package apicall

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Debug enables verbose logging of calls and their outcome
var Debug = false

// Client performs API calls against a single base address. Each call opens
// its own transport handle, so a Client may be used from several goroutines.
type Client struct {
	lk        sync.RWMutex
	cfg       Config
	transport Transport
	metrics   *Metrics
	lastErr   *TransportError
}

// New returns a client for address using DefaultConfig.
func New(address string) *Client {
	cfg := DefaultConfig()
	cfg.Address = address
	return NewWithConfig(cfg)
}

// NewWithConfig returns a client using cfg as is.
func NewWithConfig(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// NewFromEnv returns a client configured by ConfigFromEnv.
func NewFromEnv() (*Client, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg), nil
}

// Call dispatches a prefix-tagged operation name:
//
//	apiCallYourMethod performs a GET
//	apiPostYourMethod performs a POST
//	apiGetYourMethod performs a GET
//
// Names without one of these prefixes return ErrNotDispatchable.
func (c *Client) Call(ctx context.Context, name string, params Params) (string, error) {
	prefix, method, err := ParseName(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, name)
	}
	return c.Invoke(ctx, prefix, method, params)
}

// Invoke performs the call described by prefix and the logical method name,
// applying the naming convention if enabled.
func (c *Client) Invoke(ctx context.Context, prefix Prefix, method string, params Params) (string, error) {
	if c.UseUnderscores() {
		method = Underscore(method)
	}
	return c.Do(ctx, method, prefix.Method(), params)
}

// Get invokes method with a GET request.
func (c *Client) Get(ctx context.Context, method string, params Params) (string, error) {
	return c.Invoke(ctx, PrefixGet, method, params)
}

// Post invokes method with a POST request.
func (c *Client) Post(ctx context.Context, method string, params Params) (string, error) {
	return c.Invoke(ctx, PrefixPost, method, params)
}

// Do sends a request for the given method path, without applying any naming
// convention. verb must be GET or POST.
//
// It returns the response body trimmed of surrounding whitespace. Failures
// are either ErrNotConfigured, when no address is set, or a *TransportError.
// HTTP error statuses are not failures.
func (c *Client) Do(ctx context.Context, method, verb string, params Params) (string, error) {
	cfg := c.Config()
	c.lk.Lock()
	c.lastErr = nil
	tr := c.transport
	m := c.metrics
	c.lk.Unlock()
	if tr == nil {
		tr = DefaultTransport
	}

	t, err := BuildTarget(cfg.Address, method, verb, params)
	if err != nil {
		if err == ErrNotConfigured {
			m.observe(verb, OutcomeNotConfigured, 0)
		}
		return "", err
	}

	var callID string
	if Debug {
		callID = uuid.New().String()
	}
	start := time.Now()

	body, err := c.communicate(ctx, tr, cfg, t)
	d := time.Since(start)

	if err != nil {
		te := NewTransportError(err)
		c.lk.Lock()
		c.lastErr = te
		c.lk.Unlock()
		m.observe(verb, OutcomeTransport, d)
		if Debug {
			slog.ErrorContext(ctx, fmt.Sprintf("[apicall] %s %s failed: %s", verb, t.URL, te), "event", "apicall:transport_error", "apicall:call_id", callID, "apicall:code", te.Code)
		}
		return "", te
	}

	m.observe(verb, OutcomeSuccess, d)
	if Debug {
		slog.DebugContext(ctx, fmt.Sprintf("[apicall] %s %s => %s", verb, t.URL, d), "event", "apicall:debug_query", "apicall:call_id", callID, "apicall:method", verb, "apicall:request", t.URL, "apicall:duration", d)
	}
	return body, nil
}

// communicate opens a handle, runs the request and releases the handle
// before returning.
func (c *Client) communicate(ctx context.Context, tr Transport, cfg Config, t *Target) (string, error) {
	h, err := tr.Open(cfg)
	if err != nil {
		return "", err
	}
	defer h.Close()

	return h.Execute(ctx, t)
}

// LastError returns the transport error of the last call made by this
// client, or nil if it succeeded.
func (c *Client) LastError() *TransportError {
	c.lk.RLock()
	defer c.lk.RUnlock()
	return c.lastErr
}

// HasErrors reports whether the last call failed at the transport level.
func (c *Client) HasErrors() bool {
	return c.LastError() != nil
}
