package apicall

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// newEchoServer returns a server that describes the request it received,
// surrounded by whitespace.
func newEchoServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fmt.Fprintf(w, "\n  %s %s?%s [%s] %s \n", r.Method, r.URL.Path, r.URL.RawQuery, body, r.Header.Get("Content-Type"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCall(t *testing.T) {
	srv := newEchoServer(t)
	ctx := context.Background()

	testCases := []struct {
		name       string
		call       string
		params     Params
		underscore bool
		expected   string
	}{
		{"apiCall", "apiCallListUsers", P("a", 1, "b", 2), true, "GET /list/users?a=1&b=2 []"},
		{"apiGet", "apiGetItem", nil, true, "GET /item? []"},
		{"apiGet no underscore", "apiGetgetUser", P("id", 7), false, "GET /getUser?id=7 []"},
		{"apiPost", "apiPostCreateUser", P("name", "bob smith", "age", 42), true, "POST /create/user? [name=bob+smith&age=42] application/x-www-form-urlencoded"},
		{"apiPost empty", "apiPostPing", nil, true, "POST /ping? [] application/x-www-form-urlencoded"},
		{"Empty method", "apiGet", P("q", "x"), true, "GET /?q=x []"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := New(srv.URL + "/").SetUnderscore(tc.underscore)
			res, err := c.Call(ctx, tc.call, tc.params)
			if err != nil {
				t.Fatalf("Call(%q) returned error: %s", tc.call, err)
			}
			if res != tc.expected {
				t.Errorf("Call(%q) = %q, want %q", tc.call, res, tc.expected)
			}
			if c.HasErrors() {
				t.Errorf("HasErrors() = true after a successful call")
			}
		})
	}
}

func TestGetPost(t *testing.T) {
	srv := newEchoServer(t)
	c := New(srv.URL)
	ctx := context.Background()

	res, err := c.Get(ctx, "UserInfo", P("id", 1))
	if err != nil {
		t.Fatalf("Get returned error: %s", err)
	}
	if res != "GET /user/info?id=1 []" {
		t.Errorf("Get = %q", res)
	}

	res, err = c.Post(ctx, "UserInfo", P("id", 1))
	if err != nil {
		t.Fatalf("Post returned error: %s", err)
	}
	if res != "POST /user/info? [id=1] application/x-www-form-urlencoded" {
		t.Errorf("Post = %q", res)
	}

	res, err = c.Do(ctx, "raw_Path", "GET", nil)
	if err != nil {
		t.Fatalf("Do returned error: %s", err)
	}
	if res != "GET /raw/Path? []" {
		t.Errorf("Do = %q", res)
	}
}

func TestCallNotDispatchable(t *testing.T) {
	ft := &fakeTransport{body: "ok"}
	c := New("http://x.test").SetTransport(ft)

	_, err := c.Call(context.Background(), "listUsers", nil)
	if !errors.Is(err, ErrNotDispatchable) {
		t.Errorf("Call error = %v, want ErrNotDispatchable", err)
	}
	if ft.opened != 0 {
		t.Errorf("transport opened %d times, want 0", ft.opened)
	}
}

func TestHTTPErrorStatusIsNotFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, " oops ")
	}))
	defer srv.Close()

	res, err := New(srv.URL).Call(context.Background(), "apiGetBroken", nil)
	if err != nil {
		t.Fatalf("Call returned error: %s", err)
	}
	if res != "oops" {
		t.Errorf("Call = %q, want %q", res, "oops")
	}
}

func TestRedirectNotFollowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/new" {
			io.WriteString(w, "new-page")
			return
		}
		http.Redirect(w, r, "/new", http.StatusFound)
	}))
	defer srv.Close()

	res, err := New(srv.URL).Call(context.Background(), "apiGetOld", nil)
	if err != nil {
		t.Fatalf("Call returned error: %s", err)
	}
	if res == "new-page" {
		t.Errorf("redirect was followed")
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := New(addr)
	res, err := c.Call(context.Background(), "apiGetItem", nil)
	if err == nil {
		t.Fatalf("Call on a closed server succeeded: %q", res)
	}

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %T", err)
	}
	if te.Code != CodeConnect {
		t.Errorf("Code = %d, want %d", te.Code, CodeConnect)
	}
	if !c.HasErrors() || c.LastError() != te {
		t.Errorf("LastError() = %v, want %v", c.LastError(), te)
	}
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := New(srv.URL).SetTimeout(1).Call(context.Background(), "apiGetSlow", nil)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if te.Code != CodeTimeout {
		t.Errorf("Code = %d, want %d (%s)", te.Code, CodeTimeout, te.Message)
	}
}

func TestCanceledContext(t *testing.T) {
	srv := newEchoServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL).Call(ctx, "apiGetItem", nil)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if te.Code != CodeAborted {
		t.Errorf("Code = %d, want %d", te.Code, CodeAborted)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("errors.Is(err, context.Canceled) = false, want true")
	}
}

func TestLastErrorReset(t *testing.T) {
	ft := &fakeTransport{err: errors.New("boom")}
	c := New("http://x.test").SetTransport(ft)
	ctx := context.Background()

	if _, err := c.Call(ctx, "apiGetItem", nil); err == nil {
		t.Fatalf("expected an error")
	}
	if !c.HasErrors() {
		t.Fatalf("HasErrors() = false after a failed call")
	}

	ft.err = nil
	ft.body = "ok"
	if _, err := c.Call(ctx, "apiGetItem", nil); err != nil {
		t.Fatalf("Call returned error: %s", err)
	}
	if c.HasErrors() {
		t.Errorf("HasErrors() = true after a successful call")
	}
}

func TestConcurrentCalls(t *testing.T) {
	srv := newEchoServer(t)
	c := New(srv.URL)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := c.Call(context.Background(), "apiGetItem", P("i", i))
			if err != nil {
				errs <- err
				return
			}
			if !strings.Contains(res, fmt.Sprintf("i=%d", i)) {
				errs <- fmt.Errorf("unexpected response %q for %d", res, i)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestDebugLogging(t *testing.T) {
	srv := newEchoServer(t)

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() {
		slog.SetDefault(prev)
		Debug = false
	})

	c := New(srv.URL)
	if _, err := c.Get(context.Background(), "item", nil); err != nil {
		t.Fatalf("Get returned error: %s", err)
	}
	if strings.Contains(buf.String(), "apicall:call_id") {
		t.Errorf("call logged while Debug is off: %s", buf.String())
	}

	Debug = true
	if _, err := c.Get(context.Background(), "item", nil); err != nil {
		t.Fatalf("Get returned error: %s", err)
	}
	if !strings.Contains(buf.String(), "apicall:call_id=") || strings.Contains(buf.String(), `apicall:call_id=""`) {
		t.Errorf("debug log has no call id: %s", buf.String())
	}
}
