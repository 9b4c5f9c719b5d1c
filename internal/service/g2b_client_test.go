package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/naramarket/naramarket-mcp/internal/model"
	"github.com/naramarket/naramarket-mcp/internal/retry"
)

func noWaitPolicy(attempts int) retry.Policy {
	p := retry.New(attempts, 0.75, zerolog.Nop())
	p.Sleep = func(context.Context, time.Duration) error { return nil }
	return p
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	return b, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = body
	return nil
}

type recorderFunc func(ctx context.Context, rec *model.CallRecord) error

func (f recorderFunc) Record(ctx context.Context, rec *model.CallRecord) error {
	return f(ctx, rec)
}

func TestG2BClient_Call_SuccessDecodesJSON(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"response":{"body":{"items":[{"a":1}],"totalCount":1}}}`)
	}))
	defer server.Close()

	client := NewG2BClient(zerolog.Nop(), WithRetryPolicy(noWaitPolicy(3)))
	got, err := client.Call(context.Background(), RequestSpec{
		Endpoint: "test",
		URL:      server.URL + "/list",
		Params:   []Param{{"ServiceKey", "k+ey/"}, {"numOfRows", "10"}, {"type", "json"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := got.(map[string]any)["response"]; !ok {
		t.Fatalf("expected decoded envelope, got %v", got)
	}
	if gotQuery != "ServiceKey=k%2Bey%2F&numOfRows=10&type=json" {
		t.Errorf("unexpected query string %q", gotQuery)
	}
}

func TestG2BClient_Call_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, `{"ok":true}`)
	}))
	defer server.Close()

	var rec *model.CallRecord
	client := NewG2BClient(zerolog.Nop(),
		WithRetryPolicy(noWaitPolicy(3)),
		WithRecorder(recorderFunc(func(_ context.Context, r *model.CallRecord) error {
			rec = r
			return nil
		})),
	)
	got, err := client.Call(context.Background(), RequestSpec{Endpoint: "flaky", URL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.(map[string]any)["ok"] != true {
		t.Errorf("unexpected body %v", got)
	}
	if calls != 3 {
		t.Errorf("expected 3 upstream calls, got %d", calls)
	}
	if rec == nil || rec.Attempts != 3 || rec.StatusCode != http.StatusOK || !rec.Succeeded() {
		t.Errorf("unexpected call record %+v", rec)
	}
}

func TestG2BClient_Call_ExhaustionReturnsLastError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, "maintenance")
	}))
	defer server.Close()

	client := NewG2BClient(zerolog.Nop(), WithRetryPolicy(noWaitPolicy(3)))
	_, err := client.Call(context.Background(), RequestSpec{Endpoint: "down", URL: server.URL})

	var statusErr *UpstreamStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected UpstreamStatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable || statusErr.Body != "maintenance" {
		t.Errorf("expected the last attempt's error, got %+v", statusErr)
	}
	if !errors.Is(err, ErrUpstreamStatus) {
		t.Error("expected error to match ErrUpstreamStatus")
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestG2BClient_Call_InvalidJSONIsRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		io.WriteString(w, "<OpenAPI_ServiceResponse>SERVICE_KEY_IS_NOT_REGISTERED_ERROR</OpenAPI_ServiceResponse>")
	}))
	defer server.Close()

	client := NewG2BClient(zerolog.Nop(), WithRetryPolicy(noWaitPolicy(2)))
	_, err := client.Call(context.Background(), RequestSpec{Endpoint: "xml", URL: server.URL})
	if !errors.Is(err, ErrUpstreamBody) {
		t.Fatalf("expected ErrUpstreamBody, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}

func TestG2BClient_Call_PostSendsBodyAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("X-Requested-With") != "XMLHttpRequest" {
			t.Errorf("missing header, got %v", r.Header)
		}
		b, _ := io.ReadAll(r.Body)
		if string(b) != `{"prdctIdntNo":"1"}` {
			t.Errorf("unexpected body %s", b)
		}
		io.WriteString(w, `{"resultList":[]}`)
	}))
	defer server.Close()

	client := NewG2BClient(zerolog.Nop(), WithRetryPolicy(noWaitPolicy(1)))
	_, err := client.Call(context.Background(), RequestSpec{
		Endpoint: "detail",
		Method:   http.MethodPost,
		URL:      server.URL,
		Headers:  http.Header{"X-Requested-With": {"XMLHttpRequest"}},
		Body:     []byte(`{"prdctIdntNo":"1"}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestG2BClient_Call_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := NewG2BClient(zerolog.Nop(), WithRetryPolicy(noWaitPolicy(1)))
	_, err := client.Call(context.Background(), RequestSpec{
		Endpoint: "slow",
		URL:      server.URL,
		Timeout:  50 * time.Millisecond,
	})
	if !errors.Is(err, ErrRequestTimeout) {
		t.Fatalf("expected ErrRequestTimeout, got %v", err)
	}
}

func TestG2BClient_Call_BodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"blob":"`+strings.Repeat("x", 100)+`"}`)
	}))
	defer server.Close()

	client := NewG2BClient(zerolog.Nop(), WithRetryPolicy(noWaitPolicy(1)), WithMaxBodySize(50))
	_, err := client.Call(context.Background(), RequestSpec{Endpoint: "big", URL: server.URL})
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected body limit error, got %v", err)
	}
}

func TestG2BClient_Call_InvalidURL(t *testing.T) {
	client := NewG2BClient(zerolog.Nop(), WithRetryPolicy(noWaitPolicy(3)))
	_, err := client.Call(context.Background(), RequestSpec{URL: "ftp://example.com"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestG2BClient_Call_CacheServesRepeatGets(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		io.WriteString(w, `{"n":1}`)
	}))
	defer server.Close()

	var records []*model.CallRecord
	client := NewG2BClient(zerolog.Nop(),
		WithRetryPolicy(noWaitPolicy(1)),
		WithCache(newMemoryCache()),
		WithRecorder(recorderFunc(func(_ context.Context, r *model.CallRecord) error {
			records = append(records, r)
			return nil
		})),
	)
	spec := RequestSpec{Endpoint: "cached", URL: server.URL, Params: []Param{{"ServiceKey", "a"}, {"pageNo", "1"}}}

	for i := 0; i < 2; i++ {
		if _, err := client.Call(context.Background(), spec); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", calls)
	}
	if len(records) != 2 || records[0].Cached || !records[1].Cached {
		t.Fatalf("unexpected records %+v", records)
	}
	if _, ok := records[0].Params["ServiceKey"]; ok {
		t.Error("service key leaked into call record")
	}

	// A different service key hits the same cache entry.
	spec.Params[0].Value = "b"
	if _, err := client.Call(context.Background(), spec); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("expected cache hit across service keys, got %d calls", calls)
	}
}

func TestG2BClient_Call_RecorderErrorIsNotSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}))
	defer server.Close()

	client := NewG2BClient(zerolog.Nop(),
		WithRetryPolicy(noWaitPolicy(1)),
		WithRecorder(recorderFunc(func(context.Context, *model.CallRecord) error {
			return errors.New("db down")
		})),
	)
	if _, err := client.Call(context.Background(), RequestSpec{URL: server.URL}); err != nil {
		t.Fatalf("recorder failure leaked: %v", err)
	}
}
