package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"

	"github.com/naramarket/naramarket-mcp/internal/model"
	"github.com/naramarket/naramarket-mcp/internal/retry"
)

const (
	maxResponseBodySize   = 10 * 1024 * 1024 // 10 MB
	defaultRequestTimeout = 30 * time.Second
	recordTimeout         = 5 * time.Second
	maxErrorBodyLen       = 300
)

// serviceKeyParam is never logged, cached or recorded.
const serviceKeyParam = "ServiceKey"

// Param is one query parameter. Order is kept on the wire.
type Param struct {
	Key   string
	Value string
}

// RequestSpec describes one logical upstream call. Each retry attempt sends
// the same request.
type RequestSpec struct {
	Endpoint string // name used in logs and call records
	Method   string
	URL      string
	Params   []Param
	Headers  http.Header
	Body     []byte
	Timeout  time.Duration // per attempt; 0 selects the client default
}

// ResponseCache stores raw upstream bodies of successful GET calls.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte) error
}

// CallRecorder receives a record of every executed upstream call.
type CallRecorder interface {
	Record(ctx context.Context, rec *model.CallRecord) error
}

type G2BClient struct {
	httpClient *http.Client
	policy     retry.Policy
	timeout    time.Duration
	maxBody    int64
	cache      ResponseCache
	recorders  []CallRecorder
	logger     zerolog.Logger
}

type ClientOption func(*G2BClient)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(g *G2BClient) { g.httpClient = c }
}

func WithRetryPolicy(p retry.Policy) ClientOption {
	return func(g *G2BClient) { g.policy = p }
}

func WithTimeout(d time.Duration) ClientOption {
	return func(g *G2BClient) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithMaxBodySize(n int64) ClientOption {
	return func(g *G2BClient) {
		if n > 0 {
			g.maxBody = n
		}
	}
}

func WithCache(c ResponseCache) ClientOption {
	return func(g *G2BClient) { g.cache = c }
}

func WithRecorder(r CallRecorder) ClientOption {
	return func(g *G2BClient) {
		if r != nil {
			g.recorders = append(g.recorders, r)
		}
	}
}

func NewG2BClient(logger zerolog.Logger, opts ...ClientOption) *G2BClient {
	c := &G2BClient{
		policy:  retry.New(retry.DefaultMaxAttempts, retry.DefaultBackoffBase, logger),
		timeout: defaultRequestTimeout,
		maxBody: maxResponseBodySize,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Transport: newTransport(logger)}
	}
	return c
}

func newTransport(logger zerolog.Logger) *http.Transport {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// shop.g2b.go.kr negotiates h2 over TLS; data.go.kr stays on HTTP/1.1.
	if err := http2.ConfigureTransport(transport); err != nil {
		logger.Warn().Err(err).Msg("http2 not enabled on upstream transport")
	}
	return transport
}

// Call executes spec under the retry policy and returns the decoded JSON
// body. A non-2xx status, a transport failure or an undecodable body counts
// as a failed attempt. After the last attempt its error is returned as is.
func (c *G2BClient) Call(ctx context.Context, spec RequestSpec) (any, error) {
	if spec.Method == "" {
		spec.Method = http.MethodGet
	}
	target, err := buildURL(spec.URL, spec.Params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	rec := &model.CallRecord{
		ID:       uuid.New(),
		Endpoint: spec.Endpoint,
		Method:   spec.Method,
		URL:      spec.URL,
		Params:   recordedParams(spec.Params),
		CalledAt: time.Now().UTC(),
	}

	cacheKey := ""
	if c.cache != nil && spec.Method == http.MethodGet {
		cacheKey = cacheKeyFor(spec)
		if body, ok := c.lookupCache(ctx, cacheKey); ok {
			if v, err := decodeBody(body); err == nil {
				rec.Cached = true
				rec.StatusCode = http.StatusOK
				c.record(ctx, rec)
				return v, nil
			}
		}
	}

	start := time.Now()
	var (
		lastStatus int
		rawBody    []byte
	)
	v, err := retry.Do(ctx, c.policy, spec.Endpoint, func(ctx context.Context) (any, error) {
		rec.Attempts++
		status, b, err := c.execute(ctx, spec, target)
		lastStatus = status
		if err != nil {
			return nil, err
		}
		// Decoding is part of the attempt so a garbled body is retried too.
		decoded, err := decodeBody(b)
		if err != nil {
			return nil, err
		}
		rawBody = b
		return decoded, nil
	})
	rec.DurationMs = time.Since(start).Milliseconds()
	rec.StatusCode = lastStatus

	if err != nil {
		rec.Error = err.Error()
		c.record(ctx, rec)
		return nil, err
	}

	if cacheKey != "" {
		if err := c.cache.Set(ctx, cacheKey, rawBody); err != nil {
			c.logger.Warn().Err(err).Str("endpoint", spec.Endpoint).Msg("response cache write failed")
		}
	}
	c.record(ctx, rec)
	return v, nil
}

// execute performs a single attempt.
func (c *G2BClient) execute(ctx context.Context, spec RequestSpec, target string) (int, []byte, error) {
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if len(spec.Body) > 0 {
		bodyReader = bytes.NewReader(spec.Body)
	}

	httpRequest, err := http.NewRequestWithContext(reqCtx, spec.Method, target, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create http request: %w", err)
	}
	for key, values := range spec.Headers {
		for _, v := range values {
			httpRequest.Header.Add(key, v)
		}
	}

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, nil, fmt.Errorf("%w: %v", ErrRequestTimeout, err)
		}
		return 0, nil, fmt.Errorf("failed to execute request to upstream: %w", err)
	}
	defer httpResponse.Body.Close()

	limitedReader := &io.LimitedReader{R: httpResponse.Body, N: c.maxBody + 1}
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return httpResponse.StatusCode, nil, fmt.Errorf("%w: %v", ErrRequestTimeout, err)
		}
		return httpResponse.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return httpResponse.StatusCode, nil, fmt.Errorf("response body exceeds %d bytes", c.maxBody)
	}

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode > 299 {
		return httpResponse.StatusCode, nil, &UpstreamStatusError{
			StatusCode: httpResponse.StatusCode,
			Body:       truncateBody(body),
		}
	}
	return httpResponse.StatusCode, body, nil
}

func (c *G2BClient) lookupCache(ctx context.Context, key string) ([]byte, bool) {
	body, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Msg("response cache read failed")
		return nil, false
	}
	return body, ok
}

// record hands rec to every recorder. The caller's cancellation does not
// abort recording; failures are logged only.
func (c *G2BClient) record(ctx context.Context, rec *model.CallRecord) {
	if len(c.recorders) == 0 {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	for _, r := range c.recorders {
		if err := r.Record(rctx, rec); err != nil {
			c.logger.Warn().Err(err).Str("call_id", rec.ID.String()).Msg("failed to record upstream call")
		}
	}
}

func decodeBody(body []byte) (any, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("%w: %v (body: %s)", ErrUpstreamBody, err, truncateBody(body))
	}
	return v, nil
}

func buildURL(base string, params []Param) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid URL scheme: %q", u.Scheme)
	}
	if len(params) == 0 {
		return u.String(), nil
	}

	var sb strings.Builder
	sb.WriteString(u.RawQuery)
	for _, p := range params {
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	u.RawQuery = sb.String()
	return u.String(), nil
}

func recordedParams(params []Param) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for _, p := range params {
		if p.Key == serviceKeyParam {
			continue
		}
		out[p.Key] = p.Value
	}
	return out
}

// cacheKeyFor hashes everything that identifies the response except the
// service key.
func cacheKeyFor(spec RequestSpec) string {
	h := sha256.New()
	h.Write([]byte(spec.Method))
	h.Write([]byte{0})
	h.Write([]byte(spec.URL))
	for _, p := range spec.Params {
		if p.Key == serviceKeyParam {
			continue
		}
		h.Write([]byte{0})
		h.Write([]byte(p.Key))
		h.Write([]byte{'='})
		h.Write([]byte(p.Value))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func truncateBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	r := []rune(s)
	if len(r) <= maxErrorBodyLen {
		return s
	}
	return string(r[:maxErrorBodyLen]) + "..."
}
