package perception

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/time/rate"

	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/cache"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/logger"
)

// sleepFunc is the pause between retries (injectable for tests).
var sleepFunc = time.Sleep

// Client wraps a Provider with the call policy every stage shares: per-call
// timeout, bounded retry with backoff on transient failures, rate limiting,
// and response caching keyed by request content.
type Client struct {
	provider   Provider
	limiter    *rate.Limiter
	cache      cache.Cache
	timeout    time.Duration
	maxRetries int
	cacheTTL   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithCache enables response caching.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.cacheTTL = ttl
	}
}

// WithRateLimit bounds the request rate to the backend.
func WithRateLimit(rps float64, burst int) Option {
	return func(cl *Client) {
		if burst <= 0 {
			burst = 1
		}
		cl.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.timeout = d }
}

// WithRetries sets how many times a transient failure is retried.
func WithRetries(n int) Option {
	return func(cl *Client) { cl.maxRetries = n }
}

// NewClient builds a client around the given backend.
func NewClient(p Provider, opts ...Option) *Client {
	c := &Client{
		provider:   p,
		timeout:    60 * time.Second,
		maxRetries: 2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete performs one perception call under the shared policy.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	log := logger.FromContext(ctx)

	key := c.cacheKey(req)
	if c.cache != nil {
		if data, found := c.cache.Get(key); found {
			var resp Response
			if err := json.Unmarshal(data, &resp); err == nil {
				log.Debug().Str("task", req.Task).Msg("perception cache hit")
				return &resp, nil
			}
		}
	}

	var resp *Response
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			log.Debug().Str("task", req.Task).Int("attempt", attempt).
				Dur("backoff", backoff).Msg("retrying perception call")
			sleepFunc(backoff)
		}

		resp, err = c.completeOnce(ctx, req)
		if err == nil {
			break
		}
		if !IsTransient(err) || ctx.Err() != nil {
			return nil, err
		}
	}
	if err != nil {
		return nil, fmt.Errorf("perception %s: retries exhausted: %w", req.Task, err)
	}

	if c.cache != nil {
		if data, merr := json.Marshal(resp); merr == nil {
			_ = c.cache.Set(key, data, c.cacheTTL)
		}
	}
	return resp, nil
}

func (c *Client) completeOnce(ctx context.Context, req Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.provider.Complete(callCtx, req)
}

// CompleteJSON performs a JSON-mode call, validates the reply against the
// schema, and unmarshals it into out. A reply that fails validation is a
// permanent error: retrying the same prompt is unlikely to help and the
// caller's degraded path is the right response.
func (c *Client) CompleteJSON(ctx context.Context, req Request, schema *jsonschema.Schema, out any) error {
	req.JSONMode = true
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return err
	}

	raw := stripFences(resp.Text)

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return fmt.Errorf("perception %s: invalid JSON reply: %w", req.Task, err)
	}
	if schema != nil {
		if err := schema.Validate(v); err != nil {
			return fmt.Errorf("perception %s: reply failed schema validation: %w", req.Task, err)
		}
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("perception %s: decode reply: %w", req.Task, err)
	}
	return nil
}

func (c *Client) cacheKey(req Request) string {
	parts := [][]byte{
		[]byte(c.provider.Name()),
		[]byte(req.Task),
		[]byte(req.Prompt),
	}
	if req.JSONMode {
		parts = append(parts, []byte("json"))
	}
	parts = append(parts, req.Images...)
	return cache.Key(parts...)
}

// stripFences removes a markdown code fence if the model wrapped its JSON in
// one despite JSON mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// MustCompileSchema compiles a JSON-Schema document given as a generic map.
// Panics on a malformed schema: these are package constants, not input.
func MustCompileSchema(schema map[string]any) *jsonschema.Schema {
	data, err := json.Marshal(schema)
	if err != nil {
		panic(err)
	}
	return jsonschema.MustCompileString("schema.json", string(data))
}
