// Package provider holds the adapters for external data sources. Every
// adapter goes through Fetch, which applies the per-source deadline, the
// response cache and metrics, and never returns an error to its caller:
// failures become a Result with status "none".
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	"github.com/chain-brief/pkg/brief"
	"github.com/chain-brief/pkg/observability"
)

var (
	// ErrTimeout is returned by Call when the deadline fires before fn returns.
	ErrTimeout = errors.New("deadline exceeded")

	// ErrNoData marks a well-formed response that carries nothing usable.
	ErrNoData = errors.New("no data")
)

// Result is what an adapter hands back: a value and where it came from.
type Result[T any] struct {
	Value  T
	Status brief.ProviderStatus
	Err    error
}

// OK reports whether Value holds data.
func (r Result[T]) OK() bool {
	return r.Status == brief.StatusLive || r.Status == brief.StatusCached
}

func Unconfigured[T any]() Result[T] {
	return Result[T]{Status: brief.StatusUnconfigured}
}

// Endpoint describes one request against one source.
type Endpoint[T any] struct {
	Source   string
	Timeout  time.Duration
	CacheKey string // empty disables caching
	Build    func(ctx context.Context) (*http.Request, error)
	Decode   func(body []byte) (T, error)
}

// Client is shared by all adapters.
type Client struct {
	http    *http.Client
	cache   *expirable.LRU[string, []byte]
	metrics *observability.Metrics
}

// NewClient creates a client. cacheSize <= 0 disables the response cache.
func NewClient(cacheSize int, ttl time.Duration, m *observability.Metrics) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		metrics: m,
	}
	if cacheSize > 0 {
		c.cache = expirable.NewLRU[string, []byte](cacheSize, nil, ttl)
	}
	return c
}

// Call runs fn under its own deadline. If the deadline wins the race, Call
// returns ErrTimeout without waiting for fn.
func Call[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		v   T
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		v, err := fn(ctx)
		ch <- outcome{v, err}
	}()

	select {
	case o := <-ch:
		return o.v, o.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w after %s: %w", ErrTimeout, timeout, ctx.Err())
	}
}

// Fetch performs ep against the client. A fresh cache entry is served
// without touching the network.
func Fetch[T any](ctx context.Context, c *Client, ep Endpoint[T]) Result[T] {
	start := time.Now()

	if body, ok := c.cached(ep.CacheKey); ok {
		if v, err := ep.Decode(body); err == nil {
			c.metrics.ObserveProvider(ep.Source, string(brief.StatusCached), time.Since(start))
			return Result[T]{Value: v, Status: brief.StatusCached}
		}
	}

	body, err := Call(ctx, ep.Timeout, func(ctx context.Context) ([]byte, error) {
		req, err := ep.Build(ctx)
		if err != nil {
			return nil, err
		}
		return c.getJSON(req)
	})
	var v T
	if err == nil {
		v, err = ep.Decode(body)
	}
	if err != nil {
		c.metrics.ObserveProvider(ep.Source, string(brief.StatusNone), time.Since(start))
		err = fmt.Errorf("%s: %w: %w", ep.Source, brief.ErrSourceUnavailable, err)
		log.Debug().Err(err).Dur("took", time.Since(start)).Msg("source degraded")
		return Result[T]{Status: brief.StatusNone, Err: err}
	}

	if c.cache != nil && ep.CacheKey != "" {
		c.cache.Add(ep.CacheKey, body)
	}
	c.metrics.ObserveProvider(ep.Source, string(brief.StatusLive), time.Since(start))
	return Result[T]{Value: v, Status: brief.StatusLive}
}

func (c *Client) cached(key string) ([]byte, bool) {
	if c.cache == nil || key == "" {
		return nil, false
	}
	return c.cache.Get(key)
}

func (c *Client) getJSON(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, req.URL.Host)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 10<<20)) // 10MB max
}

func newGet(ctx context.Context, url string, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}
