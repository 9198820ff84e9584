package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chain-brief/pkg/brief"
)

func TestCallTimeout(t *testing.T) {
	start := time.Now()
	_, err := Call(context.Background(), 20*time.Millisecond, func(ctx context.Context) (int, error) {
		time.Sleep(500 * time.Millisecond)
		return 1, nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestCallReturnsValue(t *testing.T) {
	v, err := Call(context.Background(), time.Second, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func stringEndpoint(url, key string) Endpoint[string] {
	return Endpoint[string]{
		Source:   "test",
		Timeout:  time.Second,
		CacheKey: key,
		Build: func(ctx context.Context) (*http.Request, error) {
			return newGet(ctx, url, nil)
		},
		Decode: func(body []byte) (string, error) { return string(body), nil },
	}
}

func TestFetchLiveThenCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	c := NewClient(16, time.Minute, nil)
	ep := stringEndpoint(srv.URL, "k")

	r := Fetch(context.Background(), c, ep)
	assert.Equal(t, brief.StatusLive, r.Status)
	assert.Equal(t, "payload", r.Value)

	r = Fetch(context.Background(), c, ep)
	assert.Equal(t, brief.StatusCached, r.Status)
	assert.Equal(t, "payload", r.Value)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchFailureIsNone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := Fetch(context.Background(), NewClient(0, 0, nil), stringEndpoint(srv.URL, ""))
	assert.Equal(t, brief.StatusNone, r.Status)
	assert.False(t, r.OK())
	assert.True(t, errors.Is(r.Err, brief.ErrSourceUnavailable))
}

func TestFetchSlowSourceTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ep := stringEndpoint(srv.URL, "")
	ep.Timeout = 30 * time.Millisecond
	r := Fetch(context.Background(), NewClient(0, 0, nil), ep)
	assert.Equal(t, brief.StatusNone, r.Status)
	assert.True(t, errors.Is(r.Err, ErrTimeout))
}

func TestNotFoundIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	r := Fetch(context.Background(), NewClient(0, 0, nil), stringEndpoint(srv.URL, ""))
	assert.Equal(t, brief.StatusNone, r.Status)
	assert.True(t, errors.Is(r.Err, ErrNoData))
}
