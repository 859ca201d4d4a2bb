package goodreads

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookreview/internal/domain/rating"
	"github.com/xiebiao/bookreview/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log, _ := test.NewNullLogger()
	cfg.BaseURL = srv.URL
	return NewClient(cfg, log)
}

func TestClient_LookupRatingCount(t *testing.T) {
	ctx := context.Background()

	t.Run("解析评分数和平均分", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, reviewCountsPath, r.URL.Path)
			assert.Equal(t, "0380795272", r.URL.Query().Get("isbns"))
			assert.Equal(t, "secret", r.URL.Query().Get("key"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"books":[{"id":1,"isbn":"0380795272","work_ratings_count":28455,"average_rating":"4.05"}]}`))
		}, Config{APIKey: "secret", Timeout: time.Second})

		info, err := c.LookupRatingCount(ctx, "0380795272")
		require.NoError(t, err)
		assert.Equal(t, "0380795272", info.ISBN)
		assert.Equal(t, 28455, info.RatingsCount)
		assert.InDelta(t, 4.05, info.AverageRating, 1e-9)
	})

	t.Run("平均分为数字", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"books":[{"isbn":"1","work_ratings_count":3,"average_rating":3.5}]}`))
		}, Config{Timeout: time.Second})

		info, err := c.LookupRatingCount(ctx, "1")
		require.NoError(t, err)
		assert.InDelta(t, 3.5, info.AverageRating, 1e-9)
	})

	t.Run("服务端错误", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}, Config{Timeout: time.Second})

		info, err := c.LookupRatingCount(ctx, "1")
		assert.Nil(t, info)
		assert.ErrorIs(t, err, rating.ErrExternalUnavailable)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeExternalUnavailable))
	})

	t.Run("响应格式错误", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}, Config{Timeout: time.Second})

		_, err := c.LookupRatingCount(ctx, "1")
		assert.ErrorIs(t, err, rating.ErrExternalUnavailable)
	})

	t.Run("超时", func(t *testing.T) {
		release := make(chan struct{})
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}, Config{Timeout: 50 * time.Millisecond})
		defer close(release)

		start := time.Now()
		_, err := c.LookupRatingCount(ctx, "1")
		assert.ErrorIs(t, err, rating.ErrExternalUnavailable)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("连续失败后熔断", func(t *testing.T) {
		var hits int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(http.StatusBadGateway)
		}, Config{Timeout: time.Second, MaxFailures: 2, ResetTimeout: time.Minute})

		for i := 0; i < 5; i++ {
			_, err := c.LookupRatingCount(ctx, "1")
			assert.ErrorIs(t, err, rating.ErrExternalUnavailable)
		}
		assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
		assert.Equal(t, circuitbreaker.StateOpen, c.breaker.State())

		_, err := c.LookupRatingCount(ctx, "1")
		assert.True(t, errors.Is(err, circuitbreaker.ErrOpenState))
	})

	t.Run("调用方取消不计入熔断", func(t *testing.T) {
		started := make(chan struct{}, 1)
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			started <- struct{}{}
			<-r.Context().Done()
		}, Config{Timeout: 5 * time.Second, MaxFailures: 1, ResetTimeout: time.Minute})

		reqCtx, cancel := context.WithCancel(ctx)
		go func() {
			<-started
			cancel()
		}()

		_, err := c.LookupRatingCount(reqCtx, "1")
		assert.ErrorIs(t, err, rating.ErrExternalUnavailable)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, circuitbreaker.StateClosed, c.breaker.State())
		assert.Equal(t, uint32(0), c.breaker.Counts().ConsecutiveFailures)
	})

	t.Run("查无此书不触发熔断", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}, Config{Timeout: time.Second, MaxFailures: 1})

		for i := 0; i < 3; i++ {
			_, err := c.LookupRatingCount(ctx, "1")
			assert.ErrorIs(t, err, rating.ErrExternalUnavailable)
		}
		assert.Equal(t, circuitbreaker.StateClosed, c.breaker.State())
	})
}
