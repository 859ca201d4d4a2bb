// Package goodreads 外部评分服务客户端（Goodreads review_counts接口）
package goodreads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/domain/rating"
	"github.com/xiebiao/bookreview/pkg/circuitbreaker"
	"github.com/xiebiao/bookreview/pkg/metrics"
)

const reviewCountsPath = "/book/review_counts.json"

// errNoSuchBook 外部服务没有这本书，不算服务故障
var errNoSuchBook = errors.New("book not found in rating provider")

// Config 客户端配置
type Config struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	MaxFailures  int
	ResetTimeout time.Duration
}

// Client 实现rating.Provider
// 每次查询都有超时，连续失败后熔断，熔断期间直接返回ErrExternalUnavailable
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	log        logrus.FieldLogger
}

// NewClient 创建客户端
func NewClient(cfg Config, log logrus.FieldLogger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}

	maxFailures := uint32(cfg.MaxFailures)
	breaker := circuitbreaker.NewCircuitBreaker("goodreads", circuitbreaker.Config{
		Timeout: cfg.ResetTimeout,
		ReadyToTrip: func(c circuitbreaker.Counts) bool {
			return c.ConsecutiveFailures >= maxFailures
		},
		// 查无此书和调用方主动取消都不算评分服务故障
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNoSuchBook) || errors.Is(err, context.Canceled)
		},
	})
	breaker.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
			Warn("熔断器状态变化")
		metrics.SetGaugeVec(metrics.CircuitBreakerState, float64(to), name)
	})

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		log:        log,
	}
}

// LookupRatingCount 查询评分数，任何失败都返回包装了原因的ErrExternalUnavailable
func (c *Client) LookupRatingCount(ctx context.Context, isbn string) (*rating.Info, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	var info *rating.Info
	err := c.breaker.ExecuteContext(ctx, func(ctx context.Context) error {
		var err error
		info, err = c.fetch(ctx, isbn)
		return err
	})
	metrics.ObserveHistogram(metrics.RatingLookupDuration, time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.IncCounterVec(metrics.RatingLookupsTotal, "success")
		metrics.IncCounterVec(metrics.CircuitBreakerRequests, c.breaker.Name(), "success")
		return info, nil
	case errors.Is(err, circuitbreaker.ErrOpenState):
		metrics.IncCounterVec(metrics.RatingLookupsTotal, "rejected")
		metrics.IncCounterVec(metrics.CircuitBreakerRequests, c.breaker.Name(), "rejected")
	default:
		metrics.IncCounterVec(metrics.RatingLookupsTotal, "failure")
		metrics.IncCounterVec(metrics.CircuitBreakerRequests, c.breaker.Name(), "failure")
	}
	return nil, rating.ErrExternalUnavailable.WithErr(err)
}

// reviewCountsResponse review_counts.json响应
type reviewCountsResponse struct {
	Books []struct {
		ISBN             string      `json:"isbn"`
		ISBN13           string      `json:"isbn13"`
		WorkRatingsCount int         `json:"work_ratings_count"`
		AverageRating    flexFloat64 `json:"average_rating"`
	} `json:"books"`
}

func (c *Client) fetch(ctx context.Context, isbn string) (*rating.Info, error) {
	q := url.Values{}
	q.Set("isbns", isbn)
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	endpoint := c.baseURL + reviewCountsPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request rating provider: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, errNoSuchBook
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("rating provider returned status %d", resp.StatusCode)
	}

	var body reviewCountsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rating response: %w", err)
	}
	if len(body.Books) == 0 {
		return nil, errNoSuchBook
	}

	b := body.Books[0]
	return &rating.Info{
		ISBN:          isbn,
		RatingsCount:  b.WorkRatingsCount,
		AverageRating: float64(b.AverageRating),
	}, nil
}

// flexFloat64 兼容 "4.10" 和 4.1 两种写法
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid average_rating %q: %w", s, err)
	}
	*f = flexFloat64(v)
	return nil
}
