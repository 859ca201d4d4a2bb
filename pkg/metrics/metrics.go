// Package metrics Prometheus指标
//
// 命名约定：Counter以_total结尾，Histogram以单位结尾（_seconds），
// 标签只使用取值有限的维度（method、status、result），不要用user_id、isbn做标签。
//
//	metrics.InitMetrics()
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
	HTTPRequestsInProgress prometheus.Gauge

	// 账号与会话
	RegistrationsTotal *prometheus.CounterVec
	LoginAttemptsTotal *prometheus.CounterVec

	// 搜索与评论
	SearchesTotal       *prometheus.CounterVec
	ReviewsCreatedTotal prometheus.Counter

	// 外部评分服务
	RatingLookupsTotal   *prometheus.CounterVec
	RatingLookupDuration prometheus.Histogram

	// 熔断器
	CircuitBreakerState    *prometheus.GaugeVec
	CircuitBreakerRequests *prometheus.CounterVec

	// 消息队列
	MessagesPublishedTotal *prometheus.CounterVec
)

var initOnce sync.Once

// InitMetrics 注册所有指标到默认Registry，可重复调用
func InitMetrics() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_registrations_total",
			Help: "注册请求总数",
		},
		[]string{"result"}, // success | duplicate | failure
	)

	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "登录请求总数",
		},
		[]string{"result"}, // success | unknown_username | invalid_password | failure
	)

	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "book_searches_total",
			Help: "图书搜索总数",
		},
		[]string{"result"}, // found | empty_query | no_match | failure
	)

	ReviewsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reviews_created_total",
			Help: "新增评论总数",
		},
	)

	RatingLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rating_lookups_total",
			Help: "外部评分查询总数",
		},
		[]string{"result"}, // success | failure | rejected
	)

	RatingLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rating_lookup_duration_seconds",
			Help:    "外部评分查询耗时（秒）",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "熔断器请求总数",
		},
		[]string{"name", "result"}, // success | failure | rejected
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "消息发布总数",
		},
		[]string{"exchange", "routing_key", "result"},
	)
}

// IncCounter 递增Counter，未初始化时忽略
func IncCounter(counter prometheus.Counter) {
	if counter != nil {
		counter.Inc()
	}
}

// IncCounterVec 递增CounterVec，未初始化时忽略
func IncCounterVec(counter *prometheus.CounterVec, labels ...string) {
	if counter != nil {
		counter.WithLabelValues(labels...).Inc()
	}
}

// SetGaugeVec 设置GaugeVec值
func SetGaugeVec(gauge *prometheus.GaugeVec, value float64, labels ...string) {
	if gauge != nil {
		gauge.WithLabelValues(labels...).Set(value)
	}
}

// ObserveHistogram 记录Histogram观测值
func ObserveHistogram(histogram prometheus.Histogram, value float64) {
	if histogram != nil {
		histogram.Observe(value)
	}
}
