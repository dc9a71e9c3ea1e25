package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 开通指标
	DomainsCreated   prometheus.Counter
	DomainsDeleted   prometheus.Counter
	MailboxesCreated prometheus.Counter
	AccountsCreated  prometheus.Counter

	// 错误指标
	ErrorsTotal *prometheus.CounterVec

	// 限流指标
	RateLimitBlocks *prometheus.CounterVec
}

// NewMetrics 创建监控指标
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailadmin_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailadmin_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		DomainsCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailadmin_domains_created_total",
				Help: "Total number of mail domains created",
			},
		),

		DomainsDeleted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailadmin_domains_deleted_total",
				Help: "Total number of mail domains deleted",
			},
		),

		MailboxesCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailadmin_mailboxes_created_total",
				Help: "Total number of mailboxes provisioned",
			},
		),

		AccountsCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailadmin_accounts_created_total",
				Help: "Total number of platform accounts created",
			},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailadmin_errors_total",
				Help: "Total number of errors",
			},
			[]string{"type", "component"},
		),

		RateLimitBlocks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailadmin_rate_limit_blocks_total",
				Help: "Total number of rate limited requests",
			},
			[]string{"type", "key"},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordError 记录错误
func (m *Metrics) RecordError(errorType, component string) {
	m.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordRateLimitBlock 记录限流阻止
func (m *Metrics) RecordRateLimitBlock(limitType, key string) {
	m.RateLimitBlocks.WithLabelValues(limitType, key).Inc()
}

// HTTPHandler 返回 Prometheus HTTP 处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.Handler()
}
