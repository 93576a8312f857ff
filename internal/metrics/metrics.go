// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests   *prometheus.CounterVec
	httpLatency    prometheus.Histogram
	sessionsIssued prometheus.Counter
	tasksCreated   prometheus.Counter
	tasksDeleted   prometheus.Counter
	authFailures   prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhub_http_requests_total",
			Help: "HTTPステータスコード別のリクエスト数",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskhub_http_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		sessionsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskhub_sessions_issued_total",
			Help: "発行されたセッションの合計数",
		}),
		tasksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskhub_tasks_created_total",
			Help: "作成されたタスクの合計数",
		}),
		tasksDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskhub_tasks_deleted_total",
			Help: "削除されたタスクの合計数",
		}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskhub_auth_failures_total",
			Help: "認証失敗（ログイン拒否）の合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.sessionsIssued,
		c.tasksCreated,
		c.tasksDeleted,
		c.authFailures,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストのステータスコードとレイテンシを記録する。
func (c *Collector) RecordHTTPRequest(statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

// RecordSessionIssued はセッション発行を記録する。
func (c *Collector) RecordSessionIssued() {
	c.sessionsIssued.Inc()
}

// RecordTaskCreated はタスク作成を記録する。
func (c *Collector) RecordTaskCreated() {
	c.tasksCreated.Inc()
}

// RecordTaskDeleted はタスク削除を記録する。
func (c *Collector) RecordTaskDeleted() {
	c.tasksDeleted.Inc()
}

// RecordAuthFailure は認証失敗を記録する。
func (c *Collector) RecordAuthFailure() {
	c.authFailures.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
