package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics は Prometheus メトリクスのヘルパー構造体である。
// HTTP/gRPC の RED メトリクスと認証コアのカウンタを提供する。
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	GRPCHandledTotal     *prometheus.CounterVec
	GRPCHandlingDuration *prometheus.HistogramVec

	AuthFailuresTotal  *prometheus.CounterVec
	JWKSFetchTotal     *prometheus.CounterVec
	IdentityFetchTotal *prometheus.CounterVec
	LinksTotal         *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

var latencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// NewMetrics は Prometheus メトリクスを初期化し reg に登録する。
// serviceName はメトリクスの service ラベルに使用される。
func NewMetrics(serviceName string, reg *prometheus.Registry) *Metrics {
	labels := prometheus.Labels{"service": serviceName}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Total number of HTTP requests",
				ConstLabels: labels,
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "Histogram of HTTP request latency",
				ConstLabels: labels,
				Buckets:     latencyBuckets,
			},
			[]string{"method", "path"},
		),
		GRPCHandledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "grpc_server_handled_total",
				Help:        "Total number of RPCs completed on the server",
				ConstLabels: labels,
			},
			[]string{"grpc_service", "grpc_method", "grpc_code"},
		),
		GRPCHandlingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "grpc_server_handling_seconds",
				Help:        "Histogram of response latency of gRPC",
				ConstLabels: labels,
				Buckets:     latencyBuckets,
			},
			[]string{"grpc_service", "grpc_method"},
		),
		AuthFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "profile_auth_failures_total",
				Help:        "Total number of rejected bearer credentials",
				ConstLabels: labels,
			},
			[]string{"kind", "reason"},
		),
		JWKSFetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "profile_jwks_fetch_total",
				Help:        "Total number of JWKS document fetches",
				ConstLabels: labels,
			},
			[]string{"result"},
		),
		IdentityFetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "profile_identity_fetch_total",
				Help:        "Total number of userinfo fetches",
				ConstLabels: labels,
			},
			[]string{"result"},
		),
		LinksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "profile_links_total",
				Help:        "Total number of identity-to-profile resolutions by outcome",
				ConstLabels: labels,
			},
			[]string{"outcome"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.GRPCHandledTotal,
		m.GRPCHandlingDuration,
		m.AuthFailuresTotal,
		m.JWKSFetchTotal,
		m.IdentityFetchTotal,
		m.LinksTotal,
	)

	return m
}

// ObserveAuthFailure は認証失敗を分類と理由ごとに記録する。
func (m *Metrics) ObserveAuthFailure(kind, reason string) {
	m.AuthFailuresTotal.WithLabelValues(kind, reason).Inc()
}

// ObserveJWKSFetch は JWKS 取得結果を記録する。
func (m *Metrics) ObserveJWKSFetch(result string) {
	m.JWKSFetchTotal.WithLabelValues(result).Inc()
}

// ObserveIdentityFetch は userinfo 取得結果を記録する。
func (m *Metrics) ObserveIdentityFetch(result string) {
	m.IdentityFetchTotal.WithLabelValues(result).Inc()
}

// ObserveLink はプロフィールリンク結果を記録する。
func (m *Metrics) ObserveLink(outcome string) {
	m.LinksTotal.WithLabelValues(outcome).Inc()
}

// Handler は /metrics エンドポイント用の HTTP ハンドラを返す。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
