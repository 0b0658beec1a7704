// Package metrics 提供 Prometheus 指标集合：HTTP、存储、购物车变更与级联清理
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wyfcoding/ecommerce/pkg/logger"
)

const namespace = "ecommerce"

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数（route, method, status）
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 存储操作耗时（collection, op, result）
	StorageOpDuration *prometheus.HistogramVec

	// 购物车变更计数（op, result）
	CartMutationsTotal *prometheus.CounterVec
	// 乐观锁冲突重试次数
	CartSaveConflictsTotal prometheus.Counter
	// 级联清理失败计数（kind）
	CascadeFailuresTotal *prometheus.CounterVec
	// 级联清理处理的购物车数（kind）
	CascadeCartsTotal *prometheus.CounterVec
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"route", "method", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		StorageOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "storage_op_duration_seconds",
			Help:      "Document store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"collection", "op", "result"}),
		CartMutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "cart_mutations_total",
			Help:      "Cart mutations by operation and result",
		}, []string{"op", "result"}),
		CartSaveConflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "cart_save_conflicts_total",
			Help:      "Optimistic concurrency conflicts on cart save",
		}),
		CascadeFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "cascade_failures_total",
			Help:      "Per-cart cascade failures",
		}, []string{"kind"}),
		CascadeCartsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "cascade_carts_total",
			Help:      "Carts touched by cascades",
		}, []string{"kind"}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.StorageOpDuration,
		m.CartMutationsTotal,
		m.CartSaveConflictsTotal,
		m.CascadeFailuresTotal,
		m.CascadeCartsTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return fmt.Errorf("register metric: %w", err)
		}
	}
	return nil
}

// ObserveHTTP 记录 HTTP 请求
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, method, fmt.Sprint(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObserveStorage 记录存储操作，实现 docstore.Observer
func (m *Metrics) ObserveStorage(collection, op, result string, elapsed time.Duration) {
	m.StorageOpDuration.WithLabelValues(collection, op, result).Observe(elapsed.Seconds())
}

// RecordCartMutation 记录购物车变更结果
func (m *Metrics) RecordCartMutation(op, result string) {
	m.CartMutationsTotal.WithLabelValues(op, result).Inc()
}

// RecordSaveConflict 记录一次乐观锁冲突
func (m *Metrics) RecordSaveConflict() {
	m.CartSaveConflictsTotal.Inc()
}

// RecordCascade 记录级联清理的单个购物车结果
func (m *Metrics) RecordCascade(kind string, err error) {
	m.CascadeCartsTotal.WithLabelValues(kind).Inc()
	if err != nil {
		m.CascadeFailuresTotal.WithLabelValues(kind).Inc()
	}
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(ctx context.Context, port int, path string, gatherer prometheus.Gatherer) *http.Server {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info(ctx, "Starting Prometheus HTTP server", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "Prometheus HTTP server stopped", "error", err)
		}
	}()
	return srv
}
