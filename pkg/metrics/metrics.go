// Package metrics 提供基于Prometheus的指标收集
//
// 指标按本服务的关注点划分：
// - HTTP请求量与耗时（接口层中间件记录）
// - 缓存命中/未命中/降级（读服务记录）
// - 文件摄取成功/失败与补偿删除（摄取编排器记录）
//
// 指标通过 /metrics 端点暴露，由Prometheus Server周期抓取。
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequestsTotal HTTP请求总数
	// 标签：method、path、status
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration HTTP请求耗时分布
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookshelf_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// cacheRequestsTotal 缓存请求数
	// result: hit | miss | degraded（缓存后端不可用，按未命中处理）
	cacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_cache_requests_total",
			Help: "Cache lookups by result",
		},
		[]string{"resource", "result"},
	)

	// cacheInvalidationsTotal 缓存失效操作数
	cacheInvalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_cache_invalidations_total",
			Help: "Cache scope invalidations issued by write operations",
		},
		[]string{"scope"},
	)

	// ingestTotal 文件摄取结果数
	// result: success | rejected | transform_failed | upload_failed
	ingestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_ingest_total",
			Help: "Ingestion outcomes",
		},
		[]string{"result"},
	)

	// compensationDeletesTotal 补偿删除次数
	// result: ok | failed（failed表示留下孤儿对象，需要人工清理）
	compensationDeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_compensation_deletes_total",
			Help: "Compensating deletes issued after a failed ingestion",
		},
		[]string{"result"},
	)
)

// ObserveHTTPRequest 记录一次HTTP请求
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// CacheHit 记录缓存命中
func CacheHit(resource string) {
	cacheRequestsTotal.WithLabelValues(resource, "hit").Inc()
}

// CacheMiss 记录缓存未命中
func CacheMiss(resource string) {
	cacheRequestsTotal.WithLabelValues(resource, "miss").Inc()
}

// CacheDegraded 记录缓存后端不可用导致的降级
func CacheDegraded(resource string) {
	cacheRequestsTotal.WithLabelValues(resource, "degraded").Inc()
}

// CacheInvalidation 记录一次范围失效
func CacheInvalidation(scope string) {
	cacheInvalidationsTotal.WithLabelValues(scope).Inc()
}

// IngestResult 记录摄取结果
func IngestResult(result string) {
	ingestTotal.WithLabelValues(result).Inc()
}

// CompensationDelete 记录一次补偿删除
func CompensationDelete(ok bool) {
	if ok {
		compensationDeletesTotal.WithLabelValues("ok").Inc()
	} else {
		compensationDeletesTotal.WithLabelValues("failed").Inc()
	}
}
