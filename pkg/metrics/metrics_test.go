package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// TestCacheCounters 缓存命中/未命中/降级计数
func TestCacheCounters(t *testing.T) {
	before := testutil.ToFloat64(cacheRequestsTotal.WithLabelValues("books", "hit"))
	CacheHit("books")
	CacheHit("books")
	after := testutil.ToFloat64(cacheRequestsTotal.WithLabelValues("books", "hit"))
	assert.Equal(t, before+2, after)

	beforeMiss := testutil.ToFloat64(cacheRequestsTotal.WithLabelValues("books", "miss"))
	CacheMiss("books")
	assert.Equal(t, beforeMiss+1, testutil.ToFloat64(cacheRequestsTotal.WithLabelValues("books", "miss")))

	beforeDeg := testutil.ToFloat64(cacheRequestsTotal.WithLabelValues("search", "degraded"))
	CacheDegraded("search")
	assert.Equal(t, beforeDeg+1, testutil.ToFloat64(cacheRequestsTotal.WithLabelValues("search", "degraded")))
}

// TestIngestAndCompensationCounters 摄取与补偿计数
func TestIngestAndCompensationCounters(t *testing.T) {
	before := testutil.ToFloat64(ingestTotal.WithLabelValues("upload"))
	IngestResult("upload")
	assert.Equal(t, before+1, testutil.ToFloat64(ingestTotal.WithLabelValues("upload")))

	beforeOK := testutil.ToFloat64(compensationDeletesTotal.WithLabelValues("ok"))
	beforeFail := testutil.ToFloat64(compensationDeletesTotal.WithLabelValues("failed"))
	CompensationDelete(true)
	CompensationDelete(false)
	assert.Equal(t, beforeOK+1, testutil.ToFloat64(compensationDeletesTotal.WithLabelValues("ok")))
	assert.Equal(t, beforeFail+1, testutil.ToFloat64(compensationDeletesTotal.WithLabelValues("failed")))
}

// TestObserveHTTPRequest HTTP请求计数
func TestObserveHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/v1/books", "200"))
	ObserveHTTPRequest("GET", "/api/v1/books", 200, 30*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/v1/books", "200")))
}
