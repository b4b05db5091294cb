package book

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshelf/internal/application/cache"
	"github.com/xiebiao/bookshelf/internal/application/ingest"
	"github.com/xiebiao/bookshelf/internal/domain/book"
)

// memCache 内存缓存,带TTL、glob前缀失效与纪元条件写入
type memCache struct {
	mu      sync.Mutex
	entries map[string]memEntry
	epochs  map[string]int64
	lastTTL time.Duration
}

type memEntry struct {
	value  []byte
	expiry time.Time
}

func newMemCache() *memCache {
	return &memCache{
		entries: make(map[string]memEntry),
		epochs:  make(map[string]int64),
	}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiry) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (c *memCache) EpochOf(ctx context.Context, scope string) (cache.Epoch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cache.Epoch{Scope: scope, Value: c.epochs[scope]}, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration, guard cache.Epoch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	// 快照之后作用域被失效过:丢弃写入
	if c.epochs[guard.Scope] != guard.Value {
		return nil
	}
	c.entries[key] = memEntry{value: value, expiry: time.Now().Add(ttl)}
	c.lastTTL = ttl
	return nil
}

func (c *memCache) Invalidate(ctx context.Context, patterns ...string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var deleted int64
	for _, p := range patterns {
		c.epochs[p]++
		prefix := strings.TrimSuffix(p, "*")
		for key := range c.entries {
			if strings.HasPrefix(key, prefix) {
				delete(c.entries, key)
				deleted++
			}
		}
	}
	return deleted, nil
}

// expire 手工把某个条目置为过期(测试TTL路径,避免sleep)
func (c *memCache) expire(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.expiry = time.Now().Add(-time.Second)
		c.entries[key] = e
	}
}

// downCache 后端不可用:全部未命中,写入丢弃
type downCache struct{}

func (downCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}
func (downCache) EpochOf(ctx context.Context, scope string) (cache.Epoch, error) {
	return cache.Epoch{Scope: scope, Value: -1}, nil
}
func (downCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration, guard cache.Epoch) error {
	return nil
}
func (downCache) Invalidate(ctx context.Context, patterns ...string) (int64, error) {
	return 0, nil
}

// stubResolver 可预期的URL解析
type stubResolver struct{}

func (stubResolver) ResolveURL(ctx context.Context, key string, visibility ingest.Visibility, ttl time.Duration) (string, error) {
	if visibility == ingest.VisibilityPublic {
		return "https://bucket.s3.amazonaws.com/" + key, nil
	}
	return "https://bucket.s3.amazonaws.com/" + key + "?signed=1", nil
}

// fakeBookSvc 固定数据的领域服务,记录回源次数
// onList在每次回源时执行,用于在回源窗口内插入并发写方的动作
type fakeBookSvc struct {
	book.Service
	books     []*book.Book
	listCalls int
	onList    func()
}

func (s *fakeBookSvc) ListBooks(ctx context.Context, params book.ListParams) ([]*book.Book, int64, error) {
	s.listCalls++
	if s.onList != nil {
		s.onList()
	}
	return s.books, int64(len(s.books)), nil
}

func sampleBooks() []*book.Book {
	return []*book.Book{
		{ID: 1, Title: "Go程序设计", Author: "佚名", Genre: "tech", CoverKey: "public/books/go.jpg"},
		{ID: 2, Title: "分布式系统", Author: "佚名", Genre: "tech",
			CoverKey: "public/books/dist.jpg", DocumentKey: "private/books/dist.pdf"},
	}
}

func TestListBooks_MissPopulatesThenHits(t *testing.T) {
	svc := &fakeBookSvc{books: sampleBooks()}
	store := newMemCache()
	uc := NewListBooksUseCase(svc, store, stubResolver{}, time.Hour, time.Hour)

	// 首次:未命中,回源并写缓存
	resp1, err := uc.Execute(context.Background(), ListBooksRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.False(t, resp1.FromCache)
	assert.Equal(t, 1, svc.listCalls)
	assert.Len(t, resp1.Books, 2)

	// 二次:命中,不回源
	resp2, err := uc.Execute(context.Background(), ListBooksRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.True(t, resp2.FromCache)
	assert.Equal(t, 1, svc.listCalls)
	assert.Equal(t, resp1.Total, resp2.Total)
	assert.Equal(t, resp1.Books[0].CoverURL, resp2.Books[0].CoverURL)
}

func TestListBooks_DistinctQueriesUseDistinctKeys(t *testing.T) {
	svc := &fakeBookSvc{books: sampleBooks()}
	store := newMemCache()
	uc := NewListBooksUseCase(svc, store, stubResolver{}, time.Hour, time.Hour)

	_, err := uc.Execute(context.Background(), ListBooksRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	_, err = uc.Execute(context.Background(), ListBooksRequest{Page: 2, PageSize: 10})
	require.NoError(t, err)

	// 不同页各自回源
	assert.Equal(t, 2, svc.listCalls)
}

func TestListBooks_ExpiredEntryTreatedAsMiss(t *testing.T) {
	svc := &fakeBookSvc{books: sampleBooks()}
	store := newMemCache()
	uc := NewListBooksUseCase(svc, store, stubResolver{}, time.Hour, time.Hour)

	_, err := uc.Execute(context.Background(), ListBooksRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)

	store.expire(cache.BooksListKey("", "", 1, 10))

	resp, err := uc.Execute(context.Background(), ListBooksRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.False(t, resp.FromCache)
	assert.Equal(t, 2, svc.listCalls)
}

func TestListBooks_CacheOutageDegradesToSource(t *testing.T) {
	svc := &fakeBookSvc{books: sampleBooks()}
	uc := NewListBooksUseCase(svc, downCache{}, stubResolver{}, time.Hour, time.Hour)

	for i := 0; i < 3; i++ {
		resp, err := uc.Execute(context.Background(), ListBooksRequest{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.False(t, resp.FromCache)
	}
	// 缓存不可用时每次都回源,服务保持可用
	assert.Equal(t, 3, svc.listCalls)
}

func TestListBooks_SignedPayloadGetsShorterTTL(t *testing.T) {
	svc := &fakeBookSvc{books: sampleBooks()} // 含私有文档
	store := newMemCache()
	uc := NewListBooksUseCase(svc, store, stubResolver{}, time.Hour, 30*time.Minute)

	_, err := uc.Execute(context.Background(), ListBooksRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)

	// 负载含签名URL:TTL = min(默认1h, 签名30m/2) = 15m
	assert.Equal(t, 15*time.Minute, store.lastTTL)
}

func TestListBooks_InvalidationDuringSourceQueryIsNotOverwritten(t *testing.T) {
	store := newMemCache()
	svc := &fakeBookSvc{books: sampleBooks()}
	// 回源窗口内有写方提交并失效了books范围
	svc.onList = func() {
		if svc.listCalls == 1 {
			_, err := store.Invalidate(context.Background(), cache.ScopeBooks)
			require.NoError(t, err)
		}
	}
	uc := NewListBooksUseCase(svc, store, stubResolver{}, time.Hour, time.Hour)

	// 首次:回源期间发生失效,这次的负载不能写进缓存
	resp1, err := uc.Execute(context.Background(), ListBooksRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.False(t, resp1.FromCache)

	// 失效之前快照的负载没有复活:再读必须重新回源
	resp2, err := uc.Execute(context.Background(), ListBooksRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.False(t, resp2.FromCache)
	assert.Equal(t, 2, svc.listCalls)

	// 无并发失效的回源正常写缓存,第三次命中
	resp3, err := uc.Execute(context.Background(), ListBooksRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.True(t, resp3.FromCache)
	assert.Equal(t, 2, svc.listCalls)
}

func TestEffectiveTTL(t *testing.T) {
	assert.Equal(t, time.Hour, effectiveTTL(time.Hour, time.Hour, false))
	assert.Equal(t, 30*time.Minute, effectiveTTL(time.Hour, time.Hour, true))
	assert.Equal(t, 10*time.Minute, effectiveTTL(10*time.Minute, 2*time.Hour, true))
}
