package review

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshelf/internal/application/cache"
	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/review"
)

// memCache 内存缓存(glob前缀失效+纪元条件写入)
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	epochs  map[string]int64
}

func newMemCache() *memCache {
	return &memCache{
		entries: make(map[string][]byte),
		epochs:  make(map[string]int64),
	}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memCache) EpochOf(ctx context.Context, scope string) (cache.Epoch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cache.Epoch{Scope: scope, Value: c.epochs[scope]}, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration, guard cache.Epoch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epochs[guard.Scope] != guard.Value {
		return nil
	}
	c.entries[key] = value
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

// fakeReviewSvc 记录回源次数的领域服务
// onList在每次回源时执行,用于在回源窗口内插入并发写方的动作
type fakeReviewSvc struct {
	review.Service
	reviews   []*review.Review
	listCalls int
	created   *review.Review
	onList    func()
}

func (s *fakeReviewSvc) ListReviews(ctx context.Context, params review.ListParams) ([]*review.Review, int64, error) {
	s.listCalls++
	if s.onList != nil {
		s.onList()
	}
	return s.reviews, int64(len(s.reviews)), nil
}

func (s *fakeReviewSvc) CreateReview(ctx context.Context, bookID, userID uint, rating int, comment string) (*review.Review, error) {
	r, err := review.NewReview(bookID, userID, rating, comment)
	if err != nil {
		return nil, err
	}
	r.ID = 1
	s.created = r
	return r, nil
}

// fakeBookSvc 图书总是存在
type fakeBookSvc struct {
	book.Service
}

func (s *fakeBookSvc) GetBookByID(ctx context.Context, id uint) (*book.Book, error) {
	return &book.Book{ID: id, Title: "Go程序设计"}, nil
}

func sampleReviews() []*review.Review {
	return []*review.Review{
		{ID: 1, BookID: 42, UserID: 7, Rating: 5, Comment: "好书"},
		{ID: 2, BookID: 42, UserID: 8, Rating: 3},
	}
}

func TestListReviews_MissPopulatesThenHits(t *testing.T) {
	svc := &fakeReviewSvc{reviews: sampleReviews()}
	store := newMemCache()
	uc := NewListReviewsUseCase(svc, store, time.Hour)

	resp1, err := uc.Execute(context.Background(), ListReviewsRequest{BookID: 42, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.False(t, resp1.FromCache)
	assert.Equal(t, 1, svc.listCalls)

	resp2, err := uc.Execute(context.Background(), ListReviewsRequest{BookID: 42, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.True(t, resp2.FromCache)
	assert.Equal(t, 1, svc.listCalls)
	assert.Equal(t, resp1.Total, resp2.Total)
}

func TestCreateReview_InvalidatesOnlyThatBooksScope(t *testing.T) {
	reviewSvc := &fakeReviewSvc{reviews: sampleReviews()}
	store := newMemCache()

	// 预置两本书的评论缓存与一个列表缓存
	ctx := context.Background()
	seed := func(key, scope string) {
		guard, err := store.EpochOf(ctx, scope)
		require.NoError(t, err)
		require.NoError(t, store.Set(ctx, key, []byte("{}"), time.Hour, guard))
	}
	seed(cache.BookReviewsKey(42, 1, 10), cache.ScopeBookReviews(42))
	seed(cache.BookReviewsKey(7, 1, 10), cache.ScopeBookReviews(7))
	seed(cache.BooksListKey("", "", 1, 10), cache.ScopeBooks)

	uc := NewCreateReviewUseCase(reviewSvc, &fakeBookSvc{}, store, nil)
	dto, err := uc.Execute(ctx, CreateReviewRequest{BookID: 42, UserID: 7, Rating: 5, Comment: "好书"})
	require.NoError(t, err)
	assert.Equal(t, 5, dto.Rating)

	// 只有book 42的评论范围被失效
	_, hit, _ := store.Get(ctx, cache.BookReviewsKey(42, 1, 10))
	assert.False(t, hit)
	_, hit, _ = store.Get(ctx, cache.BookReviewsKey(7, 1, 10))
	assert.True(t, hit)
	_, hit, _ = store.Get(ctx, cache.BooksListKey("", "", 1, 10))
	assert.True(t, hit)
}

func TestListReviews_InvalidationDuringSourceQueryIsNotOverwritten(t *testing.T) {
	store := newMemCache()
	svc := &fakeReviewSvc{reviews: sampleReviews()}
	// 回源窗口内该书的评论范围被失效(有人发表/修改了评论)
	svc.onList = func() {
		if svc.listCalls == 1 {
			_, err := store.Invalidate(context.Background(), cache.ScopeBookReviews(42))
			require.NoError(t, err)
		}
	}
	uc := NewListReviewsUseCase(svc, store, time.Hour)

	resp1, err := uc.Execute(context.Background(), ListReviewsRequest{BookID: 42, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.False(t, resp1.FromCache)

	// 失效前快照的负载没有写进缓存:再读重新回源
	resp2, err := uc.Execute(context.Background(), ListReviewsRequest{BookID: 42, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.False(t, resp2.FromCache)
	assert.Equal(t, 2, svc.listCalls)
}

func TestCreateReview_InvalidRatingRejected(t *testing.T) {
	uc := NewCreateReviewUseCase(&fakeReviewSvc{}, &fakeBookSvc{}, newMemCache(), nil)

	_, err := uc.Execute(context.Background(), CreateReviewRequest{BookID: 42, UserID: 7, Rating: 6})

	assert.ErrorIs(t, err, review.ErrInvalidRating)
}
