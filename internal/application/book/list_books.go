package book

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/xiebiao/bookshelf/internal/application/cache"
	"github.com/xiebiao/bookshelf/internal/domain/book"
)

// ListBooksUseCase 图书列表查询用例(读穿缓存)
// 设计说明：
// 1. 命中直接反序列化返回,标记为缓存命中
// 2. 未命中回源数据库,解析对象key为URL,写缓存后返回
// 3. 含签名URL的负载用更短TTL,防止缓存里的URL先于条目过期
type ListBooksUseCase struct {
	bookService book.Service
	cacheStore  cache.Store
	resolver    URLResolver
	cacheTTL    time.Duration
	presignTTL  time.Duration
}

// NewListBooksUseCase 创建列表查询用例
func NewListBooksUseCase(
	bookService book.Service,
	cacheStore cache.Store,
	resolver URLResolver,
	cacheTTL, presignTTL time.Duration,
) *ListBooksUseCase {
	return &ListBooksUseCase{
		bookService: bookService,
		cacheStore:  cacheStore,
		resolver:    resolver,
		cacheTTL:    cacheTTL,
		presignTTL:  presignTTL,
	}
}

// ListBooksRequest 列表查询请求
type ListBooksRequest struct {
	Page     int
	PageSize int
	Author   string // 作者过滤,空值不过滤
	Genre    string // 分类过滤,空值不过滤
}

// ListBooksResponse 列表查询响应
// FromCache不参与序列化:缓存里的负载永远是"新鲜"形态
type ListBooksResponse struct {
	Books     []*BookDTO `json:"books"`
	Total     int64      `json:"total"`
	Page      int        `json:"page"`
	PageSize  int        `json:"page_size"`
	FromCache bool       `json:"-"`
}

// Execute 执行查询
func (uc *ListBooksUseCase) Execute(ctx context.Context, req ListBooksRequest) (*ListBooksResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 10
	}

	key := cache.BooksListKey(req.Author, req.Genre, req.Page, req.PageSize)

	// 1. 查缓存;反序列化失败按未命中处理(损坏条目会被随后覆盖)
	if raw, hit, _ := uc.cacheStore.Get(ctx, key); hit {
		var resp ListBooksResponse
		if err := json.Unmarshal(raw, &resp); err == nil {
			resp.FromCache = true
			return &resp, nil
		}
		log.Printf("缓存条目损坏: key=%s", key)
	}

	// 2. 回源前快照作用域纪元:回源期间发生失效时,写回会被丢弃
	guard, guardErr := uc.cacheStore.EpochOf(ctx, cache.ScopeBooks)

	// 3. 回源查询
	books, total, err := uc.bookService.ListBooks(ctx, book.ListParams{
		Page:     req.Page,
		PageSize: req.PageSize,
		Author:   req.Author,
		Genre:    req.Genre,
	})
	if err != nil {
		return nil, err
	}

	dtos, err := toBookDTOs(ctx, books, uc.resolver, uc.presignTTL)
	if err != nil {
		return nil, err
	}

	resp := &ListBooksResponse{
		Books:    dtos,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	// 4. 条件写缓存:纪元在快照后前移过(期间有失效)的写入被丢弃
	if guardErr == nil {
		if payload, err := json.Marshal(resp); err == nil {
			ttl := effectiveTTL(uc.cacheTTL, uc.presignTTL, hasPrivateKeys(books))
			_ = uc.cacheStore.Set(ctx, key, payload, ttl, guard)
		}
	}

	return resp, nil
}
