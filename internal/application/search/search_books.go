package search

import (
	"context"
	"encoding/json"
	"log"
	"time"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
	"github.com/xiebiao/bookshelf/internal/application/cache"
	"github.com/xiebiao/bookshelf/internal/application/ingest"
	"github.com/xiebiao/bookshelf/internal/domain/book"
)

// SearchBooksUseCase 图书搜索用例(读穿缓存)
// 设计说明：
// 1. 匹配策略由领域服务决定:短关键词走字面匹配,长关键词走全文索引
// 2. 结果缓存在search:*范围下,图书增删改时整个范围一并失效
type SearchBooksUseCase struct {
	bookService book.Service
	cacheStore  cache.Store
	resolver    appbook.URLResolver
	cacheTTL    time.Duration
	presignTTL  time.Duration
}

// NewSearchBooksUseCase 创建搜索用例
func NewSearchBooksUseCase(
	bookService book.Service,
	cacheStore cache.Store,
	resolver appbook.URLResolver,
	cacheTTL, presignTTL time.Duration,
) *SearchBooksUseCase {
	return &SearchBooksUseCase{
		bookService: bookService,
		cacheStore:  cacheStore,
		resolver:    resolver,
		cacheTTL:    cacheTTL,
		presignTTL:  presignTTL,
	}
}

// SearchBooksRequest 搜索请求
type SearchBooksRequest struct {
	Query string
	Limit int
}

// SearchBooksResponse 搜索响应
type SearchBooksResponse struct {
	Query     string             `json:"query"`
	Books     []*SearchResultDTO `json:"books"`
	FromCache bool               `json:"-"`
}

// SearchResultDTO 搜索结果条目
type SearchResultDTO struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Genre    string `json:"genre"`
	CoverURL string `json:"cover_url"`
}

// Execute 执行搜索
func (uc *SearchBooksUseCase) Execute(ctx context.Context, req SearchBooksRequest) (*SearchBooksResponse, error) {
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 10
	}

	key := cache.SearchKey(req.Query, 1, req.Limit)

	if raw, hit, _ := uc.cacheStore.Get(ctx, key); hit {
		var resp SearchBooksResponse
		if err := json.Unmarshal(raw, &resp); err == nil {
			resp.FromCache = true
			return &resp, nil
		}
		log.Printf("缓存条目损坏: key=%s", key)
	}

	// 回源前快照搜索作用域的纪元
	guard, guardErr := uc.cacheStore.EpochOf(ctx, cache.ScopeSearch)

	books, err := uc.bookService.SearchBooks(ctx, req.Query, req.Limit)
	if err != nil {
		return nil, err
	}

	results := make([]*SearchResultDTO, len(books))
	for i, b := range books {
		coverURL, err := uc.resolver.ResolveURL(ctx, b.CoverKey, ingest.VisibilityOf(b.CoverKey), uc.presignTTL)
		if err != nil {
			return nil, err
		}
		results[i] = &SearchResultDTO{
			ID:       b.ID,
			Title:    b.Title,
			Author:   b.Author,
			Genre:    b.Genre,
			CoverURL: coverURL,
		}
	}

	resp := &SearchBooksResponse{
		Query: req.Query,
		Books: results,
	}

	// 条件写缓存:回源期间图书有增删改(搜索范围被失效)时放弃写入
	if guardErr == nil {
		if payload, err := json.Marshal(resp); err == nil {
			_ = uc.cacheStore.Set(ctx, key, payload, uc.cacheTTL, guard)
		}
	}

	return resp, nil
}
