package review

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/xiebiao/bookshelf/internal/application/cache"
	"github.com/xiebiao/bookshelf/internal/domain/review"
)

// ListReviewsUseCase 评论列表查询用例(读穿缓存)
// 评论负载不含对象存储URL,TTL直接用默认值
type ListReviewsUseCase struct {
	reviewService review.Service
	cacheStore    cache.Store
	cacheTTL      time.Duration
}

// NewListReviewsUseCase 创建评论列表用例
func NewListReviewsUseCase(
	reviewService review.Service,
	cacheStore cache.Store,
	cacheTTL time.Duration,
) *ListReviewsUseCase {
	return &ListReviewsUseCase{
		reviewService: reviewService,
		cacheStore:    cacheStore,
		cacheTTL:      cacheTTL,
	}
}

// ListReviewsRequest 评论列表请求
type ListReviewsRequest struct {
	BookID   uint
	Page     int
	PageSize int
}

// ListReviewsResponse 评论列表响应
type ListReviewsResponse struct {
	Reviews   []*ReviewDTO `json:"reviews"`
	Total     int64        `json:"total"`
	Page      int          `json:"page"`
	PageSize  int          `json:"page_size"`
	FromCache bool         `json:"-"`
}

// Execute 执行查询
func (uc *ListReviewsUseCase) Execute(ctx context.Context, req ListReviewsRequest) (*ListReviewsResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 10
	}

	key := cache.BookReviewsKey(req.BookID, req.Page, req.PageSize)

	if raw, hit, _ := uc.cacheStore.Get(ctx, key); hit {
		var resp ListReviewsResponse
		if err := json.Unmarshal(raw, &resp); err == nil {
			resp.FromCache = true
			return &resp, nil
		}
		log.Printf("缓存条目损坏: key=%s", key)
	}

	// 回源前快照本书评论作用域的纪元
	guard, guardErr := uc.cacheStore.EpochOf(ctx, cache.ScopeBookReviews(req.BookID))

	reviews, total, err := uc.reviewService.ListReviews(ctx, review.ListParams{
		BookID:   req.BookID,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, err
	}

	resp := &ListReviewsResponse{
		Reviews:  toReviewDTOs(reviews),
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	// 条件写缓存:回源期间本书评论被失效过时放弃写入
	if guardErr == nil {
		if payload, err := json.Marshal(resp); err == nil {
			_ = uc.cacheStore.Set(ctx, key, payload, uc.cacheTTL, guard)
		}
	}

	return resp, nil
}
