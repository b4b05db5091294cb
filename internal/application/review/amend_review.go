package review

import (
	"context"

	"github.com/xiebiao/bookshelf/internal/application/cache"
	"github.com/xiebiao/bookshelf/internal/domain/review"
)

// UpdateReviewUseCase 修改评论用例
type UpdateReviewUseCase struct {
	reviewService review.Service
	cacheStore    cache.Store
	publisher     EventPublisher
}

// NewUpdateReviewUseCase 创建修改评论用例
func NewUpdateReviewUseCase(
	reviewService review.Service,
	cacheStore cache.Store,
	publisher EventPublisher,
) *UpdateReviewUseCase {
	return &UpdateReviewUseCase{
		reviewService: reviewService,
		cacheStore:    cacheStore,
		publisher:     publisher,
	}
}

// UpdateReviewRequest 修改评论请求(评分0或内容空表示不修改该项)
type UpdateReviewRequest struct {
	ReviewID uint
	UserID   uint
	Rating   int
	Comment  string
}

// Execute 执行修改
func (uc *UpdateReviewUseCase) Execute(ctx context.Context, req UpdateReviewRequest) (*ReviewDTO, error) {
	r, err := uc.reviewService.UpdateReview(ctx, req.ReviewID, req.UserID, req.Rating, req.Comment)
	if err != nil {
		return nil, err
	}

	invalidateReviewScope(ctx, uc.cacheStore, r.BookID)
	publishReviewEvent(ctx, uc.publisher, "review_updated", r.ID, r.BookID)

	return toReviewDTO(r), nil
}

// DeleteReviewUseCase 删除评论用例
type DeleteReviewUseCase struct {
	reviewService review.Service
	cacheStore    cache.Store
	publisher     EventPublisher
}

// NewDeleteReviewUseCase 创建删除评论用例
func NewDeleteReviewUseCase(
	reviewService review.Service,
	cacheStore cache.Store,
	publisher EventPublisher,
) *DeleteReviewUseCase {
	return &DeleteReviewUseCase{
		reviewService: reviewService,
		cacheStore:    cacheStore,
		publisher:     publisher,
	}
}

// Execute 执行删除
// 领域服务返回被删评论,据此定位要失效的缓存范围
func (uc *DeleteReviewUseCase) Execute(ctx context.Context, reviewID, userID uint) error {
	r, err := uc.reviewService.DeleteReview(ctx, reviewID, userID)
	if err != nil {
		return err
	}

	invalidateReviewScope(ctx, uc.cacheStore, r.BookID)
	publishReviewEvent(ctx, uc.publisher, "review_deleted", r.ID, r.BookID)

	return nil
}
