package review

import (
	"context"
	"log"
	"time"

	"github.com/xiebiao/bookshelf/internal/application/cache"
	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/review"
	"github.com/xiebiao/bookshelf/pkg/mq"
)

// EventPublisher 目录事件发布端口(可为nil)
type EventPublisher interface {
	Publish(ctx context.Context, event mq.CatalogEvent) error
}

// CreateReviewUseCase 发表评论用例
// 设计说明：
// 1. 先确认图书存在,评论不挂在不存在的图书上
// 2. 提交后失效该书的评论缓存范围(book:<id>:reviews:*),
//    其他书的评论缓存不受影响
type CreateReviewUseCase struct {
	reviewService review.Service
	bookService   book.Service
	cacheStore    cache.Store
	publisher     EventPublisher
}

// NewCreateReviewUseCase 创建发表评论用例
func NewCreateReviewUseCase(
	reviewService review.Service,
	bookService book.Service,
	cacheStore cache.Store,
	publisher EventPublisher,
) *CreateReviewUseCase {
	return &CreateReviewUseCase{
		reviewService: reviewService,
		bookService:   bookService,
		cacheStore:    cacheStore,
		publisher:     publisher,
	}
}

// CreateReviewRequest 发表评论请求
type CreateReviewRequest struct {
	BookID  uint
	UserID  uint
	Rating  int
	Comment string
}

// Execute 执行发表
func (uc *CreateReviewUseCase) Execute(ctx context.Context, req CreateReviewRequest) (*ReviewDTO, error) {
	if _, err := uc.bookService.GetBookByID(ctx, req.BookID); err != nil {
		return nil, err
	}

	r, err := uc.reviewService.CreateReview(ctx, req.BookID, req.UserID, req.Rating, req.Comment)
	if err != nil {
		return nil, err
	}

	invalidateReviewScope(ctx, uc.cacheStore, req.BookID)
	publishReviewEvent(ctx, uc.publisher, "review_created", r.ID, req.BookID)

	return toReviewDTO(r), nil
}

// invalidateReviewScope 失效某本书的评论缓存
// 提交后、响应前执行;失败只记日志,陈旧条目最长存活一个TTL周期
func invalidateReviewScope(ctx context.Context, store cache.Store, bookID uint) {
	scope := cache.ScopeBookReviews(bookID)
	if _, err := store.Invalidate(ctx, scope); err != nil {
		log.Printf("缓存失效失败: scope=%s err=%v", scope, err)
	}
}

// publishReviewEvent 发布评论事件(尽力而为)
func publishReviewEvent(ctx context.Context, publisher EventPublisher, kind string, reviewID, bookID uint) {
	if publisher == nil {
		return
	}
	event := mq.CatalogEvent{
		Kind:       kind,
		EntityID:   reviewID,
		BookID:     bookID,
		OccurredAt: time.Now(),
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Printf("发布事件失败: kind=%s id=%d err=%v", kind, reviewID, err)
	}
}
