package book

import (
	"context"
	"log"
	"time"

	"github.com/xiebiao/bookshelf/internal/application/cache"
	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/pkg/mq"
)

// UpdateBookUseCase 更新图书信息用例
// 提交后失效列表与搜索缓存(书名/作者变更会影响两者)
type UpdateBookUseCase struct {
	bookService book.Service
	cacheStore  cache.Store
	resolver    URLResolver
	publisher   EventPublisher
	presignTTL  time.Duration
}

// NewUpdateBookUseCase 创建更新图书用例
func NewUpdateBookUseCase(
	bookService book.Service,
	cacheStore cache.Store,
	resolver URLResolver,
	publisher EventPublisher,
	presignTTL time.Duration,
) *UpdateBookUseCase {
	return &UpdateBookUseCase{
		bookService: bookService,
		cacheStore:  cacheStore,
		resolver:    resolver,
		publisher:   publisher,
		presignTTL:  presignTTL,
	}
}

// UpdateBookRequest 更新图书请求(空字段不覆盖)
type UpdateBookRequest struct {
	ID     uint
	UserID uint
	Title  string
	Author string
	Genre  string
}

// Execute 执行更新
func (uc *UpdateBookUseCase) Execute(ctx context.Context, req UpdateBookRequest) (*BookDTO, error) {
	b, err := uc.bookService.UpdateBookInfo(ctx, req.ID, req.UserID, req.Title, req.Author, req.Genre)
	if err != nil {
		return nil, err
	}

	if _, err := uc.cacheStore.Invalidate(ctx, cache.ScopeBooks, cache.ScopeSearch); err != nil {
		log.Printf("缓存失效失败: scope=%s,%s err=%v", cache.ScopeBooks, cache.ScopeSearch, err)
	}

	if uc.publisher != nil {
		event := mq.CatalogEvent{
			Kind:       "book_updated",
			EntityID:   b.ID,
			BookID:     b.ID,
			OccurredAt: time.Now(),
		}
		if err := uc.publisher.Publish(ctx, event); err != nil {
			log.Printf("发布事件失败: kind=%s id=%d err=%v", event.Kind, b.ID, err)
		}
	}

	return toBookDTO(ctx, b, uc.resolver, uc.presignTTL)
}
