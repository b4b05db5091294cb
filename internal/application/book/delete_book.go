package book

import (
	"context"
	"log"
	"time"

	"github.com/xiebiao/bookshelf/internal/application/cache"
	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/pkg/mq"
)

// ObjectDeleter 对象删除端口(由infrastructure/storage.S3Store实现)
type ObjectDeleter interface {
	Delete(ctx context.Context, key string) error
}

// DeleteBookUseCase 删除图书用例
// 设计说明：
// 1. 目录记录先删(权威数据),远端对象随后尽力清理——
//    清理失败留下孤儿对象,不回滚已删除的记录
// 2. 失效范围:列表、搜索,以及该书的评论缓存
type DeleteBookUseCase struct {
	bookService book.Service
	deleter     ObjectDeleter
	cacheStore  cache.Store
	publisher   EventPublisher
}

// NewDeleteBookUseCase 创建删除图书用例
func NewDeleteBookUseCase(
	bookService book.Service,
	deleter ObjectDeleter,
	cacheStore cache.Store,
	publisher EventPublisher,
) *DeleteBookUseCase {
	return &DeleteBookUseCase{
		bookService: bookService,
		deleter:     deleter,
		cacheStore:  cacheStore,
		publisher:   publisher,
	}
}

// Execute 执行删除
func (uc *DeleteBookUseCase) Execute(ctx context.Context, id, userID uint) error {
	b, err := uc.bookService.DeleteBook(ctx, id, userID)
	if err != nil {
		return err
	}

	// 清理远端对象(尽力而为)
	for _, key := range b.StorageKeys() {
		if err := uc.deleter.Delete(ctx, key); err != nil {
			log.Printf("清理远端对象失败: key=%s err=%v", key, err)
		}
	}

	scopes := []string{cache.ScopeBooks, cache.ScopeSearch, cache.ScopeBookReviews(id)}
	if _, err := uc.cacheStore.Invalidate(ctx, scopes...); err != nil {
		log.Printf("缓存失效失败: scopes=%v err=%v", scopes, err)
	}

	if uc.publisher != nil {
		event := mq.CatalogEvent{
			Kind:       "book_deleted",
			EntityID:   id,
			BookID:     id,
			OccurredAt: time.Now(),
		}
		if err := uc.publisher.Publish(ctx, event); err != nil {
			log.Printf("发布事件失败: kind=%s id=%d err=%v", event.Kind, id, err)
		}
	}

	return nil
}
