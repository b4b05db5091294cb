package book

import (
	"context"
	"log"
	"time"

	"github.com/xiebiao/bookshelf/internal/application/cache"
	"github.com/xiebiao/bookshelf/internal/application/ingest"
	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/pkg/mq"
)

// EventPublisher 目录事件发布端口(由pkg/mq.Publisher实现,可为nil)
type EventPublisher interface {
	Publish(ctx context.Context, event mq.CatalogEvent) error
}

// RoleCover/RoleDocument 图书摄取清单的角色名
// 角色名是StoredObject映射的key,对外契约
const (
	RoleCover    = "cover"
	RoleDocument = "document"
)

// bookManifest 图书摄取清单:封面必填(公开图片),文档可选(私有PDF)
func bookManifest() ingest.Manifest {
	return ingest.Manifest{
		RoleCover:    {Kind: ingest.MediaKindImage, Visibility: ingest.VisibilityPublic, Required: true},
		RoleDocument: {Kind: ingest.MediaKindDocument, Visibility: ingest.VisibilityPrivate},
	}
}

// PublishBookUseCase 录入图书用例(摄取+目录写入+缓存失效)
// 设计说明：
// 1. 摄取成功后才写目录记录:目录记录永远不引用未上传成功的对象
// 2. 目录写入失败时,对本次摄取产生的全部对象执行补偿删除(上一层的同样纪律)
// 3. 失效发生在提交之后、响应之前:拿到成功响应的客户端下次读不到陈旧缓存
type PublishBookUseCase struct {
	bookService book.Service
	ingestor    Ingestor
	cacheStore  cache.Store
	resolver    URLResolver
	publisher   EventPublisher // 可为nil(事件总线未启用)
	presignTTL  time.Duration
}

// NewPublishBookUseCase 创建录入图书用例
func NewPublishBookUseCase(
	bookService book.Service,
	ingestor Ingestor,
	cacheStore cache.Store,
	resolver URLResolver,
	publisher EventPublisher,
	presignTTL time.Duration,
) *PublishBookUseCase {
	return &PublishBookUseCase{
		bookService: bookService,
		ingestor:    ingestor,
		cacheStore:  cacheStore,
		resolver:    resolver,
		publisher:   publisher,
		presignTTL:  presignTTL,
	}
}

// PublishBookRequest 录入图书请求
type PublishBookRequest struct {
	Title   string
	Author  string
	Genre   string
	OwnerID uint
	Files   map[string]ingest.StagedFile // 角色 → 暂存文件
}

// Execute 执行录入
func (uc *PublishBookUseCase) Execute(ctx context.Context, req PublishBookRequest) (*BookDTO, error) {
	// 1. 摄取:转换+上传,失败时编排器内部已完成补偿,零残留
	objects, err := uc.ingestor.Ingest(ctx, bookManifest(), req.Files, "books")
	if err != nil {
		return nil, err
	}

	// 2. 写目录记录;失败则回滚本次上传的全部对象
	documentKey := ""
	if doc, ok := objects[RoleDocument]; ok {
		documentKey = doc.Key
	}

	b, err := uc.bookService.AddBook(ctx, req.Title, req.Author, req.Genre,
		objects[RoleCover].Key, documentKey, req.OwnerID)
	if err != nil {
		uc.ingestor.Compensate(ctx, objects)
		return nil, err
	}

	// 3. 提交已完成,失效列表与搜索缓存
	// 失效失败不回滚写入:读路径降级为未命中时本就不会读到陈旧数据,
	// 其余情况陈旧条目最长存活一个TTL周期
	if _, err := uc.cacheStore.Invalidate(ctx, cache.ScopeBooks, cache.ScopeSearch); err != nil {
		log.Printf("缓存失效失败: scope=%s,%s err=%v", cache.ScopeBooks, cache.ScopeSearch, err)
	}

	// 4. 发布目录事件(尽力而为)
	if uc.publisher != nil {
		event := mq.CatalogEvent{
			Kind:       "book_created",
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
