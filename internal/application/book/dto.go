package book

import (
	"context"
	"time"

	"github.com/xiebiao/bookshelf/internal/application/ingest"
	"github.com/xiebiao/bookshelf/internal/domain/book"
)

// URLResolver 把对象存储key解析为可访问URL的窄接口
// 由infrastructure/storage.S3Store实现
type URLResolver interface {
	ResolveURL(ctx context.Context, key string, visibility ingest.Visibility, ttl time.Duration) (string, error)
}

// Ingestor 摄取编排端口(由ingest.Orchestrator实现)
type Ingestor interface {
	Ingest(ctx context.Context, manifest ingest.Manifest, files map[string]ingest.StagedFile, folder string) (map[string]ingest.StoredObject, error)
	Compensate(ctx context.Context, objects map[string]ingest.StoredObject)
}

// BookDTO 图书响应DTO
// URL在组装时解析:公开封面URL稳定,私有文档URL为限时签名
type BookDTO struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Genre       string    `json:"genre"`
	CoverURL    string    `json:"cover_url"`
	DocumentURL string    `json:"document_url,omitempty"`
	OwnerID     uint      `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// toBookDTO 领域实体 → DTO,解析全部对象key为URL
func toBookDTO(ctx context.Context, b *book.Book, resolver URLResolver, presignTTL time.Duration) (*BookDTO, error) {
	coverURL, err := resolver.ResolveURL(ctx, b.CoverKey, ingest.VisibilityOf(b.CoverKey), presignTTL)
	if err != nil {
		return nil, err
	}

	dto := &BookDTO{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		Genre:     b.Genre,
		CoverURL:  coverURL,
		OwnerID:   b.OwnerID,
		CreatedAt: b.CreatedAt,
	}

	if b.HasDocument() {
		docURL, err := resolver.ResolveURL(ctx, b.DocumentKey, ingest.VisibilityOf(b.DocumentKey), presignTTL)
		if err != nil {
			return nil, err
		}
		dto.DocumentURL = docURL
	}

	return dto, nil
}

// toBookDTOs 批量转换
func toBookDTOs(ctx context.Context, books []*book.Book, resolver URLResolver, presignTTL time.Duration) ([]*BookDTO, error) {
	dtos := make([]*BookDTO, len(books))
	for i, b := range books {
		dto, err := toBookDTO(ctx, b, resolver, presignTTL)
		if err != nil {
			return nil, err
		}
		dtos[i] = dto
	}
	return dtos, nil
}

// hasPrivateKeys 结果中是否含私有对象
// 含签名URL的缓存条目必须用更短的有效TTL,避免缓存过期前URL先失效
func hasPrivateKeys(books []*book.Book) bool {
	for _, b := range books {
		if b.HasDocument() && ingest.VisibilityOf(b.DocumentKey) == ingest.VisibilityPrivate {
			return true
		}
		if ingest.VisibilityOf(b.CoverKey) == ingest.VisibilityPrivate {
			return true
		}
	}
	return false
}

// effectiveTTL 缓存条目的有效TTL
// 负载含签名URL时,取默认TTL与签名有效期一半中的较小者
func effectiveTTL(defaultTTL, presignTTL time.Duration, hasPrivate bool) time.Duration {
	if !hasPrivate {
		return defaultTTL
	}
	half := presignTTL / 2
	if half < defaultTTL {
		return half
	}
	return defaultTTL
}
