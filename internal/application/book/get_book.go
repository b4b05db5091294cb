package book

import (
	"context"
	"time"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/review"
)

// GetBookUseCase 图书详情查询用例
// 详情不走缓存:平均评分以评论表的实时聚合为权威值,
// 缓存详情会让评分落后于评论变更(评论失效范围不覆盖图书详情)
type GetBookUseCase struct {
	bookService   book.Service
	reviewService review.Service
	resolver      URLResolver
	presignTTL    time.Duration
}

// NewGetBookUseCase 创建详情查询用例
func NewGetBookUseCase(
	bookService book.Service,
	reviewService review.Service,
	resolver URLResolver,
	presignTTL time.Duration,
) *GetBookUseCase {
	return &GetBookUseCase{
		bookService:   bookService,
		reviewService: reviewService,
		resolver:      resolver,
		presignTTL:    presignTTL,
	}
}

// BookDetailDTO 图书详情(含实时评分)
type BookDetailDTO struct {
	BookDTO
	AvgRating   float64 `json:"avg_rating"`
	ReviewCount int64   `json:"review_count"`
}

// Execute 执行查询
func (uc *GetBookUseCase) Execute(ctx context.Context, id uint) (*BookDetailDTO, error) {
	b, err := uc.bookService.GetBookByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dto, err := toBookDTO(ctx, b, uc.resolver, uc.presignTTL)
	if err != nil {
		return nil, err
	}

	avg, count, err := uc.reviewService.BookRating(ctx, id)
	if err != nil {
		return nil, err
	}

	return &BookDetailDTO{
		BookDTO:     *dto,
		AvgRating:   avg,
		ReviewCount: count,
	}, nil
}
