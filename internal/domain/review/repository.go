package review

import (
	"context"
)

// ListParams 评论列表查询参数
type ListParams struct {
	BookID   uint
	Page     int
	PageSize int
}

// Repository 评论仓储接口
type Repository interface {
	// Create 创建评论((book_id, user_id)唯一冲突时返回ErrDuplicateReview)
	Create(ctx context.Context, review *Review) error

	// FindByID 根据ID查找评论
	FindByID(ctx context.Context, id uint) (*Review, error)

	// Update 更新评论
	Update(ctx context.Context, review *Review) error

	// Delete 删除评论
	Delete(ctx context.Context, id uint) error

	// ListByBook 分页查询某本书的评论(按创建时间倒序)
	ListByBook(ctx context.Context, params ListParams) ([]*Review, int64, error)

	// AverageRating 实时聚合某本书的平均评分与评论数
	// 以此为权威值,不维护冗余字段
	AverageRating(ctx context.Context, bookID uint) (avg float64, count int64, err error)
}
