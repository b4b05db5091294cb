package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/bookshelf/internal/domain/review"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// reviewRepository 评论仓储实现(MySQL)
// 设计说明:
// 1. (book_id, user_id)唯一索引冲突转换为ErrDuplicateReview
// 2. 平均评分用AVG实时聚合,不维护冗余字段
type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository 创建评论仓储
func NewReviewRepository(db *gorm.DB) review.Repository {
	return &reviewRepository{db: db}
}

// Create 创建评论
func (r *reviewRepository) Create(ctx context.Context, rv *review.Review) error {
	model := &ReviewModel{
		BookID:  rv.BookID,
		UserID:  rv.UserID,
		Rating:  rv.Rating,
		Comment: rv.Comment,
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return review.ErrDuplicateReview
		}
		return apperrors.Wrap(err, "创建评论失败")
	}

	rv.ID = model.ID
	rv.CreatedAt = model.CreatedAt
	rv.UpdatedAt = model.UpdatedAt

	return nil
}

// FindByID 根据ID查找评论
func (r *reviewRepository) FindByID(ctx context.Context, id uint) (*review.Review, error) {
	var model ReviewModel
	err := r.db.WithContext(ctx).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, review.ErrReviewNotFound
		}
		return nil, apperrors.Wrap(err, "查询评论失败")
	}

	return toReviewEntity(&model), nil
}

// Update 更新评论
func (r *reviewRepository) Update(ctx context.Context, rv *review.Review) error {
	result := r.db.WithContext(ctx).Model(&ReviewModel{}).
		Where("id = ?", rv.ID).
		Updates(map[string]interface{}{
			"rating":  rv.Rating,
			"comment": rv.Comment,
		})

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新评论失败")
	}
	if result.RowsAffected == 0 {
		return review.ErrReviewNotFound
	}

	return nil
}

// Delete 删除评论(软删除)
func (r *reviewRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&ReviewModel{}, id)

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "删除评论失败")
	}
	if result.RowsAffected == 0 {
		return review.ErrReviewNotFound
	}

	return nil
}

// ListByBook 分页查询某本书的评论(按创建时间倒序)
func (r *reviewRepository) ListByBook(ctx context.Context, params review.ListParams) ([]*review.Review, int64, error) {
	var models []ReviewModel
	var total int64

	query := r.db.WithContext(ctx).Model(&ReviewModel{}).Where("book_id = ?", params.BookID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询评论总数失败")
	}

	offset := (params.Page - 1) * params.PageSize
	err := query.Order("created_at DESC").
		Limit(params.PageSize).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询评论列表失败")
	}

	reviews := make([]*review.Review, len(models))
	for i := range models {
		reviews[i] = toReviewEntity(&models[i])
	}

	return reviews, total, nil
}

// AverageRating 实时聚合某本书的平均评分与评论数
// 无评论时返回(0, 0, nil)
func (r *reviewRepository) AverageRating(ctx context.Context, bookID uint) (float64, int64, error) {
	var result struct {
		Avg   float64
		Count int64
	}

	err := r.db.WithContext(ctx).Model(&ReviewModel{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("book_id = ?", bookID).
		Scan(&result).Error
	if err != nil {
		return 0, 0, apperrors.Wrap(err, "聚合评分失败")
	}

	return result.Avg, result.Count, nil
}

// toReviewEntity GORM模型 → 领域实体
func toReviewEntity(model *ReviewModel) *review.Review {
	return &review.Review{
		ID:        model.ID,
		BookID:    model.BookID,
		UserID:    model.UserID,
		Rating:    model.Rating,
		Comment:   model.Comment,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
