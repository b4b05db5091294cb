package review

import (
	"context"
)

// Service 评论领域服务接口
type Service interface {
	// CreateReview 发表评论
	// 业务规则: 评分1-5;同一用户对同一本书只能评论一次
	CreateReview(ctx context.Context, bookID, userID uint, rating int, comment string) (*Review, error)

	// UpdateReview 修改评论
	// 业务规则: 只有作者本人可以修改;评分与内容至少提供一项
	UpdateReview(ctx context.Context, id, userID uint, rating int, comment string) (*Review, error)

	// DeleteReview 删除评论
	// 业务规则: 只有作者本人可以删除;返回被删评论供调用方定位失效范围
	DeleteReview(ctx context.Context, id, userID uint) (*Review, error)

	// ListReviews 分页查询某本书的评论
	ListReviews(ctx context.Context, params ListParams) ([]*Review, int64, error)

	// BookRating 某本书的实时平均评分与评论数
	BookRating(ctx context.Context, bookID uint) (avg float64, count int64, err error)
}

type service struct {
	repo Repository
}

// NewService 创建评论领域服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateReview(ctx context.Context, bookID, userID uint, rating int, comment string) (*Review, error) {
	r, err := NewReview(bookID, userID, rating, comment)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *service) UpdateReview(ctx context.Context, id, userID uint, rating int, comment string) (*Review, error) {
	if rating == 0 && comment == "" {
		return nil, ErrEmptyAmendment
	}

	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.IsAuthoredBy(userID) {
		return nil, ErrUnauthorized
	}

	if err := r.Amend(rating, comment); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *service) DeleteReview(ctx context.Context, id, userID uint) (*Review, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.IsAuthoredBy(userID) {
		return nil, ErrUnauthorized
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *service) ListReviews(ctx context.Context, params ListParams) ([]*Review, int64, error) {
	return s.repo.ListByBook(ctx, params)
}

func (s *service) BookRating(ctx context.Context, bookID uint) (float64, int64, error) {
	return s.repo.AverageRating(ctx, bookID)
}
