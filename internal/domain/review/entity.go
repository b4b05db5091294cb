package review

import (
	"time"
)

// Review 评论实体
// 设计说明:
// 1. (BookID, UserID)业务唯一:同一用户对同一本书只能有一条评论
// 2. 评分1-5星;评论内容可为空(纯打分)
type Review struct {
	ID        uint
	BookID    uint
	UserID    uint
	Rating    int    // 1-5
	Comment   string // 可为空
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewReview 创建新评论(工厂方法)
func NewReview(bookID, userID uint, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	now := time.Now()
	return &Review{
		BookID:    bookID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Amend 修改评论(零值字段不覆盖)
func (r *Review) Amend(rating int, comment string) error {
	if rating != 0 {
		if rating < 1 || rating > 5 {
			return ErrInvalidRating
		}
		r.Rating = rating
	}
	if comment != "" {
		r.Comment = comment
	}
	r.UpdatedAt = time.Now()
	return nil
}

// IsAuthoredBy 检查评论是否由指定用户发表
func (r *Review) IsAuthoredBy(userID uint) bool {
	return r.UserID == userID
}
