package review

import (
	"time"

	"github.com/xiebiao/bookshelf/internal/domain/review"
)

// ReviewDTO 评论响应DTO
type ReviewDTO struct {
	ID        uint      `json:"id"`
	BookID    uint      `json:"book_id"`
	UserID    uint      `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// toReviewDTO 领域实体 → DTO
func toReviewDTO(r *review.Review) *ReviewDTO {
	return &ReviewDTO{
		ID:        r.ID,
		BookID:    r.BookID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toReviewDTOs(reviews []*review.Review) []*ReviewDTO {
	dtos := make([]*ReviewDTO, len(reviews))
	for i, r := range reviews {
		dtos[i] = toReviewDTO(r)
	}
	return dtos
}
