package dto

// CreateReviewRequest 发表评论请求
type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"omitempty,max=2000"`
}

// UpdateReviewRequest 修改评论请求(评分与内容至少一项)
type UpdateReviewRequest struct {
	Rating  int    `json:"rating" binding:"omitempty,min=1,max=5"`
	Comment string `json:"comment" binding:"omitempty,max=2000"`
}

// ListReviewsQuery 评论列表查询参数
type ListReviewsQuery struct {
	Page     int `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize int `form:"page_size,default=10" binding:"omitempty,min=1,max=100"`
}
