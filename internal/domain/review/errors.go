package review

import (
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// 评论领域错误定义
var (
	// ErrReviewNotFound 评论不存在
	ErrReviewNotFound = apperrors.New(apperrors.ErrCodeReviewNotFound, "评论不存在")

	// ErrInvalidRating 评分超出范围
	ErrInvalidRating = apperrors.New(apperrors.ErrCodeInvalidParams, "评分必须在1到5之间")

	// ErrEmptyAmendment 修改请求没有任何内容
	ErrEmptyAmendment = apperrors.New(apperrors.ErrCodeInvalidParams, "评分和评论内容至少填写一项")

	// ErrDuplicateReview 重复评论
	ErrDuplicateReview = apperrors.New(apperrors.ErrCodeReviewDuplicate, "您已评论过这本书")

	// ErrUnauthorized 无权操作此评论
	ErrUnauthorized = apperrors.New(apperrors.ErrCodeForbidden, "无权操作此评论")
)
