package book

import (
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "图书不存在")

	// ErrMissingFields 必填字段缺失
	ErrMissingFields = apperrors.New(apperrors.ErrCodeInvalidParams, "书名、作者和类型为必填项")

	// ErrMissingCover 封面缺失
	ErrMissingCover = apperrors.New(apperrors.ErrCodePrecondition, "图书封面图片为必填项")

	// ErrEmptySearchQuery 搜索关键词为空
	ErrEmptySearchQuery = apperrors.New(apperrors.ErrCodeInvalidParams, "搜索关键词不能为空")

	// ErrUnauthorized 无权操作此图书
	ErrUnauthorized = apperrors.New(apperrors.ErrCodeForbidden, "无权操作此图书")
)
