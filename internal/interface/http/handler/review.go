package handler

import (
	"github.com/gin-gonic/gin"

	appreview "github.com/xiebiao/bookshelf/internal/application/review"
	"github.com/xiebiao/bookshelf/internal/interface/http/dto"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	"github.com/xiebiao/bookshelf/pkg/response"
)

// ReviewHandler 评论HTTP处理器
type ReviewHandler struct {
	createUseCase *appreview.CreateReviewUseCase
	updateUseCase *appreview.UpdateReviewUseCase
	deleteUseCase *appreview.DeleteReviewUseCase
	listUseCase   *appreview.ListReviewsUseCase
}

// NewReviewHandler 创建评论处理器
func NewReviewHandler(
	createUseCase *appreview.CreateReviewUseCase,
	updateUseCase *appreview.UpdateReviewUseCase,
	deleteUseCase *appreview.DeleteReviewUseCase,
	listUseCase *appreview.ListReviewsUseCase,
) *ReviewHandler {
	return &ReviewHandler{
		createUseCase: createUseCase,
		updateUseCase: updateUseCase,
		deleteUseCase: deleteUseCase,
		listUseCase:   listUseCase,
	}
}

// CreateReview 发表评论
// @Summary      发表评论
// @Description  对某本书发表评论,同一用户对同一本书只能评论一次
// @Tags         评论
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Param        request body dto.CreateReviewRequest true "评论内容"
// @Success      201 {object} response.Response "发表成功"
// @Failure      400 {object} response.Response "已评论过这本书"
// @Router       /api/v1/books/{id}/reviews [post]
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	bookID, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的图书ID")
		return
	}

	var req dto.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.createUseCase.Execute(c.Request.Context(), appreview.CreateReviewRequest{
		BookID:  bookID,
		UserID:  middleware.GetUserID(c),
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListReviews 评论列表
// @Summary      评论列表
// @Description  分页查询某本书的评论;读穿缓存
// @Tags         评论
// @Produce      json
// @Param        id path int true "图书ID"
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页大小" default(10)
// @Success      200 {object} response.Response "查询成功"
// @Router       /api/v1/books/{id}/reviews [get]
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	bookID, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的图书ID")
		return
	}

	var query dto.ListReviewsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.listUseCase.Execute(c.Request.Context(), appreview.ListReviewsRequest{
		BookID:   bookID,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	setCacheHeader(c, result.FromCache)
	response.SuccessWithPage(c, result.Reviews, result.Total, result.Page, result.PageSize)
}

// UpdateReview 修改评论
// @Summary      修改评论
// @Description  修改自己的评论,评分与内容至少提供一项
// @Tags         评论
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "评论ID"
// @Param        request body dto.UpdateReviewRequest true "修改内容"
// @Success      200 {object} response.Response "修改成功"
// @Failure      403 {object} response.Response "无权操作"
// @Router       /api/v1/reviews/{id} [put]
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	reviewID, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的评论ID")
		return
	}

	var req dto.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.updateUseCase.Execute(c.Request.Context(), appreview.UpdateReviewRequest{
		ReviewID: reviewID,
		UserID:   middleware.GetUserID(c),
		Rating:   req.Rating,
		Comment:  req.Comment,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteReview 删除评论
// @Summary      删除评论
// @Tags         评论
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "评论ID"
// @Success      200 {object} response.Response "删除成功"
// @Failure      403 {object} response.Response "无权操作"
// @Router       /api/v1/reviews/{id} [delete]
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	reviewID, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的评论ID")
		return
	}

	if err := h.deleteUseCase.Execute(c.Request.Context(), reviewID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}
