package handler

import (
	"github.com/gin-gonic/gin"

	appsearch "github.com/xiebiao/bookshelf/internal/application/search"
	"github.com/xiebiao/bookshelf/internal/interface/http/dto"
	"github.com/xiebiao/bookshelf/pkg/response"
)

// SearchHandler 搜索HTTP处理器
type SearchHandler struct {
	searchUseCase *appsearch.SearchBooksUseCase
}

// NewSearchHandler 创建搜索处理器
func NewSearchHandler(searchUseCase *appsearch.SearchBooksUseCase) *SearchHandler {
	return &SearchHandler{searchUseCase: searchUseCase}
}

// SearchBooks 搜索图书
// @Summary      搜索图书
// @Description  按书名/作者搜索;短关键词走字面匹配,长关键词走全文索引
// @Tags         图书
// @Produce      json
// @Param        q query string true "关键词"
// @Param        limit query int false "返回条数上限" default(10)
// @Success      200 {object} response.Response "搜索成功"
// @Failure      400 {object} response.Response "关键词为空"
// @Router       /api/v1/books/search [get]
func (h *SearchHandler) SearchBooks(c *gin.Context) {
	var query dto.SearchBooksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.searchUseCase.Execute(c.Request.Context(), appsearch.SearchBooksRequest{
		Query: query.Q,
		Limit: query.Limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	setCacheHeader(c, result.FromCache)
	response.Success(c, result)
}
