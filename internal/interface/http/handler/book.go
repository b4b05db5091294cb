package handler

import (
	"fmt"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
	"github.com/xiebiao/bookshelf/internal/application/ingest"
	"github.com/xiebiao/bookshelf/internal/interface/http/dto"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	"github.com/xiebiao/bookshelf/pkg/response"
)

// BookHandler 图书HTTP处理器
// 设计说明：
// 1. 录入接口接收multipart表单:元数据字段+封面/文档文件
// 2. 上传文件先落到本地暂存目录,所有权随即移交摄取编排器
// 3. 列表接口透出X-Cache头,便于联调观察缓存命中
type BookHandler struct {
	publishUseCase *appbook.PublishBookUseCase
	listUseCase    *appbook.ListBooksUseCase
	getUseCase     *appbook.GetBookUseCase
	updateUseCase  *appbook.UpdateBookUseCase
	deleteUseCase  *appbook.DeleteBookUseCase
	uploadDir      string
}

// NewBookHandler 创建图书处理器
func NewBookHandler(
	publishUseCase *appbook.PublishBookUseCase,
	listUseCase *appbook.ListBooksUseCase,
	getUseCase *appbook.GetBookUseCase,
	updateUseCase *appbook.UpdateBookUseCase,
	deleteUseCase *appbook.DeleteBookUseCase,
	uploadDir string,
) *BookHandler {
	return &BookHandler{
		publishUseCase: publishUseCase,
		listUseCase:    listUseCase,
		getUseCase:     getUseCase,
		updateUseCase:  updateUseCase,
		deleteUseCase:  deleteUseCase,
		uploadDir:      uploadDir,
	}
}

// PublishBook 录入图书
// @Summary      录入图书
// @Description  上传封面(必填)与文档(可选),转换后存入对象存储并写目录
// @Tags         图书
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        title formData string true "书名"
// @Param        author formData string true "作者"
// @Param        genre formData string true "分类"
// @Param        cover formData file true "封面图片"
// @Param        document formData file false "图书文档(PDF)"
// @Success      201 {object} response.Response "录入成功"
// @Failure      409 {object} response.Response "缺少必需文件"
// @Router       /api/v1/books [post]
func (h *BookHandler) PublishBook(c *gin.Context) {
	var form dto.PublishBookForm
	if err := c.ShouldBind(&form); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	files := make(map[string]ingest.StagedFile)

	// 封面缺失不在这里拦截:角色清单的前置检查统一负责
	// 任何一个文件暂存失败时,已落盘的暂存文件全部清掉再返回,
	// 编排器没接手的文件不能留在暂存目录里
	if header, err := c.FormFile(appbook.RoleCover); err == nil {
		staged, err := stageUpload(c, h.uploadDir, header, ingest.MediaKindImage)
		if err != nil {
			discardUploads(files)
			response.Error(c, err)
			return
		}
		files[appbook.RoleCover] = staged
	}
	if header, err := c.FormFile(appbook.RoleDocument); err == nil {
		staged, err := stageUpload(c, h.uploadDir, header, ingest.MediaKindDocument)
		if err != nil {
			discardUploads(files)
			response.Error(c, err)
			return
		}
		files[appbook.RoleDocument] = staged
	}

	result, err := h.publishUseCase.Execute(c.Request.Context(), appbook.PublishBookRequest{
		Title:   form.Title,
		Author:  form.Author,
		Genre:   form.Genre,
		OwnerID: middleware.GetUserID(c),
		Files:   files,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBooks 图书列表
// @Summary      图书列表
// @Description  分页查询,支持作者/分类过滤;读穿缓存
// @Tags         图书
// @Produce      json
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页大小" default(10)
// @Param        author query string false "作者过滤"
// @Param        genre query string false "分类过滤"
// @Success      200 {object} response.Response "查询成功"
// @Router       /api/v1/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	var query dto.ListBooksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.listUseCase.Execute(c.Request.Context(), appbook.ListBooksRequest{
		Page:     query.Page,
		PageSize: query.PageSize,
		Author:   query.Author,
		Genre:    query.Genre,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	setCacheHeader(c, result.FromCache)
	response.SuccessWithPage(c, result.Books, result.Total, result.Page, result.PageSize)
}

// GetBook 图书详情
// @Summary      图书详情
// @Description  返回图书信息、下载URL与实时平均评分
// @Tags         图书
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response "查询成功"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的图书ID")
		return
	}

	result, err := h.getUseCase.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateBook 更新图书信息
// @Summary      更新图书信息
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Param        request body dto.UpdateBookRequest true "更新字段"
// @Success      200 {object} response.Response "更新成功"
// @Failure      403 {object} response.Response "无权操作"
// @Router       /api/v1/books/{id} [put]
func (h *BookHandler) UpdateBook(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的图书ID")
		return
	}

	var req dto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	result, err := h.updateUseCase.Execute(c.Request.Context(), appbook.UpdateBookRequest{
		ID:     id,
		UserID: middleware.GetUserID(c),
		Title:  req.Title,
		Author: req.Author,
		Genre:  req.Genre,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteBook 删除图书
// @Summary      删除图书
// @Description  删除目录记录并清理对象存储中的封面与文档
// @Tags         图书
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response "删除成功"
// @Failure      403 {object} response.Response "无权操作"
// @Router       /api/v1/books/{id} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithCode(c, 40900, "无效的图书ID")
		return
	}

	if err := h.deleteUseCase.Execute(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}

// stageUpload 把上传文件落到本地暂存目录
// 暂存成功后所有权移交摄取编排器,由它保证所有路径上的清理;
// 移交之前出错的清理由调用方discardUploads兜底
func stageUpload(c *gin.Context, uploadDir string, header *multipart.FileHeader, kind ingest.MediaKind) (ingest.StagedFile, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return ingest.StagedFile{}, err
	}

	name := fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(header.Filename))
	path := filepath.Join(uploadDir, name)
	if err := c.SaveUploadedFile(header, path); err != nil {
		return ingest.StagedFile{}, err
	}

	return ingest.StagedFile{
		Path:         path,
		Kind:         kind,
		OriginalName: header.Filename,
	}, nil
}

// discardUploads 删除尚未移交编排器的暂存文件
func discardUploads(files map[string]ingest.StagedFile) {
	for role, f := range files {
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			log.Printf("删除暂存文件失败: role=%s path=%s err=%v", role, f.Path, err)
		}
	}
}

// setCacheHeader 透出缓存命中情况
func setCacheHeader(c *gin.Context, fromCache bool) {
	if fromCache {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
}

// parseID 解析路径中的数字ID
func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id: %q", s)
	}
	return uint(id), nil
}
