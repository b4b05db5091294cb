package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// bookRepository 图书仓储实现(MySQL)
// 设计说明:
// 1. 实现domain/book/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 短关键词用索引列匹配,长关键词走FULLTEXT索引
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db}
}

// Create 创建图书
func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	model := &BookModel{
		Title:       b.Title,
		Author:      b.Author,
		Genre:       b.Genre,
		CoverKey:    b.CoverKey,
		DocumentKey: b.DocumentKey,
		OwnerID:     b.OwnerID,
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建图书失败")
	}

	// 回填自增ID与时间戳
	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt

	return nil
}

// FindByID 根据ID查找图书
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	err := r.db.WithContext(ctx).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.Wrap(err, "查询图书失败")
	}

	return toBookEntity(&model), nil
}

// Update 更新图书信息
func (r *bookRepository) Update(ctx context.Context, b *book.Book) error {
	model := &BookModel{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Genre:       b.Genre,
		CoverKey:    b.CoverKey,
		DocumentKey: b.DocumentKey,
		OwnerID:     b.OwnerID,
		CreatedAt:   b.CreatedAt,
	}

	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return apperrors.Wrap(err, "更新图书失败")
	}

	b.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete 删除图书(软删除)
func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&BookModel{}, id)

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "删除图书失败")
	}

	if result.RowsAffected == 0 {
		return book.ErrBookNotFound
	}

	return nil
}

// List 分页查询图书列表
// Author/Genre为大小写不敏感的子串过滤(MySQL默认collation即不区分大小写)
func (r *bookRepository) List(ctx context.Context, params book.ListParams) ([]*book.Book, int64, error) {
	var models []BookModel
	var total int64

	query := r.db.WithContext(ctx).Model(&BookModel{})

	if params.Author != "" {
		query = query.Where("author LIKE ?", "%"+params.Author+"%")
	}
	if params.Genre != "" {
		query = query.Where("genre LIKE ?", "%"+params.Genre+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询图书总数失败")
	}

	offset := (params.Page - 1) * params.PageSize
	err := query.Order("created_at DESC").
		Limit(params.PageSize).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询图书列表失败")
	}

	return toBookEntities(models), total, nil
}

// SearchLiteral 短关键词搜索:书名/作者上的精确与子串匹配
// 1-2个字符的关键词在全文索引下几乎全表命中,因此走索引列LIKE
func (r *bookRepository) SearchLiteral(ctx context.Context, query string, limit int) ([]*book.Book, error) {
	var models []BookModel

	// 精确命中的前置排序由领域服务负责,这里只按时间稳定排序
	pattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("title LIKE ? OR author LIKE ?", pattern, pattern).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "搜索图书失败")
	}

	return toBookEntities(models), nil
}

// SearchFullText 全文搜索(书名/作者),按相关度排序
func (r *bookRepository) SearchFullText(ctx context.Context, query string, limit int) ([]*book.Book, error) {
	var models []BookModel

	err := r.db.WithContext(ctx).
		Where("MATCH(title, author) AGAINST(? IN NATURAL LANGUAGE MODE)", query).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "搜索图书失败")
	}

	return toBookEntities(models), nil
}

// toBookEntity GORM模型 → 领域实体
func toBookEntity(model *BookModel) *book.Book {
	return &book.Book{
		ID:          model.ID,
		Title:       model.Title,
		Author:      model.Author,
		Genre:       model.Genre,
		CoverKey:    model.CoverKey,
		DocumentKey: model.DocumentKey,
		OwnerID:     model.OwnerID,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toBookEntities(models []BookModel) []*book.Book {
	books := make([]*book.Book, len(models))
	for i := range models {
		books[i] = toBookEntity(&models[i])
	}
	return books
}
