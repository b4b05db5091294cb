package book

import (
	"context"
)

// ListParams 列表查询参数
// Author/Genre为大小写不敏感的子串过滤,空值表示不过滤
type ListParams struct {
	Page     int
	PageSize int
	Author   string
	Genre    string
}

// Repository 图书仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 便于Mock测试,不依赖具体数据库实现
type Repository interface {
	// Create 创建图书
	Create(ctx context.Context, book *Book) error

	// FindByID 根据ID查找图书
	FindByID(ctx context.Context, id uint) (*Book, error)

	// Update 更新图书信息
	Update(ctx context.Context, book *Book) error

	// Delete 删除图书(软删除)
	Delete(ctx context.Context, id uint) error

	// List 分页查询图书列表(按创建时间倒序)
	List(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// SearchLiteral 短关键词搜索:在书名/作者上做精确与子串匹配
	// 全文索引对1-2个字符的关键词几乎全表命中,因此短查询走索引列匹配
	SearchLiteral(ctx context.Context, query string, limit int) ([]*Book, error)

	// SearchFullText 全文搜索(书名/作者),按相关度排序
	SearchFullText(ctx context.Context, query string, limit int) ([]*Book, error)
}
