package book

import (
	"context"
	"strings"
)

// Service 图书领域服务接口
// 设计说明:
// 1. 领域服务封装业务规则校验,不依赖具体的Repository实现
// 2. 对象存储key的产生(文件摄取)发生在应用层,领域服务只关心目录记录
type Service interface {
	// AddBook 录入图书
	// 业务规则: 书名/作者/类型必填,封面key必须非空
	AddBook(ctx context.Context, title, author, genre, coverKey, documentKey string, ownerID uint) (*Book, error)

	// GetBookByID 根据ID获取图书详情
	GetBookByID(ctx context.Context, id uint) (*Book, error)

	// UpdateBookInfo 更新图书信息
	// 业务规则: 只有录入者本人可以修改
	UpdateBookInfo(ctx context.Context, id, userID uint, title, author, genre string) (*Book, error)

	// DeleteBook 删除图书
	// 业务规则: 只有录入者本人可以删除;返回被删图书供调用方清理远端对象
	DeleteBook(ctx context.Context, id, userID uint) (*Book, error)

	// ListBooks 分页查询图书列表
	ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// SearchBooks 按关键词搜索图书
	// 关键词长度≤2时走精确+子串匹配(精确命中排前),否则走全文搜索
	SearchBooks(ctx context.Context, query string, limit int) ([]*Book, error)
}

// service 领域服务实现
type service struct {
	repo Repository
}

// NewService 创建图书领域服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// AddBook 录入图书
func (s *service) AddBook(ctx context.Context, title, author, genre, coverKey, documentKey string, ownerID uint) (*Book, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	genre = strings.TrimSpace(genre)

	if title == "" || author == "" || genre == "" {
		return nil, ErrMissingFields
	}
	if coverKey == "" {
		return nil, ErrMissingCover
	}

	b := NewBook(title, author, genre, coverKey, documentKey, ownerID)
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GetBookByID 获取图书详情
func (s *service) GetBookByID(ctx context.Context, id uint) (*Book, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateBookInfo 更新图书信息
func (s *service) UpdateBookInfo(ctx context.Context, id, userID uint, title, author, genre string) (*Book, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsOwnedBy(userID) {
		return nil, ErrUnauthorized
	}

	b.UpdateInfo(title, author, genre)
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBook 删除图书
func (s *service) DeleteBook(ctx context.Context, id, userID uint) (*Book, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsOwnedBy(userID) {
		return nil, ErrUnauthorized
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBooks 分页查询
func (s *service) ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error) {
	return s.repo.List(ctx, params)
}

// ShortQueryMaxLen 走字面匹配的关键词长度上限
// 1-2个字符的关键词在全文索引上几乎全表命中,改走索引列的精确+子串匹配
const ShortQueryMaxLen = 2

// SearchBooks 搜索图书
func (s *service) SearchBooks(ctx context.Context, query string, limit int) ([]*Book, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptySearchQuery
	}
	if limit <= 0 {
		limit = 10
	}

	if len([]rune(query)) <= ShortQueryMaxLen {
		books, err := s.repo.SearchLiteral(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		rankExactFirst(books, query)
		return books, nil
	}

	return s.repo.SearchFullText(ctx, query, limit)
}

// rankExactFirst 短查询结果中精确命中(书名或作者整串相等,忽略大小写)排在前面
// 稳定地保持原有相对顺序
func rankExactFirst(books []*Book, query string) {
	q := strings.ToLower(query)
	exact := make([]*Book, 0, len(books))
	rest := make([]*Book, 0, len(books))
	for _, b := range books {
		if strings.ToLower(b.Title) == q || strings.ToLower(b.Author) == q {
			exact = append(exact, b)
		} else {
			rest = append(rest, b)
		}
	}
	copy(books, append(exact, rest...))
}
