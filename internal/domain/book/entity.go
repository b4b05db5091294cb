package book

import (
	"time"
)

// Book 图书实体(聚合根)
// DDD设计说明:
// 1. Book是图书聚合的根实体,包含目录的核心属性
// 2. CoverKey/DocumentKey存储对象存储的key而非URL——
//    URL在读路径按可见性动态解析(公开URL稳定,私有URL每次重新签名)
// 3. 平均评分不落库:以评论表的实时聚合为准,缓存层吸收聚合开销
type Book struct {
	ID          uint
	Title       string // 书名
	Author      string // 作者
	Genre       string // 类型/分类
	CoverKey    string // 封面图对象key(必有)
	DocumentKey string // 图书文档(PDF)对象key,可为空
	OwnerID     uint   // 录入该图书的用户ID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewBook 创建新图书(工厂方法)
// 调用方需保证coverKey已成功上传到对象存储
func NewBook(title, author, genre, coverKey, documentKey string, ownerID uint) *Book {
	now := time.Now()
	return &Book{
		Title:       title,
		Author:      author,
		Genre:       genre,
		CoverKey:    coverKey,
		DocumentKey: documentKey,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UpdateInfo 更新图书基本信息(空字段不覆盖)
func (b *Book) UpdateInfo(title, author, genre string) {
	if title != "" {
		b.Title = title
	}
	if author != "" {
		b.Author = author
	}
	if genre != "" {
		b.Genre = genre
	}
	b.UpdatedAt = time.Now()
}

// HasDocument 是否附带文档
func (b *Book) HasDocument() bool {
	return b.DocumentKey != ""
}

// IsOwnedBy 检查图书是否由指定用户录入
func (b *Book) IsOwnedBy(userID uint) bool {
	return b.OwnerID == userID
}

// StorageKeys 返回该图书持有的全部对象存储key
// 删除图书时据此清理远端对象
func (b *Book) StorageKeys() []string {
	keys := []string{b.CoverKey}
	if b.DocumentKey != "" {
		keys = append(keys, b.DocumentKey)
	}
	return keys
}
