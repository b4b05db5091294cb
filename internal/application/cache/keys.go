package cache

import (
	"fmt"
	"strings"
)

// 缓存key构造策略
// 格式契约: <resource>:<dimension>:<normalizedValue>:...:page:<n>:limit:<n>
// 同一查询必须永远产生字节级相同的key，因此所有过滤值先归一化：
// 小写、去首尾空白、空值取"all"、内部空白折叠为"-"
//
// 失效范围（scope）与key前缀对应，模式匹配即可批量清除：
// - 图书增删改 → books:* 与 search:*
// - 评论增删改 → book:<id>:reviews:*

const (
	// ScopeBooks 图书列表缓存范围
	ScopeBooks = "books:*"

	// ScopeSearch 搜索结果缓存范围
	ScopeSearch = "search:*"
)

// ScopeBookReviews 某本书的评论缓存范围
func ScopeBookReviews(bookID uint) string {
	return fmt.Sprintf("book:%d:reviews:*", bookID)
}

// BooksListKey 图书列表查询的缓存key
func BooksListKey(author, genre string, page, limit int) string {
	return fmt.Sprintf("books:author:%s:genre:%s:page:%d:limit:%d",
		normalize(author), normalize(genre), page, limit)
}

// BookKey 单本图书详情的缓存key
func BookKey(bookID uint) string {
	return fmt.Sprintf("books:id:%d", bookID)
}

// BookReviewsKey 某本书评论列表的缓存key
func BookReviewsKey(bookID uint, page, limit int) string {
	return fmt.Sprintf("book:%d:reviews:page:%d:limit:%d", bookID, page, limit)
}

// SearchKey 搜索结果的缓存key
func SearchKey(query string, page, limit int) string {
	return fmt.Sprintf("search:q:%s:page:%d:limit:%d", normalize(query), page, limit)
}

// normalize 过滤值归一化：小写、去空白、空值默认"all"
func normalize(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "all"
	}
	// 内部空白折叠为单个连字符，保证key无歧义
	return strings.Join(strings.Fields(v), "-")
}
