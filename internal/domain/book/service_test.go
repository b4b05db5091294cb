package book

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo 记录被调用的搜索分支
type fakeRepo struct {
	Repository
	literalCalled  bool
	fulltextCalled bool
	books          []*Book
	created        *Book
}

func (f *fakeRepo) Create(ctx context.Context, b *Book) error {
	b.ID = 1
	f.created = b
	return nil
}

func (f *fakeRepo) SearchLiteral(ctx context.Context, query string, limit int) ([]*Book, error) {
	f.literalCalled = true
	return f.books, nil
}

func (f *fakeRepo) SearchFullText(ctx context.Context, query string, limit int) ([]*Book, error) {
	f.fulltextCalled = true
	return f.books, nil
}

// TestSearchBooks_ShortQueryUsesLiteralMatch 长度≤2的关键词走字面匹配分支
func TestSearchBooks_ShortQueryUsesLiteralMatch(t *testing.T) {
	repo := &fakeRepo{books: []*Book{
		{Title: "Golang Basics", Author: "某作者"},
		{Title: "Go", Author: "另一作者"},
	}}
	svc := NewService(repo)

	results, err := svc.SearchBooks(context.Background(), "Go", 10)
	require.NoError(t, err)

	assert.True(t, repo.literalCalled, "短查询应走字面匹配")
	assert.False(t, repo.fulltextCalled, "短查询不应走全文搜索")

	// 精确命中《Go》应排在《Golang Basics》前面
	require.Len(t, results, 2)
	assert.Equal(t, "Go", results[0].Title)
	assert.Equal(t, "Golang Basics", results[1].Title)
}

// TestSearchBooks_LongQueryUsesFullText 长关键词走全文搜索
func TestSearchBooks_LongQueryUsesFullText(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	_, err := svc.SearchBooks(context.Background(), "distributed systems", 10)
	require.NoError(t, err)

	assert.True(t, repo.fulltextCalled)
	assert.False(t, repo.literalCalled)
}

// TestSearchBooks_EmptyQuery 空关键词报参数错误
func TestSearchBooks_EmptyQuery(t *testing.T) {
	svc := NewService(&fakeRepo{})

	_, err := svc.SearchBooks(context.Background(), "   ", 10)
	assert.ErrorIs(t, err, ErrEmptySearchQuery)
}

// TestAddBook_Validation 必填字段与封面校验
func TestAddBook_Validation(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	_, err := svc.AddBook(context.Background(), "", "作者", "科幻", "public/books/c.jpg", "", 1)
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.AddBook(context.Background(), "三体", "刘慈欣", "科幻", "", "", 1)
	assert.ErrorIs(t, err, ErrMissingCover)

	b, err := svc.AddBook(context.Background(), "三体", "刘慈欣", "科幻", "public/books/c.jpg", "public/books/d.pdf", 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), b.ID)
	assert.Equal(t, []string{"public/books/c.jpg", "public/books/d.pdf"}, b.StorageKeys())
}
