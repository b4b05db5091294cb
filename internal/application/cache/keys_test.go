package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// 同一查询的不同写法必须产生字节级相同的key
func TestBooksListKey_Deterministic(t *testing.T) {
	k1 := BooksListKey("Rob Pike", "Tech", 1, 10)
	k2 := BooksListKey("  rob pike ", "tech", 1, 10)

	assert.Equal(t, k1, k2)
	assert.Equal(t, "books:author:rob-pike:genre:tech:page:1:limit:10", k1)
}

func TestBooksListKey_EmptyFiltersDefaultToAll(t *testing.T) {
	k := BooksListKey("", "", 2, 20)
	assert.Equal(t, "books:author:all:genre:all:page:2:limit:20", k)
}

func TestSearchKey_NormalizesQuery(t *testing.T) {
	assert.Equal(t, "search:q:go-in-action:page:1:limit:10", SearchKey(" Go  In Action ", 1, 10))
	assert.Equal(t, "search:q:all:page:1:limit:10", SearchKey("", 1, 10))
}

func TestBookReviewsKey_MatchesScope(t *testing.T) {
	key := BookReviewsKey(42, 1, 10)
	assert.Equal(t, "book:42:reviews:page:1:limit:10", key)

	// key必须落在对应的失效范围内
	scope := ScopeBookReviews(42)
	assert.Equal(t, "book:42:reviews:*", scope)

	// 其他书的评论key不受影响
	other := BookReviewsKey(7, 1, 10)
	assert.NotContains(t, other, "book:42:")
}

func TestScopes_DoNotOverlap(t *testing.T) {
	assert.NotEqual(t, ScopeBooks, ScopeSearch)
	// 图书列表key属于books范围而非search范围
	assert.Contains(t, BooksListKey("", "", 1, 10), "books:")
	assert.Contains(t, SearchKey("go", 1, 10), "search:")
}
