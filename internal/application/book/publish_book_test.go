package book

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshelf/internal/application/cache"
	"github.com/xiebiao/bookshelf/internal/application/ingest"
	"github.com/xiebiao/bookshelf/internal/domain/book"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// fakeIngestor 返回固定对象集,记录补偿调用
type fakeIngestor struct {
	objects     map[string]ingest.StoredObject
	ingestErr   error
	compensated []map[string]ingest.StoredObject
}

func (f *fakeIngestor) Ingest(ctx context.Context, manifest ingest.Manifest, files map[string]ingest.StagedFile, folder string) (map[string]ingest.StoredObject, error) {
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	return f.objects, nil
}

func (f *fakeIngestor) Compensate(ctx context.Context, objects map[string]ingest.StoredObject) {
	f.compensated = append(f.compensated, objects)
}

// publishBookSvc AddBook可注入失败
type publishBookSvc struct {
	book.Service
	addErr  error
	created *book.Book
}

func (s *publishBookSvc) AddBook(ctx context.Context, title, author, genre, coverKey, documentKey string, ownerID uint) (*book.Book, error) {
	if s.addErr != nil {
		return nil, s.addErr
	}
	b := book.NewBook(title, author, genre, coverKey, documentKey, ownerID)
	b.ID = 1
	s.created = b
	return b, nil
}

func stagedUploads() map[string]ingest.StoredObject {
	return map[string]ingest.StoredObject{
		RoleCover:    {Key: "public/books/cover-1.jpg", Visibility: ingest.VisibilityPublic},
		RoleDocument: {Key: "private/books/doc-1.pdf", Visibility: ingest.VisibilityPrivate},
	}
}

func TestPublishBook_Success(t *testing.T) {
	svc := &publishBookSvc{}
	ingestor := &fakeIngestor{objects: stagedUploads()}
	store := newMemCache()
	uc := NewPublishBookUseCase(svc, ingestor, store, stubResolver{}, nil, time.Hour)

	dto, err := uc.Execute(context.Background(), PublishBookRequest{
		Title: "Go程序设计", Author: "佚名", Genre: "tech", OwnerID: 7,
	})

	require.NoError(t, err)
	assert.Equal(t, uint(1), dto.ID)
	assert.Equal(t, "https://bucket.s3.amazonaws.com/public/books/cover-1.jpg", dto.CoverURL)
	assert.Contains(t, dto.DocumentURL, "signed=1")
	assert.Equal(t, "public/books/cover-1.jpg", svc.created.CoverKey)
	assert.Empty(t, ingestor.compensated)
}

func TestPublishBook_InvalidatesListAndSearchScopes(t *testing.T) {
	svc := &publishBookSvc{}
	ingestor := &fakeIngestor{objects: stagedUploads()}
	store := newMemCache()

	// 预置会被失效的条目,以及不受影响的评论条目
	seed := func(key, scope string) {
		guard, err := store.EpochOf(context.Background(), scope)
		require.NoError(t, err)
		require.NoError(t, store.Set(context.Background(), key, []byte("{}"), time.Hour, guard))
	}
	seed(cache.BooksListKey("", "", 1, 10), cache.ScopeBooks)
	seed(cache.SearchKey("go", 1, 10), cache.ScopeSearch)
	seed(cache.BookReviewsKey(9, 1, 10), cache.ScopeBookReviews(9))

	uc := NewPublishBookUseCase(svc, ingestor, store, stubResolver{}, nil, time.Hour)
	_, err := uc.Execute(context.Background(), PublishBookRequest{
		Title: "Go程序设计", Author: "佚名", Genre: "tech", OwnerID: 7,
	})
	require.NoError(t, err)

	_, hit, _ := store.Get(context.Background(), cache.BooksListKey("", "", 1, 10))
	assert.False(t, hit)
	_, hit, _ = store.Get(context.Background(), cache.SearchKey("go", 1, 10))
	assert.False(t, hit)
	// 评论范围不在本次失效之列
	_, hit, _ = store.Get(context.Background(), cache.BookReviewsKey(9, 1, 10))
	assert.True(t, hit)
}

func TestPublishBook_CatalogFailureCompensatesUploads(t *testing.T) {
	svc := &publishBookSvc{addErr: apperrors.ErrDatabaseError}
	ingestor := &fakeIngestor{objects: stagedUploads()}
	store := newMemCache()
	uc := NewPublishBookUseCase(svc, ingestor, store, stubResolver{}, nil, time.Hour)

	_, err := uc.Execute(context.Background(), PublishBookRequest{
		Title: "Go程序设计", Author: "佚名", Genre: "tech", OwnerID: 7,
	})

	// 主错误是目录写入失败,且本次上传的对象全部进入补偿
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDatabaseError, apperrors.CodeOf(err))
	require.Len(t, ingestor.compensated, 1)
	assert.Equal(t, stagedUploads(), ingestor.compensated[0])
}

func TestPublishBook_IngestFailurePropagates(t *testing.T) {
	svc := &publishBookSvc{}
	ingestor := &fakeIngestor{ingestErr: apperrors.ErrUploadFailed}
	store := newMemCache()
	uc := NewPublishBookUseCase(svc, ingestor, store, stubResolver{}, nil, time.Hour)

	_, err := uc.Execute(context.Background(), PublishBookRequest{
		Title: "Go程序设计", Author: "佚名", Genre: "tech", OwnerID: 7,
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeUploadFailed, apperrors.CodeOf(err))
	// 摄取内部已补偿,这一层不再补偿,也不写目录
	assert.Empty(t, ingestor.compensated)
	assert.Nil(t, svc.created)
}
