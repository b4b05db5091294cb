package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshelf/internal/application/ingest"
)

// 公开URL是bucket+key的纯计算,不需要S3客户端
func TestResolveURL_PublicIsStable(t *testing.T) {
	store := &S3Store{bucket: "bookshelf-media"}

	url, err := store.ResolveURL(context.Background(), "public/books/cover-1.jpg", ingest.VisibilityPublic, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "https://bookshelf-media.s3.amazonaws.com/public/books/cover-1.jpg", url)

	again, err := store.ResolveURL(context.Background(), "public/books/cover-1.jpg", ingest.VisibilityPublic, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, url, again, "公开URL与TTL无关,多次解析结果一致")
}
