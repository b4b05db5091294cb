package handler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
	"github.com/xiebiao/bookshelf/internal/application/ingest"
)

func stageTempFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("staged"), 0o644))
	return path
}

func TestDiscardUploads_RemovesStagedFiles(t *testing.T) {
	dir := t.TempDir()

	// 封面已暂存成功,文档暂存失败的场景:封面不能留在暂存目录里
	files := map[string]ingest.StagedFile{
		appbook.RoleCover: {
			Path:         stageTempFile(t, dir, "cover.jpg"),
			Kind:         ingest.MediaKindImage,
			OriginalName: "cover.jpg",
		},
	}

	discardUploads(files)

	_, err := os.Stat(files[appbook.RoleCover].Path)
	assert.True(t, os.IsNotExist(err))
}

func TestDiscardUploads_ToleratesMissingFiles(t *testing.T) {
	dir := t.TempDir()
	existing := stageTempFile(t, dir, "cover.jpg")

	files := map[string]ingest.StagedFile{
		appbook.RoleCover: {Path: existing, Kind: ingest.MediaKindImage},
		appbook.RoleDocument: {
			Path: filepath.Join(dir, "already-gone.pdf"),
			Kind: ingest.MediaKindDocument,
		},
	}

	// 一个文件已不存在时照常清掉其余文件
	discardUploads(files)

	_, err := os.Stat(existing)
	assert.True(t, os.IsNotExist(err))
}
