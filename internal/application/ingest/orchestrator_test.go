package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// fakeTransformer 消费暂存文件并返回固定内容的Artifact
type fakeTransformer struct {
	failOn string // 转换该key时返回错误
}

func (t *fakeTransformer) Transform(ctx context.Context, staged StagedFile, key string) (*Artifact, error) {
	os.Remove(staged.Path)
	if t.failOn != "" && filepath.Base(staged.OriginalName) == t.failOn {
		return nil, apperrors.New(apperrors.ErrCodeCorruptInput, "文件内容损坏")
	}
	return &Artifact{
		Key:         key,
		ContentType: "application/octet-stream",
		Body:        []byte("transformed"),
	}, nil
}

// fakeStore 内存对象存储,可指定某个key前缀的上传失败
type fakeStore struct {
	mu         sync.Mutex
	objects    map[string]Visibility
	failPut    map[string]bool // key子串 → 上传失败
	failDelete bool
	deleted    []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects: make(map[string]Visibility),
		failPut: make(map[string]bool),
	}
}

func (s *fakeStore) Put(ctx context.Context, artifact *Artifact) (StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for substr := range s.failPut {
		if substr != "" && strings.Contains(artifact.Key, substr) {
			return StoredObject{}, apperrors.New(apperrors.ErrCodeUploadFailed, "文件上传失败")
		}
	}
	s.objects[artifact.Key] = artifact.Visibility
	return StoredObject{Key: artifact.Key, Visibility: artifact.Visibility}, nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	if s.failDelete {
		return apperrors.New(apperrors.ErrCodeCompensation, "删除对象失败")
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) ResolveURL(ctx context.Context, key string, visibility Visibility, ttl time.Duration) (string, error) {
	return "https://bucket.s3.amazonaws.com/" + key, nil
}

func stageFile(t *testing.T, name, content string) StagedFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	kind := MediaKindImage
	if filepath.Ext(name) == ".pdf" {
		kind = MediaKindDocument
	}
	return StagedFile{Path: path, Kind: kind, OriginalName: name}
}

func bookManifest() Manifest {
	return Manifest{
		"cover":    {Kind: MediaKindImage, Visibility: VisibilityPublic, Required: true},
		"document": {Kind: MediaKindDocument, Visibility: VisibilityPrivate},
	}
}

func TestIngest_AllRolesStored(t *testing.T) {
	store := newFakeStore()
	o := NewOrchestrator(&fakeTransformer{}, store)

	files := map[string]StagedFile{
		"cover":    stageFile(t, "cover.png", "img-bytes"),
		"document": stageFile(t, "book.pdf", "pdf-bytes"),
	}

	objects, err := o.Ingest(context.Background(), bookManifest(), files, "books")

	require.NoError(t, err)
	assert.Len(t, objects, 2)
	assert.Equal(t, VisibilityPublic, objects["cover"].Visibility)
	assert.Equal(t, VisibilityPrivate, objects["document"].Visibility)
	assert.Contains(t, objects["cover"].Key, "public/books/")
	assert.Contains(t, objects["document"].Key, "private/books/")

	// 暂存文件已全部消费
	for _, f := range files {
		_, err := os.Stat(f.Path)
		assert.True(t, os.IsNotExist(err))
	}
}

func TestIngest_OptionalRoleMayBeOmitted(t *testing.T) {
	store := newFakeStore()
	o := NewOrchestrator(&fakeTransformer{}, store)

	files := map[string]StagedFile{
		"cover": stageFile(t, "cover.png", "img-bytes"),
	}

	objects, err := o.Ingest(context.Background(), bookManifest(), files, "books")

	require.NoError(t, err)
	assert.Len(t, objects, 1)
}

func TestIngest_MissingRequiredRoleRejectedBeforeTransform(t *testing.T) {
	store := newFakeStore()
	o := NewOrchestrator(&fakeTransformer{}, store)

	doc := stageFile(t, "book.pdf", "pdf-bytes")
	files := map[string]StagedFile{"document": doc}

	objects, err := o.Ingest(context.Background(), bookManifest(), files, "books")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodePrecondition, apperrors.CodeOf(err))
	assert.Nil(t, objects)
	assert.Empty(t, store.objects)

	// 前置检查失败也要清掉暂存文件
	_, statErr := os.Stat(doc.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestIngest_ZeroByteFileRejected(t *testing.T) {
	store := newFakeStore()
	o := NewOrchestrator(&fakeTransformer{}, store)

	files := map[string]StagedFile{
		"cover": stageFile(t, "cover.png", ""),
	}

	_, err := o.Ingest(context.Background(), bookManifest(), files, "books")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodePrecondition, apperrors.CodeOf(err))
}

func TestIngest_UploadFailureRollsBackAllObjects(t *testing.T) {
	store := newFakeStore()
	store.failPut["private/"] = true // 文档上传失败
	o := NewOrchestrator(&fakeTransformer{}, store)

	files := map[string]StagedFile{
		"cover":    stageFile(t, "cover.png", "img-bytes"),
		"document": stageFile(t, "book.pdf", "pdf-bytes"),
	}

	objects, err := o.Ingest(context.Background(), bookManifest(), files, "books")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeUploadFailed, apperrors.CodeOf(err))
	assert.Nil(t, objects)
	// 零残留:已成功的封面上传被补偿删除
	assert.Empty(t, store.objects)
}

func TestIngest_DeleteFailureDoesNotMaskUploadError(t *testing.T) {
	store := newFakeStore()
	store.failPut["private/"] = true
	store.failDelete = true
	o := NewOrchestrator(&fakeTransformer{}, store)

	files := map[string]StagedFile{
		"cover":    stageFile(t, "cover.png", "img-bytes"),
		"document": stageFile(t, "book.pdf", "pdf-bytes"),
	}

	_, err := o.Ingest(context.Background(), bookManifest(), files, "books")

	// 主错误仍是上传失败,补偿删除的失败不覆盖
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeUploadFailed, apperrors.CodeOf(err))
}

func TestIngest_TransformFailureDiscardsRemainingStagedFiles(t *testing.T) {
	store := newFakeStore()
	o := NewOrchestrator(&fakeTransformer{failOn: "cover.png"}, store)

	cover := stageFile(t, "cover.png", "img-bytes")
	doc := stageFile(t, "book.pdf", "pdf-bytes")
	files := map[string]StagedFile{"cover": cover, "document": doc}

	_, err := o.Ingest(context.Background(), bookManifest(), files, "books")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeCorruptInput, apperrors.CodeOf(err))
	assert.Empty(t, store.objects)

	// 两个暂存文件都不残留(cover由转换器消费,document由编排器清理)
	_, statErr := os.Stat(cover.Path)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(doc.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCompensate_DeletesAllObjects(t *testing.T) {
	store := newFakeStore()
	o := NewOrchestrator(&fakeTransformer{}, store)

	files := map[string]StagedFile{
		"cover":    stageFile(t, "cover.png", "img-bytes"),
		"document": stageFile(t, "book.pdf", "pdf-bytes"),
	}
	objects, err := o.Ingest(context.Background(), bookManifest(), files, "books")
	require.NoError(t, err)

	o.Compensate(context.Background(), objects)

	assert.Empty(t, store.objects)
}

func TestIngest_UnknownRoleRejected(t *testing.T) {
	store := newFakeStore()
	o := NewOrchestrator(&fakeTransformer{}, store)

	files := map[string]StagedFile{
		"cover": stageFile(t, "cover.png", "img-bytes"),
		"bonus": stageFile(t, "bonus.png", "img-bytes"),
	}

	_, err := o.Ingest(context.Background(), bookManifest(), files, "books")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodePrecondition, apperrors.CodeOf(err))
}
