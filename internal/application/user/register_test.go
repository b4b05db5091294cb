package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshelf/internal/application/ingest"
	"github.com/xiebiao/bookshelf/internal/domain/user"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// fakeIngestor 返回固定对象集,记录补偿调用
type fakeIngestor struct {
	objects     map[string]ingest.StoredObject
	ingestErr   error
	manifests   []ingest.Manifest
	compensated []map[string]ingest.StoredObject
}

func (f *fakeIngestor) Ingest(ctx context.Context, manifest ingest.Manifest, files map[string]ingest.StagedFile, folder string) (map[string]ingest.StoredObject, error) {
	f.manifests = append(f.manifests, manifest)
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	return f.objects, nil
}

func (f *fakeIngestor) Compensate(ctx context.Context, objects map[string]ingest.StoredObject) {
	f.compensated = append(f.compensated, objects)
}

// fakeUserSvc Register可注入失败
type fakeUserSvc struct {
	user.Service
	registerErr error
	created     *user.User
}

func (s *fakeUserSvc) Register(ctx context.Context, email, password, nickname, profileKey string) (*user.User, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	u := user.NewUser(email, "$2a$12$hash", nickname, profileKey)
	u.ID = 7
	s.created = u
	return u, nil
}

// stubResolver 可预期的URL解析
type stubResolver struct{}

func (stubResolver) ResolveURL(ctx context.Context, key string, visibility ingest.Visibility, ttl time.Duration) (string, error) {
	return "https://bucket.s3.amazonaws.com/" + key, nil
}

func profileUpload() map[string]ingest.StoredObject {
	return map[string]ingest.StoredObject{
		RoleProfile: {Key: "public/profile/avatar-7.jpg", Visibility: ingest.VisibilityPublic},
	}
}

func TestRegister_Success(t *testing.T) {
	svc := &fakeUserSvc{}
	ingestor := &fakeIngestor{objects: profileUpload()}
	uc := NewRegisterUseCase(svc, ingestor, stubResolver{}, time.Hour)

	resp, err := uc.Execute(context.Background(), RegisterRequest{
		Email: "reader@example.com", Password: "passw0rd123", Nickname: "书虫",
	})

	require.NoError(t, err)
	assert.Equal(t, uint(7), resp.ID)
	assert.Equal(t, "https://bucket.s3.amazonaws.com/public/profile/avatar-7.jpg", resp.ProfileURL)
	assert.Equal(t, "public/profile/avatar-7.jpg", svc.created.ProfileKey)
	assert.Empty(t, ingestor.compensated)
}

func TestRegister_ProfileRequiredInManifest(t *testing.T) {
	ingestor := &fakeIngestor{objects: profileUpload()}
	uc := NewRegisterUseCase(&fakeUserSvc{}, ingestor, stubResolver{}, time.Hour)

	_, err := uc.Execute(context.Background(), RegisterRequest{
		Email: "reader@example.com", Password: "passw0rd123", Nickname: "书虫",
	})
	require.NoError(t, err)

	// 头像在清单中声明为必填的公开图片,缺失由编排器前置检查拒绝
	require.Len(t, ingestor.manifests, 1)
	spec := ingestor.manifests[0][RoleProfile]
	assert.True(t, spec.Required)
	assert.Equal(t, ingest.MediaKindImage, spec.Kind)
	assert.Equal(t, ingest.VisibilityPublic, spec.Visibility)
}

func TestRegister_DuplicateEmailCompensatesUpload(t *testing.T) {
	svc := &fakeUserSvc{registerErr: apperrors.ErrEmailDuplicate}
	ingestor := &fakeIngestor{objects: profileUpload()}
	uc := NewRegisterUseCase(svc, ingestor, stubResolver{}, time.Hour)

	_, err := uc.Execute(context.Background(), RegisterRequest{
		Email: "reader@example.com", Password: "passw0rd123", Nickname: "书虫",
	})

	// 账号没建成,刚上传的头像必须进补偿
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeEmailDuplicate, apperrors.CodeOf(err))
	require.Len(t, ingestor.compensated, 1)
	assert.Equal(t, profileUpload(), ingestor.compensated[0])
}

func TestRegister_IngestFailurePropagates(t *testing.T) {
	svc := &fakeUserSvc{}
	ingestor := &fakeIngestor{ingestErr: apperrors.ErrUploadFailed}
	uc := NewRegisterUseCase(svc, ingestor, stubResolver{}, time.Hour)

	_, err := uc.Execute(context.Background(), RegisterRequest{
		Email: "reader@example.com", Password: "passw0rd123", Nickname: "书虫",
	})

	require.Error(t, err)
	// 摄取内部已补偿,这一层不再补偿,也不创建账号
	assert.Empty(t, ingestor.compensated)
	assert.Nil(t, svc.created)
}
