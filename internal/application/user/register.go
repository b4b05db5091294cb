package user

import (
	"context"
	"time"

	"github.com/xiebiao/bookshelf/internal/application/ingest"
	"github.com/xiebiao/bookshelf/internal/domain/user"
)

// RoleProfile 注册摄取清单的角色名:头像
const RoleProfile = "profile"

// Ingestor 摄取编排端口(由ingest.Orchestrator实现)
type Ingestor interface {
	Ingest(ctx context.Context, manifest ingest.Manifest, files map[string]ingest.StagedFile, folder string) (map[string]ingest.StoredObject, error)
	Compensate(ctx context.Context, objects map[string]ingest.StoredObject)
}

// URLResolver 对象URL解析端口
type URLResolver interface {
	ResolveURL(ctx context.Context, key string, visibility ingest.Visibility, ttl time.Duration) (string, error)
}

// profileManifest 注册摄取清单:头像必填(公开图片)
func profileManifest() ingest.Manifest {
	return ingest.Manifest{
		RoleProfile: {Kind: ingest.MediaKindImage, Visibility: ingest.VisibilityPublic, Required: true},
	}
}

// RegisterUseCase 用户注册用例(头像摄取+账号创建)
// 设计说明：
// 1. 头像先摄取:账号记录永远不引用未上传成功的对象
// 2. 账号创建失败(如邮箱重复)时,对本次上传的头像执行补偿删除
type RegisterUseCase struct {
	userService user.Service
	ingestor    Ingestor
	resolver    URLResolver
	presignTTL  time.Duration
}

// NewRegisterUseCase 创建注册用例
func NewRegisterUseCase(
	userService user.Service,
	ingestor Ingestor,
	resolver URLResolver,
	presignTTL time.Duration,
) *RegisterUseCase {
	return &RegisterUseCase{
		userService: userService,
		ingestor:    ingestor,
		resolver:    resolver,
		presignTTL:  presignTTL,
	}
}

// Execute 执行注册
func (uc *RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	// 1. 摄取头像;失败时编排器内部已补偿,零残留
	objects, err := uc.ingestor.Ingest(ctx, profileManifest(), req.Files, "profile")
	if err != nil {
		return nil, err
	}

	// 2. 创建账号;失败(邮箱重复等)则回滚刚上传的头像
	u, err := uc.userService.Register(ctx, req.Email, req.Password, req.Nickname, objects[RoleProfile].Key)
	if err != nil {
		uc.ingestor.Compensate(ctx, objects)
		return nil, err
	}

	profileURL, err := uc.resolver.ResolveURL(ctx, u.ProfileKey, ingest.VisibilityPublic, uc.presignTTL)
	if err != nil {
		return nil, err
	}

	return &RegisterResponse{
		ID:         u.ID,
		Email:      u.Email,
		Nickname:   u.Nickname,
		ProfileURL: profileURL,
	}, nil
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string
	Password string
	Nickname string
	Files    map[string]ingest.StagedFile // 角色 → 暂存文件
}

// RegisterResponse 注册响应（不返回密码字段）
type RegisterResponse struct {
	ID         uint   `json:"id"`
	Email      string `json:"email"`
	Nickname   string `json:"nickname"`
	ProfileURL string `json:"profile_url"`
}
