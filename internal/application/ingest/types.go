package ingest

import (
	"context"
	"time"
)

// MediaKind 声明的媒体类型
type MediaKind string

const (
	MediaKindImage    MediaKind = "image"
	MediaKindDocument MediaKind = "document"
)

// Visibility 对象可见性
// 公开对象解析为稳定URL;私有对象每次解析都重新签名
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// StagedFile 处理前落在本地临时目录的文件
// 所有权归编排器独占:一次摄取调用内,无论成功失败,
// 返回前必须在所有退出路径上删除(直接删除或由转换阶段消费)
type StagedFile struct {
	Path         string    // 绝对路径
	Kind         MediaKind // 声明的媒体类型
	OriginalName string    // 原始文件名
}

// Artifact 转换完成、待上传的字节流及其目标存储key
// key格式契约: <public|private>/<folderName>/<fileName>
// 字节只存在于本次摄取调用的内存中,从不二次落盘
type Artifact struct {
	Key         string
	Visibility  Visibility
	ContentType string
	Body        []byte
}

// StoredObject 对象存储中的一个key及其可见性
type StoredObject struct {
	Key        string     `json:"key"`
	Visibility Visibility `json:"visibility"`
}

// RoleSpec 摄取清单中一个角色的要求
type RoleSpec struct {
	Kind       MediaKind
	Visibility Visibility
	Required   bool
}

// Manifest 一次摄取调用的清单:角色 → 要求
// 任何缺失的必需角色都是前置条件失败,在任何转换开始前拒绝
type Manifest map[string]RoleSpec

// Transformer 转换阶段端口
// 实现方必须消费(删除)StagedFile,无论成功失败
type Transformer interface {
	Transform(ctx context.Context, staged StagedFile, key string) (*Artifact, error)
}

// ObjectStore 持久对象存储端口
type ObjectStore interface {
	// Put 上传字节流,按key幂等(重复上传同key即覆盖)
	Put(ctx context.Context, artifact *Artifact) (StoredObject, error)

	// Delete 按key删除,尽力而为:失败记日志,不作为致命错误上抛
	Delete(ctx context.Context, key string) error

	// ResolveURL 公开对象返回纯计算的稳定URL(无网络调用);
	// 私有对象每次调用签发新的限时URL
	ResolveURL(ctx context.Context, key string, visibility Visibility, ttl time.Duration) (string, error)
}
