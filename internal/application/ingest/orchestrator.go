package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/metrics"
	"github.com/xiebiao/bookshelf/pkg/saga"
)

// Orchestrator 摄取编排器
// 设计说明：
// 1. 驱动一个逻辑实体的多个"转换+上传"步骤(如一本书的封面和文档)
// 2. 上传是跨角色并发的Saga:任一上传失败,对本次调用已创建的
//    全部对象发出补偿删除,主错误始终是上传失败本身
// 3. 成功时返回{角色 → StoredObject},失败时保证零残留对象
type Orchestrator struct {
	transformer Transformer
	store       ObjectStore
}

// NewOrchestrator 创建摄取编排器
func NewOrchestrator(transformer Transformer, store ObjectStore) *Orchestrator {
	return &Orchestrator{
		transformer: transformer,
		store:       store,
	}
}

// Ingest 执行一次摄取调用
//
// 流程：
// 1. 前置检查:必需角色齐全、无未知角色、文件非空——任何转换开始前拒绝
// 2. 逐角色转换(转换消费暂存文件)
// 3. 并发上传全部Artifact;任一失败则补偿删除所有已上传对象
// 4. 补偿删除尽力而为:删除自身的失败只记日志,不掩盖主错误
func (o *Orchestrator) Ingest(ctx context.Context, manifest Manifest, files map[string]StagedFile, folder string) (map[string]StoredObject, error) {
	if err := checkManifest(manifest, files); err != nil {
		discardStaged(files)
		metrics.IngestResult("rejected")
		return nil, err
	}

	roles := sortedRoles(files)

	// 转换阶段:转换器消费暂存文件;失败时清掉尚未处理的暂存文件
	artifacts := make(map[string]*Artifact, len(files))
	for i, role := range roles {
		spec := manifest[role]
		staged := files[role]
		key := ObjectKey(spec.Visibility, folder, uniqueFileName(staged.OriginalName, spec.Kind))

		art, err := o.transformer.Transform(ctx, staged, key)
		if err != nil {
			for _, rest := range roles[i+1:] {
				removeStaged(files[rest])
			}
			metrics.IngestResult("transform_failed")
			return nil, err
		}
		art.Visibility = spec.Visibility
		artifacts[role] = art
	}

	// 上传阶段:角色间key独立,允许并发
	var mu sync.Mutex
	stored := make(map[string]StoredObject, len(artifacts))

	sg := saga.New(0)
	steps := make([]saga.Step, 0, len(roles))
	for _, role := range roles {
		role := role
		art := artifacts[role]
		steps = append(steps, saga.Step{
			Name: "upload:" + role,
			Action: func(ctx context.Context) error {
				obj, err := o.store.Put(ctx, art)
				if err != nil {
					return err
				}
				mu.Lock()
				stored[role] = obj
				mu.Unlock()
				return nil
			},
			Compensate: func(ctx context.Context) error {
				mu.Lock()
				obj, ok := stored[role]
				delete(stored, role)
				mu.Unlock()
				if !ok {
					return nil
				}
				err := o.store.Delete(ctx, obj.Key)
				metrics.CompensationDelete(err == nil)
				return err
			},
		})
	}
	sg.AddParallel(steps...)

	if err := sg.Execute(ctx); err != nil {
		for _, f := range sg.Failures() {
			log.Printf("摄取补偿失败: %v", f)
		}
		metrics.IngestResult("upload_failed")
		return nil, err
	}

	metrics.IngestResult("success")
	return stored, nil
}

// Compensate 显式回滚一组已存储对象
// 摄取成功后目录记录创建失败时,调用方用同样的补偿纪律清理一层
func (o *Orchestrator) Compensate(ctx context.Context, objects map[string]StoredObject) {
	for role, obj := range objects {
		err := o.store.Delete(ctx, obj.Key)
		metrics.CompensationDelete(err == nil)
		if err != nil {
			log.Printf("回滚对象失败: role=%s key=%s err=%v", role, obj.Key, err)
		}
	}
}

// ObjectKey 构造对象存储key
// 格式契约: <public|private>/<folderName>/<fileName>
func ObjectKey(visibility Visibility, folder, fileName string) string {
	return fmt.Sprintf("%s/%s/%s", visibility, folder, fileName)
}

// VisibilityOf 从key的首段还原对象可见性
func VisibilityOf(key string) Visibility {
	if strings.HasPrefix(key, string(VisibilityPrivate)+"/") {
		return VisibilityPrivate
	}
	return VisibilityPublic
}

// checkManifest 前置检查:必需角色齐全、无未知角色、文件非空
func checkManifest(manifest Manifest, files map[string]StagedFile) error {
	for role, spec := range manifest {
		if _, ok := files[role]; !ok && spec.Required {
			return apperrors.New(apperrors.ErrCodePrecondition,
				fmt.Sprintf("缺少必需的文件: %s", role))
		}
	}

	for role, staged := range files {
		spec, ok := manifest[role]
		if !ok {
			return apperrors.New(apperrors.ErrCodePrecondition,
				fmt.Sprintf("未声明的文件角色: %s", role))
		}
		if staged.Kind != spec.Kind {
			return apperrors.New(apperrors.ErrCodeUnsupportedMedia,
				fmt.Sprintf("角色%s要求%s类型,实际为%s", role, spec.Kind, staged.Kind))
		}

		info, err := os.Stat(staged.Path)
		if err != nil {
			return apperrors.WrapCode(apperrors.ErrCodePrecondition, err,
				fmt.Sprintf("暂存文件不可读: %s", role))
		}
		if info.Size() == 0 {
			return apperrors.New(apperrors.ErrCodePrecondition,
				fmt.Sprintf("空文件: %s", role))
		}
	}

	return nil
}

// uniqueFileName 基于原始文件名生成唯一存储文件名
// 扩展名由媒体类型决定:图片统一转JPEG,文档统一为PDF
func uniqueFileName(originalName string, kind MediaKind) string {
	base := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	base = strings.ToLower(strings.Join(strings.Fields(base), "-"))
	if base == "" {
		base = "file"
	}

	ext := ".bin"
	switch kind {
	case MediaKindImage:
		ext = ".jpg"
	case MediaKindDocument:
		ext = ".pdf"
	}

	return fmt.Sprintf("%s-%d%s", base, time.Now().UnixNano(), ext)
}

// sortedRoles 角色的确定性遍历顺序
func sortedRoles(files map[string]StagedFile) []string {
	roles := make([]string, 0, len(files))
	for role := range files {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// discardStaged 删除全部暂存文件(前置检查失败时)
func discardStaged(files map[string]StagedFile) {
	for _, staged := range files {
		removeStaged(staged)
	}
}

func removeStaged(staged StagedFile) {
	if err := os.Remove(staged.Path); err != nil && !os.IsNotExist(err) {
		log.Printf("删除暂存文件失败: path=%s err=%v", staged.Path, err)
	}
}
