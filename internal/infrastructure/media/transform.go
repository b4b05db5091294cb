package media

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/xiebiao/bookshelf/internal/application/ingest"
	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// Transformer 文件转换阶段(图片压缩/PDF优化)
// 设计说明：
// 1. 实现application/ingest.Transformer端口
// 2. 转换消费暂存文件:无论成功失败,返回前删除本地文件
// 3. 同一输入永远产生相同输出(确定性),上传可安全重试
type Transformer struct {
	maxWidth int // 图片最大宽度,超出按比例缩小
	quality  int // JPEG编码质量
}

// NewTransformer 创建文件转换器
func NewTransformer(cfg *config.Config) *Transformer {
	return &Transformer{
		maxWidth: cfg.Media.MaxWidth,
		quality:  cfg.Media.JPEGQuality,
	}
}

var _ ingest.Transformer = (*Transformer)(nil)

// Transform 转换暂存文件为待上传的Artifact
// 暂存文件在所有退出路径上都被删除
func (t *Transformer) Transform(ctx context.Context, staged ingest.StagedFile, key string) (*ingest.Artifact, error) {
	defer func() {
		if err := os.Remove(staged.Path); err != nil && !os.IsNotExist(err) {
			log.Printf("删除暂存文件失败: path=%s err=%v", staged.Path, err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, apperrors.WrapCode(apperrors.ErrCodeTransform, err, "转换已取消")
	}

	switch staged.Kind {
	case ingest.MediaKindImage:
		return t.transformImage(staged, key)
	case ingest.MediaKindDocument:
		return t.transformDocument(staged, key)
	default:
		return nil, apperrors.New(apperrors.ErrCodeUnsupportedMedia,
			fmt.Sprintf("不支持的文件类型: %s", staged.Kind))
	}
}

// transformImage 图片压缩:超宽按比例缩小,统一编码为JPEG
func (t *Transformer) transformImage(staged ingest.StagedFile, key string) (*ingest.Artifact, error) {
	img, err := imaging.Open(staged.Path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperrors.WrapCode(apperrors.ErrCodeCorruptInput, err,
			fmt.Sprintf("图片解析失败: %s", staged.OriginalName))
	}

	// 只缩不放:高度随宽度按比例自动计算
	if img.Bounds().Dx() > t.maxWidth {
		img = imaging.Resize(img, t.maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(t.quality)); err != nil {
		return nil, apperrors.WrapCode(apperrors.ErrCodeTransform, err, "图片编码失败")
	}

	return &ingest.Artifact{
		Key:         key,
		ContentType: "image/jpeg",
		Body:        buf.Bytes(),
	}, nil
}

// transformDocument PDF优化:重写对象流,去除冗余资源
func (t *Transformer) transformDocument(staged ingest.StagedFile, key string) (*ingest.Artifact, error) {
	f, err := os.Open(staged.Path)
	if err != nil {
		return nil, apperrors.WrapCode(apperrors.ErrCodeTransform, err,
			fmt.Sprintf("读取暂存文件失败: %s", staged.Path))
	}
	defer f.Close()

	var buf bytes.Buffer
	conf := model.NewDefaultConfiguration()
	if err := api.Optimize(f, &buf, conf); err != nil {
		return nil, apperrors.WrapCode(apperrors.ErrCodeCorruptInput, err,
			fmt.Sprintf("PDF解析失败: %s", staged.OriginalName))
	}

	return &ingest.Artifact{
		Key:         key,
		ContentType: "application/pdf",
		Body:        buf.Bytes(),
	}, nil
}
