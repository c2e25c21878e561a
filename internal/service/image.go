package service

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"multichat/internal/model"
)

const (
	maxImageSizeBytes = 10 << 20 // 10MB
	maxImageDimension = 4096
)

// ImageService 校验上传图片并提取元数据
type ImageService struct{}

func NewImageService() *ImageService {
	return &ImageService{}
}

// Validate 解码图片头部，检查格式、尺寸与大小，返回填充好的文件记录
func (s *ImageService) Validate(path, filename string) (*model.FileRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if info.Size() > maxImageSizeBytes {
		return nil, fmt.Errorf("%w: file too large (%d bytes, max %d)", ErrInvalidImage, info.Size(), maxImageSizeBytes)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported format: %v", ErrInvalidImage, err)
	}

	if cfg.Width > maxImageDimension || cfg.Height > maxImageDimension {
		return nil, fmt.Errorf("%w: image too large (%dx%d, max dimension %d)",
			ErrInvalidImage, cfg.Width, cfg.Height, maxImageDimension)
	}

	return &model.FileRecord{
		Kind:       model.FileImage,
		Filename:   filepath.Base(filename),
		Path:       path,
		SizeBytes:  info.Size(),
		UploadedAt: model.Now(),
		Format:     format,
		Width:      cfg.Width,
		Height:     cfg.Height,
	}, nil
}
