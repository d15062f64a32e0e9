package rembg

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrBackgroundRemoval 外部模型调用失败，原样向上传递，不重试
	ErrBackgroundRemoval = errors.New("rembg: background removal failed")
	// ErrNoImageReturned 模型返回了内容但没有图片
	ErrNoImageReturned = errors.New("rembg: no image data returned from model")
)

//go:generate mockgen -destination=mocks/rembg.go -package=mocks . Remover
type Remover interface {
	Remove(ctx context.Context, img image.Image) (image.Image, error)
}

// DefaultRemBG 不调用模型，原样返回，用于本地调试
type DefaultRemBG struct{}

func NewDefaultRemBG() *DefaultRemBG {
	return &DefaultRemBG{}
}

func (d *DefaultRemBG) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	return img, nil
}
