package chroma

import "errors"

var (
	// ErrDecode 输入不是可解码的图片
	ErrDecode = errors.New("chroma: decode image")
	// ErrRenderContextUnavailable 拿不到可写的像素缓冲区
	ErrRenderContextUnavailable = errors.New("chroma: render context unavailable")
	// ErrUnsupportedOutput 输出格式没有真正的 alpha 通道
	ErrUnsupportedOutput = errors.New("chroma: output format has no alpha channel")
	// ErrEmptyImage 没有拿到图片或者宽高为 0
	ErrEmptyImage = errors.New("chroma: empty image")
)
