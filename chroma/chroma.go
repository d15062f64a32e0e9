// Package chroma 实现绿幕抠图的后处理：把接近 #00FF00 的像素 alpha 置 0。
//
// 背景分割交给外部模型，模型被要求把背景换成纯绿色，这里只做逐像素的硬分类，
// 不看邻域、不做半透明混合。
package chroma

import (
	"errors"
	"image"
	"image/draw"
	"io"
	"log/slog"

	"github.com/lucasb-eyer/go-colorful"
)

// 阈值是固定的，改动会改变边缘绿边的表现
const (
	greenMin = 150
	redMax   = 100
	blueMax  = 100
)

// KeyColor 模型被要求使用的背景色
var KeyColor = colorful.Color{R: 0, G: 1, B: 0}

// IsKey 判断一个像素是否属于背景
func IsKey(r, g, b uint8) bool {
	return g > greenMin && r < redMax && b < blueMax
}

type Stats struct {
	Width, Height int
	// Keyed 被置为透明的像素数
	Keyed int
	// Degraded 拿不到画布，原样返回了输入
	Degraded bool
}

type Filter struct {
	Surfaces SurfaceProvider
	// Fallback 为 true 时画布不可用会原样返回输入而不是报错
	Fallback bool
}

func NewFilter() *Filter {
	return &Filter{
		Surfaces: NewPoolProvider(DefaultMaxPixels),
		Fallback: true,
	}
}

// ApplyTransparency 对图片做一次抠图，返回新的图片，不修改输入
func ApplyTransparency(img image.Image) (*image.NRGBA, error) {
	out, _, err := std.Apply(img)
	return out, err
}

// Apply 返回一张新的 NRGBA 图片
func (f *Filter) Apply(img image.Image) (*image.NRGBA, Stats, error) {
	var out *image.NRGBA
	stats, err := f.render(img, func(s *Surface) error {
		out = s.Snapshot()
		return nil
	})
	if err != nil {
		if f.degrade(err) {
			return toNRGBA(img), Stats{Width: img.Bounds().Dx(), Height: img.Bounds().Dy(), Degraded: true}, nil
		}
		return nil, stats, err
	}
	return out, stats, nil
}

// WritePNG 抠图后直接把画布编码成 PNG 写出
func (f *Filter) WritePNG(w io.Writer, img image.Image) (Stats, error) {
	stats, err := f.render(img, func(s *Surface) error {
		return EncodePNG(w, s.Image())
	})
	if err != nil && f.degrade(err) {
		b := img.Bounds()
		return Stats{Width: b.Dx(), Height: b.Dy(), Degraded: true}, EncodePNG(w, img)
	}
	return stats, err
}

// render 借一块画布，把 img 画上去，抠图后交给 use，任何路径都会归还画布
func (f *Filter) render(img image.Image, use func(s *Surface) error) (Stats, error) {
	if img == nil {
		return Stats{}, ErrEmptyImage
	}
	b := img.Bounds()
	if b.Empty() {
		return Stats{}, ErrEmptyImage
	}

	surface, err := f.Surfaces.Acquire(image.Rect(0, 0, b.Dx(), b.Dy()))
	if err != nil {
		return Stats{}, err
	}
	defer surface.Release()

	dst := surface.Image()
	if src, ok := img.(*image.NRGBA); ok {
		// 直接拷贝，避免经过预乘再还原带来的误差
		for y := 0; y < b.Dy(); y++ {
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+4*b.Dx()], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
		}
	} else {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	}

	stats := Stats{Width: b.Dx(), Height: b.Dy(), Keyed: keyOut(dst.Pix)}
	return stats, use(surface)
}

// keyOut 线性扫描，每 4 个字节一个像素
func keyOut(pix []byte) int {
	n := 0
	for i := 0; i+3 < len(pix); i += 4 {
		if IsKey(pix[i], pix[i+1], pix[i+2]) {
			pix[i+3] = 0
			n++
		}
	}
	return n
}

func (f *Filter) degrade(err error) bool {
	if !f.Fallback || !errors.Is(err, ErrRenderContextUnavailable) {
		return false
	}
	slog.Warn("render context unavailable, returning input unchanged", "err", err)
	return true
}

func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
