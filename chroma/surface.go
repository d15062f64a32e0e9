package chroma

import (
	"fmt"
	"image"
	"sync"
)

// DefaultMaxPixels 单张图片最多 64M 像素，再大就不分配缓冲区
const DefaultMaxPixels = 64 << 20

// Surface 是一块借来的 NRGBA 画布，用完必须 Release
type Surface struct {
	img     *image.NRGBA
	release func()
}

// Image 返回画布本身，Release 之后不能再用
func (s *Surface) Image() *image.NRGBA {
	return s.img
}

// Snapshot 把画布内容拷贝一份交给调用方
func (s *Surface) Snapshot() *image.NRGBA {
	out := image.NewNRGBA(s.img.Rect)
	copy(out.Pix, s.img.Pix)
	return out
}

func (s *Surface) Release() {
	if s.release != nil {
		s.release()
		s.release = nil
	}
	s.img = nil
}

type SurfaceProvider interface {
	Acquire(r image.Rectangle) (*Surface, error)
}

// PoolProvider 用 sync.Pool 复用像素缓冲区
type PoolProvider struct {
	MaxPixels int
	pool      sync.Pool
}

func NewPoolProvider(maxPixels int) *PoolProvider {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &PoolProvider{MaxPixels: maxPixels}
}

func (p *PoolProvider) Acquire(r image.Rectangle) (*Surface, error) {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrRenderContextUnavailable, w, h)
	}
	if w*h > p.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrRenderContextUnavailable, w, h, p.MaxPixels)
	}

	n := 4 * w * h
	var buf []byte
	if v, ok := p.pool.Get().(*[]byte); ok && cap(*v) >= n {
		buf = (*v)[:n]
	} else {
		if ok {
			p.pool.Put(v)
		}
		buf = make([]byte, n)
	}

	img := &image.NRGBA{Pix: buf, Stride: 4 * w, Rect: r}
	return &Surface{
		img: img,
		release: func() {
			b := img.Pix[:0]
			p.pool.Put(&b)
		},
	}, nil
}
