// Package compare 对应前端的前后对比滑块。
package compare

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/clone"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
)

const (
	DefaultPosition = 50.0
	checkerSize     = 16
)

// 透明区域的棋盘格底色
var (
	checkerLight = colorful.Color{R: 1, G: 1, B: 1}
	checkerDark  = colorful.Color{R: 0.886, G: 0.910, B: 0.941}
)

// SliderPosition 把指针横坐标换算成 0-100 的百分比
func SliderPosition(pointerX, left, width float64) float64 {
	if width <= 0 || math.IsNaN(pointerX) {
		return DefaultPosition
	}
	return Clamp((pointerX - left) / width * 100)
}

// Clamp 限制到 [0, 100]，NaN 视为默认值
func Clamp(pos float64) float64 {
	if math.IsNaN(pos) {
		return DefaultPosition
	}
	return math.Min(math.Max(pos, 0), 100)
}

// Composite 生成对比图：分割线左边是 before，右边是铺在棋盘格上的 after。
// before 会被缩放到 after 的尺寸。
func Composite(before, after image.Image, pos float64) *image.RGBA {
	ab := after.Bounds()
	w, h := ab.Dx(), ab.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	drawChecker(dst)
	draw.Draw(dst, dst.Bounds(), after, ab.Min, draw.Over)

	split := int(math.Round(float64(w) * Clamp(pos) / 100))
	if split <= 0 {
		return dst
	}

	src := clone.AsRGBA(before)
	scaled := image.NewRGBA(dst.Bounds())
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Src, nil)
	draw.Draw(dst, image.Rect(0, 0, split, h), scaled, image.Point{}, draw.Src)
	return dst
}

func drawChecker(dst *image.RGBA) {
	light := image.NewUniform(checkerLight)
	dark := image.NewUniform(checkerDark)
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y += checkerSize {
		for x := b.Min.X; x < b.Max.X; x += checkerSize {
			c := light
			if ((x/checkerSize)+(y/checkerSize))%2 == 1 {
				c = dark
			}
			draw.Draw(dst, image.Rect(x, y, x+checkerSize, y+checkerSize).Intersect(b), c, image.Point{}, draw.Src)
		}
	}
}
