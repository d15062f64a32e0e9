// Package cutout 串起一次完整的抠图：解码、缩放、调用模型、绿幕抠图、编码 png。
package cutout

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/chaos-io/clearcut/chroma"
	"github.com/chaos-io/clearcut/rembg"
	"github.com/chaos-io/clearcut/util"
)

const DefaultMaxEdge = 1024

type Processor struct {
	RemBG   rembg.Remover
	Filter  *chroma.Filter
	MaxEdge int
}

func NewProcessor(remover rembg.Remover) *Processor {
	if remover == nil {
		remover = rembg.NewDefaultRemBG()
	}
	return &Processor{
		RemBG:   remover,
		Filter:  chroma.NewFilter(),
		MaxEdge: DefaultMaxEdge,
	}
}

type Output struct {
	PNG            []byte
	OriginalFormat chroma.Format
	Stats          chroma.Stats
	// SkippedModel 上传的图片本身已经带透明通道，没有调用模型
	SkippedModel bool
}

// Process 把任意输入图片变成透明背景的 png
//
//	尺寸 ≤ MaxEdge
//	已有透明通道的图片不再调用模型
//	模型失败时错误原样返回，不做抠图
func (p *Processor) Process(ctx context.Context, data []byte) (*Output, error) {
	defer util.Trace("cutout process")()

	// 1. 解码
	img, format, err := chroma.Decode(data)
	if err != nil {
		return nil, err
	}
	src := toNRGBA(img)

	// 2. 判断是否已有有效 Alpha
	hasAlpha := hasUsefulAlpha(src)

	// 3. 缩放
	src = resizeWithinMax(src, p.MaxEdge)

	out := &Output{OriginalFormat: format, SkippedModel: hasAlpha}

	// 4. 背景去除
	keyed := src
	if !hasAlpha {
		removed, err := p.RemBG.Remove(ctx, src)
		if err != nil {
			return nil, err
		}
		if removed == nil {
			return nil, chroma.ErrEmptyImage
		}
		keyed = toNRGBA(removed)
	}

	// 5. 绿幕抠图 + 编码
	var buf bytes.Buffer
	out.Stats, err = p.Filter.WritePNG(&buf, keyed)
	if err != nil {
		return nil, err
	}
	out.PNG = buf.Bytes()

	slog.Info("cutout done",
		"format", format,
		"width", out.Stats.Width,
		"height", out.Stats.Height,
		"keyed", out.Stats.Keyed,
		"skipped_model", out.SkippedModel,
		"degraded", out.Stats.Degraded)
	return out, nil
}
