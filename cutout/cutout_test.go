package cutout

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/chaos-io/clearcut/chroma"
	"github.com/chaos-io/clearcut/rembg"
	"github.com/chaos-io/clearcut/rembg/mocks"
)

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestProcessor_Process(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	remover := mocks.NewMockRemover(ctrl)

	// 模型把左半边涂成绿色
	remover.EXPECT().Remove(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, img image.Image) (image.Image, error) {
			out := toNRGBA(img)
			for x := 0; x < out.Bounds().Dx()/2; x++ {
				out.SetNRGBA(x, 0, color.NRGBA{0, 255, 0, 255})
			}
			return out, nil
		})

	p := NewProcessor(remover)
	got, err := p.Process(context.Background(), pngBytes(t, solid(4, 1, color.NRGBA{200, 50, 30, 255})))
	require.NoError(t, err)
	assert.Equal(t, chroma.FormatPNG, got.OriginalFormat)
	assert.False(t, got.SkippedModel)
	assert.Equal(t, chroma.Stats{Width: 4, Height: 1, Keyed: 2}, got.Stats)

	img, err := png.Decode(bytes.NewReader(got.PNG))
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0, 255, 0, 0}, color.NRGBAModel.Convert(img.At(0, 0)))
	assert.Equal(t, color.NRGBA{200, 50, 30, 255}, color.NRGBAModel.Convert(img.At(3, 0)))
}

func TestProcessor_Process_UpstreamErrorPropagates(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	remover := mocks.NewMockRemover(ctrl)
	upstream := rembg.ErrBackgroundRemoval
	remover.EXPECT().Remove(gomock.Any(), gomock.Any()).Return(nil, upstream)

	got, err := NewProcessor(remover).Process(context.Background(), pngBytes(t, solid(2, 2, color.NRGBA{1, 2, 3, 255})))
	assert.Same(t, upstream, err)
	assert.Nil(t, got)
}

func TestProcessor_Process_NothingReturned(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	remover := mocks.NewMockRemover(ctrl)
	remover.EXPECT().Remove(gomock.Any(), gomock.Any()).Return(nil, nil)

	_, err := NewProcessor(remover).Process(context.Background(), pngBytes(t, solid(2, 2, color.NRGBA{1, 2, 3, 255})))
	assert.ErrorIs(t, err, chroma.ErrEmptyImage)
}

func TestProcessor_Process_DecodeError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	remover := mocks.NewMockRemover(ctrl)

	_, err := NewProcessor(remover).Process(context.Background(), []byte("garbage"))
	assert.ErrorIs(t, err, chroma.ErrDecode)
}

func TestProcessor_Process_SkipsModelWhenTransparent(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	remover := mocks.NewMockRemover(ctrl)

	in := solid(2, 1, color.NRGBA{0, 255, 0, 255})
	in.SetNRGBA(1, 0, color.NRGBA{9, 9, 9, 0})

	got, err := NewProcessor(remover).Process(context.Background(), pngBytes(t, in))
	require.NoError(t, err)
	assert.True(t, got.SkippedModel)
	assert.Equal(t, 1, got.Stats.Keyed)
}

func TestProcessor_Process_Resizes(t *testing.T) {
	t.Parallel()

	p := NewProcessor(nil)
	p.MaxEdge = 8

	got, err := p.Process(context.Background(), pngBytes(t, solid(32, 16, color.NRGBA{0, 255, 0, 255})))
	require.NoError(t, err)
	assert.Equal(t, 8, got.Stats.Width)
	assert.Equal(t, 4, got.Stats.Height)
	assert.Equal(t, 32, got.Stats.Keyed)
}

func TestResizeWithinMax(t *testing.T) {
	t.Parallel()

	small := solid(10, 5, color.NRGBA{1, 1, 1, 255})
	assert.Same(t, small, resizeWithinMax(small, 20))
	assert.Same(t, small, resizeWithinMax(small, 0))

	tall := resizeWithinMax(solid(3, 300, color.NRGBA{1, 1, 1, 255}), 30)
	assert.Equal(t, 30, tall.Bounds().Dy())
	assert.Equal(t, 1, tall.Bounds().Dx())
}

func TestHasUsefulAlpha(t *testing.T) {
	t.Parallel()

	img := solid(2, 2, color.NRGBA{1, 1, 1, 255})
	assert.False(t, hasUsefulAlpha(img))
	img.SetNRGBA(1, 1, color.NRGBA{1, 1, 1, 254})
	assert.True(t, hasUsefulAlpha(img))
}
