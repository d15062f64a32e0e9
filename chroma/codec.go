package chroma

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"strings"

	// 注册解码器
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DownloadName 下载结果时使用的文件名
const DownloadName = "clearcut-ai-result.png"

type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatWebP Format = "webp"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// ParseFormat 规范化格式名，空字符串视为 png
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "image/"))); f {
	case "":
		return FormatPNG, nil
	case "jpg":
		return FormatJPEG, nil
	case "tif":
		return FormatTIFF, nil
	case FormatPNG, FormatJPEG, FormatGIF, FormatWebP, FormatBMP, FormatTIFF:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", ErrUnsupportedOutput, s)
	}
}

// MimeType 返回格式对应的 MIME 类型
func (f Format) MimeType() string {
	return "image/" + string(f)
}

// CheckOutput 只有 png 能作为输出，其余格式要么没有 alpha 要么没有编码器，
// 不做静默降级
func CheckOutput(f Format) error {
	if f != FormatPNG {
		return fmt.Errorf("%w: %s", ErrUnsupportedOutput, f)
	}
	return nil
}

// Decode 解码图片字节，也接受 data:image/...;base64, 形式的 data URL
func Decode(data []byte) (image.Image, Format, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}
	if bytes.HasPrefix(data, []byte("data:")) {
		raw, err := DecodeDataURL(string(data))
		if err != nil {
			return nil, "", err
		}
		data = raw
	}

	// 先只读头部，防止很小的文件声明巨大的尺寸
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", ErrEmptyImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > DefaultMaxPixels {
		return nil, "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, cfg.Width, cfg.Height, DefaultMaxPixels)
	}

	img, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if img.Bounds().Empty() {
		return nil, "", ErrEmptyImage
	}
	return img, Format(name), nil
}

// DecodeDataURL 取出 data URL 里的 base64 内容；没有前缀时按纯 base64 处理
func DecodeDataURL(s string) ([]byte, error) {
	payload := s
	if strings.HasPrefix(s, "data:") {
		header, rest, ok := strings.Cut(s, ",")
		if !ok {
			return nil, fmt.Errorf("%w: malformed data url", ErrDecode)
		}
		if !strings.HasSuffix(header, ";base64") {
			return nil, fmt.Errorf("%w: data url is not base64", ErrDecode)
		}
		payload = rest
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return raw, nil
}

// EncodeDataURL 把 png 字节包装成 data URL
func EncodeDataURL(f Format, data []byte) string {
	return "data:" + f.MimeType() + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	return enc.Encode(w, img)
}

// Transform 字节进字节出：解码、抠图、编码成 png。
// 降级时 png 输入原样返回，其它格式只做一次 png 编码
func (f *Filter) Transform(data []byte, out Format) ([]byte, Stats, error) {
	if err := CheckOutput(out); err != nil {
		return nil, Stats{}, err
	}
	img, format, err := Decode(data)
	if err != nil {
		return nil, Stats{}, err
	}

	var buf bytes.Buffer
	strict := &Filter{Surfaces: f.Surfaces}
	stats, err := strict.WritePNG(&buf, img)
	if err == nil {
		return buf.Bytes(), stats, nil
	}
	if !f.degrade(err) {
		return nil, stats, err
	}

	b := img.Bounds()
	stats = Stats{Width: b.Dx(), Height: b.Dy(), Degraded: true}
	if format == FormatPNG && !bytes.HasPrefix(data, []byte("data:")) {
		return data, stats, nil
	}
	buf.Reset()
	if err := EncodePNG(&buf, img); err != nil {
		return nil, stats, err
	}
	return buf.Bytes(), stats, nil
}

var std = &Filter{Surfaces: NewPoolProvider(DefaultMaxPixels)}

// Apply 字节版本的 ApplyTransparency，输出总是 png
func Apply(data []byte) ([]byte, error) {
	out, _, err := std.Transform(data, FormatPNG)
	return out, err
}

// ApplyOrPassthrough 拿不到画布时记录日志并原样返回输入字节，其它错误照常返回
func ApplyOrPassthrough(data []byte) ([]byte, error) {
	return std.applyOrPassthrough(data)
}

func (f *Filter) applyOrPassthrough(data []byte) ([]byte, error) {
	strict := &Filter{Surfaces: f.Surfaces}
	out, _, err := strict.Transform(data, FormatPNG)
	if errors.Is(err, ErrRenderContextUnavailable) {
		slog.Warn("render context unavailable, returning input unchanged", "err", err)
		return data, nil
	}
	return out, err
}

// ApplyResult 接在上游调用后面：上游失败时不运行滤镜，错误原样返回
func ApplyResult(data []byte, upstreamErr error) ([]byte, error) {
	if upstreamErr != nil {
		return nil, upstreamErr
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	return Apply(data)
}
