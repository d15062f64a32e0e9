package rembg

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/chaos-io/clearcut/chroma"
	nhttp "github.com/chaos-io/clearcut/util/http"
)

const (
	GeminiImageModel = "gemini-2.5-flash-image"
	DefaultGeminiURL = "https://generativelanguage.googleapis.com"
)

// Instruction 让模型把背景换成纯绿，后面的 chroma 才能抠掉
var Instruction = fmt.Sprintf("Carefully remove the background from this image. "+
	"Output the subject exactly as it is, but replace the entire background with a perfectly uniform, "+
	"solid, flat neon green color (hex %s). "+
	"Ensure edges around hair or complex areas are handled as cleanly as possible. "+
	"Return only the edited image.", strings.ToUpper(chroma.KeyColor.Hex()))

type GeminiRemBG struct {
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration
	cli     nhttp.IClient
}

type GeminiOption func(*GeminiRemBG)

func WithBaseURL(u string) GeminiOption {
	return func(g *GeminiRemBG) {
		if u != "" {
			g.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithModel(m string) GeminiOption {
	return func(g *GeminiRemBG) {
		if m != "" {
			g.model = m
		}
	}
}

func WithTimeout(d time.Duration) GeminiOption {
	return func(g *GeminiRemBG) {
		g.timeout = d
	}
}

func WithClient(cli nhttp.IClient) GeminiOption {
	return func(g *GeminiRemBG) {
		g.cli = cli
	}
}

func NewGeminiRemBG(apiKey string, opts ...GeminiOption) *GeminiRemBG {
	g := &GeminiRemBG{
		apiKey:  apiKey,
		baseURL: DefaultGeminiURL,
		model:   GeminiImageModel,
		timeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.cli == nil {
		g.cli = nhttp.NewHTTPClientWithTimeout(g.timeout)
	}
	return g
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateContentReq struct {
	Contents []content `json:"contents"`
}

type generateContentResp struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

/*
	curl "$BASE_URL/v1beta/models/gemini-2.5-flash-image:generateContent" \
	  -H "x-goog-api-key: $GEMINI_API_KEY" \
	  -H "Content-Type: application/json" \
	  -d '{"contents":[{"parts":[{"inlineData":{"mimeType":"image/png","data":"..."}},{"text":"..."}]}]}'
*/
func (g *GeminiRemBG) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: %w", ErrBackgroundRemoval, chroma.ErrEmptyImage)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", ErrBackgroundRemoval, err)
	}

	req := &generateContentReq{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{MimeType: chroma.FormatPNG.MimeType(), Data: base64.StdEncoding.EncodeToString(buf.Bytes())}},
				{Text: Instruction},
			},
		}},
	}
	resp := &generateContentResp{}

	reqParam := &nhttp.RequestParam{
		RequestURI: fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model),
		Method:     http.MethodPost,
		Header: map[string]string{
			"Content-Type":   "application/json",
			"x-goog-api-key": g.apiKey,
		},
		Body:     req,
		Response: resp,
		Timeout:  g.timeout,
	}
	if err := g.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackgroundRemoval, err)
	}

	data, err := firstImage(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackgroundRemoval, err)
	}

	out, format, err := chroma.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackgroundRemoval, err)
	}

	slog.Debug("gemini returned image", "format", format, "bounds", out.Bounds())
	return out, nil
}

func firstImage(resp *generateContentResp) ([]byte, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: blocked (%s)", ErrNoImageReturned, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return nil, ErrNoImageReturned
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.InlineData != nil && p.InlineData.Data != "" {
			return chroma.DecodeDataURL(p.InlineData.Data)
		}
	}
	return nil, ErrNoImageReturned
}
