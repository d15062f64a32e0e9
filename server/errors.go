package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chaos-io/clearcut/chroma"
	"github.com/chaos-io/clearcut/rembg"
	"github.com/chaos-io/clearcut/session"
	"github.com/chaos-io/clearcut/store"
)

const genericMessage = "Failed to process image. Please try again."

var errInvalidUpload = errors.New("please upload a valid image file")

type errorResp struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// classify 把错误映射成状态码和类别，前端可以只显示通用提示
func classify(err error) (int, string, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "too_large", "Image is too large."
	case errors.Is(err, errInvalidUpload):
		return http.StatusBadRequest, "invalid_upload", "Please upload a valid image file."
	// 模型返回的坏图片也带着 ErrDecode，要先认上游错误
	case errors.Is(err, rembg.ErrBackgroundRemoval):
		return http.StatusBadGateway, "background_removal", genericMessage
	case errors.Is(err, chroma.ErrDecode), errors.Is(err, chroma.ErrEmptyImage):
		return http.StatusBadRequest, "decode", genericMessage
	case errors.Is(err, chroma.ErrUnsupportedOutput):
		return http.StatusBadRequest, "unsupported_output", "Only PNG output is supported."
	case errors.Is(err, chroma.ErrRenderContextUnavailable):
		return http.StatusInternalServerError, "render_context_unavailable", genericMessage
	case errors.Is(err, session.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition", err.Error()
	case errors.Is(err, session.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found", "Not found."
	default:
		return http.StatusInternalServerError, "internal", genericMessage
	}
}

func writeError(c *gin.Context, err error) {
	status, kind, msg := classify(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.Request.URL.Path, "kind", kind, "err", err)
	} else {
		slog.Debug("request rejected", "path", c.Request.URL.Path, "kind", kind, "err", err)
	}
	c.AbortWithStatusJSON(status, errorResp{Error: msg, Kind: kind})
}
