package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chaos-io/clearcut/chroma"
	"github.com/chaos-io/clearcut/compare"
	"github.com/chaos-io/clearcut/session"
	"github.com/chaos-io/clearcut/store"
)

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", s.index)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleContent(c *gin.Context) {
	c.JSON(http.StatusOK, s.site)
}

func (s *Server) handleCreateSession(c *gin.Context) {
	c.JSON(http.StatusCreated, s.sessions.Create())
}

func (s *Server) handleGetSession(c *gin.Context) {
	respondSession(c)(s.sessions.Get(c.Param("id")))
}

func (s *Server) handleStartCamera(c *gin.Context) {
	respondSession(c)(s.sessions.StartCamera(c.Param("id")))
}

func (s *Server) handleStopCamera(c *gin.Context) {
	respondSession(c)(s.sessions.StopCamera(c.Param("id")))
}

func (s *Server) handleReset(c *gin.Context) {
	respondSession(c)(s.sessions.Reset(c.Param("id")))
}

func respondSession(c *gin.Context) func(session.Snapshot, error) {
	return func(snap session.Snapshot, err error) {
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

type resultView struct {
	ID          string `json:"id"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	KeyedPixels int    `json:"keyedPixels"`
	Degraded    bool   `json:"degraded,omitempty"`
	URL         string `json:"url"`
	DownloadURL string `json:"downloadUrl"`
	OriginalURL string `json:"originalUrl"`
	CompareURL  string `json:"compareUrl"`
	Filename    string `json:"filename"`
}

func newResultView(r *store.Result) *resultView {
	base := "/api/results/" + r.ID
	return &resultView{
		ID:          r.ID,
		Width:       r.Stats.Width,
		Height:      r.Stats.Height,
		KeyedPixels: r.Stats.Keyed,
		Degraded:    r.Stats.Degraded,
		URL:         base,
		DownloadURL: base + "/download",
		OriginalURL: base + "/original",
		CompareURL:  base + "/compare",
		Filename:    chroma.DownloadName,
	}
}

type submitResp struct {
	Session session.Snapshot `json:"session"`
	Result  *resultView      `json:"result,omitempty"`
}

// handleSubmit 上传文件或摄像头截图，同步完成抠图
func (s *Server) handleSubmit(c *gin.Context) {
	id := c.Param("id")

	data, err := readImage(c)
	if err != nil {
		writeError(c, err)
		return
	}

	if _, err := s.sessions.Submit(id); err != nil {
		writeError(c, err)
		return
	}

	out, err := s.processor.Process(c.Request.Context(), data)
	if err != nil {
		_, kind, _ := classify(err)
		_, _ = s.sessions.Fail(id, kind)
		writeError(c, err)
		return
	}

	res := &store.Result{
		Original:       data,
		OriginalFormat: out.OriginalFormat,
		PNG:            out.PNG,
		Stats:          out.Stats,
	}
	s.results.Put(res)

	snap, err := s.sessions.Succeed(id, res.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, submitResp{Session: snap, Result: newResultView(res)})
}

// handleTransparency 只做绿幕抠图，不调用模型
func (s *Server) handleTransparency(c *gin.Context) {
	format, err := chroma.ParseFormat(c.Query("format"))
	if err != nil {
		writeError(c, err)
		return
	}
	data, err := readImage(c)
	if err != nil {
		writeError(c, err)
		return
	}

	out, stats, err := s.filter.Transform(data, format)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("X-Keyed-Pixels", strconv.Itoa(stats.Keyed))
	if stats.Degraded {
		c.Header("X-Degraded", "true")
	}
	c.Data(http.StatusOK, chroma.FormatPNG.MimeType(), out)
}

func (s *Server) handleResult(c *gin.Context) {
	res, err := s.results.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, chroma.FormatPNG.MimeType(), res.PNG)
}

func (s *Server) handleDownload(c *gin.Context) {
	res, err := s.results.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", chroma.DownloadName))
	c.Data(http.StatusOK, chroma.FormatPNG.MimeType(), res.PNG)
}

func (s *Server) handleOriginal(c *gin.Context) {
	res, err := s.results.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(res.Original), res.Original)
}

func (s *Server) handleCompare(c *gin.Context) {
	res, err := s.results.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	pos := compare.DefaultPosition
	if v := c.Query("pos"); v != "" {
		if pos, err = strconv.ParseFloat(v, 64); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorResp{Error: "invalid slider position", Kind: "invalid_position"})
			return
		}
	}

	before, _, err := chroma.Decode(res.Original)
	if err != nil {
		writeError(c, err)
		return
	}
	after, _, err := chroma.Decode(res.PNG)
	if err != nil {
		writeError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := chroma.EncodePNG(&buf, compare.Composite(before, after, pos)); err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, chroma.FormatPNG.MimeType(), buf.Bytes())
}

type captureReq struct {
	DataURL string `json:"dataUrl" binding:"required"`
}

// readImage 支持三种上传方式：multipart 的 image 字段、
// JSON 里的 data URL（摄像头截图）、以及直接用图片做请求体
func readImage(c *gin.Context) ([]byte, error) {
	ct := c.ContentType()
	switch {
	case strings.HasPrefix(ct, "multipart/"):
		fh, err := c.FormFile("image")
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidUpload, err)
		}
		if t := fh.Header.Get("Content-Type"); t != "" && !strings.HasPrefix(t, "image/") {
			return nil, fmt.Errorf("%w: content type %s", errInvalidUpload, t)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = f.Close()
		}()
		return io.ReadAll(f)

	case ct == gin.MIMEJSON:
		var req captureReq
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidUpload, err)
		}
		return chroma.DecodeDataURL(req.DataURL)

	case strings.HasPrefix(ct, "image/"):
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, chroma.ErrEmptyImage
		}
		return data, nil

	default:
		return nil, fmt.Errorf("%w: content type %q", errInvalidUpload, ct)
	}
}
