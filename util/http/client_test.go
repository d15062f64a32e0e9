package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 与 rembg 调用 generateContent 时的请求/响应形状一致
type inline struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateReq struct {
	Prompt string `json:"prompt"`
	Image  inline `json:"image"`
}

type generateResp struct {
	Image inline `json:"image"`
}

func TestNewHTTPClientWithTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{in: 90 * time.Second, want: 90 * time.Second},
		{in: 0, want: 30 * time.Second},
		{in: -time.Second, want: 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			cli, ok := NewHTTPClientWithTimeout(tt.in).(*HTTPClient)
			require.True(t, ok)
			assert.Equal(t, tt.want, cli.client.Timeout)
		})
	}

	cli, ok := NewHTTPClient().(*HTTPClient)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, cli.client.Timeout)
}

func TestHTTPClient_DoHTTPRequest_GenerateContent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/m:generateContent", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))

		var req generateReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "make the background green", req.Prompt)
		assert.Equal(t, "aGVsbG8=", req.Image.Data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"image":{"mimeType":"image/png","data":"d29ybGQ="}}`))
	}))
	defer server.Close()

	var resp generateResp
	err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
		RequestURI: server.URL + "/v1beta/models/m:generateContent",
		Method:     http.MethodPost,
		Header:     map[string]string{"x-goog-api-key": "secret"},
		Body:       generateReq{Prompt: "make the background green", Image: inline{MimeType: "image/png", Data: "aGVsbG8="}},
		Response:   &resp,
	})
	require.NoError(t, err)
	assert.Equal(t, inline{MimeType: "image/png", Data: "d29ybGQ="}, resp.Image)
}

func TestHTTPClient_DoHTTPRequest_Body(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		body            interface{}
		header          map[string]string
		wantContentType string
		wantBody        string
	}{
		{name: "no body", wantBody: ""},
		{name: "raw png bytes", body: []byte{0x89, 'P', 'N', 'G'}, wantContentType: "application/octet-stream", wantBody: "\x89PNG"},
		{name: "reader", body: strings.NewReader("plain"), wantContentType: "text/plain", wantBody: "plain"},
		{
			name:            "header wins over default content type",
			body:            []byte("x"),
			header:          map[string]string{"Content-Type": "image/png"},
			wantContentType: "image/png",
			wantBody:        "x",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.wantContentType, r.Header.Get("Content-Type"))
				got, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				assert.Equal(t, tt.wantBody, string(got))
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			var resp generateResp
			err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
				RequestURI: server.URL,
				Method:     http.MethodPost,
				Header:     tt.header,
				Body:       tt.body,
				Response:   &resp,
			})
			require.NoError(t, err)
			assert.Empty(t, resp.Image.Data, "empty reply leaves the response untouched")
		})
	}
}

func TestHTTPClient_DoHTTPRequest_Query(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
		RequestURI: server.URL + "/v1beta/models/m:generateContent?alt=sse",
		Method:     http.MethodPost,
		Query:      map[string]string{"key": "k"},
	})
	require.NoError(t, err)
}

func TestHTTPClient_DoHTTPRequest_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
		RequestURI: server.URL,
		Method:     http.MethodPost,
		Timeout:    50 * time.Millisecond,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestHTTPClient_DoHTTPRequest_ErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		wantSuffix string
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":"quota"}`, wantSuffix: `status 429: {"error":"quota"}`},
		{name: "long body is cut", status: http.StatusInternalServerError, body: strings.Repeat("x", 2000), wantSuffix: "status 500: " + strings.Repeat("x", 512)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			var resp generateResp
			err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
				RequestURI: server.URL,
				Method:     http.MethodPost,
				Response:   &resp,
			})
			require.Error(t, err)
			assert.True(t, strings.HasSuffix(err.Error(), tt.wantSuffix), err.Error())
			assert.Empty(t, resp.Image.Data)
		})
	}
}

func TestHTTPClient_DoHTTPRequest_BadInput(t *testing.T) {
	t.Parallel()

	cli := NewHTTPClient()

	err := cli.DoHTTPRequest(context.Background(), nil)
	assert.EqualError(t, err, "request param is nil")

	err = cli.DoHTTPRequest(context.Background(), &RequestParam{
		RequestURI: "http://127.0.0.1:1",
		Method:     http.MethodPost,
		Body:       map[string]interface{}{"ch": make(chan int)},
	})
	assert.ErrorContains(t, err, "marshal request body")

	err = cli.DoHTTPRequest(context.Background(), &RequestParam{
		RequestURI: "://bad",
		Method:     http.MethodPost,
	})
	assert.ErrorContains(t, err, "parse url")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	var resp generateResp
	err = cli.DoHTTPRequest(context.Background(), &RequestParam{
		RequestURI: server.URL,
		Method:     http.MethodPost,
		Response:   &resp,
	})
	assert.ErrorContains(t, err, "unmarshal response")
}
