package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dreamsnap-booth/internal/media"
)

func sseChunk(t *testing.T, parts ...part) string {
	t.Helper()
	b, err := json.Marshal(generateContentResponse{
		Candidates: []candidate{{Content: content{Role: "model", Parts: parts}}},
	})
	require.NoError(t, err)
	return "data: " + string(b) + "\r\n\r\n"
}

func imagePart(data []byte, mime string) part {
	return part{InlineData: &blob{Data: base64.StdEncoding.EncodeToString(data), MimeType: mime}}
}

func photo() media.Image {
	return media.Image{Data: []byte("selfie"), MimeType: "image/jpeg"}
}

func TestEditImageFirstImageWins(t *testing.T) {
	var captured generateContentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash-image:streamGenerateContent", r.URL.Path)
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))
		assert.Equal(t, "k", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("content-type", "text/event-stream")
		_, _ = io.WriteString(w, sseChunk(t, part{Text: "working on it"}))
		_, _ = io.WriteString(w, sseChunk(t, imagePart([]byte("first"), "image/png")))
		_, _ = io.WriteString(w, sseChunk(t, imagePart([]byte("second"), "image/jpeg")))
	}))
	defer srv.Close()

	c := New(Options{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	img, err := c.EditImage(context.Background(), EditRequest{
		Prompt:      "make it a beach",
		Photo:       photo(),
		Reference:   media.Image{Data: []byte("ref"), MimeType: "image/jpeg"},
		AspectRatio: "9:16",
	})
	require.NoError(t, err)

	assert.Equal(t, []byte("first"), img.Data)
	assert.Equal(t, "image/png", img.MimeType)

	require.Len(t, captured.Contents, 1)
	parts := captured.Contents[0].Parts
	require.Len(t, parts, 3)
	assert.Equal(t, "make it a beach", parts[0].Text)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("selfie")), parts[1].InlineData.Data)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("ref")), parts[2].InlineData.Data)
	assert.Equal(t, []string{"IMAGE", "TEXT"}, captured.GenerationConfig.ResponseModalities)
	assert.Equal(t, "9:16", captured.GenerationConfig.ImageConfig.AspectRatio)
}

func TestEditImageDefaultsMime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, sseChunk(t, imagePart([]byte("img"), "")))
	}))
	defer srv.Close()

	c := New(Options{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	img, err := c.EditImage(context.Background(), EditRequest{Prompt: "p", Photo: photo()})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MimeType)
}

func TestEditImageNoImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, sseChunk(t, part{Text: "I cannot do that"}))
	}))
	defer srv.Close()

	c := New(Options{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	_, err := c.EditImage(context.Background(), EditRequest{Prompt: "p", Photo: photo()})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoImage)
	assert.True(t, strings.HasPrefix(UserMessage(err), "Failed to generate image: no image produced"))
}

func TestEditImageRetriesWithoutImageConfig(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateContentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if atomic.AddInt32(&calls, 1) == 1 {
			assert.NotNil(t, req.GenerationConfig.ImageConfig)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"code":400,"message":"Invalid JSON payload received. Unknown name \"imageConfig\" at 'generation_config'"}}`)
			return
		}
		assert.Nil(t, req.GenerationConfig.ImageConfig)
		_, _ = io.WriteString(w, sseChunk(t, imagePart([]byte("ok"), "image/png")))
	}))
	defer srv.Close()

	c := New(Options{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	img, err := c.EditImage(context.Background(), EditRequest{Prompt: "p", Photo: photo(), AspectRatio: "9:16"})
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), img.Data)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestEditImageAPIErrors(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   string
	}{
		{http.StatusUnauthorized, `{"error":{"code":401,"message":"bad credentials"}}`, MsgAuth},
		{http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key."}}`, MsgAuth},
		{http.StatusTooManyRequests, `{"error":{"code":429,"message":"Resource has been exhausted (e.g. check quota)."}}`, MsgRateLimit},
		{http.StatusForbidden, `{"error":{"code":403,"message":"The caller does not have permission"}}`, MsgPermission},
		{http.StatusInternalServerError, `{"error":{"code":500,"message":"internal"}}`, "Failed to generate image: gemini API 500: internal"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := New(Options{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
			_, err := c.EditImage(context.Background(), EditRequest{Prompt: "p", Photo: photo()})
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode())
			assert.Equal(t, tt.want, UserMessage(err))
		})
	}
}

func TestEditImageNotConfigured(t *testing.T) {
	_, err := New(Options{}).EditImage(context.Background(), EditRequest{Photo: photo()})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, MsgAuth, UserMessage(err))
}

func TestAccumulatorStates(t *testing.T) {
	var acc Accumulator
	assert.Equal(t, StreamPending, acc.State())

	_, err := acc.Finish()
	assert.ErrorIs(t, err, ErrNoImage)
	assert.Equal(t, StreamEndedWithoutImage, acc.State())

	var acc2 Accumulator
	found, err := acc2.Add(generateContentResponse{Candidates: []candidate{{Content: content{Parts: []part{imagePart([]byte("x"), "image/webp")}}}}})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, StreamImageFound, acc2.State())
}
