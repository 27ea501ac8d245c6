package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/logo.png":
			w.Header().Set("content-type", "image/png; charset=binary")
			_, _ = w.Write([]byte("png-bytes"))
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := New(Options{})

	data, mime, err := Fetch(context.Background(), client, srv.URL+"/logo.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, "image/png", mime)

	_, _, err = Fetch(context.Background(), client, srv.URL+"/missing.png")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode())
}

func TestDetectMIME(t *testing.T) {
	assert.Equal(t, "image/webp", DetectMIME("image/webp", nil))
	assert.Equal(t, "image/png", DetectMIME("", []byte("\x89PNG\r\n\x1a\n0000")))
	assert.Equal(t, "image/jpeg", DetectMIME("application/octet-stream", []byte{0xff, 0xd8, 0xff, 0xe0}))
}
