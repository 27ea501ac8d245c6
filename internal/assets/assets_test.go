package assets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSiteRelativePath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "previewImage"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "previewImage", "1.Beach.jpg"), []byte{0xff, 0xd8, 0xff}, 0o644))

	l := New(Options{Dir: dir})
	img, err := l.Load(context.Background(), "/previewImage/1.Beach.jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MimeType)
	assert.Len(t, img.Data, 3)

	_, err = l.Load(context.Background(), "/previewImage/missing.jpg")
	assert.Error(t, err)
}

func TestLoadURLIsCached(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("content-type", "image/png")
		_, _ = w.Write([]byte("logo"))
	}))
	defer srv.Close()

	l := New(Options{HTTPClient: srv.Client()})
	for i := 0; i < 3; i++ {
		img, err := l.Load(context.Background(), srv.URL+"/logo.png")
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.MimeType)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))

	l.Flush()
	_, err := l.Load(context.Background(), srv.URL+"/logo.png")
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestLoadEmptyRef(t *testing.T) {
	_, err := New(Options{}).Load(context.Background(), " ")
	assert.Error(t, err)
}
