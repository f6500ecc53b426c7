package transcription

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaDownloaderUsesBasicAuthAndStripsJSON(t *testing.T) {
	var gotPath, gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		w.Header().Set("Content-Type", "audio/ogg")
		_, _ = w.Write([]byte("OggS-voice"))
	}))
	defer srv.Close()

	d := NewMediaDownloader("AC123", "token", 0, srv.Client())
	audio, err := d.Download(context.Background(), srv.URL+"/Media/ME1.json", "")

	require.NoError(t, err)
	assert.Equal(t, "/Media/ME1", gotPath)
	assert.Equal(t, "AC123", gotUser)
	assert.Equal(t, "token", gotPass)
	assert.Equal(t, []byte("OggS-voice"), audio.Data)
	assert.Equal(t, "audio/ogg", audio.MIMEType)
}

func TestMediaDownloaderPrefersDeclaredType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("data"))
	}))
	defer srv.Close()

	audio, err := NewMediaDownloader("", "", 0, srv.Client()).Download(context.Background(), srv.URL, "audio/mpeg")
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", audio.MIMEType)
}

func TestMediaDownloaderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		case "/empty":
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	d := NewMediaDownloader("", "", 32, srv.Client())
	for _, path := range []string{"/missing", "/big", "/empty"} {
		_, err := d.Download(context.Background(), srv.URL+path, "audio/ogg")
		assert.Error(t, err, path)
	}

	_, err := d.Download(context.Background(), "  ", "audio/ogg")
	assert.Error(t, err)
}
