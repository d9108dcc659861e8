package audio

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tu "github.com/desertthunder/nowplaying/internal/testing"
)

func wavHeader() []byte {
	return append([]byte("RIFF\x24\x00\x00\x00WAVE"), make([]byte, 32)...)
}

func TestDetectCodec(t *testing.T) {
	tt := []struct {
		name        string
		path        string
		contentType string
		data        []byte
		want        codec
	}{
		{name: "RIFF header wins", path: "song.mp3", contentType: "audio/mpeg", data: wavHeader(), want: codecWAV},
		{name: "wav content type", path: "/stream", contentType: "audio/x-wav; charset=binary", data: []byte("data"), want: codecWAV},
		{name: "mpeg content type", path: "song.wav", contentType: "audio/mpeg", data: []byte("ID3"), want: codecMP3},
		{name: "wav extension", path: "/media/Song.WAV", data: []byte("data"), want: codecWAV},
		{name: "defaults to mp3", path: "/media/song", contentType: "application/octet-stream", data: []byte("ID3"), want: codecMP3},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := detectCodec(tc.path, tc.contentType, tc.data); got != tc.want {
				t.Errorf("detectCodec() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestFetchSource(t *testing.T) {
	ctx := context.Background()

	t.Run("http", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/song.mp3":
				w.Header().Set("Content-Type", "audio/mpeg")
				w.Write([]byte("ID3fake"))
			case "/empty":
				w.WriteHeader(http.StatusOK)
			default:
				http.NotFound(w, r)
			}
		}))
		defer server.Close()

		src, err := fetchSource(ctx, server.Client(), server.URL+"/song.mp3")
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if string(src.data) != "ID3fake" || src.codec != codecMP3 {
			t.Errorf("unexpected source %q (%s)", src.data, src.codec)
		}

		if _, err := fetchSource(ctx, server.Client(), server.URL+"/missing"); err == nil || !strings.Contains(err.Error(), "404") {
			t.Errorf("expected status error, got %v", err)
		}
		if _, err := fetchSource(ctx, server.Client(), server.URL+"/empty"); err == nil {
			t.Error("expected error for empty body")
		}
	})

	t.Run("http read failure", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}

		if _, err := fetchSource(ctx, client, "https://cdn.example.com/a.mp3"); err == nil {
			t.Error("expected read error")
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "ID3")
		}))
		defer server.Close()

		canceled, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := fetchSource(canceled, server.Client(), server.URL); err == nil {
			t.Error("expected error for canceled context")
		}
	})

	t.Run("local file", func(t *testing.T) {
		dir := t.TempDir()
		p := filepath.Join(dir, "clip.wav")
		if err := os.WriteFile(p, wavHeader(), 0o644); err != nil {
			t.Fatal(err)
		}
		tu.AssertFileExists(t, p)

		for _, ref := range []string{p, "file://" + p} {
			src, err := fetchSource(ctx, nil, ref)
			if err != nil {
				t.Fatalf("fetchSource(%q): %v", ref, err)
			}
			if src.codec != codecWAV {
				t.Errorf("expected wav, got %s", src.codec)
			}
			if string(src.data) != tu.MustReadFile(t, p) {
				t.Error("file contents not read whole")
			}
		}
	})

	t.Run("errors", func(t *testing.T) {
		for _, ref := range []string{"ftp://host/a.mp3", filepath.Join(t.TempDir(), "missing.mp3"), "http://[::1"} {
			if _, err := fetchSource(ctx, nil, ref); err == nil {
				t.Errorf("expected error for %q", ref)
			}
		}
	})
}

func TestNopCloser(t *testing.T) {
	if err := (nopCloser{}).Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
