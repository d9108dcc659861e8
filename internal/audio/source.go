package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
)

// maxSourceBytes bounds a single in-memory source.
const maxSourceBytes = 64 << 20

type codec int

const (
	codecMP3 codec = iota
	codecWAV
)

func (c codec) String() string {
	if c == codecWAV {
		return "wav"
	}
	return "mp3"
}

// source is a fully buffered audio file.
type source struct {
	data  []byte
	codec codec
}

// fetchSource reads src into memory. src is an http(s) URL, a file:// URL or a plain path.
func fetchSource(ctx context.Context, client *http.Client, src string) (*source, error) {
	u, err := url.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("invalid source %q: %w", src, err)
	}

	switch u.Scheme {
	case "http", "https":
		return fetchHTTP(ctx, client, u)
	case "file":
		return readFile(u.Path)
	case "":
		return readFile(src)
	default:
		return nil, fmt.Errorf("unsupported source scheme %q", u.Scheme)
	}
}

func fetchHTTP(ctx context.Context, client *http.Client, u *url.URL) (*source, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	data, err := readLimited(resp.Body)
	if err != nil {
		return nil, err
	}
	return &source{data: data, codec: detectCodec(u.Path, resp.Header.Get("Content-Type"), data)}, nil
}

func readFile(p string) (*source, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	defer f.Close()

	data, err := readLimited(f)
	if err != nil {
		return nil, err
	}
	return &source{data: data, codec: detectCodec(p, "", data)}, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSourceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	if len(data) > maxSourceBytes {
		return nil, fmt.Errorf("source larger than %d bytes", maxSourceBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("source is empty")
	}
	return data, nil
}

// detectCodec picks the decoder from the RIFF header, then the content type, then the file extension.
// Anything unrecognized is treated as MP3, the format the backend serves.
func detectCodec(p, contentType string, data []byte) codec {
	if len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")) {
		return codecWAV
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
			return codecWAV
		case "audio/mpeg", "audio/mp3":
			return codecMP3
		}
	}
	if strings.EqualFold(path.Ext(p), ".wav") {
		return codecWAV
	}
	return codecMP3
}

// nopCloser wraps a bytes.Reader to implement io.ReadCloser.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
