package matrix

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"maunium.net/go/mautrix/event"

	"github.com/3n8/openclaw-plugins/internal/actionerr"
)

const defaultMaxMediaBytes = 20 << 20

type mediaFile struct {
	data        []byte
	name        string
	contentType string
}

func (m mediaFile) msgType() event.MessageType {
	major, _, _ := strings.Cut(m.contentType, "/")
	switch major {
	case "image":
		return event.MsgImage
	case "video":
		return event.MsgVideo
	case "audio":
		return event.MsgAudio
	default:
		return event.MsgFile
	}
}

func isRemoteMedia(ref string) bool {
	lower := strings.ToLower(strings.TrimSpace(ref))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func (c *Client) loadMedia(ctx context.Context, ref string, roots []string) (mediaFile, error) {
	if isRemoteMedia(ref) {
		return c.downloadMedia(ctx, strings.TrimSpace(ref))
	}
	return readLocalMedia(ref, roots, c.maxMediaBytes)
}

func (c *Client) downloadMedia(ctx context.Context, url string) (mediaFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return mediaFile{}, &actionerr.InvalidParameterError{Field: "mediaUrl", Reason: err.Error()}
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return mediaFile{}, fmt.Errorf("download media: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return mediaFile{}, fmt.Errorf("media download failed with status %d", res.StatusCode)
	}
	data, err := readAllLimited(res.Body, c.maxMediaBytes)
	if err != nil {
		return mediaFile{}, err
	}
	name := path.Base(req.URL.Path)
	if name == "." || name == "/" {
		name = "file"
	}
	return mediaFile{
		data:        data,
		name:        name,
		contentType: detectContentType(name, res.Header.Get("Content-Type"), data),
	}, nil
}

// readLocalMedia only reads files under one of roots.
func readLocalMedia(ref string, roots []string, limit int64) (mediaFile, error) {
	local := strings.TrimPrefix(ref, "file://")
	if strings.TrimSpace(local) == "" {
		return mediaFile{}, &actionerr.MissingParameterError{Field: "mediaUrl"}
	}
	abs, err := filepath.Abs(local)
	if err != nil {
		return mediaFile{}, &actionerr.InvalidParameterError{Field: "mediaUrl", Reason: err.Error()}
	}
	if !withinRoots(abs, roots) {
		return mediaFile{}, &actionerr.InvalidParameterError{Field: "mediaUrl", Reason: "local path is outside mediaLocalRoots"}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return mediaFile{}, &actionerr.InvalidParameterError{Field: "mediaUrl", Reason: err.Error()}
	}
	if info.IsDir() {
		return mediaFile{}, &actionerr.InvalidParameterError{Field: "mediaUrl", Reason: "path is a directory"}
	}
	if info.Size() > limit {
		return mediaFile{}, &actionerr.InvalidParameterError{Field: "mediaUrl", Reason: fmt.Sprintf("file exceeds %d bytes", limit)}
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return mediaFile{}, fmt.Errorf("read media %s: %w", abs, err)
	}
	name := filepath.Base(abs)
	return mediaFile{data: data, name: name, contentType: detectContentType(name, "", data)}, nil
}

func withinRoots(abs string, roots []string) bool {
	for _, root := range roots {
		if strings.TrimSpace(root) == "" {
			continue
		}
		rootAbs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(rootAbs, abs)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return true
		}
	}
	return false
}

func detectContentType(name, header string, data []byte) string {
	if mediaType, _, err := mime.ParseMediaType(header); err == nil && mediaType != "application/octet-stream" {
		return mediaType
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		mediaType, _, _ := mime.ParseMediaType(byExt)
		return mediaType
	}
	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return sniffed
}

func readAllLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("media exceeds %d bytes", limit)
	}
	return data, nil
}
