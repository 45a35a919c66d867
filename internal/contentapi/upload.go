package contentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
)

// MaxUploadSize mirrors the backend's upload limit.
const MaxUploadSize = 10 << 20

// UploadResult is the response of the upload endpoint.
type UploadResult struct {
	URL string `json:"url"`
}

// Upload sends a file as the multipart field "file" and returns the public
// URL the backend assigned to it.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, fmt.Errorf("file too large (max %d MB)", MaxUploadSize>>20)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filepath.Base(filename))))
	header.Set("Content-Type", detectContentType(filename, data))
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write form part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	resp, err := c.send(ctx, &request{
		method:      http.MethodPost,
		path:        "/upload",
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
		auth:        true,
	})
	if err != nil {
		return nil, err
	}

	var result UploadResult
	if err := json.Unmarshal(resp.body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if result.URL == "" {
		return nil, fmt.Errorf("upload response missing url")
	}
	return &result, nil
}

// detectContentType prefers the file extension and falls back to content
// sniffing. The backend rejects parts without an image or PDF type.
func detectContentType(filename string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			return mt
		}
	}
	return http.DetectContentType(data)
}

func escapeQuotes(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
