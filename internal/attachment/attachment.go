// Package attachment turns uploaded files into attachments owned by a
// document. Nothing here persists anything: the returned attachments are saved
// together with their document in one store transaction.
package attachment

import (
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/DocFlow/internal/model"
)

// Upload is one file as received from the client. Content is read once.
type Upload struct {
	FileName    string
	ContentType string
	Content     io.Reader
}

// SanitizeFileName normalises separators and resolves "." and "x/.." segments.
// Any ".." left afterwards, control characters, absolute names and empty names
// are rejected.
func SanitizeFileName(raw string) (string, error) {
	name := strings.TrimSpace(strings.ReplaceAll(raw, `\`, "/"))
	if name == "" {
		return "", fmt.Errorf("%w: empty file name", model.ErrInvalidAttachmentName)
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return "", fmt.Errorf("%w: control character in %q", model.ErrInvalidAttachmentName, raw)
	}
	if strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: absolute path %q", model.ErrInvalidAttachmentName, raw)
	}
	cleaned := path.Clean(name)
	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("%w: file name contains invalid path sequence %q", model.ErrInvalidAttachmentName, raw)
	}
	if cleaned == "." || strings.HasSuffix(name, "/") {
		return "", fmt.Errorf("%w: %q does not name a file", model.ErrInvalidAttachmentName, raw)
	}
	return cleaned, nil
}

// Builder creates attachments. now is injectable for tests.
type Builder struct {
	now func() time.Time
}

func NewBuilder(now func() time.Time) *Builder {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Builder{now: now}
}

// Build processes uploads in order. The first bad name or failed read aborts
// the whole batch and no attachment is returned.
func (b *Builder) Build(uploads []Upload) ([]model.Attachment, error) {
	out := make([]model.Attachment, 0, len(uploads))
	for _, up := range uploads {
		name, err := SanitizeFileName(up.FileName)
		if err != nil {
			return nil, err
		}
		if up.Content == nil {
			return nil, fmt.Errorf("%w: no content for %q", model.ErrInvalidInput, name)
		}
		data, err := io.ReadAll(up.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: could not read %q: %w", model.ErrStorageFailure, name, err)
		}
		out = append(out, model.Attachment{
			ID:          uuid.NewString(),
			FileName:    name,
			ContentType: up.ContentType,
			Data:        data,
			CreatedAt:   b.now(),
		})
	}
	return out, nil
}

// DownloadURI is the stable reference for an attachment id.
func DownloadURI(prefix, id string) string {
	return prefix + id
}

// Results maps freshly built attachments to upload results, preserving order.
func Results(prefix string, atts []model.Attachment) []model.UploadResult {
	out := make([]model.UploadResult, 0, len(atts))
	for _, a := range atts {
		out = append(out, model.UploadResult{
			ID:          a.ID,
			FileName:    a.FileName,
			DownloadURI: DownloadURI(prefix, a.ID),
			ContentType: a.ContentType,
			Size:        a.Size(),
		})
	}
	return out
}
