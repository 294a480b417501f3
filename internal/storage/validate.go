package storage

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UploadKind distinguishes the three upload surfaces, each with its own
// content-type allowlist and size ceiling.
type UploadKind string

const (
	KindImage    UploadKind = "image"
	KindDocument UploadKind = "document"
	KindLogo     UploadKind = "logo"
)

const (
	MaxImageBytes    = 5 << 20
	MaxDocumentBytes = 10 << 20
	MaxLogoBytes     = 2 << 20
)

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var documentTypes = map[string]string{
	"application/pdf": ".pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/msword": ".doc",
}

var logoTypes = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// MaxBytes returns the size ceiling for an upload kind.
func MaxBytes(kind UploadKind) int64 {
	switch kind {
	case KindDocument:
		return MaxDocumentBytes
	case KindLogo:
		return MaxLogoBytes
	default:
		return MaxImageBytes
	}
}

// ValidateUpload checks the declared content type and size against the
// allowlist for the upload kind. The server-side check is authoritative; the
// client's file picker filter is advisory only.
func ValidateUpload(kind UploadKind, contentType string, size int64) error {
	var allowed map[string]string
	switch kind {
	case KindImage:
		allowed = imageTypes
	case KindDocument:
		allowed = documentTypes
	case KindLogo:
		allowed = logoTypes
	default:
		return fmt.Errorf("unknown upload kind: %s", kind)
	}

	// Strip any charset suffix before matching
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if _, ok := allowed[ct]; !ok {
		return fmt.Errorf("content type %s not allowed for %s uploads", contentType, kind)
	}

	if max := MaxBytes(kind); size > max {
		return fmt.Errorf("file too large: %d bytes exceeds the %d byte limit", size, max)
	}
	return nil
}

// ObjectKey builds a collision-free storage key. The original filename only
// contributes its extension; the name itself is never trusted.
func ObjectKey(kind UploadKind, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("%ss/%s/%s%s", kind, time.Now().Format("2006/01"), uuid.NewString(), ext)
}
