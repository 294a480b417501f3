package storage_test

import (
	"strings"
	"testing"

	"real-estate-cms/internal/storage"
)

func TestValidateUpload_Allowlists(t *testing.T) {
	cases := []struct {
		name        string
		kind        storage.UploadKind
		contentType string
		size        int64
		wantErr     bool
	}{
		{"jpeg image ok", storage.KindImage, "image/jpeg", 1 << 20, false},
		{"webp image ok", storage.KindImage, "image/webp", 1 << 20, false},
		{"charset suffix stripped", storage.KindImage, "image/png; charset=binary", 1 << 20, false},
		{"gif rejected", storage.KindImage, "image/gif", 1 << 20, true},
		{"pdf document ok", storage.KindDocument, "application/pdf", 4 << 20, false},
		{"docx document ok", storage.KindDocument, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", 1 << 20, false},
		{"image as document rejected", storage.KindDocument, "image/jpeg", 1 << 20, true},
		{"svg logo ok", storage.KindLogo, "image/svg+xml", 100 << 10, false},
		{"svg property image rejected", storage.KindImage, "image/svg+xml", 100 << 10, true},
		{"pdf logo rejected", storage.KindLogo, "application/pdf", 100 << 10, true},
		{"unknown kind rejected", storage.UploadKind("video"), "video/mp4", 1 << 20, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := storage.ValidateUpload(tc.kind, tc.contentType, tc.size)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ValidateUpload(%s, %s) err=%v, wantErr=%v", tc.kind, tc.contentType, err, tc.wantErr)
			}
		})
	}
}

func TestValidateUpload_SizeCeilings(t *testing.T) {
	if err := storage.ValidateUpload(storage.KindImage, "image/jpeg", storage.MaxImageBytes); err != nil {
		t.Fatalf("size at the limit should pass: %v", err)
	}
	if err := storage.ValidateUpload(storage.KindImage, "image/jpeg", storage.MaxImageBytes+1); err == nil {
		t.Fatalf("size over the limit should fail")
	}
	if err := storage.ValidateUpload(storage.KindLogo, "image/png", storage.MaxLogoBytes+1); err == nil {
		t.Fatalf("logo ceiling is lower than the image ceiling")
	}
	if err := storage.ValidateUpload(storage.KindDocument, "application/pdf", storage.MaxDocumentBytes+1); err == nil {
		t.Fatalf("document over the limit should fail")
	}
}

func TestObjectKey(t *testing.T) {
	key := storage.ObjectKey(storage.KindImage, "Sea View Villa.JPG")
	if !strings.HasPrefix(key, "images/") {
		t.Fatalf("key should be namespaced by kind: %s", key)
	}
	if !strings.HasSuffix(key, ".jpg") {
		t.Fatalf("extension should be kept and lowercased: %s", key)
	}
	if strings.Contains(key, "Sea View Villa") {
		t.Fatalf("original filename must not leak into the key: %s", key)
	}

	// No extension falls back to .bin
	if key := storage.ObjectKey(storage.KindDocument, "brochure"); !strings.HasSuffix(key, ".bin") {
		t.Fatalf("missing extension should fall back to .bin: %s", key)
	}

	// Two uploads of the same file never collide
	a := storage.ObjectKey(storage.KindImage, "a.png")
	b := storage.ObjectKey(storage.KindImage, "a.png")
	if a == b {
		t.Fatalf("keys must be unique per upload: %s", a)
	}
}
