package storage

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		want     bool
	}{
		{"report.pdf", "application/pdf", true},
		{"archive.ZIP", "application/zip", true},
		{"clip.mp4", "video/mp4", true},
		{"voice.unknown", "audio/webm", true},
		{"stream.unknown", "video/x-thing", true},
		{"script.sh", "text/x-shellscript", false},
		{"binary.exe", "application/octet-stream", false},
	}
	for _, tt := range tests {
		if got := Allowed(tt.name, tt.mimeType); got != tt.want {
			t.Errorf("Allowed(%q, %q) = %v, want %v", tt.name, tt.mimeType, got, tt.want)
		}
	}
}

func TestAllowedImage(t *testing.T) {
	if !AllowedImage("logo.PNG", "image/png") {
		t.Error("png logo should be accepted")
	}
	if !AllowedImage("logo.bin", "image/webp") {
		t.Error("image mime type should be accepted regardless of extension")
	}
	if AllowedImage("logo.pdf", "application/pdf") {
		t.Error("pdf should not be accepted as a logo")
	}
}

func TestUniqueName(t *testing.T) {
	a := UniqueName("submission", "photo.JPG")
	b := UniqueName("submission", "photo.JPG")

	if a == b {
		t.Error("two generated names should differ")
	}
	if !strings.HasPrefix(a, "submission-") {
		t.Errorf("name %q missing prefix", a)
	}
	if !strings.HasSuffix(a, ".jpg") {
		t.Errorf("name %q should keep a lowercased extension", a)
	}
}

func uploadHeader(t *testing.T, filename, mimeType, content string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="files"; filename="`+filename+`"`)
	h.Set("Content-Type", mimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart() error = %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	w.Close()

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("ReadForm() error = %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["files"][0]
}

func TestSaveAndDelete(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	header := uploadHeader(t, "notes.txt", "text/plain", "weekly status")
	att, err := store.Save("submission", header)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if att.OriginalName != "notes.txt" {
		t.Errorf("OriginalName = %s", att.OriginalName)
	}
	if att.Size != int64(len("weekly status")) {
		t.Errorf("Size = %d", att.Size)
	}
	if att.Path != "/uploads/"+att.Filename {
		t.Errorf("Path = %s", att.Path)
	}

	data, err := os.ReadFile(filepath.Join(store.Dir(), att.Filename))
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(data) != "weekly status" {
		t.Errorf("stored content = %q", data)
	}

	if err := store.Delete(att); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), att.Filename)); !os.IsNotExist(err) {
		t.Error("file should be gone after Delete")
	}
	// Deleting again is a no-op.
	if err := store.Delete(att); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestSaveRejectsDisallowedType(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	header := uploadHeader(t, "payload.exe", "application/octet-stream", "MZ")
	if _, err := store.Save("submission", header); !errors.Is(err, ErrFileType) {
		t.Errorf("Save() error = %v, want ErrFileType", err)
	}

	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Error("rejected upload should leave nothing on disk")
	}
}

func TestSaveLogoRejectsNonImage(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	header := uploadHeader(t, "contract.pdf", "application/pdf", "%PDF-1.4")
	if _, err := store.SaveLogo(header); !errors.Is(err, ErrFileType) {
		t.Errorf("SaveLogo() error = %v, want ErrFileType", err)
	}
}
