package storage

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/magictales/backend/internal/apperror"
)

func newTestStore(t *testing.T) (Store, string) {
	t.Helper()
	root := t.TempDir()
	return NewStore(root, 1024*1024), root
}

// encodeImage renders a w x h test image in the given format.
func encodeImage(t *testing.T, w, h int, format string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	default:
		t.Fatalf("unknown format %q", format)
	}
	if err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func assertAppError(t *testing.T, err error, wantCode int) {
	t.Helper()
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error = %v, want *apperror.AppError", err)
	}
	if appErr.Code != wantCode {
		t.Fatalf("error code = %d, want %d", appErr.Code, wantCode)
	}
}

func TestSaveImage_PNGRoundtrip(t *testing.T) {
	store, root := newTestStore(t)

	if err := store.SaveImage(ProfileFolder, 7, encodeImage(t, 16, 16, "png")); err != nil {
		t.Fatalf("SaveImage() error = %v", err)
	}

	path, err := store.ImagePath(ProfileFolder, 7)
	if err != nil {
		t.Fatalf("ImagePath() error = %v", err)
	}
	if path != filepath.Join(root, ProfileFolder, "7.png") {
		t.Errorf("ImagePath() = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading stored image: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("stored file is not valid PNG: %v", err)
	}
}

func TestSaveImage_JPEGStoredAsPNG(t *testing.T) {
	store, root := newTestStore(t)

	if err := store.SaveImage(PlanFolder, 3, encodeImage(t, 16, 16, "jpeg")); err != nil {
		t.Fatalf("SaveImage() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, PlanFolder, "3.png"))
	if err != nil {
		t.Fatalf("reading stored image: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("stored file is not valid PNG: %v", err)
	}
}

func TestSaveImage_RejectsNonImage(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.SaveImage(ProfileFolder, 1, []byte("#!/bin/sh\nrm -rf /\n"))
	assertAppError(t, err, http.StatusBadRequest)
}

func TestSaveImage_RejectsSpoofedMagicBytes(t *testing.T) {
	store, _ := newTestStore(t)

	// A PNG signature followed by junk must fail at decode.
	data := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, []byte("not really pixels")...)
	err := store.SaveImage(ProfileFolder, 1, data)
	assertAppError(t, err, http.StatusBadRequest)
}

func TestSaveImage_RejectsOversize(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root, 64) // tiny limit

	err := store.SaveImage(ProfileFolder, 1, encodeImage(t, 64, 64, "png"))
	assertAppError(t, err, http.StatusBadRequest)
}

func TestSaveImage_WritesThumbnailForLargeImages(t *testing.T) {
	store, root := newTestStore(t)

	if err := store.SaveImage(ProfileFolder, 9, encodeImage(t, 300, 200, "png")); err != nil {
		t.Fatalf("SaveImage() error = %v", err)
	}

	f, err := os.Open(filepath.Join(root, ProfileFolder, "9_thumb.png"))
	if err != nil {
		t.Fatalf("thumbnail missing: %v", err)
	}
	defer f.Close()

	thumb, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decoding thumbnail: %v", err)
	}
	b := thumb.Bounds()
	if b.Dx() > 128 || b.Dy() > 128 {
		t.Errorf("thumbnail is %dx%d, want both sides <= 128", b.Dx(), b.Dy())
	}
}

func TestImageBase64(t *testing.T) {
	store, _ := newTestStore(t)

	if got := store.ImageBase64(ProfileFolder, 404); got != "" {
		t.Errorf("ImageBase64() for missing image = %q, want empty", got)
	}

	if err := store.SaveImage(ProfileFolder, 5, encodeImage(t, 16, 16, "png")); err != nil {
		t.Fatalf("SaveImage() error = %v", err)
	}

	encoded := store.ImageBase64(ProfileFolder, 5)
	if encoded == "" {
		t.Fatal("ImageBase64() = empty for stored image")
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("result is not valid base64: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(raw)); err != nil {
		t.Errorf("decoded payload is not PNG: %v", err)
	}
}

func TestImagePath_Missing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.ImagePath(PlanFolder, 12345)
	assertAppError(t, err, http.StatusNotFound)
}

func TestStoryFile(t *testing.T) {
	store, root := newTestStore(t)

	dir := filepath.Join(root, StoryFolder, "session-abc")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "story.pdf")
	if err := os.WriteFile(want, []byte("%PDF-1.4"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := store.StoryFile("session-abc")
	if err != nil {
		t.Fatalf("StoryFile() error = %v", err)
	}
	if got != want {
		t.Errorf("StoryFile() = %q, want %q", got, want)
	}
}

func TestStoryFile_MissingOrEmpty(t *testing.T) {
	store, root := newTestStore(t)

	_, err := store.StoryFile("")
	assertAppError(t, err, http.StatusNotFound)

	_, err = store.StoryFile("nope")
	assertAppError(t, err, http.StatusNotFound)

	// Directory exists but holds no file yet.
	if err := os.MkdirAll(filepath.Join(root, StoryFolder, "empty"), 0755); err != nil {
		t.Fatal(err)
	}
	_, err = store.StoryFile("empty")
	assertAppError(t, err, http.StatusNotFound)
}

func TestStoryFile_StripsPathTraversal(t *testing.T) {
	store, root := newTestStore(t)

	dir := filepath.Join(root, StoryFolder, "passwd")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "doc.txt"), []byte("ok"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := store.StoryFile("../../etc/passwd")
	if err != nil {
		t.Fatalf("StoryFile() error = %v", err)
	}
	if got != filepath.Join(dir, "doc.txt") {
		t.Errorf("StoryFile() = %q, escaped the story root", got)
	}
}
