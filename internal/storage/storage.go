// Package storage manages the files under STATIC_FOLDER: profile and plan
// images plus the generated story documents. Uploaded images are
// validated, re-encoded and stored as <id>.png with a small thumbnail
// alongside, so every later read can assume PNG.
package storage

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	// Register decoders for uploaded image formats.
	_ "image/jpeg"

	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"

	"github.com/magictales/backend/internal/apperror"
)

// Subdirectories under the static root.
const (
	ProfileFolder = "profiles"
	PlanFolder    = "plans"
	StoryFolder   = "stories"
)

// thumbDim bounds the longest edge of embedded thumbnails.
const thumbDim = 128

// Store handles the static files referenced by profiles, plans and stories.
type Store interface {
	// SaveImage validates data and writes folder/<id>.png plus a thumbnail.
	SaveImage(folder string, id int64, data []byte) error

	// ImagePath returns the on-disk path of folder/<id>.png.
	ImagePath(folder string, id int64) (string, error)

	// ImageBase64 returns the stored image encoded as base64, preferring
	// the thumbnail. Returns "" when no image exists.
	ImageBase64(folder string, id int64) string

	// StoryFile returns the path of the generated document inside the
	// given story directory.
	StoryFile(storyFolder string) (string, error)
}

// fileStore implements Store on the local filesystem.
type fileStore struct {
	root    string
	maxSize int64
}

// NewStore creates a Store rooted at the static folder.
func NewStore(root string, maxSize int64) Store {
	return &fileStore{root: root, maxSize: maxSize}
}

// SaveImage validates, decodes and re-encodes an uploaded image. The
// re-encode strips whatever the client embedded beyond the pixels.
func (s *fileStore) SaveImage(folder string, id int64, data []byte) error {
	if int64(len(data)) > s.maxSize {
		return apperror.NewBadRequest(fmt.Sprintf("file too large; maximum size is %d MB", s.maxSize/(1024*1024)))
	}
	if !looksLikeImage(data) {
		return apperror.NewBadRequest("file content is not a supported image")
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return apperror.NewBadRequest("file content is not a supported image")
	}

	dir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperror.NewInternal(fmt.Errorf("creating image directory: %w", err))
	}

	path := filepath.Join(dir, imageName(id))
	f, err := os.Create(path)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("creating image file: %w", err))
	}
	if err := png.Encode(f, src); err != nil {
		f.Close()
		os.Remove(path)
		return apperror.NewInternal(fmt.Errorf("encoding image: %w", err))
	}
	if err := f.Close(); err != nil {
		return apperror.NewInternal(fmt.Errorf("closing image file: %w", err))
	}

	if err := s.writeThumbnail(src, dir, id); err != nil {
		slog.Warn("thumbnail generation failed",
			slog.String("folder", folder),
			slog.Int64("id", id),
			slog.Any("error", err),
		)
	}
	return nil
}

// ImagePath returns the absolute path of a stored image, or a not-found
// error when nothing was uploaded for this id.
func (s *fileStore) ImagePath(folder string, id int64) (string, error) {
	path := filepath.Join(s.root, folder, imageName(id))
	if _, err := os.Stat(path); err != nil {
		return "", apperror.NewNotFound("Image not found")
	}
	return path, nil
}

// ImageBase64 prefers the thumbnail so list payloads stay small.
func (s *fileStore) ImageBase64(folder string, id int64) string {
	for _, name := range []string{thumbName(id), imageName(id)} {
		data, err := os.ReadFile(filepath.Join(s.root, folder, name))
		if err == nil {
			return base64.StdEncoding.EncodeToString(data)
		}
	}
	return ""
}

// StoryFile locates the generated document inside the story's directory.
// The generation engine owns the directory layout, so the first regular
// file wins.
func (s *fileStore) StoryFile(storyFolder string) (string, error) {
	if storyFolder == "" {
		return "", apperror.NewNotFound("Story file not found")
	}
	dir := filepath.Join(s.root, StoryFolder, filepath.Base(storyFolder))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", apperror.NewNotFound("Story file not found")
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", apperror.NewNotFound("Story file not found")
}

// writeThumbnail stores a scaled-down copy next to the full image for
// embedding in list responses. Images already within bounds are skipped;
// ImageBase64 falls back to the full file.
func (s *fileStore) writeThumbnail(src image.Image, dir string, id int64) error {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= thumbDim && h <= thumbDim {
		return nil
	}

	// Maintain aspect ratio.
	newW, newH := thumbDim, thumbDim
	if w > h {
		newH = h * thumbDim / w
	} else {
		newW = w * thumbDim / h
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	path := filepath.Join(dir, thumbName(id))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating thumbnail file: %w", err)
	}
	if err := png.Encode(f, dst); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encoding thumbnail: %w", err)
	}
	return f.Close()
}

// looksLikeImage checks the magic bytes for the supported upload formats
// (PNG, JPEG, WebP) before the more expensive decode. Stops non-image
// files with a spoofed Content-Type header at the door.
func looksLikeImage(data []byte) bool {
	switch {
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}):
		return true // PNG
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return true // JPEG
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return true // WebP
	default:
		return false
	}
}

func imageName(id int64) string {
	return fmt.Sprintf("%d.png", id)
}

func thumbName(id int64) string {
	return fmt.Sprintf("%d_thumb.png", id)
}
