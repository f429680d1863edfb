// Package storage keeps uploaded car images on the local filesystem.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// MaxImageBytes bounds a single upload.
const MaxImageBytes = 5 << 20

var (
	ErrUnsupportedType = errors.New("storage: unsupported image type")
	ErrTooLarge        = errors.New("storage: image too large")
)

var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// ImageStore writes images under Root/cars/<car id>/ and serves them below URLPrefix.
type ImageStore struct {
	Root      string
	URLPrefix string
}

func NewImageStore(root, urlPrefix string) *ImageStore {
	return &ImageStore{Root: root, URLPrefix: strings.TrimRight(urlPrefix, "/")}
}

// Save stores r for the car and returns the path relative to Root.
// The uploaded filename only contributes its extension.
func (s *ImageStore) Save(carID uint, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", ErrUnsupportedType
	}
	rel := path.Join("cars", strconv.FormatUint(uint64(carID), 10), uuid.NewString()+ext)
	full := filepath.Join(s.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(r, MaxImageBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > MaxImageBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(full)
		return "", err
	}
	return rel, nil
}

// URL returns the public URL of a stored image, or "" when there is none.
func (s *ImageStore) URL(rel string) string {
	if rel == "" {
		return ""
	}
	return s.URLPrefix + "/" + rel
}

// Delete removes a stored image. Missing files are not an error.
func (s *ImageStore) Delete(rel string) error {
	if rel == "" {
		return nil
	}
	clean := path.Clean("/" + rel)[1:]
	if err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(clean))); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
