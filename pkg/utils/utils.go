package utils

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/oklog/ulid/v2"
)

var (
	ErrNotAnImage   = errors.New("file is not a supported image")
	ErrFileTooLarge = errors.New("file size exceeds limit")
)

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	IsImageFile(path string) bool
	ReadImage(path string) ([]byte, image.Image, error)
	SaveImage(img image.Image, path string) error
}

type utils struct {
	maxFileSize int64
}

// New reads images of any size.
func New() IUtils {
	return &utils{}
}

// NewWithMaxFileSize refuses to read images larger than maxFileSize bytes.
// Zero or less means no limit.
func NewWithMaxFileSize(maxFileSize int64) IUtils {
	return &utils{
		maxFileSize: maxFileSize,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// IsImageFile reports whether path has a .jpg, .jpeg or .png extension, in any case.
func (u *utils) IsImageFile(path string) bool {
	return IsImageFile(path)
}

func IsImageFile(path string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ReadImage returns the raw bytes of the file at path together with the decoded image.
func (u *utils) ReadImage(path string) ([]byte, image.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	if info.IsDir() {
		return nil, nil, fmt.Errorf("%s: %w", path, ErrNotAnImage)
	}
	if u.maxFileSize > 0 && info.Size() > u.maxFileSize {
		return nil, nil, fmt.Errorf("%s is %d bytes: %w", path, info.Size(), ErrFileTooLarge)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}

	return data, img, nil
}

// SaveImage encodes img using the format implied by path's extension.
func (u *utils) SaveImage(img image.Image, path string) error {
	if !IsImageFile(path) {
		return fmt.Errorf("%s: %w", path, ErrNotAnImage)
	}
	return imaging.Save(img, path, imaging.JPEGQuality(95))
}
