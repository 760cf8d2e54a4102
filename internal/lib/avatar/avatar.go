// Package avatar derives default avatars and normalizes uploaded ones.
package avatar

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	DefaultSize = 250
	// DefaultMaxPixels bounds width*height of an upload before it is decoded.
	DefaultMaxPixels = 25_000_000
)

var (
	ErrInvalidImage = errors.New("invalid image")
	ErrTooLarge     = errors.New("image dimensions too large")
)

// Placeholder returns the gravatar URL for email. The same email always
// yields the same URL.
func Placeholder(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))

	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:])
}

type Resizer struct {
	// MaxPixels defaults to DefaultMaxPixels when zero.
	MaxPixels int
}

// Normalize decodes the image at path by its content, crops it to a
// size x size square around its center and writes it back to path in the
// same format. It returns the file extension of that format.
func (r Resizer) Normalize(path string, size int) (string, error) {
	const op = "avatar.Normalize"

	if size <= 0 {
		size = DefaultSize
	}

	maxPixels := r.MaxPixels
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	img, format, err := decode(path, maxPixels)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, ErrInvalidImage, err)
	}

	if err := encode(path, imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos), f); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return extension(format), nil
}

func decode(path string, maxPixels int) (image.Image, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", ErrInvalidImage
	}
	if cfg.Width > maxPixels/cfg.Height {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, "", err
	}

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	return img, format, nil
}

func encode(path string, img image.Image, format imaging.Format) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	return imaging.Encode(out, img, format)
}

func extension(format string) string {
	if format == "jpeg" {
		return ".jpg"
	}

	return "." + format
}

// WithExtension appends ext to name unless name already ends with it or
// with one of its aliases.
func WithExtension(name, ext string) string {
	cur := strings.ToLower(filepath.Ext(name))

	switch {
	case cur == ext,
		ext == ".jpg" && cur == ".jpeg",
		ext == ".tiff" && cur == ".tif":
		return name
	}

	return name + ext
}
