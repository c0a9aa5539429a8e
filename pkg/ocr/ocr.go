package ocr

import (
	"bytes"
	"context"
	"image"
	"image/png"
)

// PageSegModeSingleBlock is tesseract's "assume a single uniform block of text".
const PageSegModeSingleBlock = 6

// IOCR turns an image into raw text.
type IOCR interface {
	Text(ctx context.Context, img image.Image) (string, error)
	Close() error
}

type Config struct {
	// Command is the tesseract binary used by the default engine.
	Command     string
	PageSegMode int
	Language    string
}

func (c Config) withDefaults() Config {
	if c.Command == "" {
		c.Command = "tesseract"
	}
	if c.PageSegMode == 0 {
		c.PageSegMode = PageSegModeSingleBlock
	}
	if c.Language == "" {
		c.Language = "eng"
	}
	return c
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
