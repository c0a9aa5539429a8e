//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

const Available = "gosseract"

type gosseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

func New(cfg Config) (IOCR, error) {
	cfg = cfg.withDefaults()

	client := gosseract.NewClient()
	if err := client.SetLanguage(cfg.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("set ocr language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(cfg.PageSegMode)); err != nil {
		client.Close()
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}

	return &gosseractEngine{client: client}, nil
}

func (g *gosseractEngine) Text(ctx context.Context, img image.Image) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", fmt.Errorf("encode ocr input: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("load ocr input: %w", err)
	}
	return g.client.Text()
}

func (g *gosseractEngine) Close() error {
	return g.client.Close()
}
