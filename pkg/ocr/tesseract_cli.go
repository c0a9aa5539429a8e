//go:build !ocr

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"strconv"
	"strings"
)

// Available reports which engine this binary was built with.
const Available = "tesseract-cli"

type tesseractCLI struct {
	cfg Config
}

// New returns an engine that pipes a PNG into the tesseract binary.
// Build with -tags ocr to link libtesseract through gosseract instead.
func New(cfg Config) (IOCR, error) {
	cfg = cfg.withDefaults()
	if _, err := exec.LookPath(cfg.Command); err != nil {
		return nil, fmt.Errorf("tesseract binary %q not found: %w", cfg.Command, err)
	}
	return &tesseractCLI{cfg: cfg}, nil
}

func (t *tesseractCLI) Text(ctx context.Context, img image.Image) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", fmt.Errorf("encode ocr input: %w", err)
	}

	cmd := exec.CommandContext(ctx, t.cfg.Command, t.args()...)
	cmd.Stdin = bytes.NewReader(data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

func (t *tesseractCLI) args() []string {
	return []string{
		"stdin", "stdout",
		"-l", t.cfg.Language,
		"--psm", strconv.Itoa(t.cfg.PageSegMode),
	}
}

func (t *tesseractCLI) Close() error {
	return nil
}
