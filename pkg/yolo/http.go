package yolo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"ForestWatch/internal/entity"
)

type httpModel struct {
	modelName    string
	inferenceURL string
	client       *http.Client
}

func NewHTTPModel(modelName, inferenceURL string) IModel {
	return &httpModel{
		modelName:    modelName,
		inferenceURL: inferenceURL,
		client:       &http.Client{},
	}
}

// Predict posts the image as multipart form data to the inference service.
func (m *httpModel) Predict(ctx context.Context, imageData []byte, filename string) ([]entity.Prediction, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("model", m.modelName); err != nil {
		return nil, fmt.Errorf("write model field: %w", err)
	}

	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}

	if _, err := io.Copy(part, bytes.NewReader(imageData)); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.inferenceURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrInference, resp.StatusCode)
	}

	return decodePredictions(respBody)
}

func (m *httpModel) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL(m.inferenceURL), nil)
	if err != nil {
		return err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unhealthy status %d", ErrInference, resp.StatusCode)
	}

	return nil
}

func (m *httpModel) Close() error {
	m.client.CloseIdleConnections()
	return nil
}

// healthURL maps http://host/predict to http://host/health.
func healthURL(inferenceURL string) string {
	if idx := strings.LastIndex(inferenceURL, "/predict"); idx != -1 {
		return inferenceURL[:idx] + "/health"
	}
	return strings.TrimSuffix(inferenceURL, "/") + "/health"
}
