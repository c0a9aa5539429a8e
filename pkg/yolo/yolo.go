package yolo

import (
	"context"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"ForestWatch/internal/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrInference = errors.New("inference service error")

// IModel is the black-box object detector: image bytes in, raw boxes out.
type IModel interface {
	Predict(ctx context.Context, imageData []byte, filename string) ([]entity.Prediction, error)
	CheckHealth(ctx context.Context) error
	Close() error
}

type Config struct {
	ModelName    string
	InferenceURL string
	Transport    string
}

const (
	TransportHTTP      = "http"
	TransportWebSocket = "websocket"
)

func New(cfg Config) (IModel, error) {
	switch cfg.Transport {
	case "", TransportHTTP:
		return NewHTTPModel(cfg.ModelName, cfg.InferenceURL), nil
	case TransportWebSocket:
		return NewWebSocketModel(cfg.ModelName, cfg.InferenceURL), nil
	default:
		return nil, fmt.Errorf("unknown detector transport %q", cfg.Transport)
	}
}

type predictResponse struct {
	Detections []entity.Prediction `json:"detections"`
	Error      string              `json:"error,omitempty"`
}

func decodePredictions(body []byte) ([]entity.Prediction, error) {
	var result predictResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrInference, result.Error)
	}
	return result.Detections, nil
}
