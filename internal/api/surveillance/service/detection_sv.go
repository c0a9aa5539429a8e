package surveillanceService

import (
	"ForestWatch/internal/api/surveillance"
	"ForestWatch/internal/entity"
	"ForestWatch/pkg/annotate"
	"ForestWatch/pkg/log"
	"context"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
)

// Detect reads imagePath, runs the model on it and keeps only person boxes
// scoring at least the configured threshold. The decoded image is returned
// so later steps do not read the file again.
func (s *surveillanceService) Detect(ctx context.Context, imagePath string) (entity.DetectionResult, image.Image, error) {
	data, img, err := s.utils.ReadImage(imagePath)
	if err != nil {
		log.WithRunID(s.log, ctx).WithFields(logrus.Fields{
			"path":  imagePath,
			"error": err.Error(),
		}).Error("Error reading image: " + imagePath)
		return entity.NotProcessed(), nil, fmt.Errorf("%w: %s: %w", surveillance.ErrImageRead, imagePath, err)
	}

	predictions, err := s.model.Predict(ctx, data, imagePath)
	if err != nil {
		log.WithRunID(s.log, ctx).WithFields(logrus.Fields{
			"path":  imagePath,
			"error": err.Error(),
		}).Error("Model prediction failed")
		return entity.NotProcessed(), nil, fmt.Errorf("%w: %w", surveillance.ErrModelPredict, err)
	}

	return FilterPersons(predictions, s.threshold), img, nil
}

// FilterPersons keeps predictions of the person class with confidence >= threshold.
// Coordinates are truncated to integers.
func FilterPersons(predictions []entity.Prediction, threshold float64) entity.DetectionResult {
	result := entity.DetectionResult{
		Processed: true,
		Boxes:     []entity.BoundingBox{},
	}

	for _, p := range predictions {
		if p.ClassID != entity.PersonClassID || p.Confidence < threshold {
			continue
		}
		result.Boxes = append(result.Boxes, entity.BoundingBox{
			Label:      entity.PersonLabel,
			Confidence: p.Confidence,
			X1:         int(p.X1),
			Y1:         int(p.Y1),
			X2:         int(p.X2),
			Y2:         int(p.Y2),
		})
	}

	result.PersonDetected = len(result.Boxes) > 0
	return result
}

func (s *surveillanceService) Annotate(img image.Image, boxes []entity.BoundingBox) image.Image {
	drawn := make([]annotate.Box, 0, len(boxes))
	for _, b := range boxes {
		drawn = append(drawn, annotate.Box{Rect: b.Rect(), Label: entity.PersonLabel})
	}
	return annotate.Draw(img, drawn)
}
