package surveillanceService

import (
	"ForestWatch/internal/api/surveillance"
	"ForestWatch/internal/entity"
	contextPkg "ForestWatch/pkg/context"
	"ForestWatch/pkg/log"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// ProcessFile runs one image through detect, annotate, timestamp, persist and
// notify, in that order. A run with no person stops after detection. A failed
// save stops the run before anything is sent.
func (s *surveillanceService) ProcessFile(ctx context.Context, imagePath string) (entity.ProcessResult, error) {
	runID, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		runID = "unknown"
	}
	ctx = contextPkg.WithRunID(ctx, runID)

	result := entity.ProcessResult{
		RunID:     runID,
		ImagePath: imagePath,
		Timestamp: entity.DefaultTimestamp(),
		LastState: entity.StateIdle,
	}
	s.processed.Add(1)
	s.setLastImage(imagePath)

	s.enter(ctx, &result, entity.StateDetecting)
	detection, img, err := s.Detect(ctx, imagePath)
	result.Detection = detection
	if err != nil {
		s.failed.Add(1)
		return result, err
	}

	if !detection.PersonDetected {
		s.enter(ctx, &result, entity.StateNotDetected)
		log.WithRunID(s.log, ctx).Info("No person detected in " + imagePath)
		return result, nil
	}
	s.enter(ctx, &result, entity.StateDetected)
	s.personDetected.Add(1)

	s.enter(ctx, &result, entity.StateAnnotating)
	annotated := s.Annotate(img, detection.Boxes)

	s.enter(ctx, &result, entity.StateExtractingTimestamp)
	result.Timestamp = s.ExtractTimestamp(ctx, annotated)

	s.enter(ctx, &result, entity.StatePersisting)
	outputPath := filepath.Join(s.outputDir, filepath.Base(imagePath))
	if err := s.utils.SaveImage(annotated, outputPath); err != nil {
		s.failed.Add(1)
		log.WithRunID(s.log, ctx).WithFields(logrus.Fields{
			"path":  outputPath,
			"error": err.Error(),
		}).Error("Failed to save annotated image")
		return result, fmt.Errorf("%w: %s: %w", surveillance.ErrSaveAnnotated, outputPath, err)
	}
	result.OutputPath = outputPath
	log.WithRunID(s.log, ctx).Info(fmt.Sprintf("Person detected: %s. Saved to %s", imagePath, outputPath))

	s.archiveImage(ctx, outputPath)

	s.enter(ctx, &result, entity.StateNotifying)
	messageID, err := s.Notify(ctx, imagePath, result.Timestamp.Date, result.Timestamp.Time)
	if err != nil {
		s.failed.Add(1)
		return result, err
	}
	result.MessageID = messageID
	s.notified.Add(1)
	s.setLastAlert(time.Now())

	s.publishAlert(ctx, entity.Alert{
		RunID:      runID,
		ImagePath:  imagePath,
		OutputPath: outputPath,
		Date:       result.Timestamp.Date,
		Time:       result.Timestamp.Time,
		MessageID:  messageID,
		Boxes:      detection.Boxes,
	})

	return result, nil
}

func (s *surveillanceService) enter(ctx context.Context, result *entity.ProcessResult, state entity.PipelineState) {
	log.WithRunID(s.log, ctx).WithFields(logrus.Fields{
		"from": result.LastState,
		"to":   state,
	}).Debug("Pipeline state changed")
	result.LastState = state
}

func (s *surveillanceService) setLastImage(path string) {
	s.mu.Lock()
	s.lastImage = path
	s.mu.Unlock()
}

func (s *surveillanceService) setLastAlert(t time.Time) {
	s.mu.Lock()
	s.lastAlertAt = t
	s.mu.Unlock()
}
