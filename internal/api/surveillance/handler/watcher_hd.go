package surveillanceHandler

import (
	"ForestWatch/internal/api/surveillance"
	"ForestWatch/pkg/log"
	"ForestWatch/pkg/response"
	"context"
	"errors"
)

// HandleImage is the watcher callback. Failures are logged and swallowed so
// one bad file never stops monitoring.
func (h *SurveillanceHandler) HandleImage(ctx context.Context, path string) {
	if !h.utils.IsImageFile(path) {
		return
	}

	result, err := h.surveillanceService.ProcessFile(ctx, path)
	if err == nil {
		return
	}

	fields := log.Fields{
		log.RunIDKey: result.RunID,
		"path":       path,
		"state":      result.LastState,
		"status":     response.StatusOf(err),
		"error":      err.Error(),
	}

	switch {
	case errors.Is(err, surveillance.ErrImageRead):
		// Already reported by the detector, usually a partially written file.
		h.log.WithFields(fields).Info("Skipped unreadable image")
	case errors.Is(err, surveillance.ErrNotify):
		log.TraceError(h.log, fields, "Failed to send alert")
	case errors.Is(err, surveillance.ErrSaveAnnotated):
		log.TraceError(h.log, fields, "Failed to save annotated image")
	default:
		log.TraceError(h.log, fields, "Failed to process image")
	}
}
