package surveillanceService

import (
	"ForestWatch/internal/api/surveillance"
	"ForestWatch/internal/entity"
	"ForestWatch/pkg/log"
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

const alertTemplate = "🚨 Alert! A person was detected in the image.\n📅 Date: %s\n⏰ Time: %s\n🖼 Image: %s"

// FormatAlertMessage renders the alert text sent to the recipient.
func FormatAlertMessage(imagePath, date, time string) string {
	return fmt.Sprintf(alertTemplate, date, time, imagePath)
}

// Notify sends a single alert and returns the provider's message id.
func (s *surveillanceService) Notify(ctx context.Context, imagePath, date, time string) (string, error) {
	messageID, err := s.sender.SendMessage(ctx, s.recipient, FormatAlertMessage(imagePath, date, time))
	if err != nil {
		return "", fmt.Errorf("%w: %w", surveillance.ErrNotify, err)
	}

	log.WithRunID(s.log, ctx).Info("WhatsApp Message Sent! SID: " + messageID)
	return messageID, nil
}

func (s *surveillanceService) archiveImage(ctx context.Context, outputPath string) {
	if s.archive == nil {
		return
	}

	location, err := s.archive.UploadFile(ctx, outputPath)
	if err != nil {
		log.WithRunID(s.log, ctx).WithFields(logrus.Fields{
			"path":  outputPath,
			"error": err.Error(),
		}).Warn("Failed to archive annotated image")
		return
	}

	log.WithRunID(s.log, ctx).WithFields(logrus.Fields{
		"location": location,
	}).Info("Annotated image archived")
}

func (s *surveillanceService) publishAlert(ctx context.Context, alert entity.Alert) {
	if s.publisher == nil || s.alertChannel == "" {
		return
	}

	if err := s.publisher.Publish(ctx, s.alertChannel, alert); err != nil {
		log.WithRunID(s.log, ctx).WithFields(logrus.Fields{
			"channel": s.alertChannel,
			"error":   err.Error(),
		}).Warn("Failed to publish alert")
	}
}
