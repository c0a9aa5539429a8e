package surveillanceService

import (
	"ForestWatch/internal/api/surveillance"
	"ForestWatch/internal/entity"
	"ForestWatch/pkg/ocr"
	"ForestWatch/pkg/redis"
	"ForestWatch/pkg/s3"
	"ForestWatch/pkg/utils"
	"ForestWatch/pkg/yolo"
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultThreshold is the minimum confidence for a person box to count.
const DefaultThreshold = 0.25

// MessageSender delivers a text message and returns the provider's message id.
// Both the Twilio and the whatsmeow clients satisfy it.
type MessageSender interface {
	SendMessage(ctx context.Context, to, message string) (string, error)
}

type ISurveillanceService interface {
	Detect(ctx context.Context, imagePath string) (entity.DetectionResult, image.Image, error)
	Annotate(img image.Image, boxes []entity.BoundingBox) image.Image
	ExtractTimestamp(ctx context.Context, img image.Image) entity.TimestampResult
	Notify(ctx context.Context, imagePath, date, time string) (string, error)
	ProcessFile(ctx context.Context, imagePath string) (entity.ProcessResult, error)
	Stats() surveillance.Stats
}

type Options struct {
	Threshold float64
	OutputDir string
	Recipient string
	// Archive and Publisher are optional; nil disables them.
	Archive      s3.ItfS3
	Publisher    redis.IRedis
	AlertChannel string
}

type surveillanceService struct {
	log       *logrus.Logger
	model     yolo.IModel
	ocr       ocr.IOCR
	sender    MessageSender
	utils     utils.IUtils
	threshold float64
	outputDir string
	recipient string

	archive      s3.ItfS3
	publisher    redis.IRedis
	alertChannel string

	processed      atomic.Uint64
	personDetected atomic.Uint64
	notified       atomic.Uint64
	failed         atomic.Uint64

	mu          sync.Mutex
	lastImage   string
	lastAlertAt time.Time
}

func New(
	log *logrus.Logger,
	model yolo.IModel,
	ocrEngine ocr.IOCR,
	sender MessageSender,
	utils utils.IUtils,
	opts Options,
) ISurveillanceService {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	return &surveillanceService{
		log:          log,
		model:        model,
		ocr:          ocrEngine,
		sender:       sender,
		utils:        utils,
		threshold:    threshold,
		outputDir:    opts.OutputDir,
		recipient:    opts.Recipient,
		archive:      opts.Archive,
		publisher:    opts.Publisher,
		alertChannel: opts.AlertChannel,
	}
}

func (s *surveillanceService) Stats() surveillance.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return surveillance.Stats{
		Processed:      s.processed.Load(),
		PersonDetected: s.personDetected.Load(),
		Notified:       s.notified.Load(),
		Failed:         s.failed.Load(),
		LastImage:      s.lastImage,
		LastAlertAt:    s.lastAlertAt,
	}
}
