package config

import (
	surveillanceHandler "ForestWatch/internal/api/surveillance/handler"
	surveillanceService "ForestWatch/internal/api/surveillance/service"
	"ForestWatch/internal/middleware"
	"ForestWatch/pkg/ocr"
	"ForestWatch/pkg/redis"
	"ForestWatch/pkg/s3"
	"ForestWatch/pkg/twilio"
	"ForestWatch/pkg/utils"
	"ForestWatch/pkg/watcher"
	"ForestWatch/pkg/whatsapp"
	"ForestWatch/pkg/yolo"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type AppOption func(*App) error

type App struct {
	engine     *fiber.App
	log        *logrus.Logger
	settings   Settings
	middleware middleware.Middleware
	utils      utils.IUtils

	detector     yolo.IModel
	ocrEngine    ocr.IOCR
	notifier     surveillanceService.MessageSender
	notifierName string
	closeFns     []func() error

	s3Client    s3.ItfS3
	redisServer redis.IRedis

	service  surveillanceService.ISurveillanceService
	handler  *surveillanceHandler.SurveillanceHandler
	handlers []handler
}

type handler interface {
	Start(srv fiber.Router)
}

func NewApp(options ...AppOption) (*App, error) {
	app := &App{}

	for _, option := range options {
		if err := option(app); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if app.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if app.settings.WatchDir == "" {
		return nil, fmt.Errorf("settings are required")
	}
	if app.detector == nil {
		return nil, fmt.Errorf("detector is required")
	}
	if app.ocrEngine == nil {
		return nil, fmt.Errorf("ocr engine is required")
	}
	if app.notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if app.utils == nil {
		app.utils = utils.NewWithMaxFileSize(app.settings.MaxImageSize)
	}

	return app, nil
}

func WithFiber(fiberApp *fiber.App) AppOption {
	return func(a *App) error {
		a.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) AppOption {
	return func(a *App) error {
		a.log = logger
		return nil
	}
}

func WithSettings(settings Settings) AppOption {
	return func(a *App) error {
		a.settings = settings
		return nil
	}
}

func WithMiddleware() AppOption {
	return func(a *App) error {
		if a.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		a.middleware = middleware.New(a.log, 5, 20)
		return nil
	}
}

func WithDetector(detector yolo.IModel) AppOption {
	return func(a *App) error {
		a.detector = detector
		a.closeFns = append(a.closeFns, detector.Close)
		return nil
	}
}

func WithOCR(engine ocr.IOCR) AppOption {
	return func(a *App) error {
		a.ocrEngine = engine
		a.closeFns = append(a.closeFns, engine.Close)
		return nil
	}
}

func WithTwilioClient(client twilio.ITwilio) AppOption {
	return func(a *App) error {
		if a.notifier != nil {
			return errors.New("a notifier is already configured")
		}
		a.notifier = client
		a.notifierName = NotifierTwilio
		a.closeFns = append(a.closeFns, client.Close)
		return nil
	}
}

func WithWhatsappClient(client whatsapp.IWhatsappSender) AppOption {
	return func(a *App) error {
		if a.notifier != nil {
			return errors.New("a notifier is already configured")
		}
		a.notifier = client
		a.notifierName = NotifierWhatsmeow
		a.closeFns = append(a.closeFns, client.Disconnect)
		return nil
	}
}

func WithS3Client(client s3.ItfS3) AppOption {
	return func(a *App) error {
		a.s3Client = client
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) AppOption {
	return func(a *App) error {
		a.redisServer = redisServer
		a.closeFns = append(a.closeFns, redisServer.Close)
		return nil
	}
}

// WithUtils sets the image reader; maxImageSize of 0 reads images of any size.
func WithUtils(maxImageSize int64) AppOption {
	return func(a *App) error {
		a.utils = utils.NewWithMaxFileSize(maxImageSize)
		return nil
	}
}

func (a *App) RegisterHandler() {
	opts := surveillanceService.Options{
		Threshold:    a.settings.Threshold,
		OutputDir:    a.settings.OutputDir,
		Recipient:    a.settings.Recipient,
		AlertChannel: a.settings.RedisAlertChannel,
		Archive:      a.s3Client,
		Publisher:    a.redisServer,
	}

	a.service = surveillanceService.New(a.log, a.detector, a.ocrEngine, a.notifier, a.utils, opts)

	if a.middleware == nil {
		a.middleware = middleware.New(a.log, 5, 20)
	}
	a.handler = surveillanceHandler.New(a.log, a.middleware, a.service, a.utils, surveillanceHandler.Info{
		WatchDir:  a.settings.WatchDir,
		OutputDir: a.settings.OutputDir,
		Detector:  a.settings.DetectorTransport,
		OCR:       ocr.Available,
		Notifier:  a.notifierName,
	})

	if a.engine != nil {
		a.handlers = append(a.handlers, a.handler)
	}
}

// Run watches the folder until ctx is cancelled, serving the status API
// alongside when a fiber app was configured. The image being processed when
// ctx is cancelled is finished before Run returns.
func (a *App) Run(ctx context.Context) error {
	if a.handler == nil {
		a.RegisterHandler()
	}

	w, err := watcher.New(a.settings.WatchDir, watcher.Options{
		GracePeriod: a.settings.GracePeriod,
		Accept:      a.utils.IsImageFile,
	}, a.log)
	if err != nil {
		return err
	}
	defer w.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.Run(gctx, a.handler.HandleImage)
	})

	if a.engine != nil {
		a.engine.Use(a.middleware.NewRequestIDMiddleware())
		a.engine.Use(a.middleware.NewLoggingMiddleware)
		a.setupHealthCheck()
		router := a.engine.Group("/api/v1")
		for _, h := range a.handlers {
			h.Start(router)
		}

		g.Go(func() error {
			return a.engine.Listen(fmt.Sprintf(":%s", a.settings.StatusPort))
		})
		g.Go(func() error {
			<-gctx.Done()
			return a.engine.ShutdownWithTimeout(5 * time.Second)
		})
	}

	err = g.Wait()
	a.Close()
	return err
}

// Close releases every client handed to the app.
func (a *App) Close() {
	for _, closeFn := range a.closeFns {
		if err := closeFn(); err != nil {
			a.log.Warnf("Error while closing client: %v", err)
		}
	}
	a.closeFns = nil
}

func (a *App) Service() surveillanceService.ISurveillanceService {
	return a.service
}

func (a *App) setupHealthCheck() {
	a.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
