package main

import (
	"ForestWatch/internal/config"
	"ForestWatch/pkg/log"
	"ForestWatch/pkg/ocr"
	"ForestWatch/pkg/redis"
	"ForestWatch/pkg/s3"
	"ForestWatch/pkg/twilio"
	"ForestWatch/pkg/whatsapp"
	"ForestWatch/pkg/yolo"
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()
	logger := log.NewLogger()
	if envErr != nil {
		logger.Warnf("No .env file loaded, using process environment: %v", envErr)
	}

	settings, err := config.LoadSettings(config.NewValidator())
	if err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	if err := os.MkdirAll(settings.OutputDir, 0o755); err != nil {
		logger.Fatalf("Failed to create output directory %s: %v", settings.OutputDir, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	detector, err := yolo.New(settings.Detector())
	if err != nil {
		logger.Fatalf("Failed to create detector: %v", err)
	}
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := detector.CheckHealth(healthCtx); err != nil {
		logger.Warnf("Inference service at %s is not healthy yet: %v", settings.InferenceURL, err)
	} else {
		logger.Infof("Inference service ready, model %s", settings.ModelName)
	}
	cancel()

	ocrEngine, err := ocr.New(settings.OCR())
	if err != nil {
		logger.Fatalf("Failed to create OCR engine: %v", err)
	}

	options := []config.AppOption{
		config.WithLogger(logger),
		config.WithSettings(settings),
		config.WithDetector(detector),
		config.WithOCR(ocrEngine),
		config.WithUtils(settings.MaxImageSize),
	}

	switch settings.NotifierProvider {
	case config.NotifierWhatsmeow:
		client, err := whatsapp.New(ctx, settings.Database(), logger)
		if err != nil {
			logger.Fatalf("Failed to initialize WhatsApp client: %v", err)
		}
		options = append(options, config.WithWhatsappClient(client))
	default:
		client, err := twilio.New(settings.TwilioAccountSID, settings.TwilioAuthToken, settings.TwilioFrom)
		if err != nil {
			logger.Fatalf("Failed to initialize Twilio client: %v", err)
		}
		options = append(options, config.WithTwilioClient(client))
	}

	if s3Cfg, ok := settings.S3(); ok {
		client, err := s3.New(s3Cfg)
		if err != nil {
			logger.Fatalf("Failed to initialize S3 client: %v", err)
		}
		options = append(options, config.WithS3Client(client))
	}

	if redisCfg, ok := settings.Redis(); ok {
		options = append(options, config.WithRedisServer(redis.New(redisCfg)))
	}

	if settings.StatusPort != "" {
		options = append(options,
			config.WithFiber(config.NewFiber(logger)),
			config.WithMiddleware(),
		)
	}

	app, err := config.NewApp(options...)
	if err != nil {
		logger.Fatal(err)
	}

	app.RegisterHandler()

	logger.Info("ForestWatch started")
	if err := app.Run(ctx); err != nil {
		logger.Fatalf("ForestWatch stopped with error: %v", err)
	}
	logger.Info("ForestWatch stopped")
}
