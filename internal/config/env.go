package config

import (
	"ForestWatch/pkg/ocr"
	"ForestWatch/pkg/postgres"
	"ForestWatch/pkg/redis"
	"ForestWatch/pkg/s3"
	"ForestWatch/pkg/yolo"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

const (
	NotifierTwilio    = "twilio"
	NotifierWhatsmeow = "whatsmeow"
)

var ErrOutputInsideWatchDir = errors.New("output directory must not be inside the watch directory")

// Settings is everything the process reads from the environment.
type Settings struct {
	WatchDir    string        `validate:"required,dir"`
	OutputDir   string        `validate:"required"`
	GracePeriod time.Duration `validate:"gte=0"`

	// MaxImageSize is in bytes; 0 reads images of any size.
	MaxImageSize int64 `validate:"gte=0"`

	ModelName         string  `validate:"required"`
	InferenceURL      string  `validate:"required,url"`
	DetectorTransport string  `validate:"oneof=http websocket"`
	Threshold         float64 `validate:"gt=0,lte=1"`

	TesseractCmd   string
	OCRPageSegMode int `validate:"gte=0,lte=13"`
	OCRLanguage    string

	NotifierProvider string `validate:"oneof=twilio whatsmeow"`
	Recipient        string `validate:"required"`

	TwilioAccountSID string `validate:"required_if=NotifierProvider twilio"`
	TwilioAuthToken  string `validate:"required_if=NotifierProvider twilio"`
	TwilioFrom       string `validate:"required_if=NotifierProvider twilio"`

	DBHost     string `validate:"required_if=NotifierProvider whatsmeow"`
	DBPort     string
	DBUser     string `validate:"required_if=NotifierProvider whatsmeow"`
	DBPassword string
	DBName     string `validate:"required_if=NotifierProvider whatsmeow"`
	DBSSLMode  string

	AWSRegion          string `validate:"required_with=AWSBucketName"`
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSBucketName      string
	AWSPrefix          string

	RedisAddress      string
	RedisPassword     string
	RedisDB           int `validate:"gte=0"`
	RedisAlertChannel string

	StatusPort string `validate:"omitempty,numeric"`
}

// LoadSettings reads the environment, applies defaults and validates the result.
func LoadSettings(v *validator.Validate) (Settings, error) {
	threshold, err := cast.ToFloat64E(getEnv("CONFIDENCE_THRESHOLD", "0.25"))
	if err != nil {
		return Settings{}, fmt.Errorf("CONFIDENCE_THRESHOLD: %w", err)
	}
	grace, err := cast.ToDurationE(getEnv("GRACE_PERIOD", "1s"))
	if err != nil {
		return Settings{}, fmt.Errorf("GRACE_PERIOD: %w", err)
	}
	psm, err := cast.ToIntE(getEnv("OCR_PSM", "6"))
	if err != nil {
		return Settings{}, fmt.Errorf("OCR_PSM: %w", err)
	}
	maxImageSize, err := cast.ToInt64E(getEnv("MAX_IMAGE_SIZE", "0"))
	if err != nil {
		return Settings{}, fmt.Errorf("MAX_IMAGE_SIZE: %w", err)
	}
	redisDB, err := cast.ToIntE(getEnv("REDIS_DB", "0"))
	if err != nil {
		return Settings{}, fmt.Errorf("REDIS_DB: %w", err)
	}

	s := Settings{
		WatchDir:     os.Getenv("WATCH_DIR"),
		OutputDir:    getEnv("OUTPUT_DIR", "person_detected_images"),
		GracePeriod:  grace,
		MaxImageSize: maxImageSize,

		ModelName:         getEnv("MODEL_NAME", "yolo11m.pt"),
		InferenceURL:      getEnv("INFERENCE_URL", "http://localhost:8000/predict"),
		DetectorTransport: strings.ToLower(getEnv("DETECTOR_TRANSPORT", yolo.TransportHTTP)),
		Threshold:         threshold,

		TesseractCmd:   getEnv("TESSERACT_CMD", "tesseract"),
		OCRPageSegMode: psm,
		OCRLanguage:    getEnv("OCR_LANGUAGE", "eng"),

		NotifierProvider: strings.ToLower(getEnv("NOTIFIER_PROVIDER", NotifierTwilio)),
		Recipient:        os.Getenv("WHATSAPP_RECIPIENT"),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:       getEnv("TWILIO_WHATSAPP_NUMBER", "whatsapp:+14155238886"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AWSRegion:          os.Getenv("AWS_REGION"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AWSBucketName:      os.Getenv("AWS_BUCKET_NAME"),
		AWSPrefix:          getEnv("AWS_PREFIX", "forestwatch"),

		RedisAddress:      os.Getenv("REDIS_ADDRESS"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           redisDB,
		RedisAlertChannel: getEnv("REDIS_ALERT_CHANNEL", "forestwatch:alerts"),

		StatusPort: os.Getenv("STATUS_PORT"),
	}

	if err := v.Struct(s); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}

	inside, err := isWithin(s.WatchDir, s.OutputDir)
	if err != nil {
		return Settings{}, err
	}
	if inside {
		return Settings{}, ErrOutputInsideWatchDir
	}

	return s, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// isWithin reports whether path is root or lies below it. Annotated copies
// written inside the watched tree would be picked up again as new images.
func isWithin(root, path string) (bool, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false, err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false, nil
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))), nil
}

func (s Settings) Detector() yolo.Config {
	return yolo.Config{
		ModelName:    s.ModelName,
		InferenceURL: s.InferenceURL,
		Transport:    s.DetectorTransport,
	}
}

func (s Settings) OCR() ocr.Config {
	return ocr.Config{
		Command:     s.TesseractCmd,
		PageSegMode: s.OCRPageSegMode,
		Language:    s.OCRLanguage,
	}
}

func (s Settings) Database() postgres.Config {
	return postgres.Config{
		Host:     s.DBHost,
		Port:     s.DBPort,
		User:     s.DBUser,
		Password: s.DBPassword,
		Name:     s.DBName,
		SSLMode:  s.DBSSLMode,
	}
}

// S3 returns the archive config; ok is false when no bucket is configured.
func (s Settings) S3() (s3.Config, bool) {
	return s3.Config{
		Region:          s.AWSRegion,
		AccessKeyID:     s.AWSAccessKeyID,
		SecretAccessKey: s.AWSSecretAccessKey,
		BucketName:      s.AWSBucketName,
		Prefix:          s.AWSPrefix,
	}, s.AWSBucketName != ""
}

// Redis returns the alert fan-out config; ok is false when no address is set.
func (s Settings) Redis() (redis.Config, bool) {
	return redis.Config{
		Address:  s.RedisAddress,
		Password: s.RedisPassword,
		DB:       s.RedisDB,
	}, s.RedisAddress != ""
}
