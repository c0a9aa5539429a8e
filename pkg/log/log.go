package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"
	"time"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	contextPkg "ForestWatch/pkg/context"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

const RunIDKey = "run_id"

type Fields = logrus.Fields

func NewLogger() *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()
		logger.SetLevel(parseLevel(os.Getenv("LOG_LEVEL")))

		logger.SetFormatter(&formatter.Formatter{
			NoColors:        os.Getenv("LOG_NO_COLOR") == "true",
			TimestampFormat: "02 Jan 06 - 15:04:05",
			HideKeys:        false,
			CallerFirst:     true,
			CustomCallerFormatter: func(f *runtime.Frame) string {
				s := strings.Split(f.Function, ".")
				funcName := s[len(s)-1]
				return fmt.Sprintf(" \x1b[%dm[%s:%d][%s()]", 34, path.Base(f.File), f.Line, funcName)
			},
		})

		writers := []io.Writer{os.Stderr}

		if os.Getenv("APP_ENV") != "test" {
			fileWriter := &lumberjack.Logger{
				Filename:   fmt.Sprintf("./storage/logs/forestwatch-%s.log", time.Now().Format("2006-01-02")),
				LocalTime:  true,
				Compress:   true,
				MaxSize:    100,
				MaxAge:     7,
				MaxBackups: 3,
			}
			writers = append(writers, fileWriter)
		}

		logger.SetOutput(io.MultiWriter(writers...))
		logger.SetReportCaller(true)
	})

	return logger
}

func parseLevel(level string) logrus.Level {
	if level == "" {
		return logrus.DebugLevel
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.DebugLevel
	}
	return parsed
}

func Debug(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	NewLogger().WithFields(fields).Debug(msg)
}

func Info(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	NewLogger().WithFields(fields).Info(msg)
}

func Warn(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	NewLogger().WithFields(fields).Warn(msg)
}

func Error(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	NewLogger().WithFields(fields).Error(msg)
}

// ErrorWithTraceID logs msg at error level on the shared logger and returns
// the trace id attached to it.
func ErrorWithTraceID(fields Fields, msg string) string {
	return TraceError(NewLogger(), fields, msg)
}

// TraceError logs msg at error level on l and returns the trace id attached
// to it. The run id is reused as trace id when present.
func TraceError(l *logrus.Logger, fields Fields, msg string) string {
	if l == nil {
		l = NewLogger()
	}
	if fields == nil {
		fields = Fields{}
	}

	var traceID string
	if runID, ok := fields[RunIDKey].(string); ok && runID != "" && runID != "unknown" {
		traceID = runID
	} else {
		id, err := uuid.NewRandom()
		if err != nil {
			l.WithField("error", err.Error()).Error("[log.TraceError] failed to generate trace ID")
			traceID = "unknown"
		} else {
			traceID = id.String()
		}
	}

	fields["trace_id"] = traceID
	l.WithFields(fields).Error(msg)

	return traceID
}

func Fatal(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	NewLogger().WithFields(fields).Fatal(msg)
}

// WithRunID returns an entry tagged with the pipeline run id stored in ctx.
func WithRunID(l *logrus.Logger, ctx context.Context) *logrus.Entry {
	if l == nil {
		l = NewLogger()
	}
	return l.WithField(RunIDKey, contextPkg.GetRunID(ctx))
}
