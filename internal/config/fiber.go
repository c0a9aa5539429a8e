package config

import (
	"ForestWatch/pkg/handlerUtil"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

func NewFiber(logger *logrus.Logger) *fiber.App {
	app := fiber.New(
		fiber.Config{
			AppName:               "ForestWatch",
			BodyLimit:             1 * 1024 * 1024,
			DisableKeepalive:      false,
			DisableStartupMessage: true,
			StrictRouting:         true,
			CaseSensitive:         true,
			JSONEncoder:           jsoniter.Marshal,
			JSONDecoder:           jsoniter.Unmarshal,
			ErrorHandler:          handlerUtil.New(logger).Handle,
		})

	logger.Debug("Status server configured")
	return app
}
