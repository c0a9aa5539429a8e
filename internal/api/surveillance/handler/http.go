package surveillanceHandler

import (
	"ForestWatch/internal/api/surveillance"
	surveillanceService "ForestWatch/internal/api/surveillance/service"
	"ForestWatch/internal/middleware"
	"ForestWatch/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Info describes how the running process is wired; it is echoed by the status route.
type Info struct {
	WatchDir  string
	OutputDir string
	Detector  string
	OCR       string
	Notifier  string
}

type SurveillanceHandler struct {
	log                 *logrus.Logger
	middleware          middleware.Middleware
	surveillanceService surveillanceService.ISurveillanceService
	utils               utils.IUtils
	info                Info
}

func New(
	log *logrus.Logger,
	middleware middleware.Middleware,
	ss surveillanceService.ISurveillanceService,
	utils utils.IUtils,
	info Info,
) *SurveillanceHandler {
	return &SurveillanceHandler{
		log:                 log,
		middleware:          middleware,
		surveillanceService: ss,
		utils:               utils,
		info:                info,
	}
}

func (h *SurveillanceHandler) Start(srv fiber.Router) {
	srv.Get("/status", h.middleware.NewRateLimiter, h.GetStatus)
}

func (h *SurveillanceHandler) GetStatus(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(surveillance.StatusResponse{
		WatchDir:  h.info.WatchDir,
		OutputDir: h.info.OutputDir,
		Detector:  h.info.Detector,
		OCR:       h.info.OCR,
		Notifier:  h.info.Notifier,
		Stats:     h.surveillanceService.Stats(),
	})
}
