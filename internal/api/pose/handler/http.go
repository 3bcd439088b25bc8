package poseHandler

import (
	poseService "PoseCoach/internal/api/pose/service"
	"PoseCoach/internal/middleware"
	"PoseCoach/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type PoseHandler struct {
	log         *logrus.Logger
	validator   *validator.Validate
	middleware  middleware.Middleware
	poseService poseService.PoseService
	utils       utils.IUtils
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	ps poseService.PoseService,
	utils utils.IUtils) *PoseHandler {
	return &PoseHandler{
		log:         log,
		validator:   validate,
		middleware:  middleware,
		poseService: ps,
		utils:       utils,
	}
}

func (h *PoseHandler) Start(srv fiber.Router) {
	pose := srv.Group("/pose")
	pose.Get("/templates", h.HandleListTemplates)
	pose.Post("/evaluate", h.middleware.NewRateLimiter, h.middleware.NewTokenMiddleware, h.HandleEvaluateImage)
	pose.Post("/evaluate/keypoints", h.middleware.NewTokenMiddleware, h.HandleEvaluateKeypoints)

	pose.Get("/history", h.middleware.NewTokenMiddleware, h.HandleListHistory)
	pose.Get("/history/:id", h.middleware.NewTokenMiddleware, h.HandleGetHistory)
	pose.Delete("/history/:id", h.middleware.NewTokenMiddleware, h.HandleDeleteHistory)

	pose.Get("/ws", h.middleware.NewTokenMiddleware, h.HandleWebSocketUpgrade, websocket.New(h.handleWebSocket))
}
