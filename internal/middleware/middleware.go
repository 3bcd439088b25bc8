package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type Middleware interface {
	NewRateLimiter(ctx *fiber.Ctx) error
	NewTokenMiddleware(ctx *fiber.Ctx) error
	NewRequestIDMiddleware() fiber.Handler
	NewLoggingMiddleware() fiber.Handler
	GetRequestID(ctx *fiber.Ctx) string
}

type middleware struct {
	token        *tokenMiddleware
	rateLimitter *rateLimiter
	logging      *loggingMiddleware
	requestID    fiber.Handler
	log          *logrus.Logger
}

// New builds the middleware set. Evaluation requests are rate limited per
// client IP to reqRate requests per second with the given burst.
func New(logger *logrus.Logger, reqRate rate.Limit, burst int) Middleware {
	return &middleware{
		token:        newTokenMiddleware(AccessTokenSecret),
		rateLimitter: newRateLimiter(reqRate, burst),
		logging:      newLoggingMiddleware(logger),
		requestID:    NewRequestIDMiddleware(),
		log:          logger,
	}
}

// GetRequestID returns the id set by the request id middleware, or "unknown"
// on routes it does not cover.
func (m *middleware) GetRequestID(ctx *fiber.Ctx) string {
	if requestID, ok := ctx.Locals(RequestIDKey).(string); ok && requestID != "" {
		return requestID
	}
	return "unknown"
}

func (m *middleware) NewRequestIDMiddleware() fiber.Handler {
	return m.requestID
}

func (m *middleware) NewLoggingMiddleware() fiber.Handler {
	return m.logging.handler()
}
