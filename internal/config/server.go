package config

import (
	"PoseCoach/database/postgres"
	authHandler "PoseCoach/internal/api/auth/handler"
	authRepository "PoseCoach/internal/api/auth/repository"
	authService "PoseCoach/internal/api/auth/service"
	"PoseCoach/internal/api/pose"
	poseHandler "PoseCoach/internal/api/pose/handler"
	poseRepository "PoseCoach/internal/api/pose/repository"
	poseService "PoseCoach/internal/api/pose/service"
	"PoseCoach/internal/middleware"
	"PoseCoach/pkg/bcrypt"
	poseEngine "PoseCoach/pkg/pose"
	"PoseCoach/pkg/redis"
	"PoseCoach/pkg/s3"
	"PoseCoach/pkg/utils"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	db          *sqlx.DB
	log         *logrus.Logger
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	bcryptUtils bcrypt.IBcrypt
	handlers    []handler
	redisServer redis.IRedis
	estimator   EstimatorBackend
	s3Client    s3.ItfS3
	evaluator   *poseEngine.Evaluator
	settings    pose.Settings
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.evaluator == nil {
		return nil, fmt.Errorf("pose evaluator is required")
	}
	if server.estimator == nil {
		return nil, fmt.Errorf("pose estimator is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithPoseEstimator() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before pose estimator")
		}
		estimator, err := NewPoseEstimator(s.log)
		if err != nil {
			s.log.Errorf("Failed to initialize pose estimator: %v", err)
			return err
		}
		s.log.Infof("Using %s pose estimator", estimator.Name())
		s.estimator = estimator
		return nil
	}
}

func WithPose() ServerOption {
	return func(s *Server) error {
		settings, err := LoadPoseSettings()
		if err != nil {
			return err
		}
		evaluator, err := NewPoseEvaluator(settings)
		if err != nil {
			return err
		}
		s.settings = settings
		s.evaluator = evaluator
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		reqRate, burst := rateLimitFromEnv()
		s.middleware = middleware.New(s.log, reqRate, burst)
		return nil
	}
}

// WithS3Client enables frame archiving. A missing bucket only disables it.
func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if errors.Is(err, s3.ErrNotConfigured) {
			if s.log != nil {
				s.log.Warn("AWS_BUCKET_NAME not set, frame archiving disabled")
			}
			return nil
		}
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func WithBcryptUtils() ServerOption {
	return func(s *Server) error {
		s.bcryptUtils = bcrypt.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Auth Domain
	authRepo := authRepository.New(s.db, s.log)
	authServices := authService.New(s.log, authRepo, s.bcryptUtils, s.utils)
	authHandlers := authHandler.New(s.log, authServices, s.validator, s.middleware)

	// Pose Domain
	poseRepo := poseRepository.New(s.db, s.log)
	poseServices := poseService.New(s.log, poseRepo, s.evaluator, s.estimator, s.redisServer, s.s3Client, s.utils, s.settings)
	poseHandlers := poseHandler.New(s.log, s.validator, s.middleware, poseServices, s.utils)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, authHandlers, poseHandlers)
}

func (s *Server) Run() error {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())
	router := s.engine.Group("/api/v1")

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown drains in-flight requests and releases the estimator, cache and
// database.
func (s *Server) Shutdown(timeout time.Duration) error {
	err := s.engine.ShutdownWithTimeout(timeout)

	if s.estimator != nil {
		s.estimator.Shutdown()
	}
	if s.redisServer != nil {
		if cerr := s.redisServer.Close(); cerr != nil {
			s.log.Warnf("Failed to close redis: %v", cerr)
		}
	}
	if s.db != nil {
		if cerr := s.db.Close(); cerr != nil {
			s.log.Warnf("Failed to close database: %v", cerr)
		}
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})

	s.engine.Get("/health", func(ctx *fiber.Ctx) error {
		c, cancel := context.WithTimeout(ctx.UserContext(), 3*time.Second)
		defer cancel()

		status := fiber.Map{"database": "ok", "redis": "disabled", "estimator": s.estimator.Name()}
		code := fiber.StatusOK

		if s.db == nil {
			status["database"] = "disabled"
		} else if err := s.db.PingContext(c); err != nil {
			status["database"] = err.Error()
			code = fiber.StatusServiceUnavailable
		}

		if s.redisServer != nil {
			status["redis"] = "ok"
			if err := s.redisServer.Ping(c); err != nil {
				status["redis"] = err.Error()
				code = fiber.StatusServiceUnavailable
			}
		}

		return ctx.Status(code).JSON(status)
	})
}

func rateLimitFromEnv() (rate.Limit, int) {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		rps = 5
	}
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		burst = 10
	}
	return rate.Limit(rps), burst
}
