package config

import (
	"PoseCoach/internal/api/pose"
	poseService "PoseCoach/internal/api/pose/service"
	"PoseCoach/pkg/gemini"
	poseEngine "PoseCoach/pkg/pose"
	websocketPkg "PoseCoach/pkg/websocket"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	defaultPoseName  = "Tree Pose"
	defaultTolerance = 0.1
	defaultInputSize = 256
)

// LoadPoseSettings reads POSE_DEFAULT_NAME, POSE_TOLERANCE and POSE_INPUT_SIZE.
func LoadPoseSettings() (pose.Settings, error) {
	settings := pose.Settings{
		DefaultPoseName: defaultPoseName,
		Tolerance:       defaultTolerance,
		InputSize:       defaultInputSize,
	}

	if name := strings.TrimSpace(os.Getenv("POSE_DEFAULT_NAME")); name != "" {
		settings.DefaultPoseName = name
	}

	if raw := os.Getenv("POSE_TOLERANCE"); raw != "" {
		tolerance, err := strconv.ParseFloat(raw, 64)
		if err != nil || tolerance <= 0 || math.IsInf(tolerance, 0) || math.IsNaN(tolerance) {
			return pose.Settings{}, fmt.Errorf("invalid POSE_TOLERANCE %q", raw)
		}
		settings.Tolerance = tolerance
	}

	if raw := os.Getenv("POSE_INPUT_SIZE"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return pose.Settings{}, fmt.Errorf("invalid POSE_INPUT_SIZE %q", raw)
		}
		settings.InputSize = size
	}

	return settings, nil
}

// NewPoseEvaluator loads the template registry (POSE_TEMPLATES_PATH or the
// embedded default) and checks that the default pose is registered.
func NewPoseEvaluator(settings pose.Settings) (*poseEngine.Evaluator, error) {
	var (
		registry *poseEngine.Registry
		err      error
	)

	if path := os.Getenv("POSE_TEMPLATES_PATH"); path != "" {
		registry, err = poseEngine.LoadRegistryFile(path)
	} else {
		registry, err = poseEngine.DefaultRegistry()
	}
	if err != nil {
		return nil, fmt.Errorf("load pose templates: %w", err)
	}

	if !registry.Has(settings.DefaultPoseName) {
		return nil, fmt.Errorf("default pose %q is not registered", settings.DefaultPoseName)
	}

	format, err := poseEngine.ParseMessageFormat(os.Getenv("FEEDBACK_FORMAT"))
	if err != nil {
		return nil, err
	}

	return poseEngine.NewEvaluator(registry, format), nil
}

// EstimatorBackend is a pose estimator the server can shut down.
type EstimatorBackend interface {
	poseService.PoseEstimator
	Shutdown()
}

type movenetBackend struct{ websocketPkg.IWebsocket }

func (b movenetBackend) Shutdown() { b.CloseConnections() }

type geminiBackend struct{ gemini.IGemini }

func (b geminiBackend) Shutdown() { b.Close() }

// NewPoseEstimator picks the backend named by POSE_ESTIMATOR. MoveNet is the
// default.
func NewPoseEstimator(logger *logrus.Logger) (EstimatorBackend, error) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("POSE_ESTIMATOR"))) {
	case "", "movenet":
		return movenetBackend{websocketPkg.NewPoseEstimationClient(logger)}, nil
	case "gemini":
		client, err := gemini.NewGeminiClient()
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return geminiBackend{client}, nil
	default:
		return nil, fmt.Errorf("unknown POSE_ESTIMATOR %q", os.Getenv("POSE_ESTIMATOR"))
	}
}
