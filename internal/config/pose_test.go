package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPoseSettingsDefaults(t *testing.T) {
	t.Setenv("POSE_DEFAULT_NAME", "")
	t.Setenv("POSE_TOLERANCE", "")
	t.Setenv("POSE_INPUT_SIZE", "")

	settings, err := LoadPoseSettings()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if settings.DefaultPoseName != "Tree Pose" || settings.Tolerance != 0.1 || settings.InputSize != 256 {
		t.Errorf("Unexpected defaults: %+v", settings)
	}
}

func TestLoadPoseSettingsInvalid(t *testing.T) {
	t.Setenv("POSE_TOLERANCE", "-1")
	if _, err := LoadPoseSettings(); err == nil {
		t.Error("Expected error for negative tolerance")
	}

	for _, raw := range []string{"Inf", "+Inf", "NaN"} {
		t.Setenv("POSE_TOLERANCE", raw)
		if _, err := LoadPoseSettings(); err == nil {
			t.Errorf("Expected error for tolerance %q", raw)
		}
	}

	t.Setenv("POSE_TOLERANCE", "0.2")
	t.Setenv("POSE_INPUT_SIZE", "big")
	if _, err := LoadPoseSettings(); err == nil {
		t.Error("Expected error for non-numeric input size")
	}
}

func TestNewPoseEvaluator(t *testing.T) {
	t.Setenv("POSE_TEMPLATES_PATH", "")
	t.Setenv("FEEDBACK_FORMAT", "simple")

	settings, _ := LoadPoseSettings()
	evaluator, err := NewPoseEvaluator(settings)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !evaluator.Registry().Has("Warrior II") {
		t.Error("Expected default registry to include Warrior II")
	}

	settings.DefaultPoseName = "Crow Pose"
	if _, err := NewPoseEvaluator(settings); err == nil {
		t.Error("Expected error when default pose is missing")
	}

	t.Setenv("FEEDBACK_FORMAT", "verbose")
	settings.DefaultPoseName = "Tree Pose"
	if _, err := NewPoseEvaluator(settings); err == nil {
		t.Error("Expected error for unknown feedback format")
	}
}

func TestNewPoseEvaluatorFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	data := `{"version": 2, "poses": [{"name": "Tree Pose", "critical": ["left_knee"], "reference": {"left_knee": {"x": 0.4, "y": 0.6}}}]}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("POSE_TEMPLATES_PATH", path)
	t.Setenv("FEEDBACK_FORMAT", "")

	settings, err := LoadPoseSettings()
	if err != nil {
		t.Fatal(err)
	}

	evaluator, err := NewPoseEvaluator(settings)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := evaluator.Registry().Version(); got != 2 {
		t.Errorf("Expected version 2, got %d", got)
	}
}

func TestNewPoseEstimatorUnknown(t *testing.T) {
	t.Setenv("POSE_ESTIMATOR", "openpose")
	if _, err := NewPoseEstimator(nil); err == nil {
		t.Error("Expected error for unknown estimator")
	}
}

func TestRateLimitFromEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "")
	t.Setenv("RATE_LIMIT_BURST", "3")
	r, burst := rateLimitFromEnv()
	if r != 5 || burst != 3 {
		t.Errorf("Expected (5, 3), got (%v, %d)", r, burst)
	}
}
