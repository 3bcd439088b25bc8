package pose

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRegistry(t *testing.T) {
	r, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry error: %v", err)
	}

	for _, name := range []string{"Tree Pose", "Downward Dog", "Cobra Pose", "Warrior II"} {
		if !r.Has(name) {
			t.Errorf("Expected pose %q to be registered", name)
		}
	}

	tree, err := r.Lookup("Tree Pose")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if len(tree.Reference) != 17 {
		t.Errorf("Expected full 17-point layout, got %d", len(tree.Reference))
	}
	wantCritical := []BodyPart{LeftKnee, RightKnee, LeftShoulder, RightShoulder}
	if len(tree.Critical) != len(wantCritical) {
		t.Fatalf("Expected %d critical parts, got %d", len(wantCritical), len(tree.Critical))
	}
	for i, p := range wantCritical {
		if tree.Critical[i] != p {
			t.Errorf("Critical[%d]: expected %s, got %s", i, p, tree.Critical[i])
		}
	}
	if tree.Reference[LeftKnee] != (Point{X: 0.30, Y: 0.80}) {
		t.Errorf("Unexpected left knee reference %+v", tree.Reference[LeftKnee])
	}
}

func TestLookupUnknownPose(t *testing.T) {
	r, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry error: %v", err)
	}

	_, err = r.Lookup("Not A Real Pose")
	if !errors.Is(err, ErrUnknownPose) {
		t.Fatalf("Expected ErrUnknownPose, got %v", err)
	}
	var poseErr *UnknownPoseError
	if !errors.As(err, &poseErr) || poseErr.Name != "Not A Real Pose" {
		t.Errorf("Expected error carrying the pose name, got %v", err)
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	r, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry error: %v", err)
	}

	tpl, _ := r.Lookup("Tree Pose")
	tpl.Reference[LeftKnee] = Point{X: 9, Y: 9}
	tpl.Critical[0] = Nose

	again, _ := r.Lookup("Tree Pose")
	if again.Reference[LeftKnee] != (Point{X: 0.30, Y: 0.80}) {
		t.Error("Registry reference was mutated through a lookup result")
	}
	if again.Critical[0] != LeftKnee {
		t.Error("Registry critical list was mutated through a lookup result")
	}
}

func TestNewRegistryValidation(t *testing.T) {
	cases := map[string]string{
		"bad json":            `{"poses": [`,
		"missing name":        `{"poses": [{"name": " ", "critical": ["nose"], "reference": {"nose": {"x": 0, "y": 0}}}]}`,
		"unknown part":        `{"poses": [{"name": "A", "critical": ["tail"], "reference": {"tail": {"x": 0, "y": 0}}}]}`,
		"critical not in ref": `{"poses": [{"name": "A", "critical": ["left_knee"], "reference": {"nose": {"x": 0, "y": 0}}}]}`,
		"no critical":         `{"poses": [{"name": "A", "critical": [], "reference": {"nose": {"x": 0, "y": 0}}}]}`,
		"duplicate critical":  `{"poses": [{"name": "A", "critical": ["nose", "nose"], "reference": {"nose": {"x": 0, "y": 0}}}]}`,
		"duplicate pose": `{"poses": [
			{"name": "A", "critical": ["nose"], "reference": {"nose": {"x": 0, "y": 0}}},
			{"name": "A", "critical": ["nose"], "reference": {"nose": {"x": 0, "y": 0}}}]}`,
	}

	for name, doc := range cases {
		if _, err := NewRegistry([]byte(doc)); !errors.Is(err, ErrInvalidTemplate) {
			t.Errorf("%s: expected ErrInvalidTemplate, got %v", name, err)
		}
	}
}

func TestLoadRegistryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poses.json")
	doc := `{"version": 3, "poses": [
		{"name": "Mountain", "critical": ["left_ankle"], "reference": {"left_ankle": {"x": 0.4, "y": 0.95}}},
		{"name": "Chair", "critical": ["left_hip"], "reference": {"left_hip": {"x": 0.5, "y": 0.6}}}]}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	r, err := LoadRegistryFile(path)
	if err != nil {
		t.Fatalf("LoadRegistryFile error: %v", err)
	}
	if r.Version() != 3 {
		t.Errorf("Expected version 3, got %d", r.Version())
	}
	names := r.Names()
	if len(names) != 2 || names[0] != "Chair" || names[1] != "Mountain" {
		t.Errorf("Expected sorted names [Chair Mountain], got %v", names)
	}

	if _, err := LoadRegistryFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}
