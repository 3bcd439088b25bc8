package gemini

import (
	"errors"
	"strings"
	"testing"

	"PoseCoach/pkg/pose"
)

func TestParseKeypointsResponse(t *testing.T) {
	response := "```json\n" + `{
		"keypoints": [
			{"body_part": "left_knee", "x": 80, "y": 200, "score": 0.8},
			{"body_part": "Right Shoulder", "x": 180, "y": 70},
			{"body_part": "tail", "x": 1, "y": 1}
		]
	}` + "\n```"

	result, err := parseKeypointsResponse(response, 256, 256)
	if err != nil {
		t.Fatalf("parseKeypointsResponse error: %v", err)
	}

	if result.Width != 256 || result.Height != 256 {
		t.Errorf("Expected dimensions 256x256, got %dx%d", result.Width, result.Height)
	}
	if len(result.Keypoints) != 2 {
		t.Fatalf("Expected 2 keypoints, got %d", len(result.Keypoints))
	}
	if result.Keypoints[0].BodyPart != pose.LeftKnee || result.Keypoints[0].X != 80 {
		t.Errorf("Unexpected first keypoint %+v", result.Keypoints[0])
	}
	if result.Keypoints[1].BodyPart != pose.RightShoulder {
		t.Errorf("Unexpected second keypoint %+v", result.Keypoints[1])
	}
}

func TestParseKeypointsResponseErrors(t *testing.T) {
	if _, err := parseKeypointsResponse("I could not find anyone", 256, 256); err == nil {
		t.Error("Expected error when no JSON is present")
	}
	if _, err := parseKeypointsResponse(`{"keypoints": []}`, 256, 256); !errors.Is(err, ErrNoKeypoints) {
		t.Errorf("Expected ErrNoKeypoints, got %v", err)
	}
	if _, err := parseKeypointsResponse(`{"keypoints": [}`, 256, 256); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestBuildPromptListsBodyParts(t *testing.T) {
	prompt := buildPrompt(256, 192)
	if !strings.Contains(prompt, "256x192") {
		t.Error("Prompt should mention image dimensions")
	}
	for _, p := range pose.BodyParts() {
		if !strings.Contains(prompt, p.String()) {
			t.Errorf("Prompt is missing body part %s", p)
		}
	}
}
