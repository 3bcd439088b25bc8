package pose

import (
	poseEngine "PoseCoach/pkg/pose"
	"time"
)

// Settings are the evaluation defaults applied at the transport layer.
type Settings struct {
	DefaultPoseName string
	Tolerance       float64
	InputSize       int
}

type EvaluateImageRequest struct {
	PoseName    string   `json:"pose_name" form:"pose_name" validate:"omitempty,pose_name"`
	Tolerance   *float64 `json:"tolerance" form:"tolerance"`
	Archive     bool     `json:"archive" form:"archive"`
	ImageBase64 string   `json:"image_base64" form:"image_base64"`
}

type KeypointRequest struct {
	BodyPart string  `json:"body_part" validate:"required,body_part"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Score    float64 `json:"score"`
}

type EvaluateKeypointsRequest struct {
	PoseName  string            `json:"pose_name" validate:"omitempty,pose_name"`
	Width     float64           `json:"width"`
	Height    float64           `json:"height"`
	Tolerance *float64          `json:"tolerance"`
	Keypoints []KeypointRequest `json:"keypoints" validate:"dive"`
}

type EvaluationResponse struct {
	ID                  string                 `json:"id,omitempty"`
	PoseName            string                 `json:"pose_name"`
	Keypoints           []poseEngine.Keypoint  `json:"keypoints"`
	NormalizedKeypoints []poseEngine.Keypoint  `json:"normalized_keypoints"`
	Deviations          []poseEngine.Deviation `json:"deviations"`
	Feedback            []string               `json:"feedback"`
	Correct             bool                   `json:"correct"`
	Tolerance           float64                `json:"tolerance"`
	Estimator           string                 `json:"estimator,omitempty"`
	ImageURL            string                 `json:"image_url,omitempty"`
	CreatedAt           *time.Time             `json:"created_at,omitempty"`
}

type TemplateResponse struct {
	Name          string                      `json:"name"`
	CriticalParts []string                    `json:"critical_parts"`
	Reference     map[string]poseEngine.Point `json:"reference"`
}

type TemplateListResponse struct {
	Version   int                `json:"version"`
	Templates []TemplateResponse `json:"templates"`
}

type HistoryQuery struct {
	PoseName string
	Page     int
	Limit    int
}

type EvaluationSummary struct {
	ID        string    `json:"id"`
	PoseName  string    `json:"pose_name"`
	Correct   bool      `json:"correct"`
	Feedback  []string  `json:"feedback"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type HistoryResponse struct {
	Evaluations []EvaluationSummary `json:"evaluations"`
	Page        int                 `json:"page"`
	Limit       int                 `json:"limit"`
	Total       int                 `json:"total"`
}

// FrameError is what the streaming endpoint writes back for a frame it could
// not evaluate. The connection stays open.
type FrameError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
