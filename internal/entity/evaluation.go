package entity

import (
	"PoseCoach/pkg/pose"
	"time"
)

// Evaluation is one stored pose evaluation. The keypoint and deviation
// slices are persisted as JSONB and handled by the repository.
type Evaluation struct {
	ID                  string           `db:"id"`
	UserID              string           `db:"user_id"`
	PoseName            string           `db:"pose_name"`
	Tolerance           float64          `db:"tolerance"`
	ImageWidth          int              `db:"image_width"`
	ImageHeight         int              `db:"image_height"`
	Keypoints           []pose.Keypoint  `db:"-"`
	NormalizedKeypoints []pose.Keypoint  `db:"-"`
	Deviations          []pose.Deviation `db:"-"`
	Feedback            []string         `db:"-"`
	IsCorrect           bool             `db:"is_correct"`
	ImageURL            string           `db:"image_url"`
	Estimator           string           `db:"estimator"`
	CreatedAt           time.Time        `db:"created_at"`
}
