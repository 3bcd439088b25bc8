package entity

import "PoseCoach/pkg/pose"

// PoseEstimation is what a pose estimator returns for one frame: pixel-space
// keypoints plus the dimensions of the image they refer to.
type PoseEstimation struct {
	Keypoints []pose.Keypoint `json:"keypoints"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Error     string          `json:"error,omitempty"`
}
