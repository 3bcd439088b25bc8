package pose

import "sort"

// Point is a 2-D coordinate. The same type carries pixel-space and
// normalized-space values; callers keep the two apart.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Keypoint is one detected landmark as produced by a pose estimator.
// Score is the estimator confidence; the engine never interprets it.
type Keypoint struct {
	BodyPart BodyPart `json:"body_part"`
	Point
	Score float64 `json:"score,omitempty"`
}

// Deviation is the signed offset of a user point from the reference point,
// in normalized units.
type Deviation struct {
	BodyPart BodyPart `json:"body_part"`
	DX       float64  `json:"dx"`
	DY       float64  `json:"dy"`
}

// EvaluationResult is the outcome of a single Evaluate call.
type EvaluationResult struct {
	PoseName            string      `json:"pose_name"`
	RawKeypoints        []Keypoint  `json:"keypoints"`
	NormalizedKeypoints []Keypoint  `json:"normalized_keypoints"`
	Deviations          []Deviation `json:"deviations"`
	Feedback            []string    `json:"feedback"`
}

// Correct reports whether no critical body part exceeded the tolerance.
func (r *EvaluationResult) Correct() bool {
	return len(r.Feedback) == 0
}

func sortedKeypoints(points map[BodyPart]Point) []Keypoint {
	out := make([]Keypoint, 0, len(points))
	for part, p := range points {
		out = append(out, Keypoint{BodyPart: part, Point: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BodyPart < out[j].BodyPart })
	return out
}
