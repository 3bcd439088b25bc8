package pose

import "math"

// Normalize maps pixel-space keypoints into the unit square by dividing x by
// width and y by height. Values outside [0,1] pass through unclamped.
//
// When the same body part appears more than once the last occurrence wins.
func Normalize(keypoints []Keypoint, width, height float64) (map[BodyPart]Point, error) {
	if err := checkDimension("width", width); err != nil {
		return nil, err
	}
	if err := checkDimension("height", height); err != nil {
		return nil, err
	}

	out := make(map[BodyPart]Point, len(keypoints))
	for _, kp := range keypoints {
		out[kp.BodyPart] = Point{X: kp.X / width, Y: kp.Y / height}
	}
	return out, nil
}

// NormalizeKeypoints is Normalize with the result ordered by body part.
func NormalizeKeypoints(keypoints []Keypoint, width, height float64) ([]Keypoint, error) {
	points, err := Normalize(keypoints, width, height)
	if err != nil {
		return nil, err
	}
	return sortedKeypoints(points), nil
}

func checkDimension(axis string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return &InvalidDimensionError{Axis: axis, Value: v}
	}
	return nil
}
