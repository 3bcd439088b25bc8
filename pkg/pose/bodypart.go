package pose

import (
	"fmt"
	"strings"
)

// BodyPart identifies one anatomical landmark. The order follows the
// 17-keypoint MoveNet/COCO layout.
type BodyPart int

const (
	Nose BodyPart = iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle

	numBodyParts
)

var bodyPartNames = [numBodyParts]string{
	Nose:          "nose",
	LeftEye:       "left_eye",
	RightEye:      "right_eye",
	LeftEar:       "left_ear",
	RightEar:      "right_ear",
	LeftShoulder:  "left_shoulder",
	RightShoulder: "right_shoulder",
	LeftElbow:     "left_elbow",
	RightElbow:    "right_elbow",
	LeftWrist:     "left_wrist",
	RightWrist:    "right_wrist",
	LeftHip:       "left_hip",
	RightHip:      "right_hip",
	LeftKnee:      "left_knee",
	RightKnee:     "right_knee",
	LeftAnkle:     "left_ankle",
	RightAnkle:    "right_ankle",
}

// BodyParts returns every known body part in declaration order.
func BodyParts() []BodyPart {
	parts := make([]BodyPart, 0, numBodyParts)
	for p := Nose; p < numBodyParts; p++ {
		parts = append(parts, p)
	}
	return parts
}

func (b BodyPart) Valid() bool {
	return b >= Nose && b < numBodyParts
}

// String returns the snake_case identifier used on the wire and in template files.
func (b BodyPart) String() string {
	if !b.Valid() {
		return fmt.Sprintf("body_part(%d)", int(b))
	}
	return bodyPartNames[b]
}

// Label returns the lower-case human readable name, e.g. "left knee".
func (b BodyPart) Label() string {
	return strings.ReplaceAll(b.String(), "_", " ")
}

// ParseBodyPart accepts the snake_case id, case-insensitively. Spaces and
// dashes are treated as underscores so "Left Knee" parses as well.
func ParseBodyPart(s string) (BodyPart, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	for p, name := range bodyPartNames {
		if name == key {
			return BodyPart(p), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBodyPart, s)
}

func (b BodyPart) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBodyPart, int(b))
	}
	return []byte(b.String()), nil
}

func (b *BodyPart) UnmarshalText(text []byte) error {
	p, err := ParseBodyPart(string(text))
	if err != nil {
		return err
	}
	*b = p
	return nil
}
