package pose

import (
	poseEngine "PoseCoach/pkg/pose"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const maxPoseNameLength = 64

// RegisterValidations adds the body_part and pose_name tags used by the
// request DTOs. pose_name only checks the shape of the name; whether the pose
// exists is decided by the registry.
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("body_part", validateBodyPart); err != nil {
		return err
	}
	return v.RegisterValidation("pose_name", validatePoseName)
}

func validateBodyPart(fl validator.FieldLevel) bool {
	_, err := poseEngine.ParseBodyPart(fl.Field().String())
	return err == nil
}

func validatePoseName(fl validator.FieldLevel) bool {
	name := strings.TrimSpace(fl.Field().String())
	if name == "" || len(name) > maxPoseNameLength {
		return false
	}
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
