package pose

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownPose      = errors.New("unknown pose")
	ErrInvalidDimension = errors.New("invalid image dimension")
	ErrInvalidTolerance = errors.New("invalid tolerance")
	ErrUnknownBodyPart  = errors.New("unknown body part")
	ErrInvalidTemplate  = errors.New("invalid pose template")
)

// UnknownPoseError is returned by Registry.Lookup for an unregistered name.
type UnknownPoseError struct {
	Name string
}

func (e *UnknownPoseError) Error() string {
	return fmt.Sprintf("unknown pose %q", e.Name)
}

func (e *UnknownPoseError) Is(target error) bool {
	return target == ErrUnknownPose
}

// InvalidDimensionError reports a non-positive image width or height.
type InvalidDimensionError struct {
	Axis  string
	Value float64
}

func (e *InvalidDimensionError) Error() string {
	return fmt.Sprintf("invalid image %s %v: must be positive", e.Axis, e.Value)
}

func (e *InvalidDimensionError) Is(target error) bool {
	return target == ErrInvalidDimension
}

type InvalidToleranceError struct {
	Value float64
}

func (e *InvalidToleranceError) Error() string {
	return fmt.Sprintf("invalid tolerance %v: must be positive", e.Value)
}

func (e *InvalidToleranceError) Is(target error) bool {
	return target == ErrInvalidTolerance
}
