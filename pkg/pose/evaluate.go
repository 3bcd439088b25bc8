package pose

import "math"

// Evaluator composes normalization, template lookup, comparison and feedback
// generation. It holds no per-call state and may be shared between goroutines.
type Evaluator struct {
	registry  *Registry
	generator Generator
}

func NewEvaluator(registry *Registry, format MessageFormat) *Evaluator {
	return &Evaluator{
		registry:  registry,
		generator: Generator{Format: format},
	}
}

func (e *Evaluator) Registry() *Registry {
	return e.registry
}

// Evaluate scores raw pixel-space keypoints against the named pose. On error
// no partial result is returned.
func (e *Evaluator) Evaluate(poseName string, raw []Keypoint, width, height, tolerance float64) (*EvaluationResult, error) {
	if math.IsNaN(tolerance) || tolerance <= 0 {
		return nil, &InvalidToleranceError{Value: tolerance}
	}

	normalized, err := Normalize(raw, width, height)
	if err != nil {
		return nil, err
	}

	tpl, err := e.registry.Lookup(poseName)
	if err != nil {
		return nil, err
	}

	deviations := Compare(normalized, tpl)

	rawCopy := make([]Keypoint, len(raw))
	copy(rawCopy, raw)

	return &EvaluationResult{
		PoseName:            tpl.Name,
		RawKeypoints:        rawCopy,
		NormalizedKeypoints: sortedKeypoints(normalized),
		Deviations:          deviations,
		Feedback:            e.generator.Generate(deviations, tolerance),
	}, nil
}
