package pose

import (
	"fmt"
	"math"
	"strings"
)

// MessageFormat selects how much detail a feedback message carries.
type MessageFormat int

const (
	// FormatDetailed appends the deviation as a whole percentage.
	FormatDetailed MessageFormat = iota
	FormatSimple
)

func ParseMessageFormat(s string) (MessageFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "detailed":
		return FormatDetailed, nil
	case "simple":
		return FormatSimple, nil
	default:
		return 0, fmt.Errorf("unknown feedback format %q", s)
	}
}

func (f MessageFormat) String() string {
	if f == FormatSimple {
		return "simple"
	}
	return "detailed"
}

// Generator turns deviations into corrective instructions.
type Generator struct {
	Format MessageFormat
}

// Generate produces feedback in the detailed format.
func Generate(deviations []Deviation, tolerance float64) []string {
	return Generator{Format: FormatDetailed}.Generate(deviations, tolerance)
}

// Generate emits, per deviation and in input order, at most one horizontal and
// one vertical message. An axis fires only when its magnitude is strictly
// greater than tolerance. dx > 0 maps to "left", dy > 0 maps to "up".
func (g Generator) Generate(deviations []Deviation, tolerance float64) []string {
	feedback := make([]string, 0, 2*len(deviations))
	for _, d := range deviations {
		if msg, ok := g.horizontal(d.BodyPart, d.DX, tolerance); ok {
			feedback = append(feedback, msg)
		}
		if msg, ok := g.vertical(d.BodyPart, d.DY, tolerance); ok {
			feedback = append(feedback, msg)
		}
	}
	return feedback
}

// toleranceEpsilon absorbs subtraction error, so 0.40-0.30 counts as exactly 0.10.
const toleranceEpsilon = 1e-9

func withinTolerance(d, tolerance float64) bool {
	return math.Abs(d)-tolerance <= toleranceEpsilon
}

func (g Generator) horizontal(part BodyPart, dx, tolerance float64) (string, bool) {
	if withinTolerance(dx, tolerance) {
		return "", false
	}
	direction := "right"
	if dx > 0 {
		direction = "left"
	}
	return g.message("Move", part, direction, dx), true
}

func (g Generator) vertical(part BodyPart, dy, tolerance float64) (string, bool) {
	if withinTolerance(dy, tolerance) {
		return "", false
	}
	if dy > 0 {
		return g.message("Lift", part, "up", dy), true
	}
	return g.message("Lower", part, "down", dy), true
}

func (g Generator) message(verb string, part BodyPart, direction string, delta float64) string {
	if g.Format == FormatSimple {
		return fmt.Sprintf("%s your %s %s.", verb, part.Label(), direction)
	}
	return fmt.Sprintf("%s your %s %s by %d%%.", verb, part.Label(), direction, percent(delta))
}

func percent(delta float64) int {
	return int(math.Round(math.Abs(delta) * 100))
}
