package pose

import (
	"errors"
	"testing"
)

func TestBodyPartsOrder(t *testing.T) {
	parts := BodyParts()
	if len(parts) != 17 {
		t.Fatalf("Expected 17 body parts, got %d", len(parts))
	}
	if parts[0] != Nose || parts[16] != RightAnkle {
		t.Errorf("Unexpected order: first=%s last=%s", parts[0], parts[16])
	}
}

func TestBodyPartLabel(t *testing.T) {
	if got := LeftKnee.Label(); got != "left knee" {
		t.Errorf("Expected label 'left knee', got %q", got)
	}
	if got := Nose.Label(); got != "nose" {
		t.Errorf("Expected label 'nose', got %q", got)
	}
}

func TestParseBodyPart(t *testing.T) {
	for _, in := range []string{"left_knee", "LEFT_KNEE", "Left Knee", "left-knee"} {
		p, err := ParseBodyPart(in)
		if err != nil {
			t.Errorf("ParseBodyPart(%q) error: %v", in, err)
			continue
		}
		if p != LeftKnee {
			t.Errorf("ParseBodyPart(%q) = %s, want left_knee", in, p)
		}
	}

	if _, err := ParseBodyPart("left_tail"); !errors.Is(err, ErrUnknownBodyPart) {
		t.Errorf("Expected ErrUnknownBodyPart, got %v", err)
	}
}

func TestBodyPartTextRoundTrip(t *testing.T) {
	for _, p := range BodyParts() {
		text, err := p.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d) error: %v", p, err)
		}
		var back BodyPart
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s) error: %v", text, err)
		}
		if back != p {
			t.Errorf("Round trip of %s gave %s", p, back)
		}
	}

	if _, err := BodyPart(99).MarshalText(); err == nil {
		t.Error("Expected error marshaling out-of-range body part")
	}
}
