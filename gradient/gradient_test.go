package gradient

import (
	"image/color"
	"testing"
)

func TestScenario3ExactStops(t *testing.T) {
	lut, err := ParseAndBuild("1:FF0000;255:FFFFFF")
	if err != nil {
		t.Fatal(err)
	}
	if lut[0] != (color.RGBA{}) {
		t.Fatalf("count 0 should be fully transparent, got %v", lut[0])
	}
	want1 := color.RGBA{R: 255, G: 0, B: 0, A: 255}
	if lut[1] != want1 {
		t.Fatalf("count 1: want %v got %v", want1, lut[1])
	}
	mid := lut[128]
	if mid.R != 255 || absDiff(mid.G, 128) > 1 || absDiff(mid.B, 128) > 1 || mid.A != 255 {
		t.Fatalf("count 128: want ~(255,128,128,255) got %v", mid)
	}
	want255 := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	if lut[255] != want255 {
		t.Fatalf("count 255: want %v got %v", want255, lut[255])
	}
}

func absDiff(a uint8, b int) int {
	d := int(a) - b
	if d < 0 {
		return -d
	}
	return d
}

func TestParseRejectsEmptyAndNonIncreasing(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Fatal("expected error for empty gradient")
	}
	if _, err := Parse("10:FF0000;5:00FF00"); err == nil {
		t.Fatal("expected error for non-increasing thresholds")
	}
	if _, err := Parse("10:FF0000;10:00FF00"); err == nil {
		t.Fatal("expected error for equal thresholds")
	}
}

func TestParseAcceptsPresets(t *testing.T) {
	if _, err := Parse("heat"); err != nil {
		t.Fatalf("expected preset 'heat' to parse: %v", err)
	}
	if _, err := Parse("inferno"); err != nil {
		t.Fatalf("expected preset 'inferno' to parse: %v", err)
	}
}

func TestParseColorVariants(t *testing.T) {
	stops, err := Parse("1:F00;255:00FF00FF")
	if err != nil {
		t.Fatal(err)
	}
	if stops[0].Color != (color.RGBA{R: 255, G: 0, B: 0, A: 255}) {
		t.Fatalf("3-digit hex expansion failed: %v", stops[0].Color)
	}
	if stops[1].Color != (color.RGBA{G: 255, A: 255}) {
		t.Fatalf("8-digit hex parse failed: %v", stops[1].Color)
	}
}
