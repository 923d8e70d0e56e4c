// Package gradient parses gradient specs (a registered preset name, or
// a ';'-separated list of threshold:color stops) and precomputes the
// 256-entry count->RGBA lookup table the renderer maps accumulator
// counts through.
package gradient

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"hotpot/herr"
)

// Stop is one (threshold, color) breakpoint.
type Stop struct {
	Threshold uint8
	Color     color.RGBA
}

// LUT is a precomputed 256-entry count->RGBA table.
type LUT [256]color.RGBA

// presets are common heatmap gradients a "color" query param can name;
// not part of spec.md's own vocabulary, but something has to populate
// it, so these are registered the way the spec's "registered preset
// name" branch implies.
var presets = map[string]string{
	"heat":     "1:000000FF;64:FF000080;128:FF8000C0;192:FFFF00E0;255:FFFFFFFF",
	"inferno":  "1:00051180;64:65156EC0;128:BA3655D8;192:F98C0AF0;255:FCFFA4FF",
	"magma":    "1:00040480;64:51127CC0;128:B73779D8;192:FB8861F0;255:FCFDBFFF",
	"blue-red": "1:0000FF80;128:FFFFFFC0;255:FF0000FF",
}

// Parse resolves a gradient spec: either a registered preset name, or a
// literal stop list.
func Parse(spec string) ([]Stop, error) {
	if preset, ok := presets[strings.ToLower(strings.TrimSpace(spec))]; ok {
		return parseStops(preset)
	}
	return parseStops(spec)
}

func parseStops(spec string) ([]Stop, error) {
	parts := strings.Split(spec, ";")
	stops := make([]Stop, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.IndexByte(part, ':')
		if idx < 0 {
			return nil, herr.Parse("gradient", fmt.Sprintf("stop %q missing ':'", part), nil)
		}
		thStr, colorStr := part[:idx], part[idx+1:]

		th, err := strconv.Atoi(thStr)
		if err != nil || th < 0 || th > 255 {
			return nil, herr.Parse("gradient", fmt.Sprintf("invalid threshold %q", thStr), err)
		}

		c, err := parseColor(colorStr)
		if err != nil {
			return nil, herr.Parse("gradient", fmt.Sprintf("invalid color %q", colorStr), err)
		}

		stops = append(stops, Stop{Threshold: uint8(th), Color: c})
	}

	if len(stops) == 0 {
		return nil, herr.Parse("gradient", "empty gradient", nil)
	}
	for i := 1; i < len(stops); i++ {
		if stops[i].Threshold <= stops[i-1].Threshold {
			return nil, herr.Parse("gradient", "thresholds must be strictly increasing", nil)
		}
	}
	return stops, nil
}

func parseColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	switch len(s) {
	case 3:
		b, err := hex.DecodeString(string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]}))
		if err != nil {
			return color.RGBA{}, err
		}
		return color.RGBA{R: b[0], G: b[1], B: b[2], A: 0xFF}, nil
	case 6:
		b, err := hex.DecodeString(s)
		if err != nil {
			return color.RGBA{}, err
		}
		return color.RGBA{R: b[0], G: b[1], B: b[2], A: 0xFF}, nil
	case 8:
		b, err := hex.DecodeString(s)
		if err != nil {
			return color.RGBA{}, err
		}
		return color.RGBA{R: b[0], G: b[1], B: b[2], A: b[3]}, nil
	default:
		return color.RGBA{}, fmt.Errorf("color must be 3, 6, or 8 hex digits, got %q", s)
	}
}

// Build precomputes the 256-entry LUT from a parsed stop list. Count 0
// is always fully transparent; counts below the first threshold are
// fully transparent; counts at or above the last threshold use the last
// color; counts between two stops interpolate every channel linearly.
func Build(stops []Stop) LUT {
	var lut LUT
	lut[0] = color.RGBA{}
	for c := 1; c < 256; c++ {
		lut[c] = colorAt(stops, uint8(c))
	}
	return lut
}

func colorAt(stops []Stop, c uint8) color.RGBA {
	if c < stops[0].Threshold {
		return color.RGBA{}
	}
	last := stops[len(stops)-1]
	if c >= last.Threshold {
		return last.Color
	}
	for i := 1; i < len(stops); i++ {
		if c <= stops[i].Threshold {
			lo, hi := stops[i-1], stops[i]
			span := float64(hi.Threshold - lo.Threshold)
			t := float64(c-lo.Threshold) / span
			return color.RGBA{
				R: lerp(lo.Color.R, hi.Color.R, t),
				G: lerp(lo.Color.G, hi.Color.G, t),
				B: lerp(lo.Color.B, hi.Color.B, t),
				A: lerp(lo.Color.A, hi.Color.A, t),
			}
		}
	}
	return last.Color
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

// ParseAndBuild is the common entry point used by render and httpapi.
func ParseAndBuild(spec string) (LUT, error) {
	stops, err := Parse(spec)
	if err != nil {
		return LUT{}, err
	}
	return Build(stops), nil
}
