package colour

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/wheelibin/glow/internal/glowerrors"
	"github.com/wheelibin/glow/internal/models"
)

var hexPattern = regexp.MustCompile(`(?i)^#?([a-f\d]{2})([a-f\d]{2})([a-f\d]{2})$`)

// FromHsv returns the device native color string ("#rrggbb") for a color wheel value
func FromHsv(hsv models.HSV) string {
	return colorful.Hsv(hsv.H, hsv.S, hsv.V).Clamped().Hex()
}

// HexToRGB parses a 6 hex digit color with an optional leading '#'.
// ok is false if the string doesn't match.
func HexToRGB(hex string) (models.RGB, bool) {
	m := hexPattern.FindStringSubmatch(hex)
	if m == nil {
		return models.RGB{}, false
	}
	// the pattern guarantees two hex digits per channel
	r, _ := strconv.ParseUint(m[1], 16, 8)
	g, _ := strconv.ParseUint(m[2], 16, 8)
	b, _ := strconv.ParseUint(m[3], 16, 8)
	return models.RGB{R: int(r), G: int(g), B: int(b)}, true
}

func RGBToHex(c models.RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RGBFromHsv converts a color wheel value straight to the triple written to the store
func RGBFromHsv(hsv models.HSV) (models.RGB, bool) {
	return HexToRGB(FromHsv(hsv))
}

// Normalize returns the lower case, '#' prefixed form of a valid hex color
func Normalize(hex string) string {
	return "#" + strings.ToLower(strings.TrimPrefix(hex, "#"))
}

// ParseHSV reads "h,s,v" with hue in degrees and saturation/value in [0,1]
func ParseHSV(s string) (models.HSV, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return models.HSV{}, glowerrors.InvalidInputf("hsv %q should be h,s,v", s)
	}
	var values [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return models.HSV{}, glowerrors.InvalidInputf("hsv component %q", p)
		}
		values[i] = v
	}
	hsv := models.HSV{H: values[0], S: values[1], V: values[2]}
	if hsv.H < 0 || hsv.H >= 360 || hsv.S < 0 || hsv.S > 1 || hsv.V < 0 || hsv.V > 1 {
		return models.HSV{}, glowerrors.InvalidInputf("hsv %q out of range", s)
	}
	return hsv, nil
}
