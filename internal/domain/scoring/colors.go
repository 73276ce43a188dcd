package scoring

import "regexp"

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Palette used for dimensions without an explicit color.
var Palette = []string{
	"#1E88E5",
	"#43A047",
	"#FB8C00",
	"#8E24AA",
	"#00ACC1",
	"#F4511E",
	"#3949AB",
	"#C0CA33",
}

func IsHexColor(value string) bool {
	return hexColor.MatchString(value)
}

// DimensionColor returns the explicit color when valid, else a palette entry by display order.
func DimensionColor(explicit string, displayOrder int) string {
	if IsHexColor(explicit) {
		return explicit
	}
	if displayOrder < 0 {
		displayOrder = -displayOrder
	}
	return Palette[displayOrder%len(Palette)]
}

const (
	ColorRed         = "#E53935"
	ColorOrange      = "#FB8C00"
	ColorGreenYellow = "#C0CA33"
	ColorGreen       = "#43A047"
)

// ScoreColor is the traffic-light band for a percentage.
func ScoreColor(pct float64) string {
	switch {
	case pct < 40:
		return ColorRed
	case pct < 60:
		return ColorOrange
	case pct < 80:
		return ColorGreenYellow
	default:
		return ColorGreen
	}
}
