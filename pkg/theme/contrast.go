package theme

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Luminance returns the WCAG relative luminance of a #rrggbb color, 0 to 1.
// Invalid colors report 0.
func Luminance(hex string) float64 {
	rgb, ok := parseHex(hex)
	if !ok {
		return 0
	}
	var lin [3]float64
	for i, c := range rgb {
		v := float64(c) / 255.0
		if v <= 0.03928 {
			lin[i] = v / 12.92
		} else {
			lin[i] = math.Pow((v+0.055)/1.055, 2.4)
		}
	}
	return 0.2126*lin[0] + 0.7152*lin[1] + 0.0722*lin[2]
}

// ContrastRatio returns the WCAG contrast ratio between two colors, 1 to 21.
func ContrastRatio(fg, bg string) float64 {
	l1, l2 := Luminance(fg), Luminance(bg)
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

// EnsureContrast nudges fg away from bg until minRatio is met (4.5 for AA).
// Falls back to black or white.
func EnsureContrast(fg, bg string, minRatio float64) string {
	if ContrastRatio(fg, bg) >= minRatio {
		return fg
	}
	lighten := Luminance(fg) > Luminance(bg)
	for step := 1; step <= 10; step++ {
		amount := float64(step) / 10
		adjusted := shade(fg, amount, lighten)
		if ContrastRatio(adjusted, bg) >= minRatio {
			return adjusted
		}
	}
	if Luminance(bg) > 0.5 {
		return "#000000"
	}
	return "#ffffff"
}

// TextFor picks black or white text for a background.
func TextFor(bg string) string {
	if ContrastRatio("#ffffff", bg) >= ContrastRatio("#000000", bg) {
		return "#ffffff"
	}
	return "#000000"
}

// shade moves a color toward white (lighten) or black by amount in [0,1].
func shade(hex string, amount float64, lighten bool) string {
	rgb, ok := parseHex(hex)
	if !ok {
		return hex
	}
	for i, c := range rgb {
		if lighten {
			rgb[i] = c + int(float64(255-c)*amount)
		} else {
			rgb[i] = int(float64(c) * (1 - amount))
		}
	}
	return formatHex(rgb)
}

func parseHex(hex string) ([3]int, bool) {
	var rgb [3]int
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return rgb, false
	}
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(h[i*2:i*2+2], 16, 8)
		if err != nil {
			return rgb, false
		}
		rgb[i] = int(v)
	}
	return rgb, true
}

func formatHex(rgb [3]int) string {
	for i := range rgb {
		rgb[i] = max(0, min(255, rgb[i]))
	}
	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2])
}
