package theme

import (
	"os"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
)

// IsDark reports whether the console should use its dark palette.
// mode is "dark", "light" or "auto".
func IsDark(mode string) bool {
	switch mode {
	case "dark":
		return true
	case "light":
		return false
	}
	if dark, ok := darkFromCOLORFGBG(os.Getenv("COLORFGBG")); ok {
		return dark
	}
	// OSC query; answers "dark" when the terminal does not reply.
	return termenv.NewOutput(os.Stdout).HasDarkBackground()
}

// darkFromCOLORFGBG parses "fg;bg" ANSI indices. 0-7 are dark backgrounds.
func darkFromCOLORFGBG(v string) (bool, bool) {
	if v == "" {
		return false, false
	}
	parts := strings.Split(v, ";")
	if len(parts) < 2 {
		return false, false
	}
	bg, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return false, false
	}
	return bg < 8 || bg == 16, true
}
