package dispatch

import (
	"fmt"
	"strings"
)

// ImageFilename returns {subject}-{period}-wrapped-{index+1}.png.
func ImageFilename(subject, period string, index int) string {
	return fmt.Sprintf("%s-%s-wrapped-%d.png", sanitize(subject, "user"), sanitize(period, "wrapped"), index+1)
}

// VideoFilename returns {subject}-{period}-wrapped.mp4.
func VideoFilename(subject, period string) string {
	return fmt.Sprintf("%s-%s-wrapped.mp4", sanitize(subject, "user"), sanitize(period, "wrapped"))
}

func sanitize(s, fallback string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return fallback
	}
	return out
}
