package game

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// formatAge renders how long ago a history entry was made: MM:SS under an
// hour, then hours, then the date.
func formatAge(d time.Duration, at time.Time) string {
	switch {
	case d < 0:
		d = 0
		fallthrough
	case d < time.Hour:
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		return fmt.Sprintf("%02d:%02d ago", minutes, seconds)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return at.Format("2006-01-02")
	}
}

// glyphs the HUD font cannot draw, with ASCII stand-ins.
var asciiReplacer = strings.NewReplacer("★", "*", "…", "...", "←", "<-", "—", "-", "–", "-")

// asciiOnly maps text onto the printable ASCII range of the HUD font.
func asciiOnly(s string) string {
	s = asciiReplacer.Replace(s)
	var b strings.Builder
	for _, r := range s {
		if r >= 0x20 && r < 0x7f {
			b.WriteRune(r)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}

// truncate shortens s to at most n runes, marking the cut.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 3 {
		return string([]rune(s)[:n])
	}
	return string([]rune(s)[:n-3]) + "..."
}
