package report

import "strings"

var latin1 = strings.NewReplacer(
	"≥", ">=",
	"≤", "<=",
	"°", " deg",
	"Ω", " ohm",
	"µ", "u",
	"×", "x",
	"–", "-",
	"—", "-",
	"✔", "[OK]",
	"✘", "[X]",
)

// Sanitize replaces the typographic symbols used in notes with ASCII so the
// text survives Latin-1 only consumers.
func Sanitize(s string) string {
	return latin1.Replace(s)
}
