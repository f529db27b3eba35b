package input

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonWord    = regexp.MustCompile(`[^\w\s-]`)
	separators = regexp.MustCompile(`[-\s]+`)
)

// RemoveAccents decomposes s and drops combining marks and any remaining
// non-ASCII runes.
func RemoveAccents(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// SanitizeName turns a free-form company name into a file name fragment:
// accents are stripped, punctuation dropped and runs of spaces or dashes
// collapsed into one underscore.
func SanitizeName(s string) string {
	s = RemoveAccents(s)
	s = nonWord.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

var sizeUnits = []string{"bytes", "KB", "MB", "GB"}

// FormatSize renders n bytes with one decimal in the largest fitting unit.
func FormatSize(n int64) string {
	if n == 0 {
		return "0 bytes"
	}
	size := float64(n)
	i := 0
	for size >= 1024 && i < len(sizeUnits)-1 {
		size /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", size, sizeUnits[i])
}
