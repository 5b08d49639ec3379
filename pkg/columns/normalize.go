// pkg/columns/normalize.go
package columns

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonWordPattern    = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	underscoreRuns    = regexp.MustCompile(`_+`)
)

// UnnamedColumn is the name given to a blank header cell
const UnnamedColumn = "unnamed"

// CleanHeader normalizes a single header cell to snake-ish ascii form
func CleanHeader(raw any) string {
	s := headerText(raw)
	s = strings.ToLower(strings.TrimSpace(stripDiacritics(s)))
	s = nonWordPattern.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = whitespacePattern.ReplaceAllString(s, "_")
	s = underscoreRuns.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return UnnamedColumn
	}
	return s
}

// CleanHeaders normalizes every header cell and disambiguates collisions
// with numeric suffixes in first-seen order: fim, fim_1, fim_2.
func CleanHeaders(header []any) []string {
	cleaned := make([]string, len(header))
	seen := make(map[string]int, len(header))
	taken := make(map[string]bool, len(header))

	for i, cell := range header {
		base := CleanHeader(cell)
		name := base
		if taken[name] {
			n := seen[base]
			for {
				n++
				name = base + "_" + strconv.Itoa(n)
				if !taken[name] {
					break
				}
			}
			seen[base] = n
		}
		taken[name] = true
		cleaned[i] = name
	}

	return cleaned
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func headerText(v any) string {
	switch h := v.(type) {
	case nil:
		return ""
	case string:
		return h
	case float64:
		return strconv.FormatFloat(h, 'f', -1, 64)
	case time.Time:
		return h.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", h)
	}
}
