// Package timestamps parses free-text clip notes into time-coded clips.
//
// The grammar is line-oriented and deliberately tolerant: lines that do not
// contain a time range are skipped, never rejected, so descriptive notes can
// live in the same text as the timestamps.
package timestamps

import (
	"regexp"
	"strconv"
	"strings"
)

// Clip is one user-defined time range with its free-text label. Start and End
// are seconds from the beginning of the video; fractional seconds are kept.
// Clips keep the order they appear in the source text.
type Clip struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Each side is either M:SS or H:MM:SS; the two sides of one range are parsed
// independently, so "1:30 - 1:02:00" mixing the two forms is valid. The dash
// may be a plain hyphen or an en-dash.
var rangePattern = regexp.MustCompile(
	`(\d{1,2}):(\d{1,2})(?:\.(\d+))?(?::(\d{1,2})(?:\.(\d+))?)?\s*[-\x{2013}]\s*(\d{1,2}):(\d{1,2})(?:\.(\d+))?(?::(\d{1,2})(?:\.(\d+))?)?`)

// Parse extracts clips from free-text notes. Lines are stripped of trailing
// comments, blank lines and lines without a time range are skipped silently,
// and everything after the matched range becomes the clip text. Parse never
// fails; at worst it returns an empty slice.
func Parse(text string) []Clip {
	clips := []Clip{}
	for _, line := range strings.Split(text, "\n") {
		line = stripComment(line)
		if strings.TrimSpace(line) == "" {
			continue
		}

		m := rangePattern.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}

		groups := make([]string, 10)
		for i := 0; i < 10; i++ {
			lo, hi := m[2+2*i], m[3+2*i]
			if lo >= 0 {
				groups[i] = line[lo:hi]
			}
		}

		clips = append(clips, Clip{
			Start: sideSeconds(groups[0], groups[1], groups[2], groups[3], groups[4]),
			End:   sideSeconds(groups[5], groups[6], groups[7], groups[8], groups[9]),
			Text:  strings.TrimSpace(line[m[1]:]),
		})
	}
	return clips
}

// sideSeconds interprets one side of a range. When the optional third group
// is present the side is H:MM:SS, otherwise M:SS. A fraction may follow
// either trailing component; in the long form a fraction on the minutes
// contributes its share of a minute rather than being lost.
func sideSeconds(first, second, secondFrac, third, thirdFrac string) float64 {
	a, _ := strconv.Atoi(first)
	b, _ := strconv.Atoi(second)

	if third == "" {
		return float64(a*60+b) + fraction(secondFrac)
	}
	c, _ := strconv.Atoi(third)
	return float64(a*3600+b*60+c) + fraction(secondFrac)*60 + fraction(thirdFrac)
}

func fraction(digits string) float64 {
	if digits == "" {
		return 0
	}
	f, err := strconv.ParseFloat("0."+digits, 64)
	if err != nil {
		return 0
	}
	return f
}

// stripComment removes a trailing "//" comment, ignoring "//" immediately
// preceded by ':' so URLs like https:// survive. When no "//" comment is
// found, a trailing "#" comment is removed instead.
func stripComment(line string) string {
	from := 0
	for {
		idx := strings.Index(line[from:], "//")
		if idx < 0 {
			break
		}
		idx += from
		if idx > 0 && line[idx-1] == ':' {
			from = idx + 2
			continue
		}
		return line[:idx]
	}

	if idx := strings.Index(line, "#"); idx >= 0 {
		return line[:idx]
	}
	return line
}
