package metadata

import (
	"regexp"
	"strconv"
	"strings"
)

// Compact duration tokens as Twitch reports them, e.g. "3h2m1s", "45m30s",
// "2h". Each component is optional and contributes zero when absent.
var durationPattern = regexp.MustCompile(`^(?:(\d+)h)?(?:(\d+)m)?(?:(\d+)s)?$`)

// ISO-8601 durations as YouTube reports them, e.g. "PT1H2M3S". Multi-day live
// archives carry a day component ("P1DT2H") which must not be lost.
var isoDurationPattern = regexp.MustCompile(`^p(?:(\d+)d)?(?:t(?:(\d+)h)?(?:(\d+)m)?(?:(\d+)s)?)?$`)

// parseCompactDuration converts a compact token sequence to seconds. Input
// that does not match the token grammar yields 0; duration is a best-effort
// field and a bad value must not fail resolution.
func parseCompactDuration(s string) int {
	if s == "" {
		return 0
	}
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	return sumComponents(m[1:], []int{3600, 60, 1})
}

// parseISODuration converts an ISO-8601 duration to seconds, with the same
// best-effort contract as parseCompactDuration: unparseable input yields 0.
func parseISODuration(s string) int {
	if s == "" {
		return 0
	}
	m := isoDurationPattern.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 0
	}
	return sumComponents(m[1:], []int{86400, 3600, 60, 1})
}

func sumComponents(groups []string, mults []int) int {
	total := 0
	for i, mult := range mults {
		if groups[i] == "" {
			continue
		}
		n, err := strconv.Atoi(groups[i])
		if err != nil {
			return 0
		}
		total += n * mult
	}
	return total
}
