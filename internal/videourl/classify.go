// Package videourl classifies raw video URLs into a platform and resource id.
// Classification is pure pattern matching; it performs no network I/O and
// unrecognized input yields PlatformUnknown rather than an error.
package videourl

import (
	"net/url"
	"regexp"
	"strings"
)

type Platform string

const (
	PlatformYouTube Platform = "youtube"
	PlatformChzzk   Platform = "chzzk"
	PlatformTwitch  Platform = "twitch"
	PlatformUnknown Platform = "unknown"
)

// Ref identifies one video (or live channel) on one platform. It is derived
// solely from a URL string and is immutable once classified.
type Ref struct {
	Platform   Platform `json:"platform"`
	ResourceID string   `json:"resource_id"`
	IsLive     bool     `json:"is_live"`
}

func (r Ref) Known() bool {
	return r.Platform != PlatformUnknown
}

// Patterns are keyed by the exact canonical host and anchored at the start of
// the path, so a hostile or typo host that merely embeds a platform URL as a
// substring never matches.
type pattern struct {
	host     string
	re       *regexp.Regexp
	platform Platform
	isLive   bool
}

// Order matters: the first matching pattern wins. The regexes run against the
// path plus "?query" of an already host-verified URL.
var patterns = []pattern{
	{"youtube.com", regexp.MustCompile(`^/watch\?(?:[^#\s]*&)?v=([A-Za-z0-9_-]{6,})`), PlatformYouTube, false},
	{"youtube.com", regexp.MustCompile(`^/shorts/([A-Za-z0-9_-]{6,})`), PlatformYouTube, false},
	{"youtube.com", regexp.MustCompile(`^/live/([A-Za-z0-9_-]{6,})`), PlatformYouTube, false},
	{"youtu.be", regexp.MustCompile(`^/([A-Za-z0-9_-]{6,})`), PlatformYouTube, false},
	{"chzzk.naver.com", regexp.MustCompile(`^/video/(\d+)`), PlatformChzzk, false},
	// Live channel URLs embed the channel id directly; there is no video id.
	{"chzzk.naver.com", regexp.MustCompile(`^/live/([0-9a-f]{32})`), PlatformChzzk, true},
	{"twitch.tv", regexp.MustCompile(`^/videos/(\d+)`), PlatformTwitch, false},
}

// Classify maps a raw URL string to a Ref. It never fails: input that matches
// no known pattern returns a Ref with PlatformUnknown, which callers surface
// as a user-facing validation error rather than a system fault.
func Classify(rawURL string) Ref {
	host, target, ok := splitURL(rawURL)
	if !ok {
		return Ref{Platform: PlatformUnknown}
	}

	for _, p := range patterns {
		if p.host != host {
			continue
		}
		if m := p.re.FindStringSubmatch(target); m != nil {
			return Ref{Platform: p.platform, ResourceID: m[1], IsLive: p.isLive}
		}
	}
	return Ref{Platform: PlatformUnknown}
}

// splitURL parses rawURL and returns the canonical host (lowercased, port and
// www./m. prefix stripped) together with the path?query to match against.
func splitURL(rawURL string) (host, target string, ok bool) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return "", "", false
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "", "", false
	}

	host = strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")

	target = u.EscapedPath()
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return host, target, true
}
