// Package platform recognises supported video links and extracts the
// platform-specific video id. It performs no network I/O.
package platform

import (
	"net/url"
	"strings"
)

const (
	YouTube = "youtube"
	TikTok  = "tiktok"
)

// Match is a classified video link
type Match struct {
	Platform string
	VideoID  string
}

// Classify parses raw and returns the platform and video id it points to.
// YouTube rules are tried before TikTok rules.
func Classify(raw string) (Match, bool) {
	u, host, ok := parse(raw)
	if !ok {
		return Match{}, false
	}

	if id, ok := youtubeID(u, host); ok {
		return Match{Platform: YouTube, VideoID: id}, true
	}
	if id, ok := tiktokID(u, host); ok {
		return Match{Platform: TikTok, VideoID: id}, true
	}
	return Match{}, false
}

// IsTikTokShortLink reports whether raw is a TikTok short link that has to
// be resolved by following redirects before it can be classified.
func IsTikTokShortLink(raw string) bool {
	u, host, ok := parse(raw)
	if !ok {
		return false
	}
	switch host {
	case "vm.tiktok.com", "vt.tiktok.com":
		return true
	case "tiktok.com", "m.tiktok.com":
		segs := segments(u.Path)
		return len(segs) > 1 && segs[0] == "t"
	}
	return false
}

func parse(raw string) (*url.URL, string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return nil, "", false
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	return u, host, true
}

func youtubeID(u *url.URL, host string) (string, bool) {
	if host == "youtu.be" {
		segs := segments(u.Path)
		if len(segs) == 0 {
			return "", false
		}
		return segs[0], true
	}

	if !strings.Contains(host, "youtube.com") {
		return "", false
	}
	if v := u.Query().Get("v"); v != "" {
		return v, true
	}
	segs := segments(u.Path)
	if len(segs) >= 2 && (segs[0] == "shorts" || segs[0] == "embed") {
		return segs[1], true
	}
	return "", false
}

func tiktokID(u *url.URL, host string) (string, bool) {
	if host != "tiktok.com" && host != "m.tiktok.com" {
		return "", false
	}
	segs := segments(u.Path)
	for i := 0; i+1 < len(segs); i++ {
		if segs[i] == "video" && isDigits(segs[i+1]) {
			return segs[i+1], true
		}
	}
	return "", false
}

// segments splits a URL path into its non-empty parts
func segments(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
