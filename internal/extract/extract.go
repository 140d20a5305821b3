// Package extract pulls http and https URLs out of free text.
package extract

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	// MaxInputLength bounds the text accepted for one extraction, in characters
	MaxInputLength = 100000
	// MaxURLLength bounds a single extracted URL
	MaxURLLength = 2048
)

var (
	urlPattern = regexp.MustCompile(`https?://(www\.)?[-a-zA-Z0-9@:%._+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b([-a-zA-Z0-9()@:%_+.~#?&/=]*)`)

	scriptScheme  = regexp.MustCompile(`(?i)javascript:`)
	eventHandler  = regexp.MustCompile(`(?i)on\w+=`)
	unsafeSchemes = regexp.MustCompile(`(?i)(javascript|data|vbscript|file|ftp):`)

	entityReplacer = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")
)

// Result is the outcome of one extraction
type Result struct {
	URLs      []string
	Found     int
	Truncated bool
}

// FromText returns the distinct valid URLs in text, in order of first
// appearance, keeping at most limit of them. Found counts every distinct
// valid URL before the cap.
func FromText(text string, limit int) Result {
	clean := Sanitize(text)

	seen := make(map[string]struct{})
	urls := make([]string, 0)
	for _, candidate := range urlPattern.FindAllString(clean, -1) {
		if !Valid(candidate) {
			continue
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		urls = append(urls, candidate)
	}

	res := Result{URLs: urls, Found: len(urls)}
	if limit >= 0 && len(urls) > limit {
		res.URLs = urls[:limit]
		res.Truncated = true
	}
	return res
}

// Sanitize strips markup and script fragments from text before matching
func Sanitize(text string) string {
	text = strings.NewReplacer("<", "", ">", "").Replace(text)
	text = scriptScheme.ReplaceAllString(text, "")
	text = eventHandler.ReplaceAllString(text, "")
	return strings.TrimSpace(entityReplacer.Replace(text))
}

// Valid reports whether raw is an absolute http(s) URL that is safe to return
func Valid(raw string) bool {
	if raw == "" || len(raw) > MaxURLLength {
		return false
	}
	if unsafeSchemes.MatchString(raw) {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
