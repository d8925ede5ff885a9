package xapi

import (
	"net/url"
	"regexp"
	"strings"
)

// platformHosts are the X domains and its shortener. Links to these hosts or
// their subdomains are never external.
var platformHosts = []string{"x.com", "twitter.com", "t.co"}

var textURLPattern = regexp.MustCompile(`https?://[^\s]+`)

// extractExternalURLs prefers the structured URL entities, using the expanded
// form of shortened links. The body text is scanned only when the entities
// yield nothing. The two paths can disagree on edge cases.
func extractExternalURLs(t tweet) []string {
	var links []string
	for _, e := range t.Entities.URLs {
		expanded := e.ExpandedURL
		if expanded == "" {
			expanded = e.UnwrappedURL
		}
		if expanded == "" || isPlatformURL(expanded) {
			continue
		}
		links = append(links, expanded)
	}
	if len(links) > 0 {
		return links
	}

	for _, m := range textURLPattern.FindAllString(t.Text, -1) {
		m = strings.TrimRight(m, ".,;:!?)\"'")
		if isPlatformURL(m) {
			continue
		}
		links = append(links, m)
	}
	return links
}

// isPlatformURL reports whether raw points at an X domain. Unparseable URLs
// are treated as platform links so they are dropped.
func isPlatformURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return true
	}
	host := strings.ToLower(u.Hostname())
	for _, p := range platformHosts {
		if host == p || strings.HasSuffix(host, "."+p) {
			return true
		}
	}
	return false
}
