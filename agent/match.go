package agent

import (
	"regexp"
	"strings"
)

// MatchesURL reports whether this agent should monitor the given page.
// The hostname must match a configured site (exact or subdomain) and the
// URL must match a configured pattern. An agent with no patterns is
// pattern-matched by default, so site-only agents fire on every page of
// their sites.
func (a *Agent) MatchesURL(hostname, pageURL string) bool {
	return a.matchesSite(hostname) && a.matchesPattern(pageURL)
}

// matchesSite tests the hostname against the configured site list. A site
// entry matches on equality or as a dot-separated suffix, so "amazon.com"
// covers "www.amazon.com" but not "notamazon.com". Entries like "*.com"
// are compared literally; wildcard expansion is not performed.
func (a *Agent) matchesSite(hostname string) bool {
	for _, site := range a.Sites {
		if hostname == site || strings.HasSuffix(hostname, "."+site) {
			return true
		}
	}
	return false
}

// matchesPattern tests the URL against the configured regex patterns,
// case-insensitively. Invalid patterns are skipped, never fatal.
func (a *Agent) matchesPattern(pageURL string) bool {
	if len(a.URLPatterns) == 0 {
		return true
	}
	for _, pattern := range a.URLPatterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			continue
		}
		if re.MatchString(pageURL) {
			return true
		}
	}
	return false
}
