package extract

import (
	"net/url"
	"regexp"
	"strings"
)

// PostRef identifies one post: who wrote it and its numeric id.
type PostRef struct {
	Author string
	ID     string
	URL    string
}

// Stem is the suggested filename stem for media taken from this post.
func (r PostRef) Stem() string {
	return r.Author + "_" + r.ID
}

var postHosts = map[string]bool{
	"x.com":              true,
	"www.x.com":          true,
	"mobile.x.com":       true,
	"twitter.com":        true,
	"www.twitter.com":    true,
	"mobile.twitter.com": true,
}

// Handles are 1-15 word characters. Path segments that look like
// handles but are site sections can never own a post.
var (
	authorPattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)
	postIDPattern = regexp.MustCompile(`^[0-9]+$`)

	reservedSegments = map[string]bool{
		"i":             true,
		"home":          true,
		"search":        true,
		"explore":       true,
		"notifications": true,
		"messages":      true,
		"settings":      true,
	}
)

// ParsePostRef validates a target URL and pulls out the author and
// post id. URLs that do not look like a post at all classify as
// invalid input; URLs with the right shape but unusable fields
// classify as parse errors. Neither opens a browser.
func ParsePostRef(raw string) (PostRef, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PostRef{}, classifyf(ClassInvalidInput, "no target URL given")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return PostRef{}, classifyf(ClassInvalidInput, "unparseable URL %q", raw)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return PostRef{}, classifyf(ClassInvalidInput, "unsupported scheme %q (need http or https)", parsed.Scheme)
	}
	if !postHosts[strings.ToLower(parsed.Hostname())] {
		return PostRef{}, classifyf(ClassInvalidInput, "%q is not a recognized post host", parsed.Hostname())
	}

	segments := splitPath(parsed.Path)
	statusAt := -1
	for i, seg := range segments {
		if seg == "status" || seg == "statuses" {
			statusAt = i
			break
		}
	}
	if statusAt != 1 || len(segments) < 3 {
		return PostRef{}, classifyf(ClassInvalidInput, "%q does not look like a post URL (expected /author/status/id)", raw)
	}

	author := segments[0]
	id := segments[2]

	if reservedSegments[strings.ToLower(author)] {
		return PostRef{}, classifyf(ClassParseError, "%q is a site section, not an author handle", author)
	}
	if !authorPattern.MatchString(author) {
		return PostRef{}, classifyf(ClassParseError, "author handle %q is malformed", author)
	}
	if !postIDPattern.MatchString(id) {
		return PostRef{}, classifyf(ClassParseError, "post id %q is not numeric", id)
	}

	return PostRef{Author: author, ID: id, URL: trimmed}, nil
}

func splitPath(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
