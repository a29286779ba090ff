// Package wall classifies rendered page HTML as a login wall, a
// protected-account notice, or neither. The scans run over the full
// HTML string, not just visible text, so phrases hidden in markup or
// script payloads still count.
package wall

import (
	"strings"

	"github.com/samber/lo"
)

// Indicator phrases as they appear on rendered pages, lower-cased.
// Matching is substring based, so each entry should be long enough to
// not occur in ordinary post text.
var (
	privatePhrases = []string{
		"protected tweets",
		"these tweets are protected",
		"account that is protected",
		"protected their tweets",
		"protected posts",
	}

	loginPhrases = []string{
		"don't miss what's happening",
		"people on x are the first to know",
		"log in to x",
		"sign up for x",
		"join x today",
		"log in to follow",
	}

	ctaPhrases = []string{
		"sign in",
		"log in",
	}
)

// IsPrivateAccount reports whether the page shows a protected-account
// notice. Any single phrase from the protected list is enough; these
// notices replace the post content entirely, so there is no ambiguity
// to guard against.
func IsPrivateAccount(html string) bool {
	text := normalize(html)
	if text == "" {
		return false
	}
	return containsAny(text, privatePhrases)
}

// HasLoginWall reports whether the page is an authentication gate
// rather than post content. A page qualifies only when it carries both
// a login indicator phrase and an explicit sign-in call to action.
// Prose that merely mentions logging in usually carries one of the two
// signals, not both.
func HasLoginWall(html string) bool {
	text := normalize(html)
	if text == "" {
		return false
	}
	return containsAny(text, loginPhrases) && containsAny(text, ctaPhrases)
}

func containsAny(text string, phrases []string) bool {
	return lo.SomeBy(phrases, func(p string) bool {
		return strings.Contains(text, p)
	})
}

func normalize(html string) string {
	return strings.ToLower(strings.TrimSpace(html))
}
