package extract

import (
	"sort"

	"github.com/lvcoi/xgrab/internal/media"
)

// Score weights. The progressive bonus puts any resolvable container
// file above an unscored playlist; the master bonus exceeds any
// realistic width*height product so a master manifest always outranks
// a single-quality variant.
const (
	progressiveBonus = 10 << 20
	masterBonus      = 1 << 26
)

// Candidate is one media URL observed during a page load, classified
// and scored for ranking.
type Candidate struct {
	URL       string
	Kind      media.Kind
	Width     int
	Height    int
	Score     int64
	AudioOnly bool
}

// newCandidate classifies a raw URL into a ranked candidate. The
// fragment is stripped first so URLs differing only by fragment
// collapse into one key.
func newCandidate(rawURL string) Candidate {
	u := media.StripFragment(rawURL)
	c := Candidate{
		URL:       u,
		Kind:      media.KindOf(u),
		AudioOnly: media.AudioOnly(u),
	}
	if w, h, ok := media.ParseResolution(u); ok {
		c.Width = w
		c.Height = h
		c.Score += int64(w) * int64(h)
	}
	if c.Kind.Progressive() && !c.AudioOnly {
		c.Score += progressiveBonus
	}
	if c.Kind.Playlist() && media.MasterPlaylist(u) {
		c.Score += masterBonus
	}
	return c
}

// buildCandidates converts raw URLs into deduplicated candidates,
// keyed by the fragment-stripped URL.
func buildCandidates(rawURLs []string) []Candidate {
	seen := make(map[string]struct{}, len(rawURLs))
	out := make([]Candidate, 0, len(rawURLs))
	for _, raw := range rawURLs {
		c := newCandidate(raw)
		if _, dup := seen[c.URL]; dup {
			continue
		}
		seen[c.URL] = struct{}{}
		out = append(out, c)
	}
	return out
}

// partition splits candidates into the two pools the selector ranks:
// playlists, and progressive video files. Audio renditions and raw
// transport segments are not acceptable final picks and drop out
// here.
func partition(cands []Candidate) (playlists, progressive []Candidate) {
	for _, c := range cands {
		switch {
		case c.Kind.Playlist():
			playlists = append(playlists, c)
		case c.Kind.Progressive() && !c.AudioOnly:
			progressive = append(progressive, c)
		}
	}
	return playlists, progressive
}

// rankProgressive orders progressive candidates best-first: delivery
// marker presence, then score.
func rankProgressive(cands []Candidate) []Candidate {
	ranked := make([]Candidate, len(cands))
	copy(ranked, cands)
	sort.SliceStable(ranked, func(i, j int) bool {
		di := media.ProgressiveDelivery(ranked[i].URL)
		dj := media.ProgressiveDelivery(ranked[j].URL)
		if di != dj {
			return di
		}
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// rankPlaylists orders playlists best-first by score, which puts a
// master manifest ahead of single-quality variants.
func rankPlaylists(playlists []Candidate) []Candidate {
	ranked := make([]Candidate, len(playlists))
	copy(ranked, playlists)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func bestPlaylist(playlists []Candidate) (Candidate, bool) {
	if len(playlists) == 0 {
		return Candidate{}, false
	}
	best := playlists[0]
	for _, c := range playlists[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best, true
}
