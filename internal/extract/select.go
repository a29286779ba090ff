package extract

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/lvcoi/xgrab/internal/logx"
	"github.com/lvcoi/xgrab/internal/media"
	"github.com/lvcoi/xgrab/internal/netx"
)

const (
	// probeTop caps how many ranked candidates get a live HEAD probe.
	probeTop = 6

	// UnknownSize marks a probe that produced no usable content
	// length. Unknown never beats a measured size and never counts as
	// below the floor.
	UnknownSize int64 = -1
)

// Selection is the ranking outcome: one chosen candidate plus its
// probed size when one was measured.
type Selection struct {
	Candidate  Candidate
	ProbedSize int64
}

// selector ranks candidates and verifies the leaders against the CDN.
type selector struct {
	client  *http.Client
	timeout time.Duration
	floor   int64
}

// pick returns the best candidate, or false when nothing acceptable
// was observed. Progressive files beat playlists when they probe
// plausibly large; a progressive pick that measures below the floor
// is a decoy or init segment, so an available playlist replaces it.
func (s selector) pick(ctx context.Context, cands []Candidate) (Selection, bool) {
	playlists, progressive := partition(cands)
	playlist, havePlaylist := bestPlaylist(playlists)

	if len(progressive) > 0 {
		ranked := rankProgressive(progressive)
		chosen, size := s.probeAndChoose(ctx, ranked)
		if size != UnknownSize && size < s.floor && havePlaylist {
			logx.Debugf("progressive pick %s measured %d bytes, substituting playlist %s",
				chosen.URL, size, playlist.URL)
			return Selection{Candidate: playlist, ProbedSize: UnknownSize}, true
		}
		return Selection{Candidate: chosen, ProbedSize: size}, true
	}

	if havePlaylist {
		return Selection{Candidate: playlist, ProbedSize: UnknownSize}, true
	}
	return Selection{}, false
}

// list returns every acceptable candidate ranked best-first, with
// probed sizes for the progressive leaders. Progressive files come
// first in rank order, then playlists by score. Candidates past the
// probe cap report UnknownSize.
func (s selector) list(ctx context.Context, cands []Candidate) []Selection {
	playlists, progressive := partition(cands)
	ranked := rankProgressive(progressive)
	sizes := s.probeSizes(ctx, ranked)

	out := make([]Selection, 0, len(ranked)+len(playlists))
	for i, c := range ranked {
		size := UnknownSize
		if i < len(sizes) {
			size = sizes[i]
		}
		out = append(out, Selection{Candidate: c, ProbedSize: size})
	}
	for _, c := range rankPlaylists(playlists) {
		out = append(out, Selection{Candidate: c, ProbedSize: UnknownSize})
	}
	return out
}

// probeSizes HEAD-probes the top ranked candidates in parallel. The
// returned slice covers the probe budget, not the whole input.
func (s selector) probeSizes(ctx context.Context, ranked []Candidate) []int64 {
	n := len(ranked)
	if n > probeTop {
		n = probeTop
	}

	sizes := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sizes[i] = s.probeSize(ctx, ranked[i].URL)
		}(i)
	}
	wg.Wait()
	return sizes
}

// probeAndChoose probes the top ranked candidates and picks the best
// one that measures above the floor. Rank order stays primary; a
// measured size only breaks ties between candidates of equal rank.
// When nothing clears the floor the top-ranked candidate wins by
// score alone.
func (s selector) probeAndChoose(ctx context.Context, ranked []Candidate) (Candidate, int64) {
	sizes := s.probeSizes(ctx, ranked)

	bestIdx := -1
	for i := range sizes {
		if sizes[i] == UnknownSize || sizes[i] < s.floor {
			continue
		}
		if bestIdx == -1 {
			bestIdx = i
			continue
		}
		if sameRank(ranked[i], ranked[bestIdx]) && sizes[i] > sizes[bestIdx] {
			bestIdx = i
		}
	}
	if bestIdx >= 0 {
		logx.Debugf("verified candidate %s at %d bytes", ranked[bestIdx].URL, sizes[bestIdx])
		return ranked[bestIdx], sizes[bestIdx]
	}
	return ranked[0], sizes[0]
}

func sameRank(a, b Candidate) bool {
	return a.Score == b.Score &&
		media.ProgressiveDelivery(a.URL) == media.ProgressiveDelivery(b.URL)
}

// probeSize reads the candidate's content length with a bounded HEAD
// request. Every failure mode collapses to UnknownSize.
func (s selector) probeSize(ctx context.Context, rawURL string) int64 {
	probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := netx.HeadOrGet(probeCtx, s.client, rawURL)
	if err != nil {
		logx.Debugf("probe %s: %v", rawURL, err)
		return UnknownSize
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logx.Debugf("probe %s: status %d", rawURL, resp.StatusCode)
		return UnknownSize
	}
	if resp.ContentLength < 0 {
		return UnknownSize
	}
	return resp.ContentLength
}
