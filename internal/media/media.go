// Package media classifies candidate media URLs. Everything here is a pure
// function over the URL string: no network, no state.
package media

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
)

// Kind is the semantic format tag of a media URL.
type Kind string

const (
	KindMP4     Kind = "mp4"
	KindM4V     Kind = "m4v"
	KindMOV     Kind = "mov"
	KindWebM    Kind = "webm"
	KindM3U8    Kind = "m3u8"
	KindSegment Kind = "segment"
	KindUnknown Kind = ""
)

var progressiveExts = map[string]Kind{
	"mp4":  KindMP4,
	"m4v":  KindM4V,
	"mov":  KindMOV,
	"webm": KindWebM,
}

var segmentExts = map[string]struct{}{
	"ts":  {},
	"m4s": {},
}

// Path markers identifying audio-only renditions; such URLs never enter the
// video candidate pool.
var AudioMarkers = []string{"/mp4a/", "/audio/"}

// Markers identifying a variant-listing (master) manifest.
var MasterMarkers = []string{"master"}

// Path marker of the CDN's progressive video renditions.
var ProgressiveDeliveryMarker = "/vid/"

var resolutionPattern = regexp.MustCompile(`/(\d+)x(\d+)/`)

// KindOf maps a raw URL to its Kind. The extension is matched on the path
// with query string and fragment stripped, case-insensitively. URLs without
// a recognized extension fall back to substring markers before resolving to
// KindUnknown.
func KindOf(rawURL string) Kind {
	if ext := strings.TrimPrefix(path.Ext(lowerPath(rawURL)), "."); ext != "" {
		if k, ok := progressiveExts[ext]; ok {
			return k
		}
		if ext == "m3u8" {
			return KindM3U8
		}
		if _, ok := segmentExts[ext]; ok {
			return KindSegment
		}
	}
	lower := strings.ToLower(rawURL)
	if strings.Contains(lower, ".m3u8") {
		return KindM3U8
	}
	if strings.Contains(lower, ".mp4") {
		return KindMP4
	}
	return KindUnknown
}

// Progressive reports whether the kind is a single-file video container.
func (k Kind) Progressive() bool {
	switch k {
	case KindMP4, KindM4V, KindMOV, KindWebM:
		return true
	}
	return false
}

// Playlist reports whether the kind is a segmented-stream manifest.
func (k Kind) Playlist() bool {
	return k == KindM3U8
}

// SegmentFile reports whether the kind is a raw transport segment. Segments
// are never an acceptable final selection.
func (k Kind) SegmentFile() bool {
	return k == KindSegment
}

// Ext returns the output file extension for the kind. Playlists convert to
// an mp4 container.
func (k Kind) Ext() string {
	switch k {
	case KindMP4, KindM4V, KindMOV, KindWebM:
		return string(k)
	case KindM3U8:
		return "mp4"
	case KindSegment:
		return "ts"
	}
	return "bin"
}

// AudioOnly reports whether the URL path carries an audio-rendition marker.
func AudioOnly(rawURL string) bool {
	p := lowerPath(rawURL)
	for _, marker := range AudioMarkers {
		if strings.Contains(p, marker) {
			return true
		}
	}
	return false
}

// MasterPlaylist reports whether the URL carries a master-manifest marker.
func MasterPlaylist(rawURL string) bool {
	p := lowerPath(rawURL)
	for _, marker := range MasterMarkers {
		if strings.Contains(p, marker) {
			return true
		}
	}
	return false
}

// ProgressiveDelivery reports whether the URL path carries the CDN's
// progressive-rendition marker.
func ProgressiveDelivery(rawURL string) bool {
	return strings.Contains(lowerPath(rawURL), ProgressiveDeliveryMarker)
}

// ParseResolution extracts a /WIDTHxHEIGHT/ path marker. ok is false when the
// URL has none; zero values are never synthesized.
func ParseResolution(rawURL string) (width, height int, ok bool) {
	m := resolutionPattern.FindStringSubmatch(lowerPath(rawURL))
	if m == nil {
		return 0, 0, false
	}
	width, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	height, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	if width <= 0 || height <= 0 {
		return 0, 0, false
	}
	return width, height, true
}

// KindFromContentType maps an HTTP Content-Type to a Kind, for URLs whose
// path alone is inconclusive.
func KindFromContentType(contentType string) Kind {
	ctype := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch ctype {
	case "application/vnd.apple.mpegurl", "application/x-mpegurl", "audio/mpegurl":
		return KindM3U8
	case "video/mp4":
		return KindMP4
	case "video/quicktime":
		return KindMOV
	case "video/webm":
		return KindWebM
	case "video/mp2t":
		return KindSegment
	}
	return KindUnknown
}

// Path marker of renditions the platform encodes from animated GIFs.
var gifDeliveryMarker = "/tweet_video/"

// KindLabel names the media class of a URL for catalog rows and output
// templates: "gif" for the GIF-sourced rendition path, "video" otherwise.
func KindLabel(rawURL string) string {
	if strings.Contains(lowerPath(rawURL), gifDeliveryMarker) {
		return "gif"
	}
	return "video"
}

// StripFragment removes the fragment identifier; candidate URLs are keyed by
// the fragment-stripped form.
func StripFragment(rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// lowerPath returns the lowercased URL path with query and fragment removed.
// Unparseable inputs degrade to manual stripping rather than an error.
func lowerPath(rawURL string) string {
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" {
		return strings.ToLower(parsed.Path)
	}
	s := StripFragment(rawURL)
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(s)
}
