package media

import "testing"

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Kind
	}{
		{"plain mp4", "https://video.twimg.com/ext_tw_video/1/pu/vid/720x1280/clip.mp4", KindMP4},
		{"uppercase extension", "https://video.twimg.com/tweet_video/ABC.MP4?tag=1", KindMP4},
		{"query string ignored", "https://host/video.mp4?foo=.m3u8", KindMP4},
		{"fragment ignored", "https://host/pl/stream.m3u8#t=5", KindM3U8},
		{"mixed case playlist", "https://host/pl/Stream.M3U8", KindM3U8},
		{"mov", "https://host/clip.mov", KindMOV},
		{"webm", "https://host/clip.webm", KindWebM},
		{"m4v", "https://host/clip.m4v", KindM4V},
		{"transport segment", "https://host/seg/0001.ts", KindSegment},
		{"fmp4 segment", "https://host/seg/0001.m4s", KindSegment},
		{"no extension", "https://host/watch/status", KindUnknown},
		{"dot in directory only", "https://host/v1.2/stream", KindUnknown},
		{"extensionless with m3u8 marker", "https://host/manifest?format=pl.m3u8", KindM3U8},
		{"extensionless with mp4 marker", "https://host/render?src=clip.mp4&x=1", KindMP4},
		{"unrelated extension", "https://host/page.html", KindUnknown},
		{"empty string", "", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.url); got != tt.want {
				t.Fatalf("KindOf(%q) = %q, want %q", tt.url, got, tt.want)
			}
			// Pure function: a second call must agree with the first.
			if again := KindOf(tt.url); again != tt.want {
				t.Fatalf("KindOf(%q) not stable: second call %q", tt.url, again)
			}
		})
	}
}

func TestKindPredicates(t *testing.T) {
	if !KindMP4.Progressive() || !KindWebM.Progressive() || !KindMOV.Progressive() || !KindM4V.Progressive() {
		t.Fatal("progressive container kinds must report Progressive")
	}
	if KindM3U8.Progressive() || KindSegment.Progressive() || KindUnknown.Progressive() {
		t.Fatal("non-container kinds must not report Progressive")
	}
	if !KindM3U8.Playlist() {
		t.Fatal("m3u8 must report Playlist")
	}
	if !KindSegment.SegmentFile() {
		t.Fatal("segment kind must report SegmentFile")
	}
}

func TestKindExt(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindMP4, "mp4"},
		{KindMOV, "mov"},
		{KindM3U8, "mp4"},
		{KindSegment, "ts"},
		{KindUnknown, "bin"},
	}
	for _, tt := range tests {
		if got := tt.kind.Ext(); got != tt.want {
			t.Fatalf("Ext(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestAudioOnly(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://video.twimg.com/ext_tw_video/1/pu/vid/mp4a/128000.m4s", true},
		{"https://host/stream/audio/track.mp4", true},
		{"https://host/stream/MP4A/track.m4s", true},
		{"https://video.twimg.com/ext_tw_video/1/pu/vid/720x1280/clip.mp4", false},
		// The marker is a whole path segment, not a bare substring.
		{"https://host/somemp4a/track.mp4", false},
	}
	for _, tt := range tests {
		if got := AudioOnly(tt.url); got != tt.want {
			t.Fatalf("AudioOnly(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestParseResolution(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		width  int
		height int
		ok     bool
	}{
		{"present", "https://video.twimg.com/ext_tw_video/1/pu/vid/720x1280/clip.mp4", 720, 1280, true},
		{"low variant", "https://host/vid/360x640/low.mp4", 360, 640, true},
		{"absent", "https://video.twimg.com/tweet_video/ABC.mp4", 0, 0, false},
		{"not slash delimited", "https://host/vid720x1280clip.mp4", 0, 0, false},
		{"in query only", "https://host/clip.mp4?res=/720x1280/", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, ok := ParseResolution(tt.url)
			if ok != tt.ok || w != tt.width || h != tt.height {
				t.Fatalf("ParseResolution(%q) = (%d, %d, %v), want (%d, %d, %v)",
					tt.url, w, h, ok, tt.width, tt.height, tt.ok)
			}
		})
	}
}

func TestMasterPlaylist(t *testing.T) {
	if !MasterPlaylist("https://host/pl/master.m3u8") {
		t.Fatal("master marker not detected")
	}
	if MasterPlaylist("https://host/pl/480x852/variant.m3u8") {
		t.Fatal("variant playlist must not report master")
	}
}

func TestProgressiveDelivery(t *testing.T) {
	if !ProgressiveDelivery("https://video.twimg.com/ext_tw_video/1/pu/vid/720x1280/clip.mp4") {
		t.Fatal("progressive delivery marker not detected")
	}
	if ProgressiveDelivery("https://video.twimg.com/tweet_video/ABC.mp4") {
		t.Fatal("tweet_video path must not report progressive delivery")
	}
}

func TestKindFromContentType(t *testing.T) {
	tests := []struct {
		ct   string
		want Kind
	}{
		{"video/mp4", KindMP4},
		{"video/mp4; codecs=avc1", KindMP4},
		{"application/vnd.apple.mpegURL", KindM3U8},
		{"application/x-mpegURL; charset=utf-8", KindM3U8},
		{"video/quicktime", KindMOV},
		{"video/MP2T", KindSegment},
		{"text/html", KindUnknown},
		{"", KindUnknown},
	}
	for _, tt := range tests {
		if got := KindFromContentType(tt.ct); got != tt.want {
			t.Fatalf("KindFromContentType(%q) = %q, want %q", tt.ct, got, tt.want)
		}
	}
}

func TestKindLabel(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://video.twimg.com/tweet_video/dM9eiauEx.mp4", "gif"},
		{"https://video.twimg.com/TWEET_VIDEO/dM9eiauEx.mp4", "gif"},
		{"https://video.twimg.com/ext_tw_video/123/pu/vid/720x1280/clip.mp4", "video"},
		{"https://video.twimg.com/amplify_video/123/pl/master.m3u8", "video"},
		{"", "video"},
	}
	for _, tt := range tests {
		if got := KindLabel(tt.url); got != tt.want {
			t.Fatalf("KindLabel(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestStripFragment(t *testing.T) {
	if got := StripFragment("https://host/a.mp4#t=5"); got != "https://host/a.mp4" {
		t.Fatalf("StripFragment = %q", got)
	}
	if got := StripFragment("https://host/a.mp4"); got != "https://host/a.mp4" {
		t.Fatalf("StripFragment without fragment = %q", got)
	}
}

func TestKindOfRepeatable(t *testing.T) {
	urls := []string{
		"https://video.twimg.com/ext_tw_video/1/pu/vid/720x1280/clip.mp4?tag=12",
		"https://video.twimg.com/amplify_video/1/pl/master.m3u8",
		"https://host/no-extension",
	}
	for _, u := range urls {
		first := KindOf(u)
		for i := 0; i < 3; i++ {
			if got := KindOf(u); got != first {
				t.Fatalf("KindOf(%q) run %d = %v, first run %v", u, i+2, got, first)
			}
		}
	}
}
