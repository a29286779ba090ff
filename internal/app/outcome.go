package app

import (
	"strings"

	"github.com/lvcoi/xgrab/internal/extract"
)

// Outcome is one post's end state, whichever mode ran. Identity
// fields stay empty when extraction never got far enough to fill
// them.
type Outcome struct {
	Index  int
	URL    string
	Author string
	PostID string

	MediaURL string
	Kind     string
	Width    int
	Height   int

	File string
	Size int64

	Skipped bool
	Reason  string

	Candidates []extract.Selection
	Meta       extract.PostMeta

	Err error
}

// Label identifies the post in result lines: the resolved stem when
// extraction succeeded, otherwise the tail of the input URL.
func (o Outcome) Label() string {
	if o.Author != "" && o.PostID != "" {
		return o.Author + "_" + o.PostID
	}
	trimmed := strings.TrimRight(o.URL, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 && idx < len(trimmed)-1 {
		return trimmed[idx+1:]
	}
	return o.URL
}

func (o Outcome) fillIdentity(ref extract.PostRef, sel extract.Selection, meta extract.PostMeta) Outcome {
	o.Author = ref.Author
	o.PostID = ref.ID
	o.MediaURL = sel.Candidate.URL
	o.Kind = string(sel.Candidate.Kind)
	o.Width = sel.Candidate.Width
	o.Height = sel.Candidate.Height
	o.Meta = meta
	return o
}
