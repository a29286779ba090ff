package app

import (
	"encoding/json"

	"github.com/lvcoi/xgrab/internal/extract"
	"github.com/lvcoi/xgrab/internal/logx"
)

type jsonCandidate struct {
	URL    string `json:"url"`
	Kind   string `json:"kind"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Size   int64  `json:"size,omitempty"`
}

type jsonMeta struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

type jsonError struct {
	Class   string `json:"class"`
	Message string `json:"message"`
}

// jsonResult is the one-object-per-post machine format.
type jsonResult struct {
	URL        string          `json:"url"`
	Author     string          `json:"author,omitempty"`
	ID         string          `json:"id,omitempty"`
	MediaURL   string          `json:"media_url,omitempty"`
	Kind       string          `json:"kind,omitempty"`
	Width      int             `json:"width,omitempty"`
	Height     int             `json:"height,omitempty"`
	File       string          `json:"file,omitempty"`
	Size       int64           `json:"size,omitempty"`
	Skipped    bool            `json:"skipped,omitempty"`
	Candidates []jsonCandidate `json:"candidates,omitempty"`
	Meta       *jsonMeta       `json:"meta,omitempty"`
	Error      *jsonError      `json:"error,omitempty"`
}

func (r *runner) writeJSON(out Outcome) {
	payload := jsonResult{
		URL:      out.URL,
		Author:   out.Author,
		ID:       out.PostID,
		MediaURL: out.MediaURL,
		Kind:     out.Kind,
		Width:    out.Width,
		Height:   out.Height,
		File:     out.File,
		Size:     out.Size,
		Skipped:  out.Skipped,
	}
	for _, sel := range out.Candidates {
		c := jsonCandidate{
			URL:    sel.Candidate.URL,
			Kind:   string(sel.Candidate.Kind),
			Width:  sel.Candidate.Width,
			Height: sel.Candidate.Height,
		}
		if sel.ProbedSize >= 0 {
			c.Size = sel.ProbedSize
		}
		payload.Candidates = append(payload.Candidates, c)
	}
	if r.opts.Info && out.Meta != (extract.PostMeta{}) {
		payload.Meta = &jsonMeta{
			Title:       out.Meta.Title,
			Description: out.Meta.Description,
			Image:       out.Meta.Image,
		}
	}
	if out.Err != nil {
		payload.Error = &jsonError{Class: ClassName(out.Err), Message: out.Err.Error()}
	}

	enc := json.NewEncoder(r.opts.Stdout)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		logx.Warnf("encoding result: %v", err)
	}
}
