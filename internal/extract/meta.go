package extract

import "github.com/lvcoi/xgrab/internal/logx"

// PostMeta is the OpenGraph metadata a post page exposes. All fields
// are best effort and may be empty.
type PostMeta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

const metaJS = `(() => {
	const read = (prop) => {
		const el = document.querySelector('meta[property="' + prop + '"]');
		return el ? (el.getAttribute('content') || '') : '';
	};
	return {
		title: read('og:title') || document.title || '',
		description: read('og:description'),
		image: read('og:image'),
	};
})()`

func readMeta(page Page) PostMeta {
	var m PostMeta
	if err := page.Evaluate(metaJS, &m); err != nil {
		logx.Debugf("page metadata read: %v", err)
		return PostMeta{}
	}
	return m
}
