package transfer

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/lvcoi/xgrab/internal/fsx"
)

// Naming carries the per-post fields an output template can reference.
type Naming struct {
	Author string
	ID     string
	Date   time.Time
	Text   string
	Label  string // "video" or "gif"
	Ext    string
}

const (
	// DefaultTemplate names downloads when -o is not given.
	DefaultTemplate = "{author}_{id}.{ext}"

	maxTextRunes = 48
)

// ResolvePath expands the output target for one post. output may be a literal
// file path, a directory (existing, or named with a trailing separator), or a
// template using {author} {id} {date} {text} {kind} {ext}. Field values are
// sanitized for the filesystem; a missing extension is filled from the
// selected media kind.
func ResolvePath(output string, n Naming) string {
	if strings.TrimSpace(output) == "" {
		output = DefaultTemplate
	}

	author := sanitize(n.Author)
	id := sanitize(n.ID)
	ext := n.Ext
	if ext == "" {
		ext = "mp4"
	}
	label := n.Label
	if label == "" {
		label = "video"
	}
	date := ""
	if !n.Date.IsZero() {
		date = n.Date.Format("2006-01-02")
	}
	text := truncateRunes(sanitizeOptional(n.Text), maxTextRunes)

	replacer := strings.NewReplacer(
		"{author}", author,
		"{id}", id,
		"{date}", date,
		"{text}", text,
		"{kind}", label,
		"{ext}", ext,
	)
	path := filepath.Clean(replacer.Replace(output))

	// A trailing separator or an existing directory means "put the default
	// filename inside".
	intoDir := len(output) > 0 && os.IsPathSeparator(output[len(output)-1])
	if !intoDir {
		if info, err := fsx.API().Stat(path); err == nil && info.IsDir() {
			intoDir = true
		}
	}
	if intoDir {
		path = filepath.Join(path, fmt.Sprintf("%s_%s.%s", author, id, ext))
	}

	if filepath.Ext(path) == "" {
		path = path + "." + ext
	}
	return path
}

var invalidRunes = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)

func sanitize(name string) string {
	clean := invalidRunes.ReplaceAllString(name, "-")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return "video"
	}
	return clean
}

func sanitizeOptional(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	return sanitize(name)
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max]))
}
