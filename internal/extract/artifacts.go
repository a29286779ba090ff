package extract

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/lvcoi/xgrab/internal/fsx"
	"github.com/lvcoi/xgrab/internal/logx"
)

// Artifacts are the debug files saved alongside a failed attempt.
// Paths are empty for anything that could not be captured.
type Artifacts struct {
	HTMLPath       string
	ScreenshotPath string
}

// saveArtifacts snapshots the rendered HTML and viewport into dir,
// named by failure prefix and timestamp. Best effort throughout: a
// save failure is logged and never replaces the failure being
// reported.
func saveArtifacts(page Page, dir, prefix string) Artifacts {
	if dir == "" {
		return Artifacts{}
	}
	fs := fsx.API()
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		logx.Warnf("creating debug directory %s: %v", dir, err)
		return Artifacts{}
	}

	stamp := time.Now().Format("20060102-150405")
	var a Artifacts

	if html, err := page.HTML(); err == nil {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.html", prefix, stamp))
		if err := fs.WriteFile(path, []byte(html), 0o644); err == nil {
			a.HTMLPath = path
		} else {
			logx.Warnf("saving page snapshot: %v", err)
		}
	} else {
		logx.Warnf("reading page for snapshot: %v", err)
	}

	if shot, err := page.Screenshot(); err == nil {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", prefix, stamp))
		if err := fs.WriteFile(path, shot, 0o644); err == nil {
			a.ScreenshotPath = path
		} else {
			logx.Warnf("saving screenshot: %v", err)
		}
	} else {
		logx.Warnf("capturing screenshot: %v", err)
	}

	return a
}

func artifactPrefix(class Classification) string {
	switch class {
	case ClassProtected:
		return "protected"
	case ClassLoginWall:
		return "loginwall"
	case ClassNoVideo:
		return "novideo"
	default:
		return "error"
	}
}
