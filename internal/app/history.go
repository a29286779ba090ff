package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/lvcoi/xgrab/internal/history"
	"github.com/lvcoi/xgrab/internal/ui"
)

// ShowHistory prints the most recent catalog entries, newest first.
// Long output on a terminal goes through the pager.
func ShowHistory(db *history.DB, limit int, stdout io.Writer) error {
	recs, err := db.Recent(limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(stdout, "no downloads recorded")
		return nil
	}

	text := formatHistory(recs)
	if ui.IsTerminal(stdout) && strings.Count(text, "\n") > pagerThreshold {
		if err := ui.RunPager("download history", text); err == nil {
			return nil
		}
	}
	fmt.Fprint(stdout, text)
	return nil
}

func formatHistory(recs []history.Record) string {
	var b strings.Builder
	b.WriteString("date              kind   size       resolution  file\n")
	for _, rec := range recs {
		res := "-"
		if rec.Width > 0 || rec.Height > 0 {
			res = fmt.Sprintf("%dx%d", rec.Width, rec.Height)
		}
		fmt.Fprintf(&b, "%s  %-5s  %-9s  %-10s  %s\n",
			rec.CreatedAt.Format("2006-01-02 15:04"), rec.Kind,
			ui.HumanBytes(rec.FileSize), res, rec.FilePath)
	}
	return b.String()
}
