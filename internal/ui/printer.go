// Package ui owns the human-facing terminal surface: result lines, progress
// rendering, the candidate picker, the history pager, and prompts. Machine
// output (-json, -url-only) is written to stdout elsewhere; everything here
// lands on the printer's writer, normally stderr.
package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type Printer struct {
	out        io.Writer
	quiet      bool
	color      bool
	columns    int
	labelWidth int
}

func NewPrinter(out io.Writer, quiet bool) *Printer {
	columns := terminalColumns()
	if columns <= 0 {
		columns = 100
	}

	labelWidth := columns - 56
	if labelWidth < 16 {
		labelWidth = 16
	}
	if labelWidth > 40 {
		labelWidth = 40
	}

	return &Printer{
		out:        out,
		quiet:      quiet,
		color:      supportsColor(out),
		columns:    columns,
		labelWidth: labelWidth,
	}
}

// Prefix builds the aligned "[i/n] label" column for one post.
func (p *Printer) Prefix(index, total int, label string) string {
	if total <= 0 {
		total = 1
	}
	width := len(strconv.Itoa(total))
	idx := fmt.Sprintf("%*d/%d", width, index, total)
	return fmt.Sprintf("[%s] %-*s", idx, p.labelWidth, truncateText(label, p.labelWidth))
}

func (p *Printer) Success(prefix, path string, bytes int64) {
	if p.quiet {
		return
	}
	status := p.colorize("OK", colorGreen)
	detail := fmt.Sprintf("%s %s", padLeft(HumanBytes(bytes), 9), path)
	fmt.Fprintf(p.out, "%s %s %s\n", prefix, status, p.fitDetail(prefix, "OK", detail))
}

// Failure prints even in quiet mode; errors are the one thing quiet keeps.
func (p *Printer) Failure(prefix string, err error) {
	status := p.colorize("FAIL", colorRed)
	fmt.Fprintf(p.out, "%s %s %s\n", prefix, status, p.fitDetail(prefix, "FAIL", err.Error()))
}

func (p *Printer) Skipped(prefix, reason string) {
	if p.quiet {
		return
	}
	status := p.colorize("SKIP", colorYellow)
	fmt.Fprintf(p.out, "%s %s %s\n", prefix, status, p.fitDetail(prefix, "SKIP", reason))
}

// Info writes an informational line suppressed by quiet mode.
func (p *Printer) Info(format string, args ...any) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) Summary(total, ok, failed, skipped int, bytes int64) {
	if p.quiet || total <= 1 {
		return
	}
	okLabel := p.colorize("OK", colorGreen)
	failLabel := p.colorize("FAIL", colorRed)
	skipLabel := p.colorize("SKIP", colorYellow)
	fmt.Fprintf(p.out, "Summary: %s %d | %s %d | %s %d | TOTAL %d | SIZE %s\n",
		okLabel, ok, failLabel, failed, skipLabel, skipped, total, HumanBytes(bytes))
}

func (p *Printer) fitDetail(prefix, plainStatus, detail string) string {
	max := p.columns - len(prefix) - len(plainStatus) - 3
	if max < 0 {
		max = 0
	}
	return truncateText(detail, max)
}

func (p *Printer) colorize(text, color string) string {
	if !p.color || color == "" {
		return text
	}
	return color + text + colorReset
}

// HumanBytes renders a byte count with a binary-unit suffix.
func HumanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for n >= unit*div && exp < 4 {
		div *= unit
		exp++
	}
	value := float64(n) / float64(div)
	suffix := []string{"KB", "MB", "GB", "TB"}
	return fmt.Sprintf("%.1f%s", value, suffix[exp])
}

func padLeft(value string, width int) string {
	if len(value) >= width {
		return value
	}
	return strings.Repeat(" ", width-len(value)) + value
}

func truncateText(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	if max <= 3 {
		return text[:max]
	}
	return text[:max-3] + "..."
}

func terminalColumns() int {
	if columns := os.Getenv("COLUMNS"); columns != "" {
		if val, err := strconv.Atoi(columns); err == nil && val > 0 {
			return val
		}
	}
	return 0
}

func supportsColor(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" || os.Getenv("CLICOLOR_FORCE") != "" {
		return true
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	return IsTerminal(out)
}

// IsTerminal reports whether w is an interactive character device.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

const (
	colorReset  = "\x1b[0m"
	colorGreen  = "\x1b[32m"
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
)
