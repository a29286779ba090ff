package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/lvcoi/xgrab/internal/app"
	"github.com/lvcoi/xgrab/internal/config"
	"github.com/lvcoi/xgrab/internal/extract"
	"github.com/lvcoi/xgrab/internal/history"
	"github.com/lvcoi/xgrab/internal/logx"
	"github.com/lvcoi/xgrab/internal/netx"
	"github.com/lvcoi/xgrab/internal/profile"
	"github.com/lvcoi/xgrab/internal/transfer"
	"github.com/lvcoi/xgrab/internal/ui"
)

func main() {
	if err := config.Setup(); err != nil {
		fmt.Fprintf(os.Stderr, "loading configuration: %v\n", err)
		os.Exit(app.ExitGeneric)
	}

	var (
		output     string
		timeoutSec int
		headed     bool
		prof       profileFlag
		debugDir   string
		urlOnly    bool
		list       bool
		pick       bool
		info       bool
		workers    int
		duplicate  string
		login      bool
		verifyAuth bool
		hist       historyFlag
		noHistory  bool
		jsonOut    bool
		quiet      bool
		logLevel   string
	)

	flag.StringVar(&output, "o", viper.GetString(config.OutputTemplate),
		"output path, directory, or template (supports {author}, {id}, {date}, {text}, {kind}, {ext})")
	flag.IntVar(&timeoutSec, "timeout", int(config.Seconds(config.BrowserTimeout)/time.Second),
		"page load timeout in seconds")
	flag.BoolVar(&headed, "headed", !viper.GetBool(config.BrowserHeadless),
		"run the browser with a visible window")
	flag.Var(&prof, "profile",
		"attach the authenticated browser profile (optionally naming its directory)")
	flag.StringVar(&debugDir, "debug-dir", "",
		"save page HTML and a screenshot here when extraction fails")
	flag.BoolVar(&urlOnly, "url-only", false, "print the selected media URL instead of downloading")
	flag.BoolVar(&list, "list", false, "list every ranked candidate instead of downloading")
	flag.BoolVar(&pick, "pick", false, "choose the candidate interactively")
	flag.BoolVar(&info, "info", false, "print post metadata with the result")
	flag.IntVar(&workers, "workers", 2, "posts processed in parallel (an attached profile forces 1)")
	flag.StringVar(&duplicate, "on-duplicate", string(transfer.DuplicatePrompt),
		"existing-file policy: prompt, overwrite, skip, or rename")
	flag.BoolVar(&login, "login", false, "open a browser window to log in and store the session")
	flag.BoolVar(&verifyAuth, "verify-auth", false, "report the stored profile's authentication state")
	flag.Var(&hist, "history", "list recent downloads (optionally limiting the count)")
	flag.BoolVar(&noHistory, "no-history", false, "do not record this download")
	flag.BoolVar(&jsonOut, "json", false, "emit one JSON object per post on stdout")
	flag.BoolVar(&quiet, "quiet", false, "suppress progress output; failures still print")
	flag.StringVar(&logLevel, "log-level", viper.GetString(config.LogLevel),
		"diagnostic log level: debug, info, warn, error")
	flag.Usage = usage
	flag.Parse()

	logx.Setup(logLevel)

	policy, err := transfer.ParseDuplicatePolicy(duplicate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(app.ExitInvalid)
	}

	cfg := extract.Config{
		MediaHost:    viper.GetString(config.MediaHost),
		Timeout:      time.Duration(timeoutSec) * time.Second,
		Settle:       config.Millis(config.BrowserSettle),
		PollInterval: config.Millis(config.CollectInterval),
		PollCeiling:  config.Millis(config.CollectWindow),
		ProbeTimeout: config.Seconds(config.ProbeTimeout),
		ProbeFloor:   viper.GetInt64(config.ProbeFloor),
		Headless:     !headed,
		UserAgent:    viper.GetString(config.BrowserUserAgent),
		DebugDir:     debugDir,
		Client:       netx.NewClient(0),
	}
	defer netx.CloseIdleConnections()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case login:
		os.Exit(runLogin(ctx, cfg, prof.dir))
	case verifyAuth:
		os.Exit(runVerifyAuth(ctx, cfg, prof.dir, jsonOut))
	case hist.requested:
		os.Exit(runHistory(hist.limit))
	}

	urls := flag.Args()
	if len(urls) == 0 {
		usage()
		os.Exit(app.ExitInvalid)
	}
	if moreThanOne(urlOnly, list, pick) {
		fmt.Fprintln(os.Stderr, "error: -url-only, -list, and -pick are mutually exclusive")
		os.Exit(app.ExitInvalid)
	}

	if prof.requested {
		dir := profile.Resolve(prof.dir)
		if !profile.Exists(dir) {
			fmt.Fprintf(os.Stderr, "error: no profile at %s; run -login first\n", dir)
			os.Exit(app.ExitInvalid)
		}
		cfg.ProfileDir = dir
	}

	opts := app.Options{
		Extract:        cfg,
		Output:         output,
		URLOnly:        urlOnly,
		List:           list,
		Pick:           pick,
		Info:           info,
		JSON:           jsonOut,
		Quiet:          quiet,
		Workers:        workers,
		Duplicate:      policy,
		Ffmpeg:         viper.GetString(config.TransferFFmpeg),
		ConvertTimeout: config.Seconds(config.TransferConvertTimeout),
		StallTimeout:   config.Seconds(config.TransferStallTimeout),
	}
	if ui.IsTerminal(os.Stdin) {
		opts.Prompter = ui.NewDuplicatePrompter(os.Stdin, os.Stderr)
	}
	if recordHistory(noHistory, urlOnly, list) {
		db, err := history.Open(viper.GetString(config.HistoryPath))
		if err != nil {
			logx.Warnf("opening download history: %v", err)
		} else {
			opts.History = db
		}
	}

	code := app.Run(ctx, urls, opts)
	opts.History.Close()
	if code != 0 {
		os.Exit(code)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] <post-url> [<post-url>...]\n", os.Args[0])
	flag.PrintDefaults()
}

func moreThanOne(modes ...bool) bool {
	n := 0
	for _, m := range modes {
		if m {
			n++
		}
	}
	return n > 1
}

// recordHistory reports whether this invocation should write catalog
// rows. Print-only modes never do.
func recordHistory(noHistory, urlOnly, list bool) bool {
	if noHistory || urlOnly || list {
		return false
	}
	return viper.GetBool(config.HistoryEnabled)
}

func runLogin(ctx context.Context, cfg extract.Config, flagDir string) int {
	dir := profile.Resolve(flagDir)
	if err := profile.Ensure(dir); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return app.ExitGeneric
	}
	cfg.ProfileDir = dir

	if err := extract.New(cfg).Login(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		return app.ExitCode(err)
	}
	fmt.Fprintf(os.Stderr, "session stored in %s\n", dir)
	return app.ExitOK
}

func runVerifyAuth(ctx context.Context, cfg extract.Config, flagDir string, jsonOut bool) int {
	dir := profile.Resolve(flagDir)
	if !profile.Exists(dir) {
		fmt.Fprintf(os.Stderr, "error: no profile at %s; run -login first\n", dir)
		return app.ExitInvalid
	}
	cfg.ProfileDir = dir

	status, err := extract.New(cfg).VerifyAuth(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verifying authentication: %v\n", err)
		return app.ExitCode(err)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(status); err != nil {
			logx.Warnf("encoding auth status: %v", err)
		}
		return app.ExitOK
	}

	fmt.Printf("profile:      %s\n", dir)
	fmt.Printf("session:      %s\n", presence(status.TokenPresent, "token present", "no session token"))
	fmt.Printf("landing page: %s\n", presence(status.PageAccessible, "accessible", "login wall"))
	if len(status.CookieNames) > 0 {
		fmt.Printf("cookies:      %s\n", strings.Join(status.CookieNames, ", "))
	}
	return app.ExitOK
}

func presence(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

func runHistory(limit int) int {
	db, err := history.Open(viper.GetString(config.HistoryPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening download history: %v\n", err)
		return app.ExitGeneric
	}
	defer db.Close()

	if err := app.ShowHistory(db, limit, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "reading download history: %v\n", err)
		return app.ExitGeneric
	}
	return app.ExitOK
}

// profileFlag attaches the browser profile. Bare -profile uses the
// configured directory; -profile=DIR overrides it.
type profileFlag struct {
	requested bool
	dir       string
}

func (p *profileFlag) String() string { return p.dir }

func (p *profileFlag) IsBoolFlag() bool { return true }

func (p *profileFlag) Set(value string) error {
	p.requested = true
	if value == "true" || value == "" {
		return nil
	}
	if value == "false" {
		p.requested = false
		return nil
	}
	p.dir = value
	return nil
}

// historyFlag lists recent downloads. Bare -history shows the default
// count; -history=N overrides it.
type historyFlag struct {
	requested bool
	limit     int
}

func (h *historyFlag) String() string {
	if h == nil || h.limit == 0 {
		return ""
	}
	return strconv.Itoa(h.limit)
}

func (h *historyFlag) IsBoolFlag() bool { return true }

func (h *historyFlag) Set(value string) error {
	h.requested = true
	switch value {
	case "true", "":
		return nil
	case "false":
		h.requested = false
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return fmt.Errorf("invalid history count %q", value)
	}
	h.limit = n
	return nil
}
