package extract

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/lvcoi/xgrab/internal/browser"
	"github.com/lvcoi/xgrab/internal/logx"
	"github.com/lvcoi/xgrab/internal/wall"
)

const (
	// sessionCookie is the cookie whose presence marks a logged-in
	// profile.
	sessionCookie = "auth_token"

	// authedLanding only renders fully for authenticated sessions, so
	// it doubles as an access check.
	authedLanding = "https://x.com/home"

	loginURL          = "https://x.com/i/flow/login"
	loginPollInterval = 2 * time.Second
	loginCeiling      = 5 * time.Minute
)

// authCookieNames are the session-related cookies worth reporting
// during diagnostics.
var authCookieNames = []string{"auth_token", "ct0", "twid", "kdt", "att"}

// AuthStatus reports what a stored profile is worth: whether the
// session token exists, whether the authenticated landing page
// renders, and which recognized cookies are present.
type AuthStatus struct {
	TokenPresent   bool     `json:"token_present"`
	PageAccessible bool     `json:"page_accessible"`
	CookieNames    []string `json:"cookie_names"`
}

// VerifyAuth inspects the configured profile without changing it.
func (e *Extractor) VerifyAuth(ctx context.Context) (AuthStatus, error) {
	if e.cfg.ProfileDir == "" {
		return AuthStatus{}, errors.New("no profile directory configured")
	}

	page, err := e.cfg.OpenPage(ctx, browser.Options{
		Headless:   true,
		UserAgent:  e.cfg.UserAgent,
		ProfileDir: e.cfg.ProfileDir,
		Timeout:    e.cfg.Timeout,
	}, e.cfg.MediaHost)
	if err != nil {
		return AuthStatus{}, err
	}
	defer page.Close()

	var status AuthStatus
	cookies, err := page.Cookies()
	if err != nil {
		return AuthStatus{}, err
	}
	present := make(map[string]bool, len(cookies))
	for _, c := range cookies {
		present[c.Name] = true
	}
	status.TokenPresent = present[sessionCookie]
	status.CookieNames = lo.Filter(authCookieNames, func(name string, _ int) bool {
		return present[name]
	})

	if err := page.Navigate(authedLanding); err != nil {
		logx.Warnf("loading authenticated landing page: %v", err)
		return status, nil
	}
	sleepCtx(ctx, e.cfg.Settle)

	html, err := page.HTML()
	if err != nil {
		logx.Warnf("reading landing page: %v", err)
		return status, nil
	}
	status.PageAccessible = html != "" && !wall.HasLoginWall(html) && !wall.IsPrivateAccount(html)
	return status, nil
}

// Login opens a headed browser on the login page and waits for the
// session cookie to land in the profile. The user completes the
// actual login by hand.
func (e *Extractor) Login(ctx context.Context) error {
	if e.cfg.ProfileDir == "" {
		return errors.New("no profile directory configured")
	}

	page, err := e.cfg.OpenPage(ctx, browser.Options{
		Headless:   false,
		UserAgent:  e.cfg.UserAgent,
		ProfileDir: e.cfg.ProfileDir,
	}, e.cfg.MediaHost)
	if err != nil {
		return err
	}
	defer page.Close()

	if err := page.Navigate(loginURL); err != nil {
		return err
	}
	logx.Info("complete the login in the browser window")

	deadline := time.NewTimer(loginCeiling)
	defer deadline.Stop()
	ticker := time.NewTicker(loginPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return errors.New("login was not completed in time")
		case <-ticker.C:
			cookies, err := page.Cookies()
			if err != nil {
				continue
			}
			if hasCookie(cookies, sessionCookie) {
				logx.Info("session captured into the profile")
				return nil
			}
		}
	}
}

func hasCookie(cookies []*http.Cookie, name string) bool {
	return lo.SomeBy(cookies, func(c *http.Cookie) bool { return c.Name == name })
}
