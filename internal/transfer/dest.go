package transfer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lvcoi/xgrab/internal/fsx"
)

// DuplicatePolicy decides what happens when the destination already exists.
type DuplicatePolicy string

const (
	DuplicatePrompt    DuplicatePolicy = "prompt"
	DuplicateOverwrite DuplicatePolicy = "overwrite"
	DuplicateSkip      DuplicatePolicy = "skip"
	DuplicateRename    DuplicatePolicy = "rename"
)

// ParseDuplicatePolicy normalizes a -on-duplicate flag value. The empty
// string means prompt.
func ParseDuplicatePolicy(raw string) (DuplicatePolicy, error) {
	switch normalizeToken(raw) {
	case "", string(DuplicatePrompt):
		return DuplicatePrompt, nil
	case string(DuplicateOverwrite):
		return DuplicateOverwrite, nil
	case string(DuplicateSkip):
		return DuplicateSkip, nil
	case string(DuplicateRename):
		return DuplicateRename, nil
	default:
		return "", fmt.Errorf("invalid on-duplicate policy: %q", raw)
	}
}

func normalizeToken(v string) string {
	s := strings.TrimSpace(strings.ToLower(v))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

// Decision is a single answer from a duplicate-file prompt. The _all variants
// latch the matching policy onto the session for the rest of the run.
type Decision string

const (
	DecisionOverwrite    Decision = "overwrite"
	DecisionOverwriteAll Decision = "overwrite_all"
	DecisionSkip         Decision = "skip"
	DecisionSkipAll      Decision = "skip_all"
	DecisionRename       Decision = "rename"
	DecisionRenameAll    Decision = "rename_all"
	DecisionCancel       Decision = "cancel"
)

// ParseDecision normalizes a prompt answer.
func ParseDecision(raw string) (Decision, error) {
	switch normalizeToken(raw) {
	case string(DecisionOverwrite):
		return DecisionOverwrite, nil
	case string(DecisionOverwriteAll):
		return DecisionOverwriteAll, nil
	case string(DecisionSkip):
		return DecisionSkip, nil
	case string(DecisionSkipAll):
		return DecisionSkipAll, nil
	case string(DecisionRename):
		return DecisionRename, nil
	case string(DecisionRenameAll):
		return DecisionRenameAll, nil
	case string(DecisionCancel):
		return DecisionCancel, nil
	default:
		return "", fmt.Errorf("invalid duplicate choice: %q", raw)
	}
}

// Prompter asks the user what to do with one existing destination.
type Prompter interface {
	PromptDuplicate(path string) (Decision, error)
}

// Session holds per-run duplicate state, the "apply to all" latch in
// particular. Safe for use from concurrent workers.
type Session struct {
	mu       sync.RWMutex
	applyAll DuplicatePolicy
	prompt   Prompter
}

// NewSession returns a duplicate session that consults prompter when the
// prompt policy meets an existing file. A nil prompter degrades prompt to
// skip, the non-interactive behavior.
func NewSession(prompt Prompter) *Session {
	return &Session{prompt: prompt}
}

// Resolve maps a destination to the path actually written. skip is true when
// the file should be left alone. An existing file is handled per policy:
// overwrite returns the path unchanged, rename returns a numbered variant,
// and prompt defers to the session's prompter.
func (s *Session) Resolve(path string, policy DuplicatePolicy) (resolved string, skip bool, err error) {
	info, err := fsx.API().Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return path, false, nil
		}
		return "", false, err
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("output path is a directory: %s", path)
	}

	if latched, ok := s.applyAllPolicy(); ok {
		policy = latched
	}

	switch policy {
	case DuplicateOverwrite:
		return path, false, nil
	case DuplicateSkip:
		return path, true, nil
	case DuplicateRename:
		renamed, err := nextAvailablePath(path)
		return renamed, false, err
	}

	if s.prompt == nil {
		return path, true, nil
	}
	decision, err := s.prompt.PromptDuplicate(path)
	if err != nil {
		return "", false, err
	}
	switch decision {
	case DecisionOverwrite:
		return path, false, nil
	case DecisionOverwriteAll:
		s.setApplyAll(DuplicateOverwrite)
		return path, false, nil
	case DecisionSkip:
		return path, true, nil
	case DecisionSkipAll:
		s.setApplyAll(DuplicateSkip)
		return path, true, nil
	case DecisionRename:
		renamed, err := nextAvailablePath(path)
		return renamed, false, err
	case DecisionRenameAll:
		s.setApplyAll(DuplicateRename)
		renamed, err := nextAvailablePath(path)
		return renamed, false, err
	case DecisionCancel:
		return "", false, ErrAborted
	default:
		return "", false, fmt.Errorf("invalid duplicate choice: %q", decision)
	}
}

func (s *Session) applyAllPolicy() (DuplicatePolicy, bool) {
	if s == nil {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.applyAll == "" {
		return "", false
	}
	return s.applyAll, true
}

func (s *Session) setApplyAll(policy DuplicatePolicy) {
	s.mu.Lock()
	s.applyAll = policy
	s.mu.Unlock()
}

func nextAvailablePath(path string) (string, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	for i := 1; i < 10000; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", name, i, ext))
		if _, err := fsx.API().Stat(candidate); err != nil {
			if os.IsNotExist(err) {
				return candidate, nil
			}
			return "", err
		}
	}
	return "", fmt.Errorf("unable to find available filename for %s", path)
}
