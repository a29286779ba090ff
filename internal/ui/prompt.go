package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/lvcoi/xgrab/internal/transfer"
)

// DuplicatePrompter asks on the terminal what to do with an existing
// destination file. It satisfies transfer.Prompter.
type DuplicatePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewDuplicatePrompter(in io.Reader, out io.Writer) *DuplicatePrompter {
	return &DuplicatePrompter{in: bufio.NewReader(in), out: out}
}

func (p *DuplicatePrompter) PromptDuplicate(path string) (transfer.Decision, error) {
	for {
		fmt.Fprintf(p.out, "%s exists. [o]verwrite, [s]kip, [r]ename, append 'a' for all, [q]uit? ", path)
		line, err := p.in.ReadString('\n')
		if err != nil {
			return "", err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "o":
			return transfer.DecisionOverwrite, nil
		case "oa":
			return transfer.DecisionOverwriteAll, nil
		case "s":
			return transfer.DecisionSkip, nil
		case "sa":
			return transfer.DecisionSkipAll, nil
		case "r":
			return transfer.DecisionRename, nil
		case "ra":
			return transfer.DecisionRenameAll, nil
		case "q", "quit":
			return transfer.DecisionCancel, nil
		default:
			if d, perr := transfer.ParseDecision(line); perr == nil {
				return d, nil
			}
			fmt.Fprintln(p.out, "please answer o, s, r (oa/sa/ra for all), or q")
		}
	}
}
