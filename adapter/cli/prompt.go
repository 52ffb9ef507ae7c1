package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNotInteractive is returned when a confirmation is needed but stdin is
// not a terminal.
var ErrNotInteractive = errors.New("confirmation required: stdin is not a terminal, pass --force")

// Prompter asks yes/no questions.
type Prompter struct {
	In          io.Reader
	Out         io.Writer
	Interactive func() bool
}

// StdPrompter reads from stdin and writes to stdout.
func StdPrompter() *Prompter {
	return &Prompter{
		In:  os.Stdin,
		Out: os.Stdout,
		Interactive: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

var prompter = StdPrompter()

// SetPrompter replaces the prompter. Used by tests.
func SetPrompter(p *Prompter) {
	if p == nil {
		p = StdPrompter()
	}
	prompter = p
}

// Confirm asks question with a [y/N] suffix. Only y and yes accept.
func Confirm(question string) (bool, error) {
	return prompter.Confirm(question)
}

// Confirm asks question with a [y/N] suffix.
func (p *Prompter) Confirm(question string) (bool, error) {
	if p.Interactive != nil && !p.Interactive() {
		return false, ErrNotInteractive
	}
	fmt.Fprintf(p.Out, "%s [y/N]: ", question)
	response, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes", nil
}
