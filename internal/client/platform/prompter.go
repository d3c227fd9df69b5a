package platform

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

// TerminalPrompter asks on Out and reads the answer from In. When Fd does
// not refer to a terminal nobody can answer, which counts as a denial.
// A negative Fd skips the terminal check.
type TerminalPrompter struct {
	In  *bufio.Reader
	Out io.Writer
	Fd  int
}

func (p *TerminalPrompter) Prompt(ctx context.Context, question string) (bool, error) {
	if p.Fd >= 0 && !term.IsTerminal(p.Fd) {
		return false, nil
	}
	if _, err := fmt.Fprintf(p.Out, "%s [y/N]: ", question); err != nil {
		return false, err
	}

	line, err := p.In.ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
