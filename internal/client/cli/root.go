package cli

import "fmt"

// getStatus renders the prompt suffix, e.g. "(Dimas online)".
func (a *App) getStatus() string {
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	if a.indicator != nil {
		s += a.indicator.Label()
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}
