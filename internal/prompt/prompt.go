// Package prompt reads line-based answers from the terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prompter asks questions on out and reads answers from in.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a Prompter.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Ask prints question and returns the trimmed answer. End of input yields
// an empty answer.
func (p *Prompter) Ask(question string) (string, error) {
	if _, err := fmt.Fprint(p.out, question); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("prompt: read: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// AskDefault is Ask returning def for an empty answer.
func (p *Prompter) AskDefault(question, def string) (string, error) {
	answer, err := p.Ask(question)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Confirm asks a yes/no question; only "y" and "yes" count as yes.
func (p *Prompter) Confirm(question string) (bool, error) {
	answer, err := p.Ask(question)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
