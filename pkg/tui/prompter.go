// Package tui is the terminal front end: readline prompts for the auth
// screens and tview screens for the landing page and the dashboard.
package tui

import (
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/ergochat/readline"
)

// ErrAborted is returned when the user interrupts a prompt.
var ErrAborted = errors.New("aborted")

// LineReader reads one answer per call.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	ReadSecret(prompt string) (string, error)
}

// Prompter is a LineReader on a readline terminal. The terminal is opened on
// first use and released by Suspend so that a full-screen view can take over.
type Prompter struct {
	mu sync.Mutex
	rl *readline.Instance
}

func NewPrompter() *Prompter {
	return &Prompter{}
}

func (p *Prompter) instance() (*readline.Instance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rl != nil {
		return p.rl, nil
	}
	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}
	p.rl = rl
	return rl, nil
}

func (p *Prompter) ReadLine(prompt string) (string, error) {
	rl, err := p.instance()
	if err != nil {
		return "", err
	}
	rl.SetPrompt(prompt)
	line, err := rl.ReadLine()
	if err != nil {
		return "", mapReadErr(err)
	}
	return strings.TrimSpace(line), nil
}

// ReadSecret reads without echoing, for passwords.
func (p *Prompter) ReadSecret(prompt string) (string, error) {
	rl, err := p.instance()
	if err != nil {
		return "", err
	}
	b, err := rl.ReadPassword(prompt)
	if err != nil {
		return "", mapReadErr(err)
	}
	return string(b), nil
}

// Suspend releases the terminal. The next read opens it again.
func (p *Prompter) Suspend() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rl == nil {
		return nil
	}
	err := p.rl.Close()
	p.rl = nil
	return err
}

func (p *Prompter) Close() error {
	return p.Suspend()
}

func mapReadErr(err error) error {
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return ErrAborted
	}
	return err
}
