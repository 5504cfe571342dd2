// Package speech wraps an external text-to-speech command behind an injected
// capability with an explicit supported/unsupported query.
package speech

import (
	"os/exec"
	"sync"

	"github.com/oykum/carelink-go/internal/logger"
)

// Status is reported back to the caller as playback progresses.
type Status string

const (
	StatusPlaying     Status = "playing"
	StatusFinished    Status = "finished"
	StatusError       Status = "error"
	StatusUnsupported Status = "unsupported"
)

// Synthesizer reads text aloud, fire-and-forget. Speak reports status
// transitions through the callback; Stop interrupts playback.
type Synthesizer interface {
	Supported() bool
	Speak(text string, onStatus func(Status))
	Stop()
}

// CommandSynthesizer runs a configured external command (espeak, say, piper)
// with the text appended as the final argument.
type CommandSynthesizer struct {
	command string
	args    []string

	mu      sync.Mutex
	current *exec.Cmd
}

// NewCommand creates a command-backed synthesizer. An empty command yields an
// unsupported capability, which keeps call sites free of nil checks.
func NewCommand(command string, args ...string) *CommandSynthesizer {
	return &CommandSynthesizer{command: command, args: args}
}

// Supported reports whether the configured command exists on PATH.
func (s *CommandSynthesizer) Supported() bool {
	if s.command == "" {
		return false
	}
	_, err := exec.LookPath(s.command)
	return err == nil
}

// Speak starts playback in the background. Any playback already in progress
// is stopped first.
func (s *CommandSynthesizer) Speak(text string, onStatus func(Status)) {
	if onStatus == nil {
		onStatus = func(Status) {}
	}
	if !s.Supported() {
		onStatus(StatusUnsupported)
		return
	}
	if text == "" {
		onStatus(StatusFinished)
		return
	}

	s.Stop()

	cmd := exec.Command(s.command, append(append([]string{}, s.args...), text)...)

	s.mu.Lock()
	s.current = cmd
	s.mu.Unlock()

	onStatus(StatusPlaying)
	go func() {
		err := cmd.Run()

		s.mu.Lock()
		if s.current == cmd {
			s.current = nil
		}
		s.mu.Unlock()

		if err != nil {
			logger.L.Warn("speech command failed", "command", s.command, "error", err)
			onStatus(StatusError)
			return
		}
		onStatus(StatusFinished)
	}()
}

// Stop interrupts the current playback, if any.
func (s *CommandSynthesizer) Stop() {
	s.mu.Lock()
	cmd := s.current
	s.current = nil
	s.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		if err := cmd.Process.Kill(); err != nil {
			logger.L.Debug("speech stop", "error", err)
		}
	}
}
