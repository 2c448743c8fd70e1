// Package steplog logs the lifecycle of long-running steps: a start line, periodic
// progress lines while the step runs, and a final line with the elapsed time.
package steplog

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	tagStarted    = "STARTED"
	tagFinished   = "FINISHED"
	tagException  = "EXCEPTION"
	tagInProgress = "IN PROGRESS"
	tagStatus     = "STATUS"
)

// Option configures a Step.
type Option func(*Step)

// WithLevel sets the level every line of the step is logged at.
func WithLevel(level domain.LogLevel) Option {
	return func(s *Step) {
		s.level = level
	}
}

// WithPing logs a progress line every interval while the step runs.
// A non-positive interval disables progress lines.
func WithPing(interval time.Duration) Option {
	return func(s *Step) {
		s.ping = interval
	}
}

// StatusOnly suppresses the start line and logs a single status line when the step ends.
func StatusOnly() Option {
	return func(s *Step) {
		s.statusOnly = true
	}
}

// Step logs the start and end of a block of work, even when the work fails.
type Step struct {
	log        ports.Logger
	msg        string
	level      domain.LogLevel
	ping       time.Duration
	statusOnly bool

	mu        sync.Mutex
	postfixes []string
	running   bool
	start     time.Time
	stop      chan struct{}
	stopped   chan struct{}
}

// New creates a step that logs msg through log.
func New(log ports.Logger, msg string, opts ...Option) *Step {
	s := &Step{
		log:   log,
		msg:   msg,
		level: domain.LogLevelInfo,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin marks the step as started.
func (s *Step) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return zerr.With(zerr.Wrap(domain.ErrStepRunning, "step already started"), "step", s.msg)
	}
	s.running = true
	s.start = time.Now()

	if s.statusOnly {
		return nil
	}
	s.emit(tagStarted, s.postfixes, nil)

	if s.ping > 0 {
		s.stop = make(chan struct{})
		s.stopped = make(chan struct{})
		go s.pingLoop(s.stop, s.stopped)
	}
	return nil
}

// AddPostfix appends text to the final line of the step.
func (s *Step) AddPostfix(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postfixes = append(s.postfixes, text)
}

// End marks the step as finished. A non-nil err logs an exception line instead.
func (s *Step) End(err error) {
	s.mu.Lock()
	stop, stopped := s.stop, s.stopped
	s.stop, s.stopped = nil, nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		<-stopped
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false

	tag := tagFinished
	elapsed := time.Since(s.start)
	elapsedPtr := &elapsed
	if s.statusOnly {
		tag = tagStatus
		elapsedPtr = nil
	}
	if err != nil {
		tag = tagException
		s.postfixes = append(s.postfixes, "- ["+errorName(err)+"]")
	}
	s.emit(tag, s.postfixes, elapsedPtr)
}

func (s *Step) pingLoop(stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(s.ping)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			elapsed := time.Since(s.start)
			s.emit(tagInProgress, nil, &elapsed)
			s.mu.Unlock()
		}
	}
}

func (s *Step) emit(tag string, postfixes []string, elapsed *time.Duration) {
	s.log.Log(s.level, format(s.msg, tag, postfixes, elapsed))
}

// Run wraps fn in a step and returns its error.
func Run(log ports.Logger, msg string, fn func(*Step) error, opts ...Option) error {
	s := New(log, msg, opts...)
	if err := s.Begin(); err != nil {
		return err
	}
	err := fn(s)
	s.End(err)
	return err
}

// Status logs a single status line outside any step.
func Status(log ports.Logger, level domain.LogLevel, msg string, postfixes ...string) {
	log.Log(level, format(msg, tagStatus, postfixes, nil))
}

func format(msg, tag string, postfixes []string, elapsed *time.Duration) string {
	parts := make([]string, 0, len(postfixes)+3)
	parts = append(parts, fmt.Sprintf("[%-11s]", tag))
	if m := strings.TrimLeft(msg, " \t"); m != "" {
		parts = append(parts, m)
	}
	for _, p := range postfixes {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if elapsed != nil {
		parts = append(parts, "["+formatElapsed(*elapsed)+"]")
	}
	return strings.Join(parts, " ")
}

// formatElapsed renders d compactly. Seconds stay unfolded up to five minutes,
// minutes up to an hour and hours up to four days before rolling into the next unit.
func formatElapsed(d time.Duration) string {
	const (
		jumpSec, secInMin   = 300, 60
		jumpMin, minInHour  = 60, 60
		jumpHour, hourInDay = 96, 24
	)

	remaining := int64(d / time.Second)

	seconds := remaining
	if remaining > jumpSec {
		seconds = remaining % secInMin
	}
	remaining = (remaining - seconds) / secInMin

	minutes := remaining
	if remaining > jumpMin {
		minutes = remaining % minInHour
	}
	remaining = (remaining - minutes) / minInHour

	hours := remaining
	if remaining > jumpHour {
		hours = remaining % hourInDay
	}
	days := (remaining - hours) / hourInDay

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd ", days)
	}
	if days > 0 || hours > 0 {
		fmt.Fprintf(&b, "%dh ", hours)
	}
	if days > 0 || hours > 0 || minutes > 0 {
		fmt.Fprintf(&b, "%dm ", minutes)
	}
	fmt.Fprintf(&b, "%ds", seconds)
	return b.String()
}

type messager interface {
	Message() string
}

// errorName returns the outermost message of err, which names the failure
// without its cause chain.
func errorName(err error) string {
	var m messager
	if errors.As(err, &m) && m.Message() != "" {
		return m.Message()
	}
	return err.Error()
}
