// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/fibertrace/lib/clock"
	"github.com/bureau-foundation/fibertrace/lib/traceevent"
)

// DefaultGracePeriod is how long a session keeps draining output after
// the program exits before tearing the consumer down.
const DefaultGracePeriod = 150 * time.Millisecond

// HostOptions configures a Host.
type HostOptions struct {
	// Limiter bounds concurrently running programs. Nil means a private
	// Limiter with one slot.
	Limiter *Limiter

	// GracePeriod is the drain window after program exit. Zero means
	// DefaultGracePeriod.
	GracePeriod time.Duration

	// MaxLineBytes bounds one output line. Zero means
	// DefaultMaxLineBytes.
	MaxLineBytes int

	// EventBuffer is the capacity of each session's event channel.
	EventBuffer int

	// Clock times the grace period. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives session lifecycle records. Defaults to a
	// discarding logger.
	Logger *slog.Logger
}

// Host spawns traced programs.
type Host struct {
	limiter      *Limiter
	gracePeriod  time.Duration
	maxLineBytes int
	eventBuffer  int
	clock        clock.Clock
	logger       *slog.Logger
}

// NewHost creates a Host.
func NewHost(options HostOptions) *Host {
	host := &Host{
		limiter:      options.Limiter,
		gracePeriod:  options.GracePeriod,
		maxLineBytes: options.MaxLineBytes,
		eventBuffer:  options.EventBuffer,
		clock:        options.Clock,
		logger:       options.Logger,
	}
	if host.limiter == nil {
		host.limiter = NewLimiter(1)
	}
	if host.gracePeriod <= 0 {
		host.gracePeriod = DefaultGracePeriod
	}
	if host.eventBuffer <= 0 {
		host.eventBuffer = 256
	}
	if host.clock == nil {
		host.clock = clock.Real()
	}
	if host.logger == nil {
		host.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return host
}

// Command describes a program to run.
type Command struct {
	// Path is the executable, resolved through PATH if it has no
	// slash.
	Path string

	Args []string

	// Dir is the working directory. Empty means the host's.
	Dir string

	// Env is appended to the host's environment.
	Env []string

	// RawOutput, if set, receives every output line that is not a
	// protocol line. It is called from the session's reader goroutine.
	RawOutput func(line string)
}

// Session is one running program. It is owned by the caller of
// Host.Start, which must call Close.
type Session struct {
	host    *Host
	command *exec.Cmd
	reader  *os.File

	events     <-chan traceevent.Event
	pumpDone   chan struct{}
	stopPump   context.CancelFunc
	exited     chan struct{}
	exitErr    error
	closed     chan struct{}
	closeOnce  sync.Once
	teardownMu sync.Mutex
	tornDown   bool
}

// Start acquires a limiter slot, waiting if necessary, and spawns
// command in a new process group with stdout and stderr on one pipe.
// If ctx is done before the session is closed, the session is closed.
func (host *Host) Start(ctx context.Context, command Command) (*Session, error) {
	if command.Path == "" {
		return nil, errors.New("bridge: command path is empty")
	}
	if err := host.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("waiting for a host slot: %w", err)
	}

	reader, writer, err := os.Pipe()
	if err != nil {
		host.limiter.Release()
		return nil, fmt.Errorf("creating output pipe: %w", err)
	}

	process := exec.Command(command.Path, command.Args...)
	process.Dir = command.Dir
	process.Stdout = writer
	process.Stderr = writer
	process.Env = append(os.Environ(), command.Env...)
	process.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := process.Start(); err != nil {
		reader.Close()
		writer.Close()
		host.limiter.Release()
		return nil, fmt.Errorf("starting %s: %w", command.Path, err)
	}
	// The child holds its own copy; ours must go so EOF arrives when the
	// process group exits.
	writer.Close()

	pumpContext, stopPump := context.WithCancel(context.Background())
	events := make(chan traceevent.Event, host.eventBuffer)
	session := &Session{
		host:     host,
		command:  process,
		reader:   reader,
		events:   events,
		pumpDone: make(chan struct{}),
		stopPump: stopPump,
		exited:   make(chan struct{}),
		closed:   make(chan struct{}),
	}

	go pump(pumpContext, reader, StreamOptions{
		DecoderOptions: DecoderOptions{MaxLineBytes: host.maxLineBytes, RawLine: command.RawOutput},
		OnError: func(err error) {
			host.logger.Warn("reading program output failed", "pid", process.Process.Pid, "error", err)
		},
	}, events, session.pumpDone)

	go func() {
		session.exitErr = process.Wait()
		close(session.exited)
	}()

	go func() {
		select {
		case <-ctx.Done():
			session.Close()
		case <-session.closed:
		}
	}()

	host.logger.Debug("program started", "path", command.Path, "pid", process.Process.Pid)
	return session, nil
}

// Events yields the program's trace events in stream order. The channel
// closes when the output ends or the session is torn down.
func (session *Session) Events() <-chan traceevent.Event { return session.events }

// PID returns the program's process id, which is also its process
// group id.
func (session *Session) PID() int { return session.command.Process.Pid }

// Exited is closed once the program has exited.
func (session *Session) Exited() <-chan struct{} { return session.exited }

// Wait blocks until the program exits, then keeps the event stream open
// for the grace period (or until output ends, if sooner) so trailing
// events are delivered, then tears the consumer down. It returns the
// program's exit error. Wait does not release the session; call Close.
func (session *Session) Wait(ctx context.Context) error {
	select {
	case <-session.exited:
	case <-ctx.Done():
		return context.Cause(ctx)
	}

	select {
	case <-session.pumpDone:
	case <-session.host.clock.After(session.host.gracePeriod):
		session.host.logger.Debug("grace period elapsed with output still open", "pid", session.PID())
	case <-ctx.Done():
	}
	session.teardown()
	return session.exitErr
}

// Close kills the program's process group, tears the consumer down,
// reaps the process and releases the limiter slot. It is safe to call
// more than once and after the program has exited; only the first call
// does anything. It returns the program's exit error.
func (session *Session) Close() error {
	session.closeOnce.Do(func() {
		close(session.closed)

		pid := session.command.Process.Pid
		if err := unix.Kill(-pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
			session.host.logger.Warn("killing process group failed", "pgid", pid, "error", err)
		}
		session.teardown()
		<-session.exited
		<-session.pumpDone
		session.host.limiter.Release()
		session.host.logger.Debug("session closed", "pid", pid)
	})
	return session.exitErr
}

// teardown stops the reader goroutine. Pending output is discarded.
func (session *Session) teardown() {
	session.teardownMu.Lock()
	defer session.teardownMu.Unlock()
	if session.tornDown {
		return
	}
	session.tornDown = true
	session.stopPump()
	session.reader.Close()
}
