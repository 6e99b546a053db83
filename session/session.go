// Package session runs one TODO loop on its own goroutine and drives it the
// way a harness would: inject a line, then wait a bounded time for the chunk
// it produces. The JSON-RPC and MCP front ends keep one Session per client
// session.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m4xw311/todoloop/app"
	"github.com/m4xw311/todoloop/errors"
	"github.com/m4xw311/todoloop/linechan"
	"github.com/m4xw311/todoloop/log"
	"github.com/m4xw311/todoloop/todo"
)

// DefaultReplyTimeout bounds each wait for output when none is configured.
const DefaultReplyTimeout = time.Second

// ErrStopped is returned by Send once the loop has finished.
var ErrStopped = errors.Sentinel("session stopped")

type Session struct {
	ID string

	input        *linechan.Channel
	output       *linechan.Channel
	replyTimeout time.Duration
	cancel       context.CancelFunc

	// sendMu pairs each injected line with the chunk it produces.
	sendMu sync.Mutex
	quit   bool
	done   chan struct{}
	err    error
}

// NewID returns a fresh random session identifier.
func NewID() string {
	return uuid.NewString()
}

// Start launches a loop and returns it with its startup chunk. An empty id is
// replaced with NewID(). The loop runs until quit or Close; ctx only bounds the
// wait for the startup chunk.
func Start(ctx context.Context, id string, replyTimeout time.Duration) (*Session, string, error) {
	if id == "" {
		id = NewID()
	}
	if replyTimeout <= 0 {
		replyTimeout = DefaultReplyTimeout
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:           id,
		input:        linechan.New(),
		output:       linechan.New(),
		replyTimeout: replyTimeout,
		cancel:       cancel,
		done:         make(chan struct{}),
	}

	loop := app.New(s.input, s.output)
	go func() {
		s.err = loop.Run(runCtx)
		log.Debug().Str("session", s.ID).AnErr("result", s.err).Msg("session: loop finished")
		close(s.done)
	}()

	welcome, err := s.await(ctx)
	if err != nil {
		s.Close()
		return nil, "", errors.Wrapf(err, "session %s: waiting for startup output", id)
	}
	log.Debug().Str("session", s.ID).Msg("session: started")
	return s, welcome, nil
}

// Send injects line and returns the chunk the loop emits for it. When line is
// the quit command, Send also waits for the loop to finish, so Stopped is true
// once it returns.
func (s *Session) Send(ctx context.Context, line string) (string, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.quit || s.Stopped() {
		return "", ErrStopped
	}
	s.input.Send(line)
	chunk, err := s.await(ctx)
	if err != nil {
		return "", errors.Wrapf(err, "session %s: waiting for reply to %q", s.ID, line)
	}

	if _, ok := todo.Parse(line).(todo.Quit); ok {
		s.quit = true
		if err := s.awaitDone(ctx); err != nil {
			return chunk, err
		}
	}
	return chunk, nil
}

// Quit sends the quit command and returns the farewell once the loop has ended.
func (s *Session) Quit(ctx context.Context) (string, error) {
	return s.Send(ctx, todo.QuitCommand)
}

func (s *Session) awaitDone(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.replyTimeout)
	defer cancel()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "session %s: waiting for loop to stop", s.ID)
	}
}

func (s *Session) await(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.replyTimeout)
	defer cancel()
	return s.output.Receive(ctx)
}

// Stopped reports whether the loop has finished.
func (s *Session) Stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done is closed when the loop finishes.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err is the loop's result once Done is closed: nil after quit.
func (s *Session) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Close stops the loop without a farewell. It is a no-op after quit.
func (s *Session) Close() {
	s.cancel()
}
