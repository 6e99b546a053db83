package app

import (
	"context"
	"sync/atomic"

	"github.com/m4xw311/todoloop/errors"
	"github.com/m4xw311/todoloop/log"
	"github.com/m4xw311/todoloop/todo"
)

// Input is where the loop reads lines from. Receive blocks until a line is
// available or ctx ends.
type Input interface {
	Receive(ctx context.Context) (string, error)
}

// Output is where the loop writes rendered chunks. Send must not block.
type Output interface {
	Send(chunk string)
}

// State is the lifecycle position of an App.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

var (
	// ErrStopped is returned by Run on an App that has already finished.
	ErrStopped = errors.Sentinel("todo app already stopped")
	// ErrAlreadyRunning is returned by Run while another Run is in progress.
	ErrAlreadyRunning = errors.Sentinel("todo app already running")
)

// App is the TODO run loop. It owns its Store; the only way in or out is
// through the Input and Output it was built with.
type App struct {
	input  Input
	output Output
	store  *todo.Store
	state  atomic.Int32
}

// New creates an App reading from in and writing to out.
func New(in Input, out Output) *App {
	return &App{
		input:  in,
		output: out,
		store:  todo.NewStore(),
	}
}

// State reports where the App is in its lifecycle.
func (a *App) State() State {
	return State(a.state.Load())
}

// Run emits the initial list and then processes input lines until a quit
// command arrives. It blocks, so callers usually start it on its own
// goroutine. Run returns nil after quit, and a wrapped error if ctx ends or
// the input is closed first; in those cases no farewell is emitted.
func (a *App) Run(ctx context.Context) error {
	if !a.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		if a.State() == StateStopped {
			return ErrStopped
		}
		return ErrAlreadyRunning
	}
	defer a.state.Store(int32(StateStopped))

	log.Debug().Msg("todo app: running")
	a.emitList()

	for {
		line, err := a.input.Receive(ctx)
		if err != nil {
			log.Info().Err(err).Int("items", a.store.Len()).Msg("todo app: input ended without quit")
			return errors.Wrapf(err, "receive input")
		}

		cmd := todo.Parse(line)
		if !a.apply(cmd) {
			log.Info().Int("items", a.store.Len()).Msg("todo app: stopped")
			return nil
		}
	}
}

// apply executes cmd and reports whether the loop should keep going.
func (a *App) apply(cmd todo.Command) bool {
	switch c := cmd.(type) {
	case todo.Quit:
		a.output.Send(todo.RenderFarewell())
		return false
	case todo.Add:
		a.store.Append(c.Text)
	case todo.Unrecognized:
		a.store.Append(c.Raw)
	case todo.ListRequest:
	}

	log.Debug().Str("command", cmd.Kind()).Int("items", a.store.Len()).Msg("todo app: applied")
	a.emitList()
	return true
}

func (a *App) emitList() {
	a.output.Send(todo.RenderList(a.store.Snapshot()))
}
