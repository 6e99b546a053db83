package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m4xw311/todoloop/linechan"
)

const welcome = "TODOs:\n\n\n> "

type harness struct {
	t    *testing.T
	in   *linechan.Channel
	out  *linechan.Channel
	app  *App
	done chan error
}

func start(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:    t,
		in:   linechan.New(),
		out:  linechan.New(),
		done: make(chan error, 1),
	}
	h.app = New(h.in, h.out)
	go func() { h.done <- h.app.Run(context.Background()) }()
	return h
}

func (h *harness) output() string {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	chunk, err := h.out.Receive(ctx)
	require.NoError(h.t, err, "waiting for output")
	return chunk
}

func (h *harness) wait() error {
	h.t.Helper()
	select {
	case err := <-h.done:
		return err
	case <-time.After(time.Second):
		h.t.Fatal("run loop did not finish")
		return nil
	}
}

func TestQuitImmediately(t *testing.T) {
	h := start(t)
	require.Equal(t, welcome, h.output())

	h.in.Send("quit")
	require.Equal(t, "bye!\n", h.output())
	require.NoError(t, h.wait())
	require.Equal(t, StateStopped, h.app.State())
}

func TestAddThenQuit(t *testing.T) {
	h := start(t)
	require.Equal(t, welcome, h.output())

	h.in.Send("Buy milk")
	require.Equal(t, "TODOs:\nBuy milk\n\n> ", h.output())

	h.in.Send("quit")
	require.Equal(t, "bye!\n", h.output())
	require.NoError(t, h.wait())
}

func TestDuplicatesKeepOrder(t *testing.T) {
	h := start(t)
	require.Equal(t, welcome, h.output())

	for _, line := range []string{"A", "B", "A", "quit"} {
		h.in.Send(line)
	}
	require.Equal(t, "TODOs:\nA\n\n> ", h.output())
	require.Equal(t, "TODOs:\nA\nB\n\n> ", h.output())
	require.Equal(t, "TODOs:\nA\nB\nA\n\n> ", h.output())
	require.Equal(t, "bye!\n", h.output())
	require.NoError(t, h.wait())
}

func TestListGrowsByPrefix(t *testing.T) {
	lines := []string{"one", "two", "three", "four", "five"}
	h := start(t)
	require.Equal(t, welcome, h.output())

	for i, line := range lines {
		h.in.Send(line)
		want := "TODOs:\n"
		for _, l := range lines[:i+1] {
			want += l + "\n"
		}
		want += "\n> "
		require.Equal(t, want, h.output())
	}
	h.in.Send("quit")
	require.Equal(t, "bye!\n", h.output())
}

func TestEmptyLineRepeatsPreviousRender(t *testing.T) {
	h := start(t)
	require.Equal(t, welcome, h.output())
	h.in.Send("")
	require.Equal(t, welcome, h.output())

	h.in.Send("Walk dog")
	previous := h.output()
	h.in.Send("")
	require.Equal(t, previous, h.output())

	h.in.Send("quit")
	require.Equal(t, "bye!\n", h.output())
}

func TestNothingFollowsFarewell(t *testing.T) {
	h := start(t)
	require.Equal(t, welcome, h.output())
	h.in.Send("quit")
	h.in.Send("after quit")
	h.in.Send("")
	require.Equal(t, "bye!\n", h.output())
	require.NoError(t, h.wait())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := h.out.Receive(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 2, h.in.Len(), "lines after quit are never consumed")
}

func TestRunAfterStop(t *testing.T) {
	h := start(t)
	require.Equal(t, welcome, h.output())
	h.in.Send("quit")
	require.Equal(t, "bye!\n", h.output())
	require.NoError(t, h.wait())

	require.ErrorIs(t, h.app.Run(context.Background()), ErrStopped)
}

func TestRunWhileRunning(t *testing.T) {
	h := start(t)
	require.Equal(t, welcome, h.output())
	require.Equal(t, StateRunning, h.app.State())

	require.ErrorIs(t, h.app.Run(context.Background()), ErrAlreadyRunning)

	h.in.Send("quit")
	require.Equal(t, "bye!\n", h.output())
	require.NoError(t, h.wait())
}

func TestInputClosedWithoutQuit(t *testing.T) {
	h := start(t)
	require.Equal(t, welcome, h.output())
	h.in.Send("last")
	h.in.Close()

	require.Equal(t, "TODOs:\nlast\n\n> ", h.output())
	require.ErrorIs(t, h.wait(), linechan.ErrClosed)
	require.Zero(t, h.out.Len(), "no farewell without quit")
}

func TestContextCancelStopsLoop(t *testing.T) {
	in, out := linechan.New(), linechan.New()
	a := New(in, out)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	first, err := out.Receive(context.Background())
	require.NoError(t, err)
	require.Equal(t, welcome, first)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("run loop ignored cancellation")
	}
	require.Equal(t, StateStopped, a.State())
}

func TestStateString(t *testing.T) {
	require.Equal(t, "idle", StateIdle.String())
	require.Equal(t, "running", StateRunning.String())
	require.Equal(t, "stopped", StateStopped.String())
	require.Equal(t, "unknown", State(9).String())
	require.Equal(t, StateIdle, New(linechan.New(), linechan.New()).State())
}
