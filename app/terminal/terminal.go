package terminal

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/m4xw311/todoloop/app"
	"github.com/m4xw311/todoloop/errors"
	"github.com/m4xw311/todoloop/linechan"
	"github.com/m4xw311/todoloop/log"
)

// Terminal connects a TODO loop to a line-oriented reader and writer.
type Terminal struct {
	in  io.Reader
	out *bufio.Writer
}

// New creates a new Terminal instance
func New(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:  in,
		out: bufio.NewWriter(out),
	}
}

// Run starts the interactive terminal session and blocks until the loop ends.
func (t *Terminal) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	input := linechan.New()
	output := linechan.New()
	loop := app.New(input, output)

	result := make(chan error, 1)
	go func() {
		err := loop.Run(ctx)
		// Everything the loop emitted is already queued; closing lets the
		// writer drain it and stop.
		output.Close()
		result <- err
	}()
	go t.readInput(input)

	if err := t.writeOutput(output); err != nil {
		// Nothing can be shown any more; stop the loop before returning.
		cancel()
		<-result
		return err
	}

	err := <-result
	if errors.Is(err, linechan.ErrClosed) {
		// Input ran out before "quit".
		return nil
	}
	return err
}

// readInput forwards each line from the reader until end of input.
func (t *Terminal) readInput(input *linechan.Channel) {
	defer input.Close()

	scanner := bufio.NewScanner(t.in)
	for scanner.Scan() {
		input.Send(strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		log.Warn().Err(err).Msg("terminal: read error ends input")
	}
}

// writeOutput copies chunks to the writer until the loop has finished.
func (t *Terminal) writeOutput(output *linechan.Channel) error {
	for {
		chunk, err := output.Receive(context.Background())
		if errors.Is(err, linechan.ErrClosed) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "terminal: receive output")
		}
		if _, err := t.out.WriteString(chunk); err != nil {
			return errors.Wrapf(err, "terminal: write output")
		}
		if err := t.out.Flush(); err != nil {
			return errors.Wrapf(err, "terminal: flush output")
		}
	}
}
