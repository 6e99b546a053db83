package linechan

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func receiveWithin(t *testing.T, c *Channel, d time.Duration) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return c.Receive(ctx)
}

func TestChannelPreservesSendOrder(t *testing.T) {
	c := New()
	c.Send("one")
	c.Send("two")
	c.Send("")
	c.Send("three")
	require.Equal(t, 4, c.Len())

	for _, want := range []string{"one", "two", "", "three"} {
		got, err := receiveWithin(t, c, time.Second)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	require.Zero(t, c.Len())
}

func TestChannelReceiveBlocksUntilSend(t *testing.T) {
	c := New()
	got := make(chan string, 1)
	go func() {
		line, err := c.Receive(context.Background())
		if err == nil {
			got <- line
		}
	}()

	select {
	case line := <-got:
		t.Fatalf("Receive returned %q before any Send", line)
	case <-time.After(50 * time.Millisecond):
	}

	c.Send("hello")
	select {
	case line := <-got:
		require.Equal(t, "hello", line)
	case <-time.After(time.Second):
		t.Fatal("Receive did not return after Send")
	}
}

func TestChannelReceiveHonoursContext(t *testing.T) {
	c := New()
	_, err := receiveWithin(t, c, 20*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// A timed out receive must not swallow a later line.
	c.Send("late")
	got, err := receiveWithin(t, c, time.Second)
	require.NoError(t, err)
	require.Equal(t, "late", got)
}

func TestChannelCloseDrainsQueuedLines(t *testing.T) {
	c := New()
	c.Send("a")
	c.Send("b")
	c.Close()
	c.Close()
	c.Send("dropped")

	for _, want := range []string{"a", "b"} {
		got, err := receiveWithin(t, c, time.Second)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := receiveWithin(t, c, time.Second)
	require.ErrorIs(t, err, ErrClosed)
	_, err = receiveWithin(t, c, time.Second)
	require.ErrorIs(t, err, ErrClosed)
}

func TestChannelCloseWakesBlockedReceivers(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Receive(context.Background())
			errs <- err
		}()
	}
	time.Sleep(20 * time.Millisecond)
	c.Close()
	wg.Wait()
	close(errs)
	for err := range errs {
		require.ErrorIs(t, err, ErrClosed)
	}
}

func TestChannelConcurrentProducersKeepPerProducerOrder(t *testing.T) {
	const producers, perProducer = 4, 200
	c := New()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				c.Send(fmt.Sprintf("%d:%d", p, i))
			}
		}(p)
	}

	next := make([]int, producers)
	for n := 0; n < producers*perProducer; n++ {
		line, err := receiveWithin(t, c, time.Second)
		require.NoError(t, err)
		var p, i int
		_, err = fmt.Sscanf(line, "%d:%d", &p, &i)
		require.NoError(t, err)
		require.Equal(t, next[p], i, "producer %d out of order", p)
		next[p]++
	}
	wg.Wait()
	for p := range next {
		require.Equal(t, perProducer, next[p])
	}
}

func TestChannelConcurrentConsumersLoseNothing(t *testing.T) {
	const total = 500
	c := New()
	for i := 0; i < total; i++ {
		c.Send(fmt.Sprint(i))
	}
	c.Close()

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				line, err := c.Receive(context.Background())
				if err != nil {
					return
				}
				mu.Lock()
				seen[line] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Len(t, seen, total)
}
