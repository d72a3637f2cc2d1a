package polldough

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCompletionPollingRoundTrip(t *testing.T) {
	c, err := NewCompletion(8, WithBackend(BackendPolling))
	require.NoError(t, err)
	defer c.Close()

	r, w, rf, wf, err := PipeSources()
	require.NoError(t, err)
	defer rf.Close()
	defer wf.Close()

	require.NoError(t, c.Register(r))
	require.NoError(t, c.Register(w))

	buf := make(ByteSlice, 5)
	read := NewRead[ByteSlice](r, buf)

	status, err := c.Submit(read, 1)
	require.NoError(t, err)
	require.False(t, status.Complete, "expected read to park behind the poller with nothing written yet")

	write := NewWrite[ByteSlice](w, ByteSlice("hello"))
	wstatus, err := c.Submit(write, 2)
	require.NoError(t, err)
	require.True(t, wstatus.Complete, "expected a write to a pipe with room available to complete synchronously")

	var events []Event
	timeout := 2 * time.Second
	for len(events) == 0 {
		_, err := c.Wait(&timeout, &events)
		require.NoError(t, err)
	}

	require.Len(t, events, 1)
	require.Equal(t, uint64(1), events[0].Key)
	require.NoError(t, events[0].Err)
	require.Equal(t, 5, events[0].Result)
	require.Equal(t, "hello", string(read.IntoBuf()))
}

func TestCompletionNotifyUnblocksWait(t *testing.T) {
	c, err := NewCompletion(4, WithBackend(BackendPolling))
	require.NoError(t, err)
	defer c.Close()

	done := make(chan error, 1)
	go func() {
		var events []Event
		_, err := c.Wait(nil, &events)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, c.Notify())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not unblock after Notify")
	}
}

func TestCompletionCloseIsIdempotent(t *testing.T) {
	c, err := NewCompletion(2, WithBackend(BackendPolling))
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
