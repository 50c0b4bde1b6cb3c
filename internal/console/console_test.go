package console

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runListener(t *testing.T, in io.Reader) (context.Context, error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	l := &Listener{In: in, Cancel: cancel}

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	select {
	case err := <-done:
		return ctx, err
	case <-time.After(time.Second):
		t.Fatal("listener did not return")
		return ctx, nil
	}
}

func TestShutdownCommandCancelsContext(t *testing.T) {
	for _, word := range []string{"exit", "quit", "shutdown", "  SHUTDOWN  "} {
		ctx, err := runListener(t, strings.NewReader(word+"\n"))
		require.NoError(t, err, word)
		assert.Error(t, ctx.Err(), word)
	}
}

func TestUnknownInputIsIgnored(t *testing.T) {
	ctx, err := runListener(t, strings.NewReader("hello\n\nshutdown\n"))
	require.NoError(t, err)
	assert.Error(t, ctx.Err())
}

func TestClosedInputStopsListening(t *testing.T) {
	ctx, err := runListener(t, strings.NewReader(""))
	require.NoError(t, err)
	assert.NoError(t, ctx.Err())
}
