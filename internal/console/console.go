// Package console reads operator commands from standard input so the
// bot can be stopped from the terminal it runs in.
package console

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Listener watches an input stream for shutdown commands and cancels
// the bot's root context when one arrives.
type Listener struct {
	In     io.Reader
	Cancel context.CancelFunc
}

// New creates a listener on stdin.
func New(cancel context.CancelFunc) *Listener {
	return &Listener{In: os.Stdin, Cancel: cancel}
}

// Run reads lines until ctx is cancelled or the input closes. "exit",
// "quit" and "shutdown" stop the bot; anything else is ignored with a
// hint. It satisfies jobmgr.JobFunc.
func (l *Listener) Run(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(l.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				// stdin closed (e.g. running under a supervisor); just
				// stop listening.
				return nil
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "":
			case "exit", "quit", "shutdown":
				log.Info().Msg("shutdown requested from console")
				l.Cancel()
				return nil
			default:
				log.Info().Str("input", line).Msg("unknown console command, try \"shutdown\"")
			}
		}
	}
}
