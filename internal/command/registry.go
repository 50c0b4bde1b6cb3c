package command

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/Levtastic/LevBot/internal/levels"
	"github.com/Levtastic/LevBot/internal/storage"
)

const apology = "Sorry, something went wrong running that command. The details have been logged."

// AliasSource resolves a command segment through the alias table. Lookups
// happen fresh on every dispatch so alias changes take effect without
// rebuilding the trie. Implemented by the storage layer.
type AliasSource interface {
	CommandForAlias(ctx context.Context, alias string) (string, bool)
}

// Registry is the command trie plus the dispatch machinery around it.
// Handlers are registered during startup; once the gateway starts
// delivering messages the trie is treated as immutable, so concurrent
// walks need no locking.
type Registry struct {
	root    *Node
	aliases AliasSource
	bot     Messenger
	store   *storage.Store

	closed atomic.Bool
	tasks  sync.WaitGroup
}

// New returns an empty registry. The alias source may be nil, in which
// case every segment resolves to itself.
func New(bot Messenger, store *storage.Store, aliases AliasSource) *Registry {
	return &Registry{
		root:    newNode(""),
		aliases: aliases,
		bot:     bot,
		store:   store,
	}
}

// Root returns the root node, for help-style introspection.
func (r *Registry) Root() *Node { return r.root }

// Handle registers a handler at the given space-separated path, creating
// intermediate nodes as needed. Multiple handlers at one path run in
// registration order relative to scheduling. A handler with the zero
// Level is registered at ServerBotAdmin.
func (r *Registry) Handle(path string, h Handler) {
	if h.Level == levels.NoAccess {
		h.Level = levels.ServerBotAdmin
	}
	h.syntax = deriveSyntax(path, h.Params)
	node := r.root.ensure(path)
	node.handlers = append(node.handlers, h)
}

// Find walks the trie from the root following alias-resolved segments of
// text, descending only while the child's effective level is within
// level. It returns the deepest authorized node together with the full
// unconsumed text at the point descent stopped, so callers can compute
// the consumed prefix by subtracting the remainder's length.
func (r *Registry) Find(ctx context.Context, text string, level levels.Level) (*Node, string) {
	return r.find(ctx, r.root, text, level)
}

func (r *Registry) find(ctx context.Context, node *Node, text string, level levels.Level) (*Node, string) {
	segment, rest := splitSegment(text)
	segment = r.resolveAlias(ctx, segment)

	child, ok := node.children[segment]
	if !ok || child.UserLevel() > level {
		return node, text
	}

	return r.find(ctx, child, rest, level)
}

func (r *Registry) resolveAlias(ctx context.Context, segment string) string {
	if r.aliases == nil {
		return segment
	}
	if cmd, ok := r.aliases.CommandForAlias(ctx, segment); ok {
		return cmd
	}
	return segment
}

// Dispatch resolves text against the trie at the given level and launches
// every authorized handler at the found node as an independent goroutine.
// It returns whether at least one handler was scheduled. A failure in one
// handler never affects its siblings or the event loop.
func (r *Registry) Dispatch(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, text string, level levels.Level) bool {
	if r.closed.Load() {
		return false
	}

	node, remainder := r.Find(ctx, text, level)

	scheduled := false
	for _, h := range node.handlers {
		if h.Level > level {
			continue
		}
		scheduled = true

		cctx := &Context{
			Context: ctx,
			Session: s,
			Message: m,
			Bot:     r.bot,
			Store:   r.store,
			Level:   level,
		}

		r.tasks.Add(1)
		go r.invoke(cctx, h, remainder)
	}

	return scheduled
}

// invoke binds parameters and runs one handler. All failure classification
// happens at this single boundary: syntax errors and declared command
// errors echo a user-facing message, anything else is logged in full and
// answered with a generic apology.
func (r *Registry) invoke(ctx *Context, h Handler, remainder string) {
	defer r.tasks.Done()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Interface("panic", rec).
				Str("syntax", h.syntax).
				Str("remainder", remainder).
				Msg("handler panicked")
			_ = ctx.Reply("%s", apology)
		}
	}()

	args, err := bindArgs(h, remainder)
	if err != nil {
		_ = ctx.Reply("%s", err.Error())
		return
	}

	err = h.Func(ctx, args)
	if err == nil {
		return
	}

	var cmdErr *CommandError
	var synErr *SyntaxError
	switch {
	case errors.As(err, &cmdErr):
		_ = ctx.Reply("%s", cmdErr.Message)
	case errors.As(err, &synErr):
		_ = ctx.Reply("%s", synErr.Error())
	default:
		log.Error().
			Err(err).
			Str("syntax", h.syntax).
			Str("user", ctx.Message.Author.ID).
			Str("channel", ctx.Message.ChannelID).
			Str("remainder", remainder).
			Msg("handler failed")
		_ = ctx.Reply("%s", apology)
	}
}

// Close stops the registry accepting new dispatches.
func (r *Registry) Close() { r.closed.Store(true) }

// Shutdown closes the registry and waits for in-flight handlers to finish
// or for ctx to expire, whichever comes first.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.Close()
	return r.wait(ctx)
}

func (r *Registry) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.tasks.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
