package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Levtastic/LevBot/internal/levels"
)

type sent struct {
	target  string
	content string
}

type fakeBot struct {
	mu  sync.Mutex
	msg []sent
	dms []sent
}

func (f *fakeBot) Send(channelID, content string) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msg = append(f.msg, sent{channelID, content})
	return &discordgo.Message{ID: "m1", ChannelID: channelID, Content: content}, nil
}

func (f *fakeBot) SendDM(userID, content string) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dms = append(f.dms, sent{userID, content})
	return &discordgo.Message{ID: "m1", Content: content}, nil
}

func (f *fakeBot) sentTo(channelID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, s := range f.msg {
		if s.target == channelID {
			out = append(out, s.content)
		}
	}
	return out
}

type fakeAliases map[string]string

func (f fakeAliases) CommandForAlias(_ context.Context, alias string) (string, bool) {
	cmd, ok := f[alias]
	return cmd, ok
}

func testMessage() *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "msg",
		ChannelID: "chan",
		Author:    &discordgo.User{ID: "author"},
	}}
}

// dispatch runs text through the registry and waits for every launched
// handler to finish.
func dispatch(t *testing.T, r *Registry, text string, level levels.Level) bool {
	t.Helper()
	scheduled := r.Dispatch(context.Background(), nil, testMessage(), text, level)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.wait(ctx))
	return scheduled
}

func TestFindDescendsToDeepestAuthorizedNode(t *testing.T) {
	bot := &fakeBot{}
	r := New(bot, nil, nil)
	r.Handle("add alert", Handler{Func: nop, Level: levels.User, Params: []Param{Required("username")}})

	node, remainder := r.Find(context.Background(), "add alert somebody here", levels.User)
	assert.Equal(t, "alert", node.Segment())
	assert.Equal(t, "somebody here", remainder)
}

func TestFindStopsAtUnauthorizedNode(t *testing.T) {
	r := New(&fakeBot{}, nil, nil)
	r.Handle("add admin", Handler{Func: nop, Level: levels.GlobalBotAdmin, Params: []Param{Required("user")}})

	// the whole "add" subtree requires global_bot_admin, so a plain user
	// never descends past the root
	node, remainder := r.Find(context.Background(), "add admin 123", levels.User)
	assert.Same(t, r.Root(), node)
	assert.Equal(t, "add admin 123", remainder)

	node, _ = r.Find(context.Background(), "add admin 123", levels.GlobalBotAdmin)
	assert.Equal(t, "admin", node.Segment())
}

func TestPrefixIsolation(t *testing.T) {
	r := New(&fakeBot{}, nil, nil)

	var invoked sync.Map
	handler := func(name string) Handler {
		return Handler{
			Level: levels.User,
			Func: func(*Context, Args) error {
				invoked.Store(name, true)
				return nil
			},
		}
	}
	r.Handle("deploy", handler("deploy"))
	r.Handle("list alerts", handler("list alerts"))

	assert.False(t, dispatch(t, r, "deployment now", levels.User))
	assert.False(t, dispatch(t, r, "listalerts", levels.User))

	_, ok := invoked.Load("deploy")
	assert.False(t, ok)
	_, ok = invoked.Load("list alerts")
	assert.False(t, ok)
}

func TestAliasEquivalenceAtEveryLevel(t *testing.T) {
	aliases := fakeAliases{"sub": "add", "alerts": "alert"}
	r := New(&fakeBot{}, nil, aliases)
	r.Handle("add alert", Handler{Func: nop, Level: levels.User, Params: []Param{Required("username")}})

	for _, level := range []levels.Level{
		levels.Blacklisted, levels.User, levels.ServerBotAdmin, levels.BotOwner,
	} {
		direct, directRest := r.Find(context.Background(), "add alert somebody", level)
		aliased, aliasedRest := r.Find(context.Background(), "sub alerts somebody", level)
		assert.Same(t, direct, aliased, "level %s", level)

		if level >= levels.User {
			assert.Equal(t, "alert", direct.Segment(), "level %s", level)
			assert.Equal(t, "somebody", directRest, "level %s", level)
			assert.Equal(t, "somebody", aliasedRest, "level %s", level)
		} else {
			assert.Same(t, r.Root(), direct, "level %s", level)
		}
	}
}

func nop(*Context, Args) error { return nil }

func TestDispatchBindsParameters(t *testing.T) {
	// scenario: "add alert" is open to users even though the rest of the
	// "add" group is gated higher
	r := New(&fakeBot{}, nil, nil)

	got := make(chan Args, 1)
	r.Handle("add alert", Handler{
		Level: levels.User,
		Params: []Param{
			Required("username"),
			Required("channel_name"),
			Optional("template"),
		},
		Func: func(_ *Context, args Args) error {
			got <- args
			return nil
		},
	})
	r.Handle("add admin", Handler{Func: nop, Level: levels.GlobalBotAdmin, Params: []Param{Required("user")}})

	require.True(t, dispatch(t, r, "add alert streamername here", levels.User))

	args := <-got
	assert.Equal(t, "streamername", args.Get("username"))
	assert.Equal(t, "here", args.Get("channel_name"))
	assert.Equal(t, "", args.Get("template"))
}

func TestDispatchSilentOnUnauthorizedCommand(t *testing.T) {
	bot := &fakeBot{}
	r := New(bot, nil, nil)
	r.Handle("add admin", Handler{Func: nop, Level: levels.GlobalBotAdmin, Params: []Param{Required("user")}})

	assert.False(t, dispatch(t, r, "add admin 123 Bob", levels.User))
	assert.Empty(t, bot.sentTo("chan"))
}

func TestDispatchRelaysCommandErrorVerbatim(t *testing.T) {
	bot := &fakeBot{}
	r := New(bot, nil, nil)
	r.Handle("remove alert", Handler{
		Level: levels.User,
		Func: func(*Context, Args) error {
			return Errorf("Streamer not found")
		},
	})

	require.True(t, dispatch(t, r, "remove alert", levels.User))
	assert.Equal(t, []string{"Streamer not found"}, bot.sentTo("chan"))
}

func TestDispatchRepliesSyntaxOnBadInvocation(t *testing.T) {
	bot := &fakeBot{}
	r := New(bot, nil, nil)
	r.Handle("add alert", Handler{
		Func:   nop,
		Level:  levels.User,
		Params: []Param{Required("username"), Required("channel_name")},
	})

	require.True(t, dispatch(t, r, "add alert onlyone", levels.User))
	assert.Equal(t, []string{"Syntax: `add alert <username> <channel_name>`"}, bot.sentTo("chan"))
}

func TestDispatchApologizesOnUnexpectedError(t *testing.T) {
	bot := &fakeBot{}
	r := New(bot, nil, nil)
	r.Handle("boom", Handler{
		Level: levels.User,
		Func: func(*Context, Args) error {
			return errors.New("database on fire")
		},
	})

	require.True(t, dispatch(t, r, "boom", levels.User))
	require.Len(t, bot.sentTo("chan"), 1)
	assert.Equal(t, apology, bot.sentTo("chan")[0])
	assert.NotContains(t, bot.sentTo("chan")[0], "database on fire")
}

func TestDispatchRecoversPanics(t *testing.T) {
	bot := &fakeBot{}
	r := New(bot, nil, nil)
	r.Handle("panic", Handler{
		Level: levels.User,
		Func: func(*Context, Args) error {
			panic("should not take the loop down")
		},
	})

	require.True(t, dispatch(t, r, "panic", levels.User))
	assert.Equal(t, []string{apology}, bot.sentTo("chan"))

	// the registry is still usable afterwards
	r.Handle("ok", Handler{Func: nop, Level: levels.User})
	assert.True(t, dispatch(t, r, "ok", levels.User))
}

func TestDispatchSiblingHandlersAreIndependent(t *testing.T) {
	bot := &fakeBot{}
	r := New(bot, nil, nil)

	ran := make(chan struct{}, 1)
	r.Handle("multi", Handler{
		Level: levels.User,
		Func: func(*Context, Args) error {
			panic("first sibling fails")
		},
	})
	r.Handle("multi", Handler{
		Level: levels.User,
		Func: func(*Context, Args) error {
			ran <- struct{}{}
			return nil
		},
	})

	require.True(t, dispatch(t, r, "multi", levels.User))

	select {
	case <-ran:
	default:
		t.Fatal("second sibling did not run")
	}
}

func TestDispatchSkipsHigherLevelSiblings(t *testing.T) {
	r := New(&fakeBot{}, nil, nil)

	ran := make(chan string, 2)
	r.Handle("status", Handler{
		Level: levels.User,
		Func:  func(*Context, Args) error { ran <- "user"; return nil },
	})
	r.Handle("status", Handler{
		Level: levels.BotOwner,
		Func:  func(*Context, Args) error { ran <- "owner"; return nil },
	})

	require.True(t, dispatch(t, r, "status", levels.User))
	close(ran)

	var names []string
	for name := range ran {
		names = append(names, name)
	}
	assert.Equal(t, []string{"user"}, names)
}

func TestClosedRegistryDropsDispatches(t *testing.T) {
	r := New(&fakeBot{}, nil, nil)
	r.Handle("help", Handler{Func: nop, Level: levels.User})

	require.NoError(t, r.Shutdown(context.Background()))
	assert.False(t, r.Dispatch(context.Background(), nil, testMessage(), "help", levels.User))
}

func TestHandleDefaultsLevelToServerBotAdmin(t *testing.T) {
	r := New(&fakeBot{}, nil, nil)
	r.Handle("maintenance", Handler{Func: nop})

	node, _ := r.Find(context.Background(), "maintenance", levels.BotOwner)
	require.Len(t, node.Handlers(), 1)
	assert.Equal(t, levels.ServerBotAdmin, node.Handlers()[0].Level)
}
