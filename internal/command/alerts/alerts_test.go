package alerts

import (
	"context"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Levtastic/LevBot/internal/command"
	"github.com/Levtastic/LevBot/internal/storage"
)

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) Send(channelID, content string) (*discordgo.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, content)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (r *recorder) SendDM(userID, content string) (*discordgo.Message, error) {
	return r.Send(userID, content)
}

func testContext(t *testing.T) (*command.Context, *recorder) {
	t.Helper()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rec := &recorder{}
	return &command.Context{
		Context: context.Background(),
		Message: &discordgo.MessageCreate{Message: &discordgo.Message{
			ChannelID: "chan1",
			Author:    &discordgo.User{ID: "author"},
		}},
		Bot:   rec,
		Store: store,
	}, rec
}

func TestAddAlertHereCreatesStreamerAndChannel(t *testing.T) {
	ctx, _ := testContext(t)

	err := addAlert(ctx, command.Args{
		"username":     "SomeBody",
		"channel_name": "here",
		"template":     "",
	})
	require.NoError(t, err)

	st, err := ctx.Store.StreamerByUsername(ctx, "somebody")
	require.NoError(t, err)
	require.NotNil(t, st)

	sc, err := ctx.Store.StreamerChannelBy(ctx, st.ID, "chan1")
	require.NoError(t, err)
	require.NotNil(t, sc)
	assert.Empty(t, sc.Template)
}

func TestAddAlertDuplicateIsCommandError(t *testing.T) {
	ctx, _ := testContext(t)
	args := command.Args{"username": "somebody", "channel_name": "here"}

	require.NoError(t, addAlert(ctx, args))

	err := addAlert(ctx, args)
	var cmdErr *command.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Contains(t, cmdErr.Message, "already announced")
}

func TestRemoveAlertDeletesStreamerWithLastChannel(t *testing.T) {
	ctx, _ := testContext(t)
	require.NoError(t, addAlert(ctx, command.Args{"username": "somebody", "channel_name": "here"}))

	err := removeAlert(ctx, command.Args{"username": "somebody", "channel_name": "here"})
	require.NoError(t, err)

	st, err := ctx.Store.StreamerByUsername(ctx, "somebody")
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestRemoveAlertKeepsStreamerWithOtherChannels(t *testing.T) {
	ctx, _ := testContext(t)
	require.NoError(t, addAlert(ctx, command.Args{"username": "somebody", "channel_name": "here"}))
	require.NoError(t, addAlert(ctx, command.Args{"username": "somebody", "channel_name": "<#chan2>"}))

	err := removeAlert(ctx, command.Args{"username": "somebody", "channel_name": "here"})
	require.NoError(t, err)

	st, err := ctx.Store.StreamerByUsername(ctx, "somebody")
	require.NoError(t, err)
	require.NotNil(t, st)

	channels, err := ctx.Store.ChannelsForStreamer(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "chan2", channels[0].ChannelDID)
}

func TestRemoveAlertUnknownStreamer(t *testing.T) {
	ctx, _ := testContext(t)

	err := removeAlert(ctx, command.Args{"username": "nobody", "channel_name": "here"})
	var cmdErr *command.CommandError
	require.ErrorAs(t, err, &cmdErr)
}

func TestListAlertsFiltersByUsername(t *testing.T) {
	ctx, rec := testContext(t)
	require.NoError(t, addAlert(ctx, command.Args{"username": "alice", "channel_name": "here"}))
	require.NoError(t, addAlert(ctx, command.Args{"username": "bob", "channel_name": "here"}))
	rec.msgs = nil

	require.NoError(t, listAlerts(ctx, command.Args{"filter": "ali"}))
	require.Len(t, rec.msgs, 1)
	assert.Contains(t, rec.msgs[0], "alice")
	assert.NotContains(t, rec.msgs[0], "bob")
}

func TestListAlertsEmpty(t *testing.T) {
	ctx, rec := testContext(t)

	require.NoError(t, listAlerts(ctx, command.Args{}))
	require.Len(t, rec.msgs, 1)
	assert.Contains(t, rec.msgs[0], "No stream alerts")
}

func TestResolveChannelMention(t *testing.T) {
	ctx, _ := testContext(t)

	id, err := resolveChannel(ctx, "<#12345>")
	require.NoError(t, err)
	assert.Equal(t, "12345", id)
}

func TestResolveChannelNameRequiresGuild(t *testing.T) {
	ctx, _ := testContext(t)

	_, err := resolveChannel(ctx, "#general")
	var cmdErr *command.CommandError
	require.ErrorAs(t, err, &cmdErr)
}
