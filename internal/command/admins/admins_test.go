package admins

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Levtastic/LevBot/internal/command"
	"github.com/Levtastic/LevBot/internal/storage"
)

type recorder struct {
	msgs []string
}

func (r *recorder) Send(channelID, content string) (*discordgo.Message, error) {
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

func TestAddAdminSetsGlobalFlag(t *testing.T) {
	ctx, _ := testContext(t)

	require.NoError(t, addAdmin(ctx, command.Args{"user": "<@100>"}))

	flags, found := ctx.Store.UserFlags(ctx, "100")
	require.True(t, found)
	assert.True(t, flags.GlobalAdmin)
}

func TestAddAdminTwiceIsCommandError(t *testing.T) {
	ctx, _ := testContext(t)
	require.NoError(t, addAdmin(ctx, command.Args{"user": "<@100>"}))

	err := addAdmin(ctx, command.Args{"user": "<@100>"})
	var cmdErr *command.CommandError
	require.ErrorAs(t, err, &cmdErr)
}

func TestRemoveAdminDeletesBareRecord(t *testing.T) {
	ctx, _ := testContext(t)
	require.NoError(t, addAdmin(ctx, command.Args{"user": "<@100>"}))

	require.NoError(t, removeAdmin(ctx, command.Args{"user": "<@100>"}))

	u, err := ctx.Store.UserByDID(ctx, "100")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestRemoveAdminKeepsBlacklistedRecord(t *testing.T) {
	ctx, _ := testContext(t)

	u, err := ctx.Store.EnsureUser(ctx, "100")
	require.NoError(t, err)
	u.GlobalAdmin = true
	u.Blacklisted = true
	require.NoError(t, ctx.Store.SaveUser(ctx, u))

	require.NoError(t, removeAdmin(ctx, command.Args{"user": "<@100>"}))

	loaded, err := ctx.Store.UserByDID(ctx, "100")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.False(t, loaded.GlobalAdmin)
	assert.True(t, loaded.Blacklisted)
}

func TestRemoveAdminUnknownUserIsCommandError(t *testing.T) {
	ctx, _ := testContext(t)

	err := removeAdmin(ctx, command.Args{"user": "<@100>"})
	var cmdErr *command.CommandError
	require.ErrorAs(t, err, &cmdErr)
}

func TestListAdmins(t *testing.T) {
	ctx, rec := testContext(t)
	require.NoError(t, addAdmin(ctx, command.Args{"user": "<@100>"}))
	require.NoError(t, addAdmin(ctx, command.Args{"user": "<@200>"}))
	rec.msgs = nil

	require.NoError(t, listAdmins(ctx, command.Args{}))
	require.Len(t, rec.msgs, 1)
	assert.Contains(t, rec.msgs[0], "<@100>")
	assert.Contains(t, rec.msgs[0], "<@200>")

	rec.msgs = nil
	require.NoError(t, listAdmins(ctx, command.Args{"filter": "100"}))
	require.Len(t, rec.msgs, 1)
	assert.Contains(t, rec.msgs[0], "<@100>")
	assert.NotContains(t, rec.msgs[0], "<@200>")
}
