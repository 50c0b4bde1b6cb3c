package users

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
			GuildID:   "guild1",
			Author:    &discordgo.User{ID: "author"},
		}},
		Bot:   rec,
		Store: store,
	}, rec
}

func TestAddUserSetsServerFlag(t *testing.T) {
	ctx, _ := testContext(t)

	err := addUser(ctx, command.Args{"user": "<@100>", "flag": "admin"})
	require.NoError(t, err)

	flags, found := ctx.Store.ServerFlags(ctx, "100", "guild1")
	require.True(t, found)
	assert.True(t, flags.Admin)
	assert.False(t, flags.Blacklisted)
}

func TestAddUserRejectsUnknownFlag(t *testing.T) {
	ctx, _ := testContext(t)

	err := addUser(ctx, command.Args{"user": "<@100>", "flag": "superuser"})
	var cmdErr *command.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Contains(t, cmdErr.Message, "admin")
}

func TestAddUserRejectsNonMention(t *testing.T) {
	ctx, _ := testContext(t)

	err := addUser(ctx, command.Args{"user": "Bob", "flag": "admin"})
	var cmdErr *command.CommandError
	require.ErrorAs(t, err, &cmdErr)
}

func TestAddUserExplicitServerOverridesGuild(t *testing.T) {
	ctx, _ := testContext(t)

	err := addUser(ctx, command.Args{"user": "100", "flag": "blacklist", "server": "other"})
	require.NoError(t, err)

	_, found := ctx.Store.ServerFlags(ctx, "100", "guild1")
	assert.False(t, found)
	flags, found := ctx.Store.ServerFlags(ctx, "100", "other")
	require.True(t, found)
	assert.True(t, flags.Blacklisted)
}

func TestRemoveUserCleansUpEmptyRecords(t *testing.T) {
	ctx, _ := testContext(t)
	require.NoError(t, addUser(ctx, command.Args{"user": "<@100>", "flag": "admin"}))

	err := removeUser(ctx, command.Args{"user": "<@100>", "flag": "admin"})
	require.NoError(t, err)

	_, found := ctx.Store.ServerFlags(ctx, "100", "guild1")
	assert.False(t, found)

	u, err := ctx.Store.UserByDID(ctx, "100")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestRemoveUserKeepsRecordWithOtherFlags(t *testing.T) {
	ctx, _ := testContext(t)
	require.NoError(t, addUser(ctx, command.Args{"user": "<@100>", "flag": "admin"}))
	require.NoError(t, addUser(ctx, command.Args{"user": "<@100>", "flag": "blacklist"}))

	require.NoError(t, removeUser(ctx, command.Args{"user": "<@100>", "flag": "admin"}))

	flags, found := ctx.Store.ServerFlags(ctx, "100", "guild1")
	require.True(t, found)
	assert.False(t, flags.Admin)
	assert.True(t, flags.Blacklisted)
}

func TestRemoveUserWithoutFlagsIsCommandError(t *testing.T) {
	ctx, _ := testContext(t)

	err := removeUser(ctx, command.Args{"user": "<@100>", "flag": "admin"})
	var cmdErr *command.CommandError
	require.ErrorAs(t, err, &cmdErr)
}

func TestListUsersShowsFlags(t *testing.T) {
	ctx, rec := testContext(t)
	require.NoError(t, addUser(ctx, command.Args{"user": "<@100>", "flag": "admin"}))
	require.NoError(t, addUser(ctx, command.Args{"user": "<@200>", "flag": "blacklist"}))
	rec.msgs = nil

	require.NoError(t, listUsers(ctx, command.Args{}))
	require.Len(t, rec.msgs, 1)
	assert.Contains(t, rec.msgs[0], "<@100>: admin")
	assert.Contains(t, rec.msgs[0], "<@200>: blacklist")
}
