// Package command implements the command trie, permission-gated lookup
// and concurrent dispatch of chat commands.
package command

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/Levtastic/LevBot/internal/levels"
	"github.com/Levtastic/LevBot/internal/storage"
)

// Messenger sends messages on behalf of the bot. Implemented by the
// discord layer; tests substitute a recorder.
type Messenger interface {
	Send(channelID, content string) (*discordgo.Message, error)
	SendDM(userID, content string) (*discordgo.Message, error)
}

// Context carries everything a handler needs for one invocation.
type Context struct {
	context.Context

	Session *discordgo.Session
	Message *discordgo.MessageCreate
	Bot     Messenger
	Store   *storage.Store
	Level   levels.Level
}

// Reply sends a formatted message to the channel the command came from.
func (c *Context) Reply(format string, a ...any) error {
	_, err := c.Bot.Send(c.Message.ChannelID, fmt.Sprintf(format, a...))
	return err
}

// DM sends a formatted direct message to the command's author.
func (c *Context) DM(format string, a ...any) error {
	_, err := c.Bot.SendDM(c.Message.Author.ID, fmt.Sprintf(format, a...))
	return err
}

// Args holds the bound parameter values for one invocation, keyed by
// parameter name.
type Args map[string]string

// Get returns the bound value for name, empty when absent.
func (a Args) Get(name string) string { return a[name] }

// Param declares one positional parameter of a handler.
type Param struct {
	Name     string
	Default  string
	Required bool
}

// Required declares a parameter the user must supply.
func Required(name string) Param { return Param{Name: name, Required: true} }

// Optional declares a parameter that defaults to the empty string.
func Optional(name string) Param { return Param{Name: name} }

// Default declares a parameter with a fallback value.
func Default(name, value string) Param { return Param{Name: name, Default: value} }

// HandlerFunc is the body of a command.
type HandlerFunc func(ctx *Context, args Args) error

// Handler couples a command body with the level required to run it and
// the parameters bound from the message remainder.
type Handler struct {
	Func        HandlerFunc
	Level       levels.Level
	Params      []Param
	Description string

	// derived at registration from the path and params
	syntax string
}

// Syntax returns the usage string shown in syntax errors and help.
func (h Handler) Syntax() string { return h.syntax }
