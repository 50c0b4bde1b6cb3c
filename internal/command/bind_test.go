package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handlerWith(params ...Param) Handler {
	h := Handler{Params: params}
	h.syntax = deriveSyntax("test", params)
	return h
}

func TestBindArgsSplitsIntoAtMostParamCount(t *testing.T) {
	h := handlerWith(Required("x"), Optional("y"))

	args, err := bindArgs(h, "foo bar baz")
	require.NoError(t, err)
	assert.Equal(t, "foo", args.Get("x"))
	assert.Equal(t, "bar baz", args.Get("y"))
}

func TestBindArgsOptionalTakesDefault(t *testing.T) {
	h := handlerWith(Required("x"), Optional("y"))

	args, err := bindArgs(h, "foo")
	require.NoError(t, err)
	assert.Equal(t, "foo", args.Get("x"))
	assert.Equal(t, "", args.Get("y"))
}

func TestBindArgsMissingRequiredIsSyntaxError(t *testing.T) {
	h := handlerWith(Required("x"), Optional("y"))

	_, err := bindArgs(h, "")
	var synErr *SyntaxError
	require.ErrorAs(t, err, &synErr)
	assert.Contains(t, synErr.Error(), "Syntax: `")
}

func TestBindArgsWhitespaceOnlyPieceIsAbsent(t *testing.T) {
	h := handlerWith(Required("x"), Default("y", "fallback"))

	args, err := bindArgs(h, "foo  ")
	require.NoError(t, err)
	assert.Equal(t, "foo", args.Get("x"))
	assert.Equal(t, "fallback", args.Get("y"))
}

func TestBindArgsNoParams(t *testing.T) {
	args, err := bindArgs(handlerWith(), "anything at all")
	require.NoError(t, err)
	assert.Empty(t, args)
}

func TestDeriveSyntax(t *testing.T) {
	syntax := deriveSyntax("add alert", []Param{
		Required("username"),
		Required("channel_name"),
		Optional("template"),
	})
	assert.Equal(t, "add alert <username> <channel_name> <template (optional)>", syntax)

	syntax = deriveSyntax("greet", []Param{Default("greeting", "hello")})
	assert.Equal(t, `greet <greeting (default: "hello")>`, syntax)
}
