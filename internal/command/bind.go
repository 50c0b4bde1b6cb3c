package command

import (
	"fmt"
	"strings"
)

// bindArgs maps the unconsumed remainder text onto a handler's declared
// parameters. The remainder is split on single spaces into at most
// len(params) pieces, so the final parameter keeps any embedded
// whitespace. Whitespace-only pieces count as absent: an absent required
// parameter fails binding with a SyntaxError, an absent optional one
// takes its default.
func bindArgs(h Handler, remainder string) (Args, error) {
	args := make(Args, len(h.Params))
	if len(h.Params) == 0 {
		return args, nil
	}

	pieces := strings.SplitN(remainder, " ", len(h.Params))

	for i, p := range h.Params {
		value := ""
		if i < len(pieces) {
			value = pieces[i]
		}
		if strings.TrimSpace(value) == "" {
			if p.Required {
				return nil, &SyntaxError{Syntax: h.syntax}
			}
			value = p.Default
		}
		args[p.Name] = value
	}

	return args, nil
}

// deriveSyntax renders the usage string for a handler registered at path:
// <name> for a required parameter, <name (optional)> for one defaulting to
// the empty string, and <name (default: "value")> otherwise.
func deriveSyntax(path string, params []Param) string {
	parts := make([]string, 0, len(params)+1)
	if path != "" {
		parts = append(parts, path)
	}

	for _, p := range params {
		switch {
		case p.Required:
			parts = append(parts, fmt.Sprintf("<%s>", p.Name))
		case p.Default == "":
			parts = append(parts, fmt.Sprintf("<%s (optional)>", p.Name))
		default:
			parts = append(parts, fmt.Sprintf("<%s (default: %q)>", p.Name, p.Default))
		}
	}

	return strings.Join(parts, " ")
}
