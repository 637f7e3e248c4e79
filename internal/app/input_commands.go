package app

import (
	"errors"
	"strings"
)

type inputKind int

const (
	inputSend inputKind = iota
	inputNewSession
	inputOpenSession
	inputRefresh
	inputHelp
	inputQuit
)

// inputCommand is one line typed into the composer: either task content or
// a slash command.
type inputCommand struct {
	kind      inputKind
	content   string
	agentType string
	title     string
	sessionID string
}

const helpText = "/new <agent> [title]  /open <session-id>  /refresh  /quit  ctrl+r refresh  ctrl+y copy id"

func parseInput(raw string, defaultAgent string) (inputCommand, error) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return inputCommand{}, errors.New("nothing to send")
	}
	if !strings.HasPrefix(line, "/") || strings.HasPrefix(line, "//") {
		return inputCommand{kind: inputSend, content: strings.TrimPrefix(line, "/")}, nil
	}
	fields := strings.Fields(line)
	name := strings.ToLower(fields[0])
	args := fields[1:]
	switch name {
	case "/new":
		agent := strings.TrimSpace(defaultAgent)
		if len(args) > 0 {
			agent = args[0]
			args = args[1:]
		}
		if agent == "" {
			return inputCommand{}, errors.New("usage: /new <agent> [title]")
		}
		return inputCommand{kind: inputNewSession, agentType: agent, title: strings.Join(args, " ")}, nil
	case "/open":
		if len(args) != 1 {
			return inputCommand{}, errors.New("usage: /open <session-id>")
		}
		return inputCommand{kind: inputOpenSession, sessionID: args[0]}, nil
	case "/refresh":
		return inputCommand{kind: inputRefresh}, nil
	case "/help", "/?":
		return inputCommand{kind: inputHelp}, nil
	case "/quit", "/exit":
		return inputCommand{kind: inputQuit}, nil
	}
	return inputCommand{}, errors.New("unknown command " + name + " (try /help)")
}
