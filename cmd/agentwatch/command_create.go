package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"agentwatch/internal/client"
)

type CreateCommand struct {
	wiring commandWiring
}

func NewCreateCommand(wiring commandWiring) *CreateCommand {
	return &CreateCommand{wiring: wiring}
}

func (c *CreateCommand) Run(args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(c.wiring.stderr)
	agent := fs.String("agent", "", "agent type")
	title := fs.String("title", "", "session title")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*agent) == "" {
		return errors.New("agent is required")
	}

	api, _, err := connect(c.wiring)
	if err != nil {
		return err
	}
	session, err := api.CreateSession(context.Background(), client.CreateSessionRequest{
		AgentType: strings.TrimSpace(*agent),
		Title:     strings.TrimSpace(*title),
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.wiring.stdout, session.ID)
	return nil
}
