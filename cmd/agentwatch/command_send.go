package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"agentwatch/internal/app"
)

type SendCommand struct {
	wiring commandWiring
}

func NewSendCommand(wiring commandWiring) *SendCommand {
	return &SendCommand{wiring: wiring}
}

func (c *SendCommand) Run(args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(c.wiring.stderr)
	sessionID := fs.String("session", "", "session id")
	quiet := fs.Bool("quiet", false, "only print the final reply")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*sessionID) == "" {
		return errors.New("session is required")
	}
	content := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if content == "" {
		return errors.New("content is required")
	}

	api, _, err := connect(c.wiring)
	if err != nil {
		return err
	}
	ctx, cancel := c.wiring.signalContext()
	defer cancel()

	var out io.Writer = c.wiring.stdout
	if *quiet {
		out = io.Discard
	}
	result, err := api.Watch(ctx, app.WatchOptions{
		SessionID: strings.TrimSpace(*sessionID),
		Content:   content,
		Out:       out,
	})
	if err != nil {
		return err
	}
	if *quiet && result.Reply != "" {
		fmt.Fprintln(c.wiring.stdout, strings.TrimSpace(result.Reply))
	}
	if result.Failed() {
		return watchFailure(result)
	}
	return nil
}

func watchFailure(result app.WatchResult) error {
	if result.Workflow != nil && result.Workflow.Error != "" {
		return fmt.Errorf("workflow %s: %s", result.Workflow.Status, result.Workflow.Error)
	}
	if result.Workflow != nil {
		return fmt.Errorf("workflow %s after polling stopped (%s)", result.Workflow.Status, result.Reason)
	}
	return fmt.Errorf("polling stopped (%s) without a workflow", result.Reason)
}
