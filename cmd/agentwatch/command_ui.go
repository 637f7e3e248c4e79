package main

import (
	"flag"
	"strings"

	"agentwatch/internal/app"
)

type UICommand struct {
	wiring commandWiring
}

func NewUICommand(wiring commandWiring) *UICommand {
	return &UICommand{wiring: wiring}
}

func (c *UICommand) Run(args []string) error {
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	fs.SetOutput(c.wiring.stderr)
	sessionID := fs.String("session", "", "session to open on start")
	agent := fs.String("agent", "", "default agent type for /new")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := c.wiring.loadConfig()
	if err != nil {
		return err
	}
	logger, closer := c.wiring.configureUILogging(cfg)
	if closer != nil {
		defer closer.Close()
	}
	api, err := c.wiring.newClient(cfg, logger)
	if err != nil {
		return err
	}

	defaultAgent := strings.TrimSpace(*agent)
	if defaultAgent == "" {
		if agents := cfg.AgentTypes(); len(agents) > 0 {
			defaultAgent = agents[0]
		}
	}
	return api.RunUI(app.Options{
		SessionID:        strings.TrimSpace(*sessionID),
		DefaultAgentType: defaultAgent,
		Markdown:         cfg.MarkdownEnabled(),
		Timeout:          cfg.PollTimeout(),
		Logger:           logger,
	})
}
