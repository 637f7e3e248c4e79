package main

import (
	"flag"

	"agentwatch/internal/devserver"
	"agentwatch/internal/logging"
)

type DevserverCommand struct {
	wiring commandWiring
}

func NewDevserverCommand(wiring commandWiring) *DevserverCommand {
	return &DevserverCommand{wiring: wiring}
}

func (c *DevserverCommand) Run(args []string) error {
	fs := flag.NewFlagSet("devserver", flag.ContinueOnError)
	fs.SetOutput(c.wiring.stderr)
	addr := fs.String("addr", devserver.DefaultAddr, "listen address")
	token := fs.String("token", "", "bearer token required on /v1 routes")
	steps := fs.Int("steps", devserver.DefaultStepsToComplete, "workflow reads before a task completes")
	failMarker := fs.String("fail-marker", devserver.DefaultFailMarker, "content marker that makes a task fail")
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := c.wiring.signalContext()
	defer cancel()
	server := devserver.New(devserver.Options{
		Addr:    *addr,
		Token:   *token,
		Version: c.wiring.version,
		Store: devserver.StoreOptions{
			StepsToComplete: *steps,
			FailMarker:      *failMarker,
		},
		Logger: logging.New(c.wiring.stderr, logging.ParseLevel(*logLevel)),
	})
	return server.Run(ctx)
}
