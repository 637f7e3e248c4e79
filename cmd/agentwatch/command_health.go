package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
)

type HealthCommand struct {
	wiring commandWiring
}

func NewHealthCommand(wiring commandWiring) *HealthCommand {
	return &HealthCommand{wiring: wiring}
}

func (c *HealthCommand) Run(args []string) error {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(c.wiring.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	api, cfg, err := connect(c.wiring)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
	defer cancel()
	health, err := api.Health(ctx)
	if err != nil {
		return err
	}
	if !health.OK {
		return errors.New("backend reported unhealthy")
	}
	fmt.Fprintf(c.wiring.stdout, "ok %s %s\n", cfg.BaseURL(), orDash(health.Version))
	return nil
}
