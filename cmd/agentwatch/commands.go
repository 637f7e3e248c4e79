package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"agentwatch/internal/config"
)

type commandRunner interface {
	Run(args []string) error
}

type commandWiring struct {
	stdout             io.Writer
	stderr             io.Writer
	loadConfig         func() (config.Config, error)
	newClient          clientFactory
	configureUILogging uiLoggingFactory
	signalContext      func() (context.Context, context.CancelFunc)
	version            string
}

func defaultCommandWiring(stdout, stderr io.Writer) commandWiring {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return commandWiring{
		stdout:             stdout,
		stderr:             stderr,
		loadConfig:         config.Load,
		newClient:          newAgentwatchClient,
		configureUILogging: configureUILogging,
		signalContext:      interruptContext,
		version:            buildVersion(),
	}
}

func buildCommands(wiring commandWiring) map[string]commandRunner {
	return map[string]commandRunner{
		"create":    NewCreateCommand(wiring),
		"send":      NewSendCommand(wiring),
		"status":    NewStatusCommand(wiring),
		"health":    NewHealthCommand(wiring),
		"ui":        NewUICommand(wiring),
		"config":    NewConfigCommand(wiring.stdout, wiring.stderr, wiring.loadConfig),
		"devserver": NewDevserverCommand(wiring),
	}
}

func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
