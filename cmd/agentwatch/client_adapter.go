package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"agentwatch/internal/app"
	"agentwatch/internal/client"
	"agentwatch/internal/config"
	"agentwatch/internal/logging"
	"agentwatch/internal/resource"
	"agentwatch/internal/types"
	"agentwatch/internal/workflowsync"
)

type clientFactory func(cfg config.Config, logger logging.Logger) (commandClient, error)

type uiLoggingFactory func(cfg config.Config) (logging.Logger, io.Closer)

type commandClient interface {
	Health(ctx context.Context) (*client.HealthResponse, error)
	CreateSession(ctx context.Context, req client.CreateSessionRequest) (*types.Session, error)
	GetSession(ctx context.Context, id string) (*types.Session, error)
	GetWorkflow(ctx context.Context, sessionID string) (*types.Workflow, error)
	Watch(ctx context.Context, opts app.WatchOptions) (app.WatchResult, error)
	RunUI(opts app.Options) error
}

type agentwatchClient struct {
	cfg    config.Config
	client *client.Client
	log    logging.Logger
}

func newAgentwatchClient(cfg config.Config, logger logging.Logger) (commandClient, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	return &agentwatchClient{cfg: cfg, client: client.New(cfg), log: logger}, nil
}

func (c *agentwatchClient) Health(ctx context.Context) (*client.HealthResponse, error) {
	return c.client.Health(ctx)
}

func (c *agentwatchClient) CreateSession(ctx context.Context, req client.CreateSessionRequest) (*types.Session, error) {
	return c.client.CreateSession(ctx, req)
}

func (c *agentwatchClient) GetSession(ctx context.Context, id string) (*types.Session, error) {
	return c.client.GetSession(ctx, id)
}

func (c *agentwatchClient) GetWorkflow(ctx context.Context, sessionID string) (*types.Workflow, error) {
	return c.client.GetWorkflow(ctx, sessionID)
}

func (c *agentwatchClient) Watch(ctx context.Context, opts app.WatchOptions) (app.WatchResult, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = c.cfg.PollTimeout()
	}
	return app.Watch(ctx, c.controller(), opts)
}

func (c *agentwatchClient) RunUI(opts app.Options) error {
	if opts.Timeout <= 0 {
		opts.Timeout = c.cfg.PollTimeout()
	}
	if opts.Logger == nil {
		opts.Logger = c.log
	}
	return app.Run(c.controller(), opts)
}

func (c *agentwatchClient) controller() *workflowsync.Controller {
	opts := workflowsync.OptionsFromConfig(c.cfg)
	opts.Logger = c.log
	cache := resource.New(c.cfg.CacheTTL(), c.cfg.CacheCleanupInterval())
	return workflowsync.New(c.client, cache, opts)
}

// configureUILogging sends logs to the rotated UI log file so they never
// draw over the terminal. Logging is disabled when the file cannot be used.
func configureUILogging(cfg config.Config) (logging.Logger, io.Closer) {
	path, err := config.UILogPath()
	if err != nil {
		return logging.Nop(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return logging.Nop(), nil
	}
	return logging.NewFile(path, logging.ParseLevel(cfg.LogLevel()))
}
