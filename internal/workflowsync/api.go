package workflowsync

import (
	"context"

	"agentwatch/internal/client"
	"agentwatch/internal/types"
)

// API is the backend surface the controller polls and submits to.
// *client.Client satisfies it.
type API interface {
	GetSession(ctx context.Context, id string) (*types.Session, error)
	GetWorkflow(ctx context.Context, sessionID string) (*types.Workflow, error)
	CreateSession(ctx context.Context, req client.CreateSessionRequest) (*types.Session, error)
	SendMessage(ctx context.Context, sessionID string, req client.SendMessageRequest) (*client.SendMessageResponse, error)
}
