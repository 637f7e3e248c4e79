package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"agentwatch/internal/types"
	"agentwatch/internal/workflowsync"
)

type StatusCommand struct {
	wiring commandWiring
}

func NewStatusCommand(wiring commandWiring) *StatusCommand {
	return &StatusCommand{wiring: wiring}
}

func (c *StatusCommand) Run(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(c.wiring.stderr)
	sessionID := fs.String("session", "", "session id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id := strings.TrimSpace(*sessionID)
	if id == "" && fs.NArg() > 0 {
		id = strings.TrimSpace(fs.Arg(0))
	}
	if id == "" {
		return errors.New("session is required")
	}

	api, cfg, err := connect(c.wiring)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
	defer cancel()

	session, err := api.GetSession(ctx, id)
	if err != nil {
		return err
	}
	polled, err := api.GetWorkflow(ctx, id)
	if err != nil {
		return err
	}
	printSessionStatus(c.wiring, session, workflowsync.MergeWorkflow(polled, session.Workflow))
	return nil
}

func printSessionStatus(wiring commandWiring, session *types.Session, workflow *types.Workflow) {
	row := []string{session.ID, orDash(session.AgentType), "-", "-", "-", orDash(session.Title)}
	if workflow != nil {
		row[2] = string(workflow.Status)
		row[3] = orDash(workflow.Step)
		if !workflow.UpdatedAt.IsZero() {
			row[4] = workflow.UpdatedAt.Local().Format(time.DateTime)
		}
	}
	printTable(wiring.stdout, []string{"ID", "AGENT", "STATUS", "STEP", "UPDATED", "TITLE"}, [][]string{row})

	if workflow != nil && workflow.Error != "" {
		fmt.Fprintf(wiring.stdout, "\nerror: %s\n", workflow.Error)
	}
	for i := len(session.Messages) - 1; i >= 0; i-- {
		msg := session.Messages[i]
		if msg.Role == types.MessageRoleAssistant {
			fmt.Fprintf(wiring.stdout, "\n%s\n", strings.TrimSpace(msg.Content))
			break
		}
	}
}
