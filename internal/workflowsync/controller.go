// Package workflowsync keeps a client view of one agent session in step with
// its backend workflow by polling.
//
// The Controller is an explicit two-state machine. It is Idle until a task
// submission succeeds, then Active: the session and the workflow are fetched
// on two independent cadences until the workflow reaches a terminal status
// or the timeout guard fires, whichever happens first. Every fetch carries a
// request generation so a late response can never overwrite a newer one.
//
// All methods must be called from one event loop (a bubbletea program);
// fetches and timers run as tea.Cmds and report back through Update.
package workflowsync

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"agentwatch/internal/client"
	"agentwatch/internal/config"
	"agentwatch/internal/logging"
	"agentwatch/internal/resource"
	"agentwatch/internal/types"
)

const (
	DefaultSessionInterval  = 2 * time.Second
	DefaultWorkflowInterval = time.Second
	DefaultTimeout          = 120 * time.Second
)

type State int

const (
	StateIdle State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "idle"
}

type Options struct {
	SessionInterval  time.Duration
	WorkflowInterval time.Duration
	Timeout          time.Duration
	// RoleFor maps a session's agent type to the execution role tasks are
	// submitted with.
	RoleFor func(agentType string) string
	Clock   Clock
	Logger  logging.Logger
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		SessionInterval:  cfg.SessionInterval(),
		WorkflowInterval: cfg.WorkflowInterval(),
		Timeout:          cfg.PollTimeout(),
		RoleFor:          cfg.RoleFor,
	}
}

type Controller struct {
	api   API
	cache *resource.Cache
	clock Clock
	log   logging.Logger
	opts  Options

	root   context.Context
	close  context.CancelFunc
	scopes requestScopes
	guard  *TimeoutGuard

	sessionID string
	state     State
	episode   uint64
	lastStop  StopReason
	// finalizing is the generation of the in-flight final refresh.
	finalizing resource.Generation

	loading  bool
	creating int
	sending  int
}

func New(api API, cache *resource.Cache, opts Options) *Controller {
	if opts.SessionInterval <= 0 {
		opts.SessionInterval = DefaultSessionInterval
	}
	if opts.WorkflowInterval <= 0 {
		opts.WorkflowInterval = DefaultWorkflowInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.RoleFor == nil {
		opts.RoleFor = config.Default().RoleFor
	}
	if cache == nil {
		cache = resource.New(0, time.Minute)
	}
	root, cancel := context.WithCancel(context.Background())
	return &Controller{
		api:    api,
		cache:  cache,
		clock:  opts.Clock,
		log:    opts.Logger.With(logging.F("component", "workflowsync")),
		opts:   opts,
		root:   root,
		close:  cancel,
		scopes: newRequestScopes(root),
		guard:  NewTimeoutGuard(opts.Clock, opts.Timeout),
	}
}

func (c *Controller) SessionID() string { return c.sessionID }
func (c *Controller) State() State      { return c.state }
func (c *Controller) Episode() uint64   { return c.episode }

// Select makes id the current session. Any episode for the previous session
// ends without a final refresh and its outstanding requests are cancelled.
// Selecting never starts polling.
func (c *Controller) Select(id string) tea.Cmd {
	id = strings.TrimSpace(id)
	if id == c.sessionID {
		return nil
	}
	var cmds []tea.Cmd
	if c.state == StateActive {
		cmds = append(cmds, c.endEpisode(StopReasonSwitched))
	}
	c.scopes.cancel(scopeSelection)
	c.sessionID = id
	if id == "" {
		c.cache.Retain()
	} else {
		c.cache.Retain(resource.SessionKey(id), resource.WorkflowKey(id))
	}
	c.lastStop = StopReasonNone
	c.finalizing = 0
	c.loading = id != ""
	if id == "" {
		return tea.Batch(cmds...)
	}
	c.log.Debug("session selected", logging.F("session_id", id))
	ctx := c.scopes.replace(scopeSelection)
	cmds = append(cmds, c.fetchSessionCmd(ctx, 0), c.fetchWorkflowCmd(ctx, 0))
	return tea.Batch(cmds...)
}

// Refresh fetches both resources once for the current session. It never
// changes the polling state.
func (c *Controller) Refresh() tea.Cmd {
	if c.sessionID == "" {
		return nil
	}
	ctx := c.scopes.contextFor(scopeSelection)
	return tea.Batch(c.fetchSessionCmd(ctx, 0), c.fetchWorkflowCmd(ctx, 0))
}

// CreateSession submits a new session. The result arrives as a
// SessionCreatedMsg; on success the new session becomes current.
func (c *Controller) CreateSession(agentType, title string) tea.Cmd {
	agentType = strings.TrimSpace(agentType)
	title = strings.TrimSpace(title)
	c.creating++
	api, ctx := c.api, c.root
	return func() tea.Msg {
		if api == nil {
			return SessionCreatedMsg{AgentType: agentType, Title: title, err: errors.New("no backend configured")}
		}
		session, err := api.CreateSession(ctx, client.CreateSessionRequest{AgentType: agentType, Title: title})
		if err == nil && session == nil {
			err = errors.New("backend returned no session")
		}
		if err != nil {
			session = nil
		}
		return SessionCreatedMsg{AgentType: agentType, Title: title, Session: session, err: err}
	}
}

// SendMessage submits content as a task for sessionID, tagged with the role
// of the session's agent type. The result arrives as a MessageSentMsg; a
// successful send for the current session starts a polling episode.
func (c *Controller) SendMessage(sessionID, content string) tea.Cmd {
	sessionID = strings.TrimSpace(sessionID)
	content = strings.TrimSpace(content)
	c.sending++
	if sessionID == "" || content == "" {
		err := errors.New("session id and content are required")
		return func() tea.Msg { return newMessageSentMsg(sessionID, content, nil, err) }
	}
	req := client.SendMessageRequest{Content: content, Role: c.roleFor(sessionID)}
	api, ctx := c.api, c.root
	return func() tea.Msg {
		if api == nil {
			return newMessageSentMsg(sessionID, content, nil, errors.New("no backend configured"))
		}
		resp, err := api.SendMessage(ctx, sessionID, req)
		if err == nil && (resp == nil || !resp.OK) {
			err = errors.New("backend rejected the task")
		}
		return newMessageSentMsg(sessionID, content, resp, err)
	}
}

// Close cancels every pending timer and request. The controller stays
// readable but issues nothing further.
func (c *Controller) Close() {
	c.guard.Disarm()
	c.scopes.cancelAll()
	c.state = StateIdle
	c.finalizing = 0
	c.close()
}

// Update applies msg. It reports whether msg belonged to the controller.
func (c *Controller) Update(msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case cadenceTickMsg:
		return true, c.onTick(msg)
	case timeoutMsg:
		return true, c.onTimeout(msg)
	case sessionFetchedMsg:
		return true, c.onSessionFetched(msg)
	case workflowFetchedMsg:
		return true, c.onWorkflowFetched(msg)
	case SessionCreatedMsg:
		return true, c.onSessionCreated(msg)
	case MessageSentMsg:
		return true, c.onMessageSent(msg)
	}
	return false, nil
}

func (c *Controller) onTick(msg cadenceTickMsg) tea.Cmd {
	if c.state != StateActive || msg.episode != c.episode {
		return nil
	}
	ctx := c.scopes.contextFor(scopeEpisode)
	var fetch tea.Cmd
	if msg.stream == streamWorkflow {
		fetch = c.fetchWorkflowCmd(ctx, c.episode)
	} else {
		fetch = c.fetchSessionCmd(ctx, c.episode)
	}
	return tea.Batch(fetch, c.scheduleTick(ctx, msg.stream))
}

func (c *Controller) onTimeout(msg timeoutMsg) tea.Cmd {
	if c.state != StateActive || !c.guard.Fire(msg) {
		return nil
	}
	c.log.Warn("polling timed out",
		logging.F("session_id", c.sessionID),
		logging.F("episode", c.episode),
		logging.F("timeout", c.guard.Delay()),
	)
	return c.stopPolling(StopReasonTimeout)
}

func (c *Controller) onSessionFetched(msg sessionFetchedMsg) tea.Cmd {
	if msg.sessionID != c.sessionID {
		return nil
	}
	if c.finalizing != 0 && msg.gen >= c.finalizing {
		c.finalizing = 0
	}
	if msg.err != nil {
		if isCanceledRequestError(msg.err) {
			return nil
		}
		c.loading = false
		c.log.Warn("session fetch failed",
			logging.F("session_id", msg.sessionID),
			logging.F("generation", uint64(msg.gen)),
			logging.F("error", msg.err.Error()),
		)
		return nil
	}
	c.loading = false
	if !c.cache.Apply(resource.SessionKey(msg.sessionID), msg.gen, msg.session) {
		c.log.Debug("stale session response dropped",
			logging.F("session_id", msg.sessionID),
			logging.F("generation", uint64(msg.gen)),
		)
	}
	return nil
}

func (c *Controller) onWorkflowFetched(msg workflowFetchedMsg) tea.Cmd {
	if msg.sessionID != c.sessionID {
		return nil
	}
	if msg.err != nil {
		if isCanceledRequestError(msg.err) {
			return nil
		}
		c.log.Warn("workflow fetch failed",
			logging.F("session_id", msg.sessionID),
			logging.F("generation", uint64(msg.gen)),
			logging.F("error", msg.err.Error()),
		)
		return nil
	}
	if !c.cache.Apply(resource.WorkflowKey(msg.sessionID), msg.gen, msg.workflow) {
		c.log.Debug("stale workflow response dropped",
			logging.F("session_id", msg.sessionID),
			logging.F("generation", uint64(msg.gen)),
		)
		return nil
	}
	if c.state != StateActive || msg.episode != c.episode {
		return nil
	}
	if Classify(msg.workflow) != Terminal {
		return nil
	}
	c.log.Info("workflow reached terminal status",
		logging.F("session_id", msg.sessionID),
		logging.F("status", string(msg.workflow.Status)),
		logging.F("episode", c.episode),
	)
	return c.stopPolling(StopReasonTerminal)
}

func (c *Controller) onSessionCreated(msg SessionCreatedMsg) tea.Cmd {
	if c.creating > 0 {
		c.creating--
	}
	if msg.err != nil || msg.Session == nil {
		fields := []logging.Field{logging.F("agent_type", msg.AgentType)}
		if msg.err != nil {
			fields = append(fields, logging.F("error", msg.err.Error()))
		}
		c.log.Warn("create session failed", fields...)
		return nil
	}
	id := strings.TrimSpace(msg.Session.ID)
	if id == "" {
		c.log.Warn("created session has no id", logging.F("agent_type", msg.AgentType))
		return nil
	}
	c.log.Info("session created", logging.F("session_id", id), logging.F("agent_type", msg.AgentType))
	key := resource.SessionKey(id)
	c.cache.Apply(key, c.cache.Begin(key), msg.Session.Clone())
	return c.Select(id)
}

func (c *Controller) onMessageSent(msg MessageSentMsg) tea.Cmd {
	if c.sending > 0 {
		c.sending--
	}
	if !msg.OK || msg.err != nil {
		fields := []logging.Field{logging.F("session_id", msg.SessionID)}
		if msg.err != nil {
			fields = append(fields, logging.F("error", msg.err.Error()))
		}
		c.log.Warn("send message failed", fields...)
		return nil
	}
	if msg.SessionID != c.sessionID {
		c.log.Info("message sent to a session that is no longer selected",
			logging.F("session_id", msg.SessionID),
			logging.F("selected", c.sessionID),
		)
		c.cache.Invalidate(resource.SessionKey(msg.SessionID))
		return nil
	}
	return c.startPolling()
}

// startPolling enters Active. A send while already Active restarts the
// episode so only one guard and one pair of cadences exist.
func (c *Controller) startPolling() tea.Cmd {
	if c.state == StateActive {
		c.endEpisode(StopReasonNone)
	}
	c.episode++
	c.state = StateActive
	c.lastStop = StopReasonNone
	c.finalizing = 0
	ctx := c.scopes.replace(scopeEpisode)
	c.cache.Invalidate(resource.SessionKey(c.sessionID))
	c.cache.Invalidate(resource.WorkflowKey(c.sessionID))
	c.log.Info("polling started",
		logging.F("session_id", c.sessionID),
		logging.F("episode", c.episode),
		logging.F("session_interval", c.opts.SessionInterval),
		logging.F("workflow_interval", c.opts.WorkflowInterval),
	)
	started := PollingStartedMsg{SessionID: c.sessionID, Episode: c.episode}
	return tea.Batch(
		c.fetchSessionCmd(ctx, c.episode),
		c.fetchWorkflowCmd(ctx, c.episode),
		c.scheduleTick(ctx, streamSession),
		c.scheduleTick(ctx, streamWorkflow),
		c.guard.Arm(ctx, c.episode),
		func() tea.Msg { return started },
	)
}

// stopPolling ends the episode and issues the one final session refresh.
func (c *Controller) stopPolling(reason StopReason) tea.Cmd {
	if c.state != StateActive {
		return nil
	}
	stopped := c.endEpisode(reason)
	final, gen := c.fetchSession(c.scopes.contextFor(scopeSelection), 0)
	c.finalizing = gen
	return tea.Batch(final, stopped)
}

// endEpisode returns to Idle, disarms the guard and cancels the episode
// scope: pending cadence timers and in-flight episode requests.
func (c *Controller) endEpisode(reason StopReason) tea.Cmd {
	c.state = StateIdle
	c.guard.Disarm()
	c.scopes.cancel(scopeEpisode)
	if reason == StopReasonNone {
		return nil
	}
	c.lastStop = reason
	c.log.Info("polling stopped",
		logging.F("session_id", c.sessionID),
		logging.F("episode", c.episode),
		logging.F("reason", string(reason)),
	)
	stopped := PollingStoppedMsg{
		SessionID: c.sessionID,
		Episode:   c.episode,
		Reason:    reason,
		Workflow:  c.View().Workflow,
	}
	return func() tea.Msg { return stopped }
}

func (c *Controller) scheduleTick(ctx context.Context, s stream) tea.Cmd {
	interval := c.opts.SessionInterval
	if s == streamWorkflow {
		interval = c.opts.WorkflowInterval
	}
	return c.clock.After(ctx, interval, cadenceTickMsg{stream: s, episode: c.episode})
}

// fetchSessionCmd reserves a generation now, at initiation, so completion
// order cannot promote an older request.
func (c *Controller) fetchSessionCmd(ctx context.Context, episode uint64) tea.Cmd {
	cmd, _ := c.fetchSession(ctx, episode)
	return cmd
}

func (c *Controller) fetchSession(ctx context.Context, episode uint64) (tea.Cmd, resource.Generation) {
	id := c.sessionID
	if id == "" || c.api == nil {
		return nil, 0
	}
	gen := c.cache.Begin(resource.SessionKey(id))
	api := c.api
	return func() tea.Msg {
		session, err := api.GetSession(ctx, id)
		return sessionFetchedMsg{sessionID: id, gen: gen, episode: episode, session: session, err: err}
	}, gen
}

func (c *Controller) fetchWorkflowCmd(ctx context.Context, episode uint64) tea.Cmd {
	id := c.sessionID
	if id == "" || c.api == nil {
		return nil
	}
	gen := c.cache.Begin(resource.WorkflowKey(id))
	api := c.api
	return func() tea.Msg {
		workflow, err := api.GetWorkflow(ctx, id)
		return workflowFetchedMsg{sessionID: id, gen: gen, episode: episode, workflow: workflow, err: err}
	}
}

func (c *Controller) roleFor(sessionID string) string {
	agentType := ""
	if session, ok := resource.Get[*types.Session](c.cache, resource.SessionKey(sessionID)); ok && session != nil {
		agentType = session.AgentType
	}
	return c.opts.RoleFor(agentType)
}
