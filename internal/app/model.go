package app

import (
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"agentwatch/internal/logging"
	"agentwatch/internal/timing"
	"agentwatch/internal/types"
	"agentwatch/internal/workflowsync"
)

const (
	resizeDebounce    = 150 * time.Millisecond
	refreshWindow     = time.Second
	minContentWidth   = 20
	minContentHeight  = 3
	chromeHeight      = 4
	layoutDebounceID  = "layout"
	inputPlaceholder  = "Type a task, or /help"
	inputCharLimit    = 8000
	statusLinePadding = 1
)

type statusLevel int

const (
	statusInfo statusLevel = iota
	statusWarn
	statusError
)

type layoutSize struct {
	width  int
	height int
}

type Options struct {
	// SessionID is selected on start when set.
	SessionID string
	// DefaultAgentType is used by /new when no agent is given.
	DefaultAgentType string
	Markdown         bool
	// Timeout is only used to describe a timed-out episode.
	Timeout time.Duration
	Logger  logging.Logger
}

// Model is the interactive terminal client. It owns the controller and
// re-renders from its View after every message.
type Model struct {
	ctrl     *workflowsync.Controller
	opts     Options
	log      logging.Logger
	input    textinput.Model
	viewport viewport.Model
	loader   spinner.Model
	md       *markdownRenderer
	layout   *timing.Debouncer[layoutSize]
	refresh  *timing.Throttle[tea.Cmd]
	copy     func(string) error

	width       int
	height      int
	status      string
	statusLevel statusLevel
	quitting    bool
}

func NewModel(ctrl *workflowsync.Controller, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	input := textinput.New()
	input.Placeholder = inputPlaceholder
	input.CharLimit = inputCharLimit
	input.SetWidth(minContentWidth)

	vp := viewport.New(viewport.WithWidth(minContentWidth), viewport.WithHeight(minContentHeight))
	vp.SetContent(emptySessionText)

	m := &Model{
		ctrl:     ctrl,
		opts:     opts,
		log:      opts.Logger.With(logging.F("component", "ui")),
		input:    input,
		viewport: vp,
		loader:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(activityStyle)),
		md:       newMarkdownRenderer(opts.Markdown),
		layout:   timing.NewDebouncer(layoutDebounceID, layoutSize{}, resizeDebounce),
		copy:     copyText,
	}
	m.refresh = timing.NewThrottle(refreshWindow, ctrl.Refresh)
	return m
}

// Run starts the full-screen program and blocks until the user quits.
func Run(ctrl *workflowsync.Controller, opts Options) error {
	defer ctrl.Close()
	_, err := tea.NewProgram(NewModel(ctrl, opts)).Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.input.Focus(),
		m.ctrl.Select(m.opts.SessionID),
		tea.RequestBackgroundColor,
		m.loader.Tick,
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if handled, cmd := m.ctrl.Update(msg); handled {
		m.observe(msg)
		m.renderContent()
		return m, cmd
	}
	switch msg := msg.(type) {
	case workflowsync.PollingStartedMsg:
		m.setStatus(statusInfo, "task submitted, watching "+msg.SessionID)
		m.renderContent()
		return m, nil
	case workflowsync.PollingStoppedMsg:
		m.onPollingStopped(msg)
		m.renderContent()
		return m, nil
	case tea.WindowSizeMsg:
		return m, m.resize(msg.Width, msg.Height)
	case timing.DebounceMsg:
		if m.layout.Update(msg) {
			m.renderContent()
		}
		return m, nil
	case tea.BackgroundColorMsg:
		if m.md.SetDark(msg.IsDark()) {
			m.renderContent()
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.loader, cmd = m.loader.Update(msg)
		return m, cmd
	case tea.KeyPressMsg:
		return m, m.handleKey(msg)
	case tea.MouseWheelMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) View() tea.View {
	var view tea.View
	if m.quitting {
		return view
	}
	current := m.ctrl.View()
	header := renderHeader(current, m.width, m.loader.View())
	body := lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.renderStatusLine(),
		m.input.View(),
	)
	view = tea.NewView(body)
	view.AltScreen = true
	view.MouseMode = tea.MouseModeCellMotion
	return view
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "ctrl+q":
		return m.quit()
	case "enter":
		return m.submit(strings.TrimSpace(m.input.Value()))
	case "ctrl+r":
		return m.manualRefresh()
	case "ctrl+y":
		m.copySessionID()
		return nil
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	case "esc":
		m.input.Reset()
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// submit dispatches one composer line, already trimmed.
func (m *Model) submit(text string) tea.Cmd {
	if text == "" {
		return nil
	}
	command, err := parseInput(text, m.opts.DefaultAgentType)
	if err != nil {
		m.setStatus(statusWarn, err.Error())
		return nil
	}
	m.input.Reset()
	switch command.kind {
	case inputNewSession:
		m.setStatus(statusInfo, "creating "+command.agentType+" session")
		return m.ctrl.CreateSession(command.agentType, command.title)
	case inputOpenSession:
		m.setStatus(statusInfo, "opening "+command.sessionID)
		cmd := m.ctrl.Select(command.sessionID)
		m.renderContent()
		return cmd
	case inputRefresh:
		return m.manualRefresh()
	case inputHelp:
		m.setStatus(statusInfo, helpText)
		return nil
	case inputQuit:
		return m.quit()
	}
	sessionID := m.ctrl.SessionID()
	if sessionID == "" {
		m.setStatus(statusWarn, "no session selected; use /new or /open first")
		return nil
	}
	m.setStatus(statusInfo, "sending")
	cmd := m.ctrl.SendMessage(sessionID, command.content)
	m.renderContent()
	return cmd
}

func (m *Model) manualRefresh() tea.Cmd {
	if m.ctrl.SessionID() == "" {
		return nil
	}
	cmd, ran := m.refresh.Call()
	if !ran {
		m.setStatus(statusWarn, "refresh throttled")
		return nil
	}
	m.setStatus(statusInfo, "refreshing")
	return cmd
}

func (m *Model) copySessionID() {
	id := m.ctrl.SessionID()
	if id == "" {
		m.setStatus(statusWarn, "no session to copy")
		return
	}
	if err := m.copy(id); err != nil {
		m.setStatus(statusError, "copy failed: "+err.Error())
		return
	}
	m.setStatus(statusInfo, "copied "+id)
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.ctrl.Close()
	return tea.Quit
}

func (m *Model) observe(msg tea.Msg) {
	switch msg := msg.(type) {
	case workflowsync.SessionCreatedMsg:
		if msg.Session == nil {
			m.setStatus(statusError, "create session failed: "+errText(msg.Err()))
			return
		}
		m.setStatus(statusInfo, "created session "+msg.Session.ID)
	case workflowsync.MessageSentMsg:
		if !msg.OK {
			m.setStatus(statusError, "send failed: "+errText(msg.Err()))
		}
	}
}

func (m *Model) onPollingStopped(msg workflowsync.PollingStoppedMsg) {
	level := statusInfo
	switch {
	case msg.Reason == workflowsync.StopReasonTimeout:
		level = statusWarn
	case msg.Workflow != nil && msg.Workflow.Status == types.WorkflowStatusError:
		level = statusError
	}
	if summary := stopSummary(msg, m.opts.Timeout.String()); summary != "" {
		m.setStatus(level, summary)
	}
}

// resize applies new dimensions to the widgets at once and debounces the
// transcript re-render, which is the expensive part.
func (m *Model) resize(width, height int) tea.Cmd {
	m.width, m.height = width, height
	contentWidth := max(width, minContentWidth)
	m.input.SetWidth(max(contentWidth-4, minContentWidth))
	m.viewport.SetWidth(contentWidth)
	m.viewport.SetHeight(max(height-chromeHeight, minContentHeight))
	size := layoutSize{width: contentWidth, height: height}
	if m.layout.Value().width == 0 {
		m.layout = timing.NewDebouncer(layoutDebounceID, size, resizeDebounce)
		m.renderContent()
		return nil
	}
	return m.layout.Set(size)
}

func (m *Model) renderContent() {
	width := m.layout.Value().width
	if width == 0 {
		width = max(m.width, minContentWidth)
	}
	follow := m.viewport.AtBottom()
	m.viewport.SetContent(renderSession(m.ctrl.View(), width, m.md))
	if follow || m.ctrl.State() == workflowsync.StateActive {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderStatusLine() string {
	text := m.status
	if text == "" {
		text = helpText
		return helpStyle.Render(truncateToWidth(text, m.width-statusLinePadding))
	}
	style := toastInfoStyle
	switch m.statusLevel {
	case statusWarn:
		style = toastWarningStyle
	case statusError:
		style = toastErrorStyle
	}
	return style.Render(" " + truncateToWidth(text, m.width-statusLinePadding-2) + " ")
}

func (m *Model) setStatus(level statusLevel, text string) {
	m.status = text
	m.statusLevel = level
	switch level {
	case statusError:
		m.log.Warn("ui status", logging.F("text", text))
	default:
		m.log.Debug("ui status", logging.F("text", text))
	}
}

func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
