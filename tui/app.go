package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linanwx/tutorbot/chat"
	"github.com/linanwx/tutorbot/logger"
	"github.com/linanwx/tutorbot/render"
)

const (
	logRatio     = 0.3
	helpLine     = "enter send · tab/shift+tab subject · /copy N · ctrl+y copy last · ctrl+l logs · ctrl+c quit"
	statusExpiry = 3 * time.Second
)

var (
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// Options configures an App.
type Options struct {
	// API sends chat requests.
	API chat.API
	// Subjects fetches the subject tabs; it must not fail.
	Subjects func(ctx context.Context) []string
	// Clipboard receives copied code. Defaults to the system clipboard.
	Clipboard chat.Clipboard
}

// App is the root bubbletea model that orchestrates panels and layout.
type App struct {
	ctx      context.Context
	api      chat.API
	subjects func(context.Context) []string

	ctrl     *chat.Controller
	feedback *chat.Feedback
	dispatch *chat.Dispatcher
	resets   []copyResetMsg

	tabs  *TabPanel
	chat  *ChatPanel
	input *InputPanel
	logs  *LogPanel

	showLogs      bool
	status        string
	width, height int
}

// NewApp creates the root TUI model.
func NewApp(ctx context.Context, opts Options) *App {
	cb := opts.Clipboard
	if cb == nil {
		cb = chat.SystemClipboard{}
	}
	a := &App{
		ctx:      ctx,
		api:      opts.API,
		subjects: opts.Subjects,
		ctrl:     chat.NewController(opts.API, nil, nil),
		feedback: chat.NewFeedback(),
		dispatch: chat.NewDispatcher(),
		tabs:     NewTabPanel(),
		chat:     NewChatPanel(),
		input:    NewInputPanel("you> "),
		logs:     NewLogPanel(),
	}
	a.dispatch.Handle(render.ActionCopy, chat.CopyHandler(cb, a.feedback, func(id string, token int) {
		a.resets = append(a.resets, copyResetMsg{id: id, token: token})
	}))
	a.syncViews()
	return a
}

// Controller exposes the underlying send controller.
func (a *App) Controller() *chat.Controller { return a.ctrl }

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if a.subjects != nil {
		ctx, fetch := a.ctx, a.subjects
		cmds = append(cmds, func() tea.Msg { return SubjectsMsg{Subjects: fetch(ctx)} })
	}
	return tea.Batch(cmds...)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.recalcLayout()
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return a, tea.Quit
		case "tab":
			a.selectSubject(neighbor(a.ctrl.State().Subjects, a.ctrl.Subject(), 1))
			return a, nil
		case "shift+tab":
			a.selectSubject(neighbor(a.ctrl.State().Subjects, a.ctrl.Subject(), -1))
			return a, nil
		case "ctrl+l":
			a.showLogs = !a.showLogs
			a.recalcLayout()
			return a, nil
		case "ctrl+y":
			return a, a.copyNth(len(a.ctrl.Actions()))
		case "pgup", "pgdown":
			p, cmd := a.chat.Update(msg)
			a.chat = p.(*ChatPanel)
			return a, cmd
		}
		p, cmd := a.input.Update(msg)
		a.input = p.(*InputPanel)
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		p, cmd := a.chat.Update(msg)
		a.chat = p.(*ChatPanel)
		cmds = append(cmds, cmd)

	case InputSubmitMsg:
		cmds = append(cmds, a.submit(msg.Text))

	case SubjectsMsg:
		a.ctrl.SetSubjects(msg.Subjects)
		a.syncViews()

	case replyMsg:
		a.ctrl.Finish(msg.resp, msg.err)
		cmds = append(cmds, a.input.SetEnabled(true))
		a.syncViews()

	case copyResetMsg:
		a.feedback.Reset(msg.id, msg.token)
		a.syncViews()

	case statusMsg:
		if a.status == msg.text {
			a.status = ""
		}

	case LogLineMsg:
		p, cmd := a.logs.Update(msg)
		a.logs = p.(*LogPanel)
		cmds = append(cmds, cmd)

	default:
		p, cmd := a.chat.Update(msg)
		a.chat = p.(*ChatPanel)
		cmds = append(cmds, cmd)
		ip, icmd := a.input.Update(msg)
		a.input = ip.(*InputPanel)
		cmds = append(cmds, icmd)
	}

	return a, tea.Batch(cmds...)
}

// submit handles a line from the composer: a slash command or a question.
func (a *App) submit(text string) tea.Cmd {
	if cmd, ok := a.command(strings.TrimSpace(text)); ok {
		return cmd
	}

	req, ok := a.ctrl.Begin(text)
	if !ok {
		return nil
	}
	a.input.SetEnabled(false)
	a.syncViews()

	ctx, api := a.ctx, a.api
	return tea.Batch(
		a.chat.Tick(),
		func() tea.Msg {
			resp, err := api.Chat(ctx, req)
			return replyMsg{resp: resp, err: err}
		},
	)
}

func (a *App) command(line string) (tea.Cmd, bool) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/copy":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return a.setStatus("usage: /copy N"), true
		}
		return a.copyNth(n), true
	case "/subject":
		if !a.selectSubject(arg) {
			return a.setStatus(fmt.Sprintf("unknown subject %q", arg)), true
		}
		return nil, true
	case "/clear":
		a.ctrl.Clear()
		a.syncViews()
		return nil, true
	case "/quit", "/exit":
		return tea.Quit, true
	}
	return nil, false
}

// copyNth copies the code of the nth (1-based) code block in the transcript.
func (a *App) copyNth(n int) tea.Cmd {
	actions := a.ctrl.Actions()
	if n < 1 || n > len(actions) {
		return a.setStatus(fmt.Sprintf("no code block #%d", n))
	}
	if err := a.dispatch.Dispatch(actions[n-1]); err != nil {
		logger.Warn("action failed", "action", actions[n-1].ID, "err", err)
		return nil
	}
	a.syncViews()

	cmds := make([]tea.Cmd, 0, len(a.resets))
	for _, r := range a.resets {
		cmds = append(cmds, tea.Tick(render.CopyFeedback, func(time.Time) tea.Msg { return r }))
	}
	a.resets = a.resets[:0]
	return tea.Batch(cmds...)
}

func (a *App) selectSubject(name string) bool {
	for _, s := range a.ctrl.State().Subjects {
		if strings.EqualFold(s, name) {
			a.ctrl.SelectSubject(s)
			a.syncViews()
			return true
		}
	}
	return false
}

func (a *App) setStatus(text string) tea.Cmd {
	a.status = text
	return tea.Tick(statusExpiry, func(time.Time) tea.Msg { return statusMsg{text: text} })
}

// syncViews pushes controller state into the panels.
func (a *App) syncViews() {
	st := a.ctrl.State()
	a.tabs.SetTabs(st.Subjects, st.Subject)
	a.chat.SetTranscript(st.Messages, st.Pending, a.feedback.Label)
}

func (a *App) View() string {
	if a.width == 0 || a.height == 0 {
		return "initializing..."
	}

	sep := separatorStyle.Render(strings.Repeat("─", a.width))
	footer := helpStyle.Render(helpLine)
	if a.status != "" {
		footer = statusStyle.Render(a.status)
	}

	rows := []string{a.tabs.View(), sep}
	if a.showLogs {
		rows = append(rows, a.logs.View(), sep)
	}
	rows = append(rows, a.chat.View(), sep, a.input.View(), footer)
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (a *App) recalcLayout() {
	const fixed = 5 // tabs, two separators, input, footer

	usable := max(a.height-fixed, 2)
	chatH := usable
	if a.showLogs {
		logH := max(int(float64(usable)*logRatio), 1)
		chatH = max(usable-logH-1, 1)
		a.logs.SetSize(a.width, logH)
	}

	a.tabs.SetSize(a.width, 1)
	a.chat.SetSize(a.width, chatH)
	a.input.SetSize(a.width, 1)
}

// logWriter forwards logger output to the program.
type logWriter struct {
	program *tea.Program
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.program.Send(LogLineMsg{Line: string(p)})
	return len(p), nil
}

// Run starts the full-screen client and blocks until it exits. Log output is
// shown in the log panel while it runs.
func Run(ctx context.Context, app *App) error {
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	logger.Intercept(&logWriter{program: program})
	defer logger.Restore()

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
