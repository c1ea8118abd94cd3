package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/five82/arbox/internal/arbox"
	"github.com/five82/arbox/internal/prefs"
	"github.com/five82/arbox/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewSchedule View = iota
	ViewLogs
)

// Bookings books and cancels classes for the signed-in member.
type Bookings interface {
	Book(ctx context.Context, req arbox.BookingRequest) (json.RawMessage, error)
	Cancel(ctx context.Context, req arbox.CancelRequest) (json.RawMessage, error)
}

// Schedule selects and refreshes the day whose classes fill the store.
type Schedule interface {
	Day() time.Time
	SetDay(day time.Time)
	Refresh(ctx context.Context) error
}

// Options configures the UI.
type Options struct {
	Context          context.Context
	Bookings         Bookings
	Schedule         Schedule
	Store            *state.Store
	Logger           *zap.Logger
	MembershipUserID int
	LogPath          string
	PollTick         time.Duration
	ThemeName        string
	PrefsPath        string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx        context.Context
	bookings   Bookings
	schedule   Schedule
	store      *state.Store
	log        *zap.Logger
	membership int
	logPath    string
	prefsPath  string
	pollTick   time.Duration
	keys       keyMap
	now        func() time.Time

	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	snapshot    state.Snapshot
	lastUpdated time.Time
	day         time.Time
	selectedRow int

	prompt  prompt
	pending bool
	status  statusLine

	logViewport viewport.Model
	logLines    []string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		ctx:         ctx,
		bookings:    opts.Bookings,
		schedule:    opts.Schedule,
		store:       opts.Store,
		log:         log,
		membership:  opts.MembershipUserID,
		logPath:     opts.LogPath,
		prefsPath:   prefsPath,
		pollTick:    pollTick,
		keys:        DefaultKeyMap(),
		now:         time.Now,
		theme:       GetTheme(opts.ThemeName),
		currentView: ViewSchedule,
	}
	if m.schedule != nil {
		m.day = m.schedule.Day()
	} else {
		m.day = today(m.now())
	}
	m.prompt.input = newMembershipInput()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLogViewport()
		m.ready = true
		m.clampSelection()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = m.snapshot.LastUpdated
		m.clampSelection()
		return m, nil

	case refreshedMsg:
		if msg.err != nil {
			m.status = errorStatus("refresh", msg.err)
		}
		if m.store != nil {
			return m, fetchSnapshotCmd(m.store)
		}
		return m, nil

	case actionMsg:
		return m.handleActionResult(msg)

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil
	}

	if m.prompt.kind == promptMembership {
		var cmd tea.Cmd
		m.prompt.input, cmd = m.prompt.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	switch m.currentView {
	case ViewLogs:
		b.WriteString(m.renderLogs())
	default:
		b.WriteString(m.renderSchedule())
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	return b.String()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.prompt.kind != promptNone {
		return m.handlePromptKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name}); err != nil {
			m.log.Warn("save prefs failed", zap.Error(err))
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleLogs):
		if m.currentView == ViewLogs {
			m.currentView = ViewSchedule
			return m, nil
		}
		m.currentView = ViewLogs
		return m, readLogCmd(m.logPath)

	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewSchedule
		m.status = statusLine{}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.currentView == ViewLogs {
			return m, readLogCmd(m.logPath)
		}
		m.status = infoStatus("Refreshing...")
		return m, m.refreshCmd()
	}

	if m.currentView == ViewLogs {
		return m.handleLogsKey(msg)
	}
	return m.handleScheduleKey(msg)
}

func (m Model) handleScheduleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.PrevDay):
		return m.changeDay(m.day.AddDate(0, 0, -1))
	case key.Matches(msg, m.keys.NextDay):
		return m.changeDay(m.day.AddDate(0, 0, 1))
	case key.Matches(msg, m.keys.Today):
		return m.changeDay(today(m.now()))
	case key.Matches(msg, m.keys.Book):
		return m.startBooking()
	case key.Matches(msg, m.keys.Cancel):
		return m.startCancel()
	}

	count := len(m.visibleSlots())
	if count == 0 {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < count-1 {
			m.selectedRow++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = count - 1
	}
	return m, nil
}

// changeDay selects day and fetches it right away.
func (m Model) changeDay(day time.Time) (tea.Model, tea.Cmd) {
	m.day = today(day)
	m.selectedRow = 0
	m.status = statusLine{}
	if m.schedule != nil {
		m.schedule.SetDay(m.day)
	}
	return m, m.refreshCmd()
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs {
		cmds = append(cmds, readLogCmd(m.logPath))
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// today returns the calendar date of t as midnight UTC.
func today(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type refreshedMsg struct{ err error }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func (m Model) refreshCmd() tea.Cmd {
	if m.schedule == nil {
		return nil
	}
	ctx, schedule := m.ctx, m.schedule
	return func() tea.Msg {
		return refreshedMsg{err: schedule.Refresh(ctx)}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(opts.Context))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && opts.Context.Err() != nil {
		return nil
	}
	return err
}
