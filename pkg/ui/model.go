// Package ui provides the terminal user interface for kb.
package ui

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/kanban/pkg/board"
	"github.com/vanderheijden86/kanban/pkg/config"
	"github.com/vanderheijden86/kanban/pkg/debug"
	"github.com/vanderheijden86/kanban/pkg/metrics"
	"github.com/vanderheijden86/kanban/pkg/watcher"
)

// refreshTickMsg drives the due-date reformat timer. gen ties a tick to
// the schedule that produced it; ticks from a replaced schedule are dropped.
type refreshTickMsg struct {
	gen int
	at  time.Time
}

// ConfigReloadedMsg carries a config re-read after the file changed on disk.
type ConfigReloadedMsg struct {
	Config   config.Config
	Warnings []string
	Err      error
}

// clipboardWrite is swapped out in tests.
var clipboardWrite = clipboard.WriteAll

// lifecycle is shared by every copy of a Model so Stop reaches the
// timer and watcher no matter which copy bubbletea holds.
type lifecycle struct {
	stopped atomic.Bool
	once    sync.Once
	done    chan struct{}

	mu      sync.Mutex
	watcher *watcher.Watcher
}

func (l *lifecycle) stop() {
	l.once.Do(func() {
		l.stopped.Store(true)
		close(l.done)
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.watcher != nil {
			l.watcher.Stop()
			l.watcher = nil
		}
	})
}

// Model is the main bubbletea model for the board.
type Model struct {
	store *board.Store
	cfg   config.Config
	theme Theme
	board BoardModel
	keys  keyMap
	help  help.Model

	width  int
	height int

	showDetail bool
	detail     detailPanel

	statusMsg     string
	statusIsError bool

	now       func() time.Time
	cfgPath   string
	overrides func(*config.Config)
	tickGen   int
	life      *lifecycle
}

// Option configures a Model.
type Option func(*Model)

// WithClock overrides the time source used for due-date classification.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// WithConfig sets the UI configuration.
func WithConfig(cfg config.Config) Option {
	return func(m *Model) { m.cfg = cfg }
}

// WithTheme overrides the default theme.
func WithTheme(t Theme) Option {
	return func(m *Model) { m.theme = t }
}

// WithConfigPath enables live reload of the config file at path when
// experimental.watch_config is on.
func WithConfigPath(path string) Option {
	return func(m *Model) { m.cfgPath = path }
}

// WithConfigOverrides sets a function reapplied to every reloaded config,
// so settings forced on the command line survive a reload.
func WithConfigOverrides(fn func(*config.Config)) Option {
	return func(m *Model) { m.overrides = fn }
}

// NewModel creates the board UI over store.
func NewModel(store *board.Store, opts ...Option) Model {
	m := Model{
		store:  store,
		cfg:    config.DefaultConfig(),
		theme:  DefaultTheme(lipgloss.DefaultRenderer()),
		keys:   defaultKeyMap(),
		help:   help.New(),
		detail: newDetailPanel(),
		now:    time.Now,
		life:   &lifecycle{done: make(chan struct{})},
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.board = NewBoardModel(store.Board(), m.theme, m.cfg)
	m.board.SetNow(m.now())
	return m
}

// Init starts the refresh timer and, when enabled, the config watcher.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.scheduleTick()}
	if cmd := m.startConfigWatch(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// Stop ends the refresh timer and the config watcher. Ticks that were
// already scheduled are dropped on arrival. Safe to call more than once.
func (m Model) Stop() {
	m.life.stop()
}

func (m Model) scheduleTick() tea.Cmd {
	gen := m.tickGen
	interval := m.cfg.UI.RefreshInterval
	if interval <= 0 {
		interval = config.DefaultRefreshInterval
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return refreshTickMsg{gen: gen, at: t}
	})
}

func (m Model) startConfigWatch() tea.Cmd {
	if m.cfgPath == "" || !m.cfg.WatchEnabled() || m.life.stopped.Load() {
		return nil
	}

	m.life.mu.Lock()
	defer m.life.mu.Unlock()
	if m.life.watcher == nil {
		w, err := watcher.New(m.cfgPath, watcher.WithOnError(func(err error) {
			debug.Log("ui: config watcher: %v", err)
		}))
		if err != nil {
			debug.Log("ui: cannot watch %s: %v", m.cfgPath, err)
			return nil
		}
		if err := w.Start(); err != nil {
			debug.Log("ui: cannot watch %s: %v", m.cfgPath, err)
			return nil
		}
		m.life.watcher = w
	}
	return WatchConfigCmd(m.life.watcher, m.cfgPath, m.life.done)
}

// WatchConfigCmd waits for the next change to the watched config file and
// reloads it. It returns nil once done is closed.
func WatchConfigCmd(w *watcher.Watcher, path string, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-done:
			return nil
		case <-w.Changed():
		}
		cfg, err := config.LoadFrom(path)
		if err != nil {
			return ConfigReloadedMsg{Err: err}
		}
		warnings := cfg.Normalize()
		return ConfigReloadedMsg{Config: cfg, Warnings: warnings}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case refreshTickMsg:
		if m.life.stopped.Load() || msg.gen != m.tickGen {
			debug.Log("ui: dropped refresh tick (gen %d, current %d)", msg.gen, m.tickGen)
			return m, nil
		}
		n := m.store.RefreshDueDates()
		debug.Log("ui: refresh tick at %s, %d due dates reformatted", msg.at.Format(time.TimeOnly), n)
		m.syncBoard()
		return m, m.scheduleTick()

	case ConfigReloadedMsg:
		return m.handleConfigReload(msg)

	case tea.MouseMsg:
		if !m.cfg.MouseEnabled() {
			return m, nil
		}
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.life.stop()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil
	}

	if m.board.Dragging() {
		m.handleDragKeys(msg)
		return m, nil
	}

	var cmd tea.Cmd
	switch {
	case key.Matches(msg, m.keys.Left):
		m.board.MoveLeft()
	case key.Matches(msg, m.keys.Right):
		m.board.MoveRight()
	case key.Matches(msg, m.keys.Up):
		m.board.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.board.MoveDown()
	case key.Matches(msg, m.keys.Top):
		m.board.MoveToTop()
	case key.Matches(msg, m.keys.Bottom):
		m.board.MoveToBottom()
	case key.Matches(msg, m.keys.Column):
		m.board.JumpToColumn(int(msg.String()[0] - '1'))
	case key.Matches(msg, m.keys.Grab):
		if m.board.StartDrag() {
			m.setStatus("", false)
		} else {
			m.setStatus("Nothing to move in this column", true)
		}
	case key.Matches(msg, m.keys.Detail):
		m.showDetail = !m.showDetail
		m.layout()
	case key.Matches(msg, m.keys.Cancel):
		if m.showDetail {
			m.showDetail = false
			m.layout()
		}
	case key.Matches(msg, m.keys.Copy):
		m.copySelectedID()
	default:
		if m.showDetail {
			m.detail.vp, cmd = m.detail.vp.Update(msg)
			return m, cmd
		}
	}
	m.refreshDetail()
	return m, nil
}

func (m *Model) handleDragKeys(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.cancelDrag("Move cancelled")
	case key.Matches(msg, m.keys.Drop), key.Matches(msg, m.keys.Grab):
		m.commitDrag()
	case key.Matches(msg, m.keys.Left):
		m.board.MoveTarget(-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.board.MoveTarget(1, 0)
	case key.Matches(msg, m.keys.Up):
		m.board.MoveTarget(0, -1)
	case key.Matches(msg, m.keys.Down):
		m.board.MoveTarget(0, 1)
	case key.Matches(msg, m.keys.Top):
		m.board.TargetTop()
	case key.Matches(msg, m.keys.Bottom):
		m.board.TargetBottom()
	case key.Matches(msg, m.keys.Column):
		m.board.TargetColumn(int(msg.String()[0] - '1'))
	}
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	mouseDrag := m.board.drag.via == dragMouse

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			if m.board.Dragging() {
				return m, nil
			}
			if m.board.PointerPressed(msg.X, msg.Y) {
				m.setStatus("", false)
				m.refreshDetail()
			}
		case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
			if m.showDetail && msg.X >= m.boardWidth() {
				var cmd tea.Cmd
				m.detail.vp, cmd = m.detail.vp.Update(msg)
				return m, cmd
			}
			if m.board.Dragging() {
				return m, nil
			}
			if msg.Button == tea.MouseButtonWheelUp {
				m.board.MoveUp()
			} else {
				m.board.MoveDown()
			}
			m.refreshDetail()
		}

	case tea.MouseActionMotion:
		if mouseDrag {
			m.board.PointerMoved(msg.X, msg.Y)
		}

	case tea.MouseActionRelease:
		if !mouseDrag {
			return m, nil
		}
		m.board.PointerMoved(msg.X, msg.Y)
		if _, ok := m.board.Target(); ok {
			m.commitDrag()
		} else {
			m.cancelDrag("Dropped outside the board, move cancelled")
		}
	}
	return m, nil
}

// commitDrag hands the finished gesture to the store. Focus follows the
// moved card.
func (m *Model) commitDrag() {
	mv := m.board.DragMove()
	if mv.Dest == nil {
		m.cancelDrag("Move cancelled")
		return
	}
	id := m.board.DraggedIssue()
	changed := m.store.MoveIssue(mv)
	m.board.EndDrag()
	m.syncBoard()
	m.board.FocusIssue(id)

	if changed {
		m.setStatus(fmt.Sprintf("Moved %s to %s", id, mv.Dest.Column.Title()), false)
	} else {
		m.setStatus(fmt.Sprintf("%s left in place", id), false)
	}
	m.refreshDetail()
}

// cancelDrag reports the gesture without a destination, which the store
// treats as a no-op.
func (m *Model) cancelDrag(status string) {
	mv := m.board.DragMove()
	mv.Dest = nil
	m.store.MoveIssue(mv)
	id := m.board.DraggedIssue()
	m.board.EndDrag()
	m.board.FocusIssue(id)
	m.setStatus(status, false)
}

func (m Model) handleConfigReload(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	m.life.mu.Lock()
	w := m.life.watcher
	m.life.mu.Unlock()
	if w != nil {
		cmds = append(cmds, WatchConfigCmd(w, m.cfgPath, m.life.done))
	}

	if msg.Err != nil {
		debug.Log("ui: config reload failed: %v", msg.Err)
		m.setStatus(fmt.Sprintf("Config reload failed: %v", msg.Err), true)
		return m, tea.Batch(cmds...)
	}
	for _, warn := range msg.Warnings {
		debug.Log("ui: config: %s", warn)
	}

	cfg := msg.Config
	if m.overrides != nil {
		m.overrides(&cfg)
		cfg.Normalize()
	}

	old := m.cfg
	m.cfg = cfg
	m.board.SetConfig(m.cfg)

	if m.cfg.UI.RefreshInterval != old.UI.RefreshInterval {
		m.tickGen++
		cmds = append(cmds, m.scheduleTick())
	}
	if m.cfg.MouseEnabled() != old.MouseEnabled() {
		if m.cfg.MouseEnabled() {
			cmds = append(cmds, tea.EnableMouseCellMotion)
		} else {
			if m.board.drag.via == dragMouse {
				m.cancelDrag("Move cancelled")
			}
			cmds = append(cmds, tea.DisableMouse)
		}
	}
	m.layout()

	status := "Config reloaded"
	if len(msg.Warnings) > 0 {
		status = fmt.Sprintf("Config reloaded with %d warning(s)", len(msg.Warnings))
	}
	m.setStatus(status, len(msg.Warnings) > 0)
	debug.Log("ui: config reloaded (refresh %v)", m.cfg.UI.RefreshInterval)
	return m, tea.Batch(cmds...)
}

func (m *Model) copySelectedID() {
	sel := m.board.SelectedIssue()
	if sel == nil {
		m.setStatus("No issue selected", true)
		return
	}
	if err := clipboardWrite(sel.ID); err != nil {
		m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
		return
	}
	m.setStatus(fmt.Sprintf("📋 Copied %s to clipboard", sel.ID), false)
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusIsError = isErr
}

// syncBoard re-reads the store after a mutation or tick.
func (m *Model) syncBoard() {
	m.board.SetNow(m.now())
	m.board.SetBoard(m.store.Board())
	m.refreshDetail()
}

func (m *Model) refreshDetail() {
	if !m.showDetail {
		return
	}
	sel := m.board.SelectedIssue()
	col := m.board.SelectedColumn()
	glow := sel != nil && m.board.highlighted(col, *sel)
	m.detail.setIssue(sel, col, m.now(), glow)
}

func (m Model) detailWidth() int {
	if !m.showDetail {
		return 0
	}
	w := int(float64(m.width) * m.cfg.UI.DetailWidth)
	if w < minDetailWidth {
		w = minDetailWidth
	}
	return w
}

func (m Model) boardWidth() int {
	if !m.showDetail {
		return m.width
	}
	return m.width - m.detailWidth() - 1
}

func (m Model) footerHeight() int {
	return 1 + lipgloss.Height(m.help.View(m.keys))
}

// layout distributes the window between board, detail panel and footer.
func (m *Model) layout() {
	m.help.Width = m.width
	bodyHeight := m.height - m.footerHeight()
	m.board.SetSize(m.boardWidth(), bodyHeight)
	if m.showDetail {
		m.detail.setSize(m.detailWidth()-2, bodyHeight-2)
	}
	m.refreshDetail()
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading board..."
	}
	defer metrics.Timer(metrics.UIRender)()
	t := m.theme

	body := m.board.View()
	if m.showDetail {
		panel := t.Renderer.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary).
			Width(m.detail.vp.Width).
			Height(m.detail.vp.Height).
			Render(m.detail.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", panel)
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatus(), m.help.View(m.keys))
}

func (m Model) renderStatus() string {
	t := m.theme
	if m.board.Dragging() {
		id := m.board.DraggedIssue()
		target, ok := m.board.Target()
		if !ok {
			return t.StatusErr.Render(fmt.Sprintf("Moving %s · release to cancel", id))
		}
		return t.StatusOK.Render(fmt.Sprintf("Moving %s → %s #%d · enter/space drop · esc cancel",
			id, target.Column.Title(), target.Index+1))
	}
	if m.statusMsg == "" {
		return ""
	}
	if m.statusIsError {
		return t.StatusErr.Render(m.statusMsg)
	}
	return t.StatusOK.Render(m.statusMsg)
}

// Board returns the board snapshot the view last rendered.
func (m Model) Board() BoardModel { return m.board }

// Status returns the current status line text and whether it is an error.
func (m Model) Status() (string, bool) { return m.statusMsg, m.statusIsError }
