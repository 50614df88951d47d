package ui

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/kanban/pkg/board"
	"github.com/vanderheijden86/kanban/pkg/config"
	"github.com/vanderheijden86/kanban/pkg/model"
	"github.com/vanderheijden86/kanban/pkg/seed"
	"github.com/vanderheijden86/kanban/pkg/testutil"
	"github.com/vanderheijden86/kanban/pkg/watcher"
)

var testNow = time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

// Width 123 gives 30-cell columns; height 30 leaves four card slots per column.
const (
	testWidth  = 123
	testHeight = 30
)

func newTestStore() *board.Store {
	return board.NewStore(seed.Default(testNow), board.WithClock(testClock))
}

func newTestModel(t *testing.T, opts ...Option) (Model, *board.Store) {
	t.Helper()
	store := newTestStore()
	opts = append([]Option{WithClock(testClock), WithTheme(TestTheme())}, opts...)
	m := NewModel(store, opts...)
	t.Cleanup(m.Stop)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: testWidth, Height: testHeight})
	return updated.(Model), store
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		updated, _ := m.Update(keyMsg(k))
		m = updated.(Model)
	}
	return m
}

func mouse(m Model, action tea.MouseAction, x, y int) Model {
	button := tea.MouseButtonLeft
	if action == tea.MouseActionMotion {
		button = tea.MouseButtonNone
	}
	updated, _ := m.Update(tea.MouseMsg{X: x, Y: y, Action: action, Button: button})
	return updated.(Model)
}

func issueIDs(t *testing.T, store *board.Store, col model.ColumnID) []string {
	t.Helper()
	c, ok := store.Column(col)
	if !ok {
		t.Fatalf("column %q missing", col)
	}
	ids := make([]string, 0, len(c.Issues))
	for _, issue := range c.Issues {
		ids = append(ids, issue.ID)
	}
	return ids
}

func TestKeyboardDragAcrossColumns(t *testing.T) {
	m, store := newTestModel(t)

	m = press(m, "space")
	if !m.board.Dragging() || m.board.DraggedIssue() != "PROJ-28" {
		t.Fatalf("expected PROJ-28 grabbed, dragging=%v issue=%q", m.board.Dragging(), m.board.DraggedIssue())
	}

	m = press(m, "l", "l", "j")
	target, ok := m.board.Target()
	if !ok || target.Column != model.ColumnInProgress || target.Index != 1 {
		t.Fatalf("unexpected target %+v (ok=%v)", target, ok)
	}

	m = press(m, "enter")
	if m.board.Dragging() {
		t.Fatal("drag should end on drop")
	}

	want := []string{"PROJ-50", "PROJ-28", "PROJ-41", "PROJ-42"}
	if got := issueIDs(t, store, model.ColumnInProgress); !reflect.DeepEqual(got, want) {
		t.Errorf("in progress = %v, want %v", got, want)
	}
	if got := issueIDs(t, store, model.ColumnBacklog); !reflect.DeepEqual(got, []string{"PROJ-29"}) {
		t.Errorf("backlog = %v", got)
	}
	if sel := m.board.SelectedIssue(); sel == nil || sel.ID != "PROJ-28" {
		t.Errorf("focus should follow the moved card, got %v", sel)
	}
	if msg, isErr := m.Status(); isErr || msg != "Moved PROJ-28 to In Progress" {
		t.Errorf("status = %q (err=%v)", msg, isErr)
	}
}

func TestKeyboardDragEscCancels(t *testing.T) {
	m, store := newTestModel(t)
	before := store.Board()

	m = press(m, "space", "l", "j", "esc")

	if m.board.Dragging() {
		t.Fatal("esc should end the drag")
	}
	if !reflect.DeepEqual(store.Board(), before) {
		t.Error("cancelled drag mutated the board")
	}
	if sel := m.board.SelectedIssue(); sel == nil || sel.ID != "PROJ-28" {
		t.Errorf("selection should return to the grabbed card, got %v", sel)
	}
}

func TestKeyboardDragReorderWithinColumn(t *testing.T) {
	m, store := newTestModel(t)

	m = press(m, "2", "space", "j", "j", "space")

	want := []string{"PROJ-51", "PROJ-32", "PROJ-49", "PROJ-33", "PROJ-26"}
	if got := issueIDs(t, store, model.ColumnTodo); !reflect.DeepEqual(got, want) {
		t.Errorf("todo = %v, want %v", got, want)
	}
}

func TestKeyboardDragDropInPlaceIsNoop(t *testing.T) {
	m, store := newTestModel(t)
	before := store.Board()

	m = press(m, "space", "enter")

	if !reflect.DeepEqual(store.Board(), before) {
		t.Error("dropping onto the source slot changed the board")
	}
	if msg, _ := m.Status(); msg != "PROJ-28 left in place" {
		t.Errorf("status = %q", msg)
	}
}

func TestDragTargetClamping(t *testing.T) {
	m, _ := newTestModel(t)

	// Within the source column the last slot is len-1.
	m = press(m, "2", "space", "G")
	if target, _ := m.board.Target(); target.Index != 4 {
		t.Fatalf("expected target 4 in todo, got %+v", target)
	}

	// Another column accepts an append at len.
	m = press(m, "l")
	if target, _ := m.board.Target(); target.Column != model.ColumnInProgress || target.Index != 3 {
		t.Fatalf("expected in progress[3], got %+v", target)
	}

	m = press(m, "l", "l", "l")
	if target, _ := m.board.Target(); target.Column != model.ColumnDone {
		t.Fatalf("target should stop at the last column, got %+v", target)
	}

	m = press(m, "g")
	if target, _ := m.board.Target(); target.Index != 0 {
		t.Fatalf("g should target the top slot, got %+v", target)
	}
}

func TestCrowdedColumnDragFromBottom(t *testing.T) {
	fx := testutil.NewDefault().Crowded(model.ColumnBacklog, 20)
	store := board.NewStore(fx.Board, board.WithClock(testClock))
	m := NewModel(store, WithClock(testClock), WithTheme(TestTheme()))
	t.Cleanup(m.Stop)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: testWidth, Height: testHeight})
	m = updated.(Model)

	// Select the last card, far below the visible slots, and drop it into Done.
	m = press(m, "G")
	last := m.board.SelectedIssue()
	if last == nil || last.ID != "TEST-20" {
		t.Fatalf("G should select the last card, got %+v", last)
	}
	if !strings.Contains(m.View(), "TEST-20") {
		t.Error("selected card should be scrolled into view")
	}

	m = press(m, "space", "4", "enter")
	b := store.Board()
	testutil.AssertIssueIn(t, b, "TEST-20", model.ColumnDone)
	testutil.AssertColumnCounts(t, b, 19, 0, 0, 1)
	testutil.AssertSameIssues(t, fx.Board, b)
	if m.board.SelectedColumn() != model.ColumnDone {
		t.Errorf("focus should follow the dropped card, got %s", m.board.SelectedColumn())
	}
}

func TestGrabEmptyColumn(t *testing.T) {
	store := board.NewStore(model.NewEmptyBoard())
	m := NewModel(store, WithClock(testClock), WithTheme(TestTheme()))
	defer m.Stop()

	m = press(m, "space")
	if m.board.Dragging() {
		t.Fatal("cannot drag from an empty column")
	}
	if _, isErr := m.Status(); !isErr {
		t.Error("expected an error status")
	}
}

func TestMouseDragCommits(t *testing.T) {
	m, store := newTestModel(t)

	// Card PROJ-28 is the first card of the first column.
	m = mouse(m, tea.MouseActionPress, 5, cardsTop+1)
	if !m.board.Dragging() || m.board.DraggedIssue() != "PROJ-28" {
		t.Fatalf("press on card should start a drag")
	}

	doneX := 3*31 + 5
	slot2Y := cardsTop + 2*cardHeight + 1
	m = mouse(m, tea.MouseActionMotion, doneX, slot2Y)
	if target, ok := m.board.Target(); !ok || target.Column != model.ColumnDone || target.Index != 2 {
		t.Fatalf("unexpected target after motion: %+v ok=%v", target, ok)
	}

	m = mouse(m, tea.MouseActionRelease, doneX, slot2Y)

	want := []string{"PROJ-37", "PROJ-27", "PROJ-28", "PROJ-40", "PROJ-25", "PROJ-20"}
	if got := issueIDs(t, store, model.ColumnDone); !reflect.DeepEqual(got, want) {
		t.Errorf("done = %v, want %v", got, want)
	}
	if store.Len() != 15 {
		t.Errorf("issue count changed: %d", store.Len())
	}
}

func TestMouseReleaseOutsideCancels(t *testing.T) {
	tests := []struct {
		name string
		x, y int
	}{
		{"toolbar", 40, 1},
		{"right of board", testWidth + 5, cardsTop + 1},
		{"footer", 40, testHeight - 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, store := newTestModel(t)
			before := store.Board()

			m = mouse(m, tea.MouseActionPress, 5, cardsTop+1)
			m = mouse(m, tea.MouseActionMotion, tc.x, tc.y)
			if _, ok := m.board.Target(); ok {
				t.Fatalf("pointer at (%d,%d) should have no target", tc.x, tc.y)
			}
			m = mouse(m, tea.MouseActionRelease, tc.x, tc.y)

			if m.board.Dragging() {
				t.Fatal("release should end the drag")
			}
			if !reflect.DeepEqual(store.Board(), before) {
				t.Error("release outside the board mutated it")
			}
		})
	}
}

func TestMousePressOffCardDoesNothing(t *testing.T) {
	m, _ := newTestModel(t)

	m = mouse(m, tea.MouseActionPress, 30, cardsTop+1) // separator
	m = mouse(m, tea.MouseActionPress, 5, colHeaderRow)
	m = mouse(m, tea.MouseActionPress, 5, cardsTop+2*cardHeight) // below the two backlog cards
	if m.board.Dragging() {
		t.Fatal("only a press on a card starts a drag")
	}
}

func TestMouseDisabled(t *testing.T) {
	off := false
	cfg := config.DefaultConfig()
	cfg.UI.Mouse = &off
	m, _ := newTestModel(t, WithConfig(cfg))

	m = mouse(m, tea.MouseActionPress, 5, cardsTop+1)
	if m.board.Dragging() {
		t.Fatal("mouse events should be ignored when disabled")
	}
}

func TestMouseIgnoredDuringKeyboardDrag(t *testing.T) {
	m, store := newTestModel(t)
	before := store.Board()

	m = press(m, "space")
	m = mouse(m, tea.MouseActionPress, 31+5, cardsTop+1)
	m = mouse(m, tea.MouseActionRelease, 31+5, cardsTop+1)

	if m.board.DraggedIssue() != "PROJ-28" {
		t.Fatalf("keyboard drag should be unaffected, dragging %q", m.board.DraggedIssue())
	}
	if !reflect.DeepEqual(store.Board(), before) {
		t.Error("mouse release committed a keyboard drag")
	}
}

func TestRefreshTick(t *testing.T) {
	b := model.NewEmptyBoard()
	b.Columns[1].Issues = []model.Issue{
		{ID: "A-1", Title: "spaced", DueDate: "Jun.  7"},
		{ID: "A-2", Title: "odd", DueDate: "whenever"},
	}
	store := board.NewStore(b, board.WithClock(testClock))
	m := NewModel(store, WithClock(testClock), WithTheme(TestTheme()))
	defer m.Stop()

	updated, cmd := m.Update(refreshTickMsg{gen: 0, at: testNow})
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("tick should reschedule itself")
	}

	col, _ := store.Column(model.ColumnTodo)
	if col.Issues[0].DueDate != "Jun. 7" {
		t.Errorf("due date not reformatted: %q", col.Issues[0].DueDate)
	}
	if col.Issues[1].DueDate != "whenever" {
		t.Errorf("malformed date should be left alone: %q", col.Issues[1].DueDate)
	}
	if got := m.board.Board().Columns[1].Issues[0].DueDate; got != "Jun. 7" {
		t.Errorf("view not re-synced after tick: %q", got)
	}
}

func TestRefreshTickDroppedWhenStale(t *testing.T) {
	m, _ := newTestModel(t)
	m.tickGen = 2

	if _, cmd := m.Update(refreshTickMsg{gen: 1}); cmd != nil {
		t.Error("tick from a replaced schedule should not reschedule")
	}
}

func TestRefreshTickDroppedAfterStop(t *testing.T) {
	m, _ := newTestModel(t)
	m.Stop()
	m.Stop()

	if _, cmd := m.Update(refreshTickMsg{gen: 0}); cmd != nil {
		t.Error("tick after Stop should not reschedule")
	}
}

func TestInitSchedulesTick(t *testing.T) {
	m, _ := newTestModel(t)
	if m.Init() == nil {
		t.Fatal("Init should schedule the refresh timer")
	}
}

func TestQuitStopsLifecycle(t *testing.T) {
	m, _ := newTestModel(t)

	updated, cmd := m.Update(keyMsg("q"))
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	if !m.life.stopped.Load() {
		t.Error("quitting should stop the refresh timer")
	}
}

func TestConfigReloadApplies(t *testing.T) {
	m, _ := newTestModel(t)

	cfg := config.DefaultConfig()
	cfg.UI.RefreshInterval = 5 * time.Second
	cfg.UI.HighlightColumns = []model.ColumnID{}

	updated, cmd := m.Update(ConfigReloadedMsg{Config: cfg})
	m = updated.(Model)

	if cmd == nil {
		t.Fatal("interval change should reschedule the timer")
	}
	if m.tickGen != 1 {
		t.Errorf("tickGen = %d, want 1", m.tickGen)
	}
	if m.cfg.UI.RefreshInterval != 5*time.Second {
		t.Errorf("interval not applied: %v", m.cfg.UI.RefreshInterval)
	}
	issue := model.Issue{ID: "PROJ-49", DueDate: "Jun. 12"}
	if m.board.highlighted(model.ColumnTodo, issue) {
		t.Error("highlight columns not applied")
	}
	if msg, isErr := m.Status(); isErr || msg != "Config reloaded" {
		t.Errorf("status = %q (err=%v)", msg, isErr)
	}
}

func TestConfigReloadKeepsOverrides(t *testing.T) {
	off := false
	flags := func(c *config.Config) {
		c.UI.RefreshInterval = 5 * time.Second
		c.UI.Mouse = &off
	}
	start := config.DefaultConfig()
	flags(&start)
	start.Normalize()
	m, _ := newTestModel(t, WithConfig(start), WithConfigOverrides(flags))

	// The file on disk has neither flag set.
	updated, _ := m.Update(ConfigReloadedMsg{Config: config.DefaultConfig()})
	m = updated.(Model)

	if m.cfg.MouseEnabled() {
		t.Error("mouse re-enabled by reload despite override")
	}
	if m.cfg.UI.RefreshInterval != 5*time.Second {
		t.Errorf("refresh = %v, want override 5s", m.cfg.UI.RefreshInterval)
	}
	if m.tickGen != 0 {
		t.Errorf("tickGen = %d, timer should not be rescheduled", m.tickGen)
	}
}

func TestConfigReloadError(t *testing.T) {
	m, _ := newTestModel(t)
	before := m.cfg

	updated, _ := m.Update(ConfigReloadedMsg{Err: errors.New("bad yaml")})
	m = updated.(Model)

	if !reflect.DeepEqual(m.cfg, before) {
		t.Error("failed reload should keep the previous config")
	}
	if msg, isErr := m.Status(); !isErr || !strings.Contains(msg, "bad yaml") {
		t.Errorf("status = %q (err=%v)", msg, isErr)
	}
}

func TestWatchConfigCmd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("ui: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := watcher.New(path,
		watcher.WithForcePoll(true),
		watcher.WithPollInterval(20*time.Millisecond),
		watcher.WithDebounceDuration(10*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	done := make(chan struct{})
	msgs := make(chan tea.Msg, 1)
	go func() { msgs <- WatchConfigCmd(w, path, done)() }()

	time.Sleep(60 * time.Millisecond)
	if err := os.WriteFile(path, []byte("ui:\n  refresh_interval: 5s\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-msgs:
		reloaded, ok := msg.(ConfigReloadedMsg)
		if !ok {
			t.Fatalf("unexpected message %T", msg)
		}
		if reloaded.Err != nil || reloaded.Config.UI.RefreshInterval != 5*time.Second {
			t.Errorf("unexpected reload %+v", reloaded)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reload message")
	}

	close(done)
	if msg := WatchConfigCmd(w, path, done)(); msg != nil {
		t.Errorf("expected nil after done, got %v", msg)
	}
}

func TestCopySelectedID(t *testing.T) {
	var copied string
	orig := clipboardWrite
	t.Cleanup(func() { clipboardWrite = orig })
	clipboardWrite = func(s string) error {
		copied = s
		return nil
	}

	m, _ := newTestModel(t)
	m = press(m, "j", "y")

	if copied != "PROJ-29" {
		t.Errorf("copied %q", copied)
	}
	if msg, isErr := m.Status(); isErr || !strings.Contains(msg, "Copied PROJ-29") {
		t.Errorf("status = %q (err=%v)", msg, isErr)
	}

	clipboardWrite = func(string) error { return errors.New("no clipboard") }
	m = press(m, "y")
	if msg, isErr := m.Status(); !isErr || !strings.Contains(msg, "no clipboard") {
		t.Errorf("status = %q (err=%v)", msg, isErr)
	}
}

func TestHelpToggle(t *testing.T) {
	m, _ := newTestModel(t)
	short := m.board.visibleSlots()

	m = press(m, "?")
	if !m.help.ShowAll {
		t.Fatal("? should expand help")
	}
	if !strings.Contains(m.View(), "jump to column") {
		t.Error("full help should list the column jump binding")
	}
	if m.board.visibleSlots() > short {
		t.Error("expanded help should not grow the board")
	}

	m = press(m, "?")
	if m.help.ShowAll {
		t.Fatal("second ? should collapse help")
	}
}

func TestDetailPanel(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(m, "d")
	if !m.showDetail || m.detail.issueID != "PROJ-28" {
		t.Fatalf("detail should show PROJ-28, got %q (shown=%v)", m.detail.issueID, m.showDetail)
	}
	if m.boardWidth() >= testWidth {
		t.Error("detail panel should take width from the board")
	}

	m = press(m, "j")
	if m.detail.issueID != "PROJ-29" {
		t.Errorf("detail should follow selection, got %q", m.detail.issueID)
	}

	m = press(m, "esc")
	if m.showDetail {
		t.Error("esc should close the detail panel")
	}

	m = press(m, "tab")
	if !m.showDetail {
		t.Error("tab should open the detail panel")
	}
}

func TestNavigationKeys(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(m, "l", "G")
	if sel := m.board.SelectedIssue(); sel == nil || sel.ID != "PROJ-26" {
		t.Fatalf("expected PROJ-26, got %v", sel)
	}
	m = press(m, "g")
	if sel := m.board.SelectedIssue(); sel == nil || sel.ID != "PROJ-49" {
		t.Fatalf("expected PROJ-49, got %v", sel)
	}
	m = press(m, "4", "k", "h")
	if m.board.FocusedColumn() != 2 {
		t.Fatalf("expected column 2, got %d", m.board.FocusedColumn())
	}
	m = press(m, "h", "h", "h")
	if m.board.FocusedColumn() != 0 {
		t.Fatalf("h should stop at the first column, got %d", m.board.FocusedColumn())
	}
}
