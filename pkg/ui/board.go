package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/kanban/pkg/board"
	"github.com/vanderheijden86/kanban/pkg/classify"
	"github.com/vanderheijden86/kanban/pkg/config"
	"github.com/vanderheijden86/kanban/pkg/model"
)

// Board layout, in terminal cells. Rendering and mouse hit-testing both
// derive positions from these, so a drop lands where the ghost is drawn.
const (
	headerRows   = 3 // title, toolbar, blank
	colHeaderRow = headerRows
	cardsTop     = headerRows + 1
	cardHeight   = 5 // rounded border + ID, title, meta
	minColWidth  = 20
	numColumns   = 4
)

type dragVia int

const (
	dragNone dragVia = iota
	dragKeyboard
	dragMouse
)

// dragState is an in-flight drag gesture. target is the slot the card
// would occupy once dropped; targetOK is false while the pointer is
// outside every column.
type dragState struct {
	via      dragVia
	issueID  string
	source   board.Location
	target   board.Location
	targetOK bool
}

// BoardModel is the four-column board view. It renders a snapshot of the
// store and tracks selection, scrolling and the drag ghost.
type BoardModel struct {
	board       model.Board
	theme       Theme
	cfg         config.Config
	now         time.Time
	width       int
	height      int
	focusedCol  int
	selectedRow [numColumns]int
	offset      [numColumns]int
	drag        dragState
}

// NewBoardModel creates a board view over b.
func NewBoardModel(b model.Board, theme Theme, cfg config.Config) BoardModel {
	bm := BoardModel{
		theme: theme,
		cfg:   cfg,
		now:   time.Now(),
	}
	bm.SetBoard(b)
	return bm
}

// SetBoard replaces the rendered snapshot, keeping selections in range.
func (b *BoardModel) SetBoard(snapshot model.Board) {
	b.board = snapshot
	for c := 0; c < numColumns; c++ {
		n := b.columnLen(c)
		b.selectedRow[c] = clampInt(b.selectedRow[c], 0, n-1)
	}
	b.ensureAllVisible()
}

func (b *BoardModel) SetNow(now time.Time)        { b.now = now }
func (b *BoardModel) SetConfig(cfg config.Config) { b.cfg = cfg }

// SetSize sets the area available to the board, including its title rows.
func (b *BoardModel) SetSize(width, height int) {
	b.width = width
	b.height = height
	b.ensureAllVisible()
}

func (b BoardModel) Board() model.Board { return b.board }
func (b BoardModel) FocusedColumn() int { return b.focusedCol }

func (b BoardModel) columnLen(c int) int {
	if c < 0 || c >= len(b.board.Columns) {
		return 0
	}
	return len(b.board.Columns[c].Issues)
}

func (b BoardModel) columnID(c int) model.ColumnID {
	if c < 0 || c >= len(b.board.Columns) {
		return ""
	}
	return b.board.Columns[c].ID
}

func (b BoardModel) columnIndex(id model.ColumnID) int {
	for c, col := range b.board.Columns {
		if col.ID == id {
			return c
		}
	}
	return -1
}

// SelectedIssue returns the issue under the cursor, or nil for an empty column.
func (b BoardModel) SelectedIssue() *model.Issue {
	c := b.focusedCol
	if b.columnLen(c) == 0 {
		return nil
	}
	issue := b.board.Columns[c].Issues[b.selectedRow[c]]
	return &issue
}

// SelectedColumn returns the column holding the cursor.
func (b BoardModel) SelectedColumn() model.ColumnID { return b.columnID(b.focusedCol) }

// Navigation methods
func (b *BoardModel) MoveDown() {
	c := b.focusedCol
	if b.selectedRow[c] < b.columnLen(c)-1 {
		b.selectedRow[c]++
	}
	b.ensureVisible(c, b.selectedRow[c])
}

func (b *BoardModel) MoveUp() {
	c := b.focusedCol
	if b.selectedRow[c] > 0 {
		b.selectedRow[c]--
	}
	b.ensureVisible(c, b.selectedRow[c])
}

func (b *BoardModel) MoveRight() {
	if b.focusedCol < numColumns-1 {
		b.focusedCol++
	}
}

func (b *BoardModel) MoveLeft() {
	if b.focusedCol > 0 {
		b.focusedCol--
	}
}

func (b *BoardModel) MoveToTop() {
	b.selectedRow[b.focusedCol] = 0
	b.ensureVisible(b.focusedCol, 0)
}

func (b *BoardModel) MoveToBottom() {
	c := b.focusedCol
	if n := b.columnLen(c); n > 0 {
		b.selectedRow[c] = n - 1
	}
	b.ensureVisible(c, b.selectedRow[c])
}

// JumpToColumn focuses column c (0-3).
func (b *BoardModel) JumpToColumn(c int) {
	if c < 0 || c >= numColumns {
		return
	}
	b.focusedCol = c
}

// FocusIssue moves the cursor onto the issue with the given ID.
func (b *BoardModel) FocusIssue(id string) bool {
	col, row, ok := b.board.FindIssue(id)
	if !ok {
		return false
	}
	b.focusedCol = col
	b.selectedRow[col] = row
	b.ensureVisible(col, row)
	return true
}

// Drag gestures

// Dragging reports whether a drag gesture is in flight.
func (b BoardModel) Dragging() bool { return b.drag.via != dragNone }

// DraggedIssue returns the ID of the card being dragged.
func (b BoardModel) DraggedIssue() string { return b.drag.issueID }

// Target returns the current drop slot and whether it lies inside a column.
func (b BoardModel) Target() (board.Location, bool) {
	return b.drag.target, b.Dragging() && b.drag.targetOK
}

// StartDrag picks up the selected card. The initial target is the card's
// own slot, so dropping immediately is a no-op.
func (b *BoardModel) StartDrag() bool {
	return b.startDragAt(b.focusedCol, b.selectedRow[b.focusedCol], dragKeyboard)
}

func (b *BoardModel) startDragAt(c, row int, via dragVia) bool {
	if row < 0 || row >= b.columnLen(c) {
		return false
	}
	b.focusedCol = c
	b.selectedRow[c] = row
	loc := board.Location{Column: b.columnID(c), Index: row}
	b.drag = dragState{
		via:      via,
		issueID:  b.board.Columns[c].Issues[row].ID,
		source:   loc,
		target:   loc,
		targetOK: true,
	}
	return true
}

// maxTarget is the largest drop slot in column c. Dropping into another
// column may append; within the source column the card only reorders.
func (b BoardModel) maxTarget(c int) int {
	n := b.columnLen(c)
	if b.columnID(c) == b.drag.source.Column {
		return n - 1
	}
	return n
}

func (b *BoardModel) setTarget(c, idx int) {
	idx = clampInt(idx, 0, b.maxTarget(c))
	b.drag.target = board.Location{Column: b.columnID(c), Index: idx}
	b.drag.targetOK = true
	b.focusedCol = c
	b.ensureVisible(c, idx)
}

// MoveTarget shifts the drop slot by dc columns and dr rows.
func (b *BoardModel) MoveTarget(dc, dr int) {
	if !b.Dragging() {
		return
	}
	c := b.columnIndex(b.drag.target.Column)
	if !b.drag.targetOK || c < 0 {
		c = b.columnIndex(b.drag.source.Column)
	}
	nc := clampInt(c+dc, 0, numColumns-1)
	b.setTarget(nc, b.drag.target.Index+dr)
}

// TargetColumn moves the drop slot to column c, keeping the row where possible.
func (b *BoardModel) TargetColumn(c int) {
	if !b.Dragging() || c < 0 || c >= numColumns {
		return
	}
	b.setTarget(c, b.drag.target.Index)
}

func (b *BoardModel) TargetTop() {
	if b.Dragging() {
		b.setTarget(b.columnIndex(b.drag.target.Column), 0)
	}
}

func (b *BoardModel) TargetBottom() {
	if b.Dragging() {
		c := b.columnIndex(b.drag.target.Column)
		b.setTarget(c, b.maxTarget(c))
	}
}

// PointerMoved updates the drop slot from a pointer position. A pointer
// outside every column clears the target.
func (b *BoardModel) PointerMoved(x, y int) {
	if !b.Dragging() {
		return
	}
	c := b.columnAt(x)
	if c < 0 {
		b.drag.targetOK = false
		return
	}
	slot, ok := b.slotAt(c, y)
	if !ok {
		b.drag.targetOK = false
		return
	}
	idx := clampInt(slot, 0, b.maxTarget(c))
	b.drag.target = board.Location{Column: b.columnID(c), Index: idx}
	b.drag.targetOK = true
	b.focusedCol = c
}

// PointerPressed starts a mouse drag when (x, y) is on a card.
func (b *BoardModel) PointerPressed(x, y int) bool {
	c, row, ok := b.cardAt(x, y)
	if !ok {
		return false
	}
	return b.startDragAt(c, row, dragMouse)
}

// DragMove describes the gesture as a store move. Dest is nil when the
// target is outside every column.
func (b BoardModel) DragMove() board.Move {
	m := board.Move{Source: b.drag.source}
	if b.drag.targetOK {
		dest := b.drag.target
		m.Dest = &dest
	}
	return m
}

// EndDrag clears the gesture.
func (b *BoardModel) EndDrag() {
	b.drag = dragState{}
	b.ensureAllVisible()
}

// Layout

func (b BoardModel) colWidth() int {
	w := (b.width - (numColumns - 1)) / numColumns
	if w < minColWidth {
		w = minColWidth
	}
	return w
}

func (b BoardModel) columnHeight() int {
	h := b.height - headerRows
	if h < 1+cardHeight {
		h = 1 + cardHeight
	}
	return h
}

// visibleSlots is how many cards fit under a column header.
func (b BoardModel) visibleSlots() int {
	n := (b.columnHeight() - 1) / cardHeight
	if n < 1 {
		n = 1
	}
	return n
}

func (b *BoardModel) ensureVisible(c, anchor int) {
	if c < 0 || c >= numColumns {
		return
	}
	vis := b.visibleSlots()
	if anchor < b.offset[c] {
		b.offset[c] = anchor
	}
	if anchor >= b.offset[c]+vis {
		b.offset[c] = anchor - vis + 1
	}
	if b.offset[c] < 0 {
		b.offset[c] = 0
	}
}

func (b *BoardModel) ensureAllVisible() {
	for c := 0; c < numColumns; c++ {
		anchor := b.selectedRow[c]
		if t, ok := b.Target(); ok && t.Column == b.columnID(c) {
			anchor = t.Index
		}
		if last := b.columnLen(c) - b.visibleSlots(); b.offset[c] > last && !b.Dragging() {
			b.offset[c] = max(last, 0)
		}
		b.ensureVisible(c, anchor)
	}
}

// columnAt maps an x cell to a column. Separators belong to the column
// on their left.
func (b BoardModel) columnAt(x int) int {
	cw := b.colWidth()
	if x < 0 || x >= numColumns*cw+numColumns-1 {
		return -1
	}
	return clampInt(x/(cw+1), 0, numColumns-1)
}

// slotAt maps a y cell in column c to a slot index. The column header
// maps to the first visible slot.
func (b BoardModel) slotAt(c, y int) (int, bool) {
	if y < colHeaderRow || y >= headerRows+b.columnHeight() {
		return 0, false
	}
	if y < cardsTop {
		return b.offset[c], true
	}
	return b.offset[c] + (y-cardsTop)/cardHeight, true
}

// cardAt returns the card drawn at (x, y).
func (b BoardModel) cardAt(x, y int) (c, row int, ok bool) {
	c = b.columnAt(x)
	if c < 0 || x%(b.colWidth()+1) == b.colWidth() || y < cardsTop {
		return 0, 0, false
	}
	slot, ok := b.slotAt(c, y)
	if !ok || slot-b.offset[c] >= b.visibleSlots() || slot >= b.columnLen(c) {
		return 0, 0, false
	}
	return c, slot, true
}

// Rendering

// View renders the title rows and the four columns.
func (b BoardModel) View() string {
	t := b.theme
	boardWidth := numColumns*b.colWidth() + numColumns - 1

	title := t.Title.Render("All issues")
	count := t.MutedText.Render(fmt.Sprintf("%d issues", b.board.IssueCount()))
	titleBar := joinSpread(title, count, boardWidth)
	toolbar := t.MutedText.Render("⚲ Filter   ☰ Display")

	cols := make([]string, 0, numColumns)
	for c := range b.board.Columns {
		cols = append(cols, b.renderColumn(c))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleBar,
		toolbar,
		"",
		b.joinColumnsWithSeparators(cols),
	)
}

// joinSpread places two styled strings at opposite ends of a line.
func joinSpread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (b BoardModel) joinColumnsWithSeparators(cols []string) string {
	h := b.columnHeight()
	sep := b.theme.Separator.Render(strings.TrimSuffix(strings.Repeat("│\n", h), "\n"))
	parts := make([]string, 0, len(cols)*2)
	for i, col := range cols {
		if i > 0 {
			parts = append(parts, sep)
		}
		parts = append(parts, col)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (b BoardModel) renderColumn(c int) string {
	t := b.theme
	col := b.board.Columns[c]
	cw := b.colWidth()

	lines := []string{b.renderColumnHeader(col, cw)}

	target, dropping := b.Target()
	dropping = dropping && target.Column == col.ID

	vis := b.visibleSlots()
	for s := 0; s < vis; s++ {
		i := b.offset[c] + s
		switch {
		case i < len(col.Issues):
			lines = append(lines, b.renderCard(col, i, dropping && target.Index == i, cw))
		case i == len(col.Issues) && dropping && target.Index == i:
			lines = append(lines, b.renderDropSlot(cw))
		case i == 0:
			lines = append(lines, t.MutedText.Render(padRight("  No issues", cw)))
		}
		if i >= len(col.Issues) {
			break
		}
	}

	return t.Renderer.NewStyle().
		Width(cw).
		Height(b.columnHeight()).
		MaxHeight(b.columnHeight()).
		Render(strings.Join(lines, "\n"))
}

func (b BoardModel) renderColumnHeader(col model.Column, cw int) string {
	t := b.theme
	glyph, color := t.ColumnGlyph(col.ID)

	left := t.Renderer.NewStyle().Foreground(color).Render(glyph) + " " +
		t.HeaderText.Render(col.Title) + " " +
		t.MutedText.Render(fmt.Sprintf("%d", len(col.Issues)))
	if col.ID == model.ColumnDone {
		left += " " + t.MutedText.Render("All")
	}
	return joinSpread(left, t.MutedText.Render("⋯ +"), cw)
}

// highlighted reports whether a card gets the due-soon glow.
func (b BoardModel) highlighted(col model.ColumnID, issue model.Issue) bool {
	return issue.HasDueDate() && b.cfg.Highlights(col) && classify.IsDueSoon(issue.DueDate, b.now)
}

func (b BoardModel) renderCard(col model.Column, row int, isTarget bool, cw int) string {
	t := b.theme
	issue := col.Issues[row]
	inner := cw - 4
	glow := b.highlighted(col.ID, issue)

	isSource := b.Dragging() && b.drag.source.Column == col.ID && b.drag.source.Index == row
	selected := !b.Dragging() && b.columnIndex(col.ID) == b.focusedCol && b.selectedRow[b.focusedCol] == row

	style := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1).
		Width(cw - 2).
		Height(3)

	switch {
	case isTarget:
		style = style.Border(lipgloss.ThickBorder()).BorderForeground(t.DropTarget)
	case selected:
		style = style.BorderForeground(t.Primary)
	case glow:
		style = style.BorderForeground(t.Glow)
	}

	id := t.MutedText.Render(truncate(issue.ID, inner))
	title := t.Title.Render(truncate(issue.Title, inner))
	meta := b.renderMeta(issue, glow, inner)

	body := lipgloss.JoinVertical(lipgloss.Left, id, title, meta)
	if isSource {
		body = t.DragGhost.Render(body)
		if !isTarget {
			style = style.Border(lipgloss.NormalBorder()).BorderForeground(t.Secondary)
		}
	}
	return style.Render(body)
}

// renderMeta builds the due badge and tag chips, dropping chips that do
// not fit in width cells.
func (b BoardModel) renderMeta(issue model.Issue, glow bool, width int) string {
	t := b.theme
	var out strings.Builder
	used := 0

	add := func(text string, style lipgloss.Style) bool {
		w := runewidth.StringWidth(text)
		sep := 0
		if used > 0 {
			sep = 1
		}
		if used+sep+w > width {
			if used+sep+1 <= width {
				out.WriteString(strings.Repeat(" ", sep) + t.MutedText.Render("…"))
				used += sep + 1
			}
			return false
		}
		out.WriteString(strings.Repeat(" ", sep) + style.Render(text))
		used += sep + w
		return true
	}

	if issue.HasDueDate() {
		badge := t.MutedText
		if glow {
			badge = t.Renderer.NewStyle().Foreground(t.DueSoon).Background(ThemeBg(t.DueBadgeBg)).Bold(true)
		}
		if !add("◷ "+issue.DueDate, badge) {
			return out.String()
		}
	}
	for _, tag := range issue.Tags {
		chip := IconGlyph(classify.TagIcon(tag)) + " " + tag
		if !add(chip, t.ChipStyle(classify.TagColor(tag))) {
			break
		}
	}
	return out.String()
}

func (b BoardModel) renderDropSlot(cw int) string {
	t := b.theme
	return t.Renderer.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(t.DropTarget).
		Foreground(t.DropTarget).
		Padding(0, 1).
		Width(cw - 2).
		Height(3).
		Align(lipgloss.Center, lipgloss.Center).
		Render("drop here")
}
