// Package board holds the in-memory board state and applies relocations.
//
// The Store is the only writer of board state. Readers get deep copies, so
// a renderer holding a Board from an earlier frame never observes a
// half-applied move.
package board

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vanderheijden86/kanban/pkg/classify"
	"github.com/vanderheijden86/kanban/pkg/debug"
	"github.com/vanderheijden86/kanban/pkg/metrics"
	"github.com/vanderheijden86/kanban/pkg/model"
)

// Relocation errors reported by Apply.
var (
	ErrUnknownColumn   = errors.New("unknown column")
	ErrIndexOutOfRange = errors.New("source index out of range")
	ErrNoDestination   = errors.New("no destination")
)

// Location addresses a slot in a column. For a destination, Index is an
// insertion position.
type Location struct {
	Column model.ColumnID
	Index  int
}

// Move describes a finished drag gesture. A nil Dest means the gesture
// was cancelled.
type Move struct {
	Source Location
	Dest   *Location
}

// MoveTo is shorthand for a move with a destination.
func MoveTo(srcCol model.ColumnID, srcIdx int, dstCol model.ColumnID, dstIdx int) Move {
	return Move{
		Source: Location{Column: srcCol, Index: srcIdx},
		Dest:   &Location{Column: dstCol, Index: dstIdx},
	}
}

// Store owns a Board.
type Store struct {
	mu    sync.RWMutex
	board model.Board
	clock func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used by RefreshDueDates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.clock = now
		}
	}
}

// NewStore takes a private copy of b.
func NewStore(b model.Board, opts ...Option) *Store {
	s := &Store{board: b.Clone(), clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Board returns a deep copy of the current board.
func (s *Store) Board() model.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board.Clone()
}

// Column returns a copy of one column.
func (s *Store) Column(id model.ColumnID) (model.Column, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, _ := s.board.Column(id)
	if col == nil {
		return model.Column{}, false
	}
	c := model.Board{Columns: []model.Column{*col}}.Clone()
	return c.Columns[0], true
}

// Len returns the total number of issues on the board.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board.IssueCount()
}

// Find returns the location of an issue by ID.
func (s *Store) Find(issueID string) (Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, row, ok := s.board.FindIssue(issueID)
	if !ok {
		return Location{}, false
	}
	return Location{Column: s.board.Columns[col].ID, Index: row}, true
}

// MoveIssue applies a drag result. Invalid or cancelled moves leave the
// board untouched. It returns true when the order actually changed.
func (s *Store) MoveIssue(m Move) bool {
	changed, err := s.apply(m)
	if err != nil {
		debug.Log("board: ignored move %s: %v", describe(m), err)
		return false
	}
	return changed
}

// Apply is MoveIssue with the failure reason reported instead of
// swallowed. A rejected move still leaves the board untouched.
func (s *Store) Apply(m Move) error {
	_, err := s.apply(m)
	return err
}

func (s *Store) apply(m Move) (bool, error) {
	defer metrics.Timer(metrics.StoreMove)()
	if m.Dest == nil {
		return false, ErrNoDestination
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src, _ := s.board.Column(m.Source.Column)
	if src == nil {
		return false, fmt.Errorf("%w: %q", ErrUnknownColumn, m.Source.Column)
	}
	dst, _ := s.board.Column(m.Dest.Column)
	if dst == nil {
		return false, fmt.Errorf("%w: %q", ErrUnknownColumn, m.Dest.Column)
	}
	if m.Source.Index < 0 || m.Source.Index >= len(src.Issues) {
		return false, fmt.Errorf("%w: %d (column %q has %d)", ErrIndexOutOfRange, m.Source.Index, src.ID, len(src.Issues))
	}

	// Fresh backing arrays: copies handed out earlier must not see the splice.
	moved := src.Issues[m.Source.Index]
	remaining := make([]model.Issue, 0, len(src.Issues)-1)
	remaining = append(remaining, src.Issues[:m.Source.Index]...)
	remaining = append(remaining, src.Issues[m.Source.Index+1:]...)
	src.Issues = remaining

	at := clamp(m.Dest.Index, 0, len(dst.Issues))
	inserted := make([]model.Issue, 0, len(dst.Issues)+1)
	inserted = append(inserted, dst.Issues[:at]...)
	inserted = append(inserted, moved)
	inserted = append(inserted, dst.Issues[at:]...)
	dst.Issues = inserted

	changed := src != dst || at != m.Source.Index
	debug.LogIf(changed, "board: moved %s to %s[%d]", moved.ID, dst.ID, at)
	return changed, nil
}

// RefreshDueDates rewrites every stored due date in canonical display
// form. It never touches column membership or order and leaves malformed
// strings as they are. It returns the number of rewritten strings.
func (s *Store) RefreshDueDates() int {
	defer metrics.Timer(metrics.DueDateRefresh)()
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	rewritten := 0
	for c := range s.board.Columns {
		issues := s.board.Columns[c].Issues
		var fresh []model.Issue
		for r, issue := range issues {
			if !issue.HasDueDate() {
				continue
			}
			canon, ok := classify.Canonical(issue.DueDate, now)
			if !ok || canon == issue.DueDate {
				continue
			}
			if fresh == nil {
				fresh = append([]model.Issue(nil), issues...)
			}
			fresh[r].DueDate = canon
			rewritten++
		}
		if fresh != nil {
			s.board.Columns[c].Issues = fresh
		}
	}
	debug.LogIf(rewritten > 0, "board: reformatted %d due dates", rewritten)
	return rewritten
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func describe(m Move) string {
	if m.Dest == nil {
		return fmt.Sprintf("%s[%d] -> (cancelled)", m.Source.Column, m.Source.Index)
	}
	return fmt.Sprintf("%s[%d] -> %s[%d]", m.Source.Column, m.Source.Index, m.Dest.Column, m.Dest.Index)
}
