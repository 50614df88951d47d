// Package model defines the board data model: issues, the four fixed
// workflow columns, and the board that orders them.
package model

import (
	"errors"
	"fmt"
)

// ColumnID identifies one of the fixed workflow columns.
type ColumnID string

const (
	ColumnBacklog    ColumnID = "backlog"
	ColumnTodo       ColumnID = "todo"
	ColumnInProgress ColumnID = "inProgress"
	ColumnDone       ColumnID = "done"
)

// ColumnIDs returns the fixed column order of every board.
func ColumnIDs() []ColumnID {
	return []ColumnID{ColumnBacklog, ColumnTodo, ColumnInProgress, ColumnDone}
}

// Valid reports whether id is one of the fixed columns.
func (c ColumnID) Valid() bool {
	switch c {
	case ColumnBacklog, ColumnTodo, ColumnInProgress, ColumnDone:
		return true
	}
	return false
}

// Title returns the default display title for the column.
func (c ColumnID) Title() string {
	switch c {
	case ColumnBacklog:
		return "Backlog"
	case ColumnTodo:
		return "To Do"
	case ColumnInProgress:
		return "In Progress"
	case ColumnDone:
		return "Done"
	default:
		return string(c)
	}
}

// Issue is a single card on the board.
type Issue struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	// DueDate is the year-agnostic display form ("Jun. 12"); empty means none.
	DueDate string   `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	Tags    []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// HasDueDate reports whether the issue carries a due date.
func (i Issue) HasDueDate() bool {
	return i.DueDate != ""
}

// Column is an ordered bucket of issues for one workflow stage.
type Column struct {
	ID     ColumnID `json:"id" yaml:"id"`
	Title  string   `json:"title" yaml:"title"`
	Issues []Issue  `json:"issues" yaml:"issues"`
}

// Board is the ordered collection of columns.
type Board struct {
	Columns []Column `json:"columns" yaml:"columns"`
}

// Validation errors.
var (
	ErrUnknownColumn   = errors.New("unknown column")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrDuplicateIssue  = errors.New("duplicate issue id")
	ErrEmptyIssueID    = errors.New("empty issue id")
)

// Validate checks the board invariants: known, unique column IDs and
// board-wide unique, non-empty issue IDs.
func (b Board) Validate() error {
	seenCols := make(map[ColumnID]bool, len(b.Columns))
	seenIssues := make(map[string]ColumnID)
	for _, col := range b.Columns {
		if !col.ID.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, col.ID)
		}
		if seenCols[col.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, col.ID)
		}
		seenCols[col.ID] = true

		for _, issue := range col.Issues {
			if issue.ID == "" {
				return fmt.Errorf("%w in column %q", ErrEmptyIssueID, col.ID)
			}
			if prev, ok := seenIssues[issue.ID]; ok {
				return fmt.Errorf("%w: %q (columns %q and %q)", ErrDuplicateIssue, issue.ID, prev, col.ID)
			}
			seenIssues[issue.ID] = col.ID
		}
	}
	return nil
}

// Clone returns a deep copy so callers never alias the original slices.
func (b Board) Clone() Board {
	out := Board{Columns: make([]Column, len(b.Columns))}
	for i, col := range b.Columns {
		c := Column{ID: col.ID, Title: col.Title}
		if col.Issues != nil {
			c.Issues = make([]Issue, len(col.Issues))
			for j, issue := range col.Issues {
				c.Issues[j] = issue.clone()
			}
		}
		out.Columns[i] = c
	}
	return out
}

func (i Issue) clone() Issue {
	if i.Tags != nil {
		i.Tags = append([]string(nil), i.Tags...)
	}
	return i
}

// Column returns a pointer to the column with the given ID and its
// position, or (nil, -1).
func (b *Board) Column(id ColumnID) (*Column, int) {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			return &b.Columns[i], i
		}
	}
	return nil, -1
}

// FindIssue locates an issue by ID.
func (b Board) FindIssue(id string) (col, row int, ok bool) {
	for c, column := range b.Columns {
		for r, issue := range column.Issues {
			if issue.ID == id {
				return c, r, true
			}
		}
	}
	return -1, -1, false
}

// IssueCount returns the number of issues across all columns.
func (b Board) IssueCount() int {
	n := 0
	for _, col := range b.Columns {
		n += len(col.Issues)
	}
	return n
}

// NewEmptyBoard returns a board with the four fixed columns and no issues.
func NewEmptyBoard() Board {
	ids := ColumnIDs()
	b := Board{Columns: make([]Column, len(ids))}
	for i, id := range ids {
		b.Columns[i] = Column{ID: id, Title: id.Title()}
	}
	return b
}
