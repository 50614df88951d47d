package testutil

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/kanban/pkg/model"
)

// AssertIssueCount verifies the expected number of issues on the board.
func AssertIssueCount(t *testing.T, b model.Board, expected int) {
	t.Helper()
	if got := b.IssueCount(); got != expected {
		t.Errorf("expected %d issues, got %d", expected, got)
	}
}

// AssertNoDuplicateIDs verifies all issue IDs are unique across columns.
func AssertNoDuplicateIDs(t *testing.T, b model.Board) {
	t.Helper()
	seen := make(map[string]model.ColumnID)
	for _, col := range b.Columns {
		for _, issue := range col.Issues {
			if prev, ok := seen[issue.ID]; ok {
				t.Errorf("duplicate issue ID %s in %s and %s", issue.ID, prev, col.ID)
			}
			seen[issue.ID] = col.ID
		}
	}
}

// AssertValid verifies the board passes model validation.
func AssertValid(t *testing.T, b model.Board) {
	t.Helper()
	if err := b.Validate(); err != nil {
		t.Errorf("board invalid: %v", err)
	}
}

// AssertColumnOrder verifies the exact issue order of one column.
func AssertColumnOrder(t *testing.T, b model.Board, col model.ColumnID, want ...string) {
	t.Helper()
	for _, c := range b.Columns {
		if c.ID != col {
			continue
		}
		got := ColumnIDs(c)
		if len(got) == 0 && len(want) == 0 {
			return
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s = %v, want %v", col, got, want)
		}
		return
	}
	t.Errorf("column %s not found", col)
}

// AssertIssueIn verifies which column holds an issue.
func AssertIssueIn(t *testing.T, b model.Board, id string, col model.ColumnID) {
	t.Helper()
	c, _, ok := b.FindIssue(id)
	if !ok {
		t.Errorf("issue %s not found", id)
		return
	}
	if got := b.Columns[c].ID; got != col {
		t.Errorf("issue %s in %s, want %s", id, got, col)
	}
}

// AssertSameIssues verifies two boards hold the same set of issue IDs,
// regardless of placement.
func AssertSameIssues(t *testing.T, before, after model.Board) {
	t.Helper()
	a, b := GetIDs(before), GetIDs(after)
	slices.Sort(a)
	slices.Sort(b)
	if !slices.Equal(a, b) {
		t.Errorf("issue set changed:\nbefore: %v\nafter:  %v", a, b)
	}
}

// AssertColumnCounts verifies per-column sizes in board order.
func AssertColumnCounts(t *testing.T, b model.Board, want ...int) {
	t.Helper()
	got := make([]int, len(b.Columns))
	for i, col := range b.Columns {
		got[i] = len(col.Issues)
	}
	if !slices.Equal(got, want) {
		t.Errorf("column counts = %v, want %v", got, want)
	}
}

// Seed file helpers

// WriteSeedFile writes the board as a JSON seed file and returns its path.
func WriteSeedFile(t *testing.T, dir string, b model.Board) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	path := filepath.Join(dir, "board.json")
	if err := os.WriteFile(path, []byte(ToJSON(b)), 0o644); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}
	return path
}

// ReadBoardJSON parses a board previously written with ToJSON.
func ReadBoardJSON(t *testing.T, data []byte) model.Board {
	t.Helper()
	var b model.Board
	if err := json.Unmarshal(data, &b); err != nil {
		t.Fatalf("failed to parse board JSON: %v", err)
	}
	return b
}

// Lookup helpers

// FindIssue returns the issue with the given ID, or nil if not found.
func FindIssue(b model.Board, id string) *model.Issue {
	c, r, ok := b.FindIssue(id)
	if !ok {
		return nil
	}
	return &b.Columns[c].Issues[r]
}

// ColumnIDs returns the issue IDs of one column in order.
func ColumnIDs(c model.Column) []string {
	ids := make([]string, len(c.Issues))
	for i, issue := range c.Issues {
		ids[i] = issue.ID
	}
	return ids
}

// GetIDs returns all issue IDs in board order.
func GetIDs(b model.Board) []string {
	ids := make([]string, 0, b.IssueCount())
	for _, col := range b.Columns {
		ids = append(ids, ColumnIDs(col)...)
	}
	return ids
}

// IssueID generates a standard test issue ID with the given index.
// Format: "test-{index}" for consistency across tests.
func IssueID(index int) string {
	return "test-" + strconv.Itoa(index)
}
