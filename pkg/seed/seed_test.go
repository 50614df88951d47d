package seed

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vanderheijden86/kanban/pkg/classify"
	"github.com/vanderheijden86/kanban/pkg/model"
)

func TestDefault(t *testing.T) {
	now := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
	b := Default(now)

	if err := b.Validate(); err != nil {
		t.Fatalf("default board invalid: %v", err)
	}
	if len(b.Columns) != 4 {
		t.Fatalf("expected 4 columns, got %d", len(b.Columns))
	}
	if n := b.IssueCount(); n != 15 {
		t.Errorf("expected 15 issues, got %d", n)
	}

	wantCounts := map[model.ColumnID]int{
		model.ColumnBacklog:    2,
		model.ColumnTodo:       5,
		model.ColumnInProgress: 3,
		model.ColumnDone:       5,
	}
	for _, col := range b.Columns {
		if got := len(col.Issues); got != wantCounts[col.ID] {
			t.Errorf("column %s: %d issues, want %d", col.ID, got, wantCounts[col.ID])
		}
	}

	c, r, ok := b.FindIssue("PROJ-41")
	if !ok {
		t.Fatal("PROJ-41 missing")
	}
	issue := b.Columns[c].Issues[r]
	if issue.DueDate != "Jun. 11" {
		t.Errorf("PROJ-41 due = %q, want Jun. 11", issue.DueDate)
	}
	if !classify.IsDueSoon(issue.DueDate, now) {
		t.Error("PROJ-41 should be due soon")
	}

	c, r, _ = b.FindIssue("PROJ-25")
	if classify.IsDueSoon(b.Columns[c].Issues[r].DueDate, now) {
		t.Error("PROJ-25 was due four days ago and should roll to next year")
	}
}

func TestParse_JSON(t *testing.T) {
	data := []byte(`{"columns":[
		{"id":"done","issues":[{"id":"X-2","title":"shipped"}]},
		{"id":"todo","title":"Next up","issues":[{"id":"X-1","title":"plan","due_date":"Sept. 3","tags":["Bug"]}]}
	]}`)

	b, err := Parse(data, ".json")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if b.Columns[0].ID != model.ColumnBacklog || len(b.Columns[0].Issues) != 0 {
		t.Errorf("missing backlog should be added empty, got %+v", b.Columns[0])
	}
	if b.Columns[1].Title != "Next up" {
		t.Errorf("custom title lost: %q", b.Columns[1].Title)
	}
	if b.Columns[3].Title != "Done" {
		t.Errorf("default title not applied: %q", b.Columns[3].Title)
	}
	if got := b.Columns[1].Issues[0]; got.DueDate != "Sept. 3" || got.Tags[0] != "Bug" {
		t.Errorf("issue decoded wrong: %+v", got)
	}
}

func TestParse_YAML(t *testing.T) {
	data := []byte(`
columns:
  - id: inProgress
    issues:
      - id: Y-1
        title: wire it up
        tags: [Feature, Integration]
`)
	b, err := Parse(data, ".yml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := b.Columns[2].Issues; len(got) != 1 || got[0].ID != "Y-1" || len(got[0].Tags) != 2 {
		t.Errorf("unexpected in-progress issues: %+v", got)
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse([]byte(`x`), ".toml"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := Parse([]byte(`{`), ".json"); err == nil {
		t.Error("expected JSON syntax error")
	}
	dup := []byte(`{"columns":[{"id":"todo","issues":[{"id":"A"},{"id":"A"}]}]}`)
	if _, err := Parse(dup, ".json"); !errors.Is(err, model.ErrDuplicateIssue) {
		t.Errorf("expected duplicate issue error, got %v", err)
	}
	unknown := []byte(`{"columns":[{"id":"review"}]}`)
	if _, err := Parse(unknown, ".json"); !errors.Is(err, model.ErrUnknownColumn) {
		t.Errorf("expected unknown column error, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.yaml")
	if err := os.WriteFile(path, []byte("columns:\n  - id: backlog\n    issues:\n      - id: Z-1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	b, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if b.IssueCount() != 1 {
		t.Errorf("expected 1 issue, got %d", b.IssueCount())
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
