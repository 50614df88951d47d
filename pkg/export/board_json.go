// Package export renders the board for consumption outside the TUI.
package export

import (
	"fmt"
	"io"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/kanban/pkg/classify"
	"github.com/vanderheijden86/kanban/pkg/model"
)

// BoardDoc is the JSON shape written by WriteJSON.
type BoardDoc struct {
	GeneratedAt time.Time   `json:"generated_at"`
	Columns     []ColumnDoc `json:"columns"`
}

// ColumnDoc is one column with its classified issues.
type ColumnDoc struct {
	ID     model.ColumnID `json:"id"`
	Title  string         `json:"title"`
	Count  int            `json:"count"`
	Issues []IssueDoc     `json:"issues"`
}

// IssueDoc carries an issue plus its computed display classification.
type IssueDoc struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	DueDate   string   `json:"due_date,omitempty"`
	DueSoon   bool     `json:"due_soon"`
	DaysUntil *int     `json:"days_until,omitempty"`
	Tags      []TagDoc `json:"tags"`
}

// TagDoc is a tag with its icon and palette token.
type TagDoc struct {
	Name  string              `json:"name"`
	Icon  string              `json:"icon"`
	Color classify.ColorToken `json:"color"`
}

// BuildDoc classifies every issue on b relative to now.
func BuildDoc(b model.Board, now time.Time) BoardDoc {
	doc := BoardDoc{GeneratedAt: now, Columns: make([]ColumnDoc, 0, len(b.Columns))}
	for _, col := range b.Columns {
		cd := ColumnDoc{ID: col.ID, Title: col.Title, Count: len(col.Issues), Issues: make([]IssueDoc, 0, len(col.Issues))}
		for _, issue := range col.Issues {
			id := IssueDoc{
				ID:      issue.ID,
				Title:   issue.Title,
				DueDate: issue.DueDate,
				Tags:    make([]TagDoc, 0, len(issue.Tags)),
			}
			if issue.HasDueDate() {
				id.DueSoon = classify.IsDueSoon(issue.DueDate, now)
				if days, ok := classify.DaysUntil(issue.DueDate, now); ok {
					id.DaysUntil = &days
				}
			}
			for _, tag := range issue.Tags {
				id.Tags = append(id.Tags, TagDoc{
					Name:  tag,
					Icon:  classify.TagIcon(tag).String(),
					Color: classify.TagColor(tag),
				})
			}
			cd.Issues = append(cd.Issues, id)
		}
		doc.Columns = append(doc.Columns, cd)
	}
	return doc
}

// WriteJSON writes the classified board as indented JSON.
func WriteJSON(w io.Writer, b model.Board, now time.Time) error {
	data, err := json.MarshalIndent(BuildDoc(b, now), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling board: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing board: %w", err)
	}
	return nil
}
