package export

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/vanderheijden86/kanban/pkg/classify"
	"github.com/vanderheijden86/kanban/pkg/model"
)

// Package-level compiled regex for slug creation (avoids recompilation per call)
var slugNonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9]+`)

// HighlightFunc reports whether due-soon issues in a column are called out.
type HighlightFunc func(model.ColumnID) bool

// GenerateMarkdown creates a markdown report of the board, one section
// per column in board order.
func GenerateMarkdown(b model.Board, title string, now time.Time, highlight HighlightFunc) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("*Generated: %s*\n\n", now.Format(time.RFC1123)))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Column | Issues | Due soon |\n|--------|--------|----------|\n")
	total, totalSoon := 0, 0
	for _, col := range b.Columns {
		soon := 0
		for _, issue := range col.Issues {
			if dueSoon(col.ID, issue, now, highlight) {
				soon++
			}
		}
		total += len(col.Issues)
		totalSoon += soon
		sb.WriteString(fmt.Sprintf("| %s | %d | %d |\n", col.Title, len(col.Issues), soon))
	}
	sb.WriteString(fmt.Sprintf("| **Total** | %d | %d |\n\n", total, totalSoon))

	// Precompute stable, unique slugs for TOC anchors and headings.
	slugCounts := make(map[string]int, total)
	slugs := make(map[string]string, total)
	for _, col := range b.Columns {
		for _, issue := range col.Issues {
			slugs[issue.ID] = uniqueSlug(createSlug(issueHeadingText(issue)), slugCounts)
		}
	}

	// Table of Contents
	sb.WriteString("## Table of Contents\n\n")
	for _, col := range b.Columns {
		if len(col.Issues) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("- %s\n", col.Title))
		for _, issue := range col.Issues {
			sb.WriteString(fmt.Sprintf("  - [%s](#%s)\n", issueHeadingText(issue), slugs[issue.ID]))
		}
	}
	sb.WriteString("\n---\n\n")

	for _, col := range b.Columns {
		sb.WriteString(fmt.Sprintf("## %s\n\n", col.Title))
		if len(col.Issues) == 0 {
			sb.WriteString("*No issues*\n\n")
			continue
		}
		for _, issue := range col.Issues {
			sb.WriteString(fmt.Sprintf("### %s\n\n", issueHeadingText(issue)))
			sb.WriteString(issueFields(issue, col.ID, now, dueSoon(col.ID, issue, now, highlight)))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// IssueMarkdown describes a single issue. Used for the detail panel.
func IssueMarkdown(issue model.Issue, col model.ColumnID, now time.Time, highlight bool) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", issue.ID))
	sb.WriteString(fmt.Sprintf("**%s**\n\n", issue.Title))
	sb.WriteString(issueFields(issue, col, now, highlight))
	return sb.String()
}

func issueFields(issue model.Issue, col model.ColumnID, now time.Time, highlight bool) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("- **Column:** %s\n", col.Title()))

	if issue.HasDueDate() {
		sb.WriteString(fmt.Sprintf("- **Due:** %s\n", describeDue(issue.DueDate, now, highlight)))
	}

	if len(issue.Tags) > 0 {
		tags := make([]string, 0, len(issue.Tags))
		for _, tag := range issue.Tags {
			tags = append(tags, fmt.Sprintf("`%s` _(%s, %s)_", tag, classify.TagIcon(tag), classify.TagColor(tag)))
		}
		sb.WriteString(fmt.Sprintf("- **Tags:** %s\n", strings.Join(tags, ", ")))
	}
	return sb.String()
}

func describeDue(display string, now time.Time, highlight bool) string {
	days, ok := classify.DaysUntil(display, now)
	if !ok {
		return display + " (unrecognized date)"
	}
	var out string
	switch days {
	case 0:
		out = display + " (today)"
	case 1:
		out = display + " (tomorrow)"
	default:
		out = fmt.Sprintf("%s (in %d days)", display, days)
	}
	if highlight {
		out += " ⚠ due soon"
	}
	return out
}

// CountDueSoon counts issues the report flags as due soon.
func CountDueSoon(b model.Board, now time.Time, highlight HighlightFunc) int {
	n := 0
	for _, col := range b.Columns {
		for _, issue := range col.Issues {
			if dueSoon(col.ID, issue, now, highlight) {
				n++
			}
		}
	}
	return n
}

func dueSoon(col model.ColumnID, issue model.Issue, now time.Time, highlight HighlightFunc) bool {
	if !issue.HasDueDate() || (highlight != nil && !highlight(col)) {
		return false
	}
	return classify.IsDueSoon(issue.DueDate, now)
}

func issueHeadingText(i model.Issue) string {
	return fmt.Sprintf("%s %s", i.ID, i.Title)
}

func uniqueSlug(base string, counts map[string]int) string {
	if base == "" {
		base = "section"
	}
	if count, ok := counts[base]; ok {
		count++
		counts[base] = count
		return fmt.Sprintf("%s-%d", base, count)
	}
	counts[base] = 0
	return base
}

// createSlug creates a URL-friendly slug from heading text.
func createSlug(text string) string {
	// Convert to lowercase and replace non-alphanumeric with hyphens
	slug := strings.ToLower(text)
	slug = slugNonAlphanumericRegex.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	return slug
}

// SaveMarkdownToFile writes the board report to filename.
func SaveMarkdownToFile(b model.Board, filename string, now time.Time, highlight HighlightFunc) error {
	md := GenerateMarkdown(b, "Board Report", now, highlight)
	if err := os.WriteFile(filename, []byte(md), 0o644); err != nil {
		return fmt.Errorf("writing markdown report: %w", err)
	}
	return nil
}
