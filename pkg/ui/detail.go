package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/kanban/pkg/export"
	"github.com/vanderheijden86/kanban/pkg/model"
)

const minDetailWidth = 30

// detailPanel shows the selected issue as rendered markdown.
type detailPanel struct {
	vp       viewport.Model
	renderer *glamour.TermRenderer
	wrap     int
	issueID  string
}

func newDetailPanel() detailPanel {
	return detailPanel{vp: viewport.New(minDetailWidth, 10)}
}

func (d *detailPanel) setSize(width, height int) {
	d.vp.Width = width
	d.vp.Height = height
}

// setIssue re-renders the panel. The glamour renderer is rebuilt only
// when the wrap width changes.
func (d *detailPanel) setIssue(issue *model.Issue, col model.ColumnID, now time.Time, glow bool) {
	if issue == nil {
		d.issueID = ""
		d.vp.SetContent("No issue selected")
		return
	}

	wrap := d.vp.Width - 2
	if wrap < 10 {
		wrap = 10
	}
	if d.renderer == nil || d.wrap != wrap {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			d.vp.SetContent(fmt.Sprintf("Error creating markdown renderer: %v", err))
			return
		}
		d.renderer = r
		d.wrap = wrap
	}

	rendered, err := d.renderer.Render(export.IssueMarkdown(*issue, col, now, glow))
	if err != nil {
		d.vp.SetContent(fmt.Sprintf("Error rendering markdown: %v", err))
		return
	}
	if d.issueID != issue.ID {
		d.vp.GotoTop()
	}
	d.issueID = issue.ID
	d.vp.SetContent(strings.TrimRight(rendered, "\n "))
}

func (d detailPanel) View() string { return d.vp.View() }
