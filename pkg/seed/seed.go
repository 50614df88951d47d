// Package seed provides the board's initial dataset.
//
// The board is seeded exactly once at start-up, either from the built-in
// sample sprint or from a JSON/YAML seed file. Nothing is ever written
// back.
package seed

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/kanban/pkg/classify"
	"github.com/vanderheijden86/kanban/pkg/metrics"
	"github.com/vanderheijden86/kanban/pkg/model"
)

// ErrUnsupportedFormat is returned for seed files that are neither JSON nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported seed file format")

const day = 24 * time.Hour

// Default returns the built-in sample sprint. Due dates are relative to now.
func Default(now time.Time) model.Board {
	due := func(days int) string {
		return classify.FormatDate(now.Add(time.Duration(days) * day))
	}

	b := model.NewEmptyBoard()
	b.Columns[0].Issues = []model.Issue{
		{ID: "PROJ-28", Title: "Research new testing frameworks", Tags: []string{"Research"}, DueDate: due(3)},
		{ID: "PROJ-29", Title: "Update project documentation", Tags: []string{"Documentation"}},
	}
	b.Columns[1].Issues = []model.Issue{
		{ID: "PROJ-49", Title: "Implement user authentication", DueDate: due(2), Tags: []string{"Feature", "Security"}},
		{ID: "PROJ-51", Title: "Optimize database queries", DueDate: due(3), Tags: []string{"Performance"}},
		{ID: "PROJ-32", Title: "Fix login page responsiveness", Tags: []string{"Bug", "UI/UX"}},
		{ID: "PROJ-33", Title: "Add error logging service", Tags: []string{"DevOps"}},
		{ID: "PROJ-26", Title: "Create UI component library", Tags: []string{"UI/UX"}},
	}
	b.Columns[2].Issues = []model.Issue{
		{ID: "PROJ-50", Title: "Refactor API endpoints", Tags: []string{"Refactoring"}},
		{ID: "PROJ-41", Title: "Implement payment gateway", DueDate: due(1), Tags: []string{"Feature", "Integration"}},
		{ID: "PROJ-42", Title: "Write unit tests for user service", Tags: []string{"Testing"}},
	}
	b.Columns[3].Issues = []model.Issue{
		{ID: "PROJ-37", Title: "Set up CI/CD pipeline", Tags: []string{"DevOps"}},
		{ID: "PROJ-27", Title: "Design database schema", Tags: []string{"Database"}},
		{ID: "PROJ-40", Title: "Implement forgot password functionality", Tags: []string{"Feature"}},
		{ID: "PROJ-25", Title: "Create project roadmap", DueDate: due(-4), Tags: []string{"Planning"}},
		{ID: "PROJ-20", Title: "Set up development environment", Tags: []string{"Setup"}},
	}
	return b
}

// LoadFile reads a seed board from path. The format is chosen by
// extension: .json, or .yaml/.yml.
func LoadFile(path string) (model.Board, error) {
	defer metrics.Timer(metrics.SeedLoad)()
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Board{}, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes seed data. ext selects the decoder (".json", ".yaml", ".yml").
// Columns missing from the file are added empty; the result always has the
// four fixed columns in their fixed order.
func Parse(data []byte, ext string) (model.Board, error) {
	var raw model.Board
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return model.Board{}, fmt.Errorf("parsing seed JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return model.Board{}, fmt.Errorf("parsing seed YAML: %w", err)
		}
	default:
		return model.Board{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if err := raw.Validate(); err != nil {
		return model.Board{}, fmt.Errorf("invalid seed board: %w", err)
	}
	return normalize(raw), nil
}

// normalize reorders columns into the fixed order, filling gaps and
// default titles.
func normalize(raw model.Board) model.Board {
	out := model.NewEmptyBoard()
	for i := range out.Columns {
		col, _ := raw.Column(out.Columns[i].ID)
		if col == nil {
			continue
		}
		if col.Title != "" {
			out.Columns[i].Title = col.Title
		}
		out.Columns[i].Issues = col.Issues
	}
	return out
}
