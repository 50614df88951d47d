// Package testutil provides board fixture generators and assertions for tests.
// All generators produce deterministic output for reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/kanban/pkg/classify"
	"github.com/vanderheijden86/kanban/pkg/model"
)

// BoardFixture is a described board, the format used by seed files in tests.
type BoardFixture struct {
	Description string      `json:"description"`
	Board       model.Board `json:"board"`
}

// GeneratorConfig controls issue generation.
type GeneratorConfig struct {
	Seed     int64     // Random seed for determinism (0 = use current time)
	IDPrefix string    // Prefix for issue IDs (default: "TEST")
	BaseTime time.Time // Reference for due dates (default: fixed time)
	TagPool  []string  // Tags to sample from (nil = no tags)
	DueRatio float64   // Fraction of issues with a due date
	MaxDue   int       // Due dates fall within [0, MaxDue] days of BaseTime
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:     42, // Deterministic
		IDPrefix: "TEST",
		BaseTime: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		TagPool:  []string{"Bug", "Feature", "Documentation", "Performance", "UI/UX"},
		DueRatio: 0.5,
		MaxDue:   14,
	}
}

// Generator creates board fixtures.
type Generator struct {
	cfg  GeneratorConfig
	rng  *rand.Rand
	next int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.BaseTime.IsZero() {
		cfg.BaseTime = DefaultConfig().BaseTime
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "TEST"
	}
	if cfg.MaxDue <= 0 {
		cfg.MaxDue = 14
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Board builds a board with counts[i] issues in the i-th column. Missing
// counts leave the column empty; extra counts are ignored.
func (g *Generator) Board(counts ...int) BoardFixture {
	b := model.NewEmptyBoard()
	total := 0
	for i := range b.Columns {
		if i >= len(counts) {
			break
		}
		b.Columns[i].Issues = g.issues(counts[i])
		total += counts[i]
	}
	return BoardFixture{
		Description: fmt.Sprintf("Board with %d issues across %v", total, counts),
		Board:       b,
	}
}

// Spread distributes total issues across the columns at random.
func (g *Generator) Spread(total int) BoardFixture {
	counts := make([]int, len(model.ColumnIDs()))
	for range total {
		counts[g.rng.Intn(len(counts))]++
	}
	fx := g.Board(counts...)
	fx.Description = fmt.Sprintf("Random spread of %d issues: %v", total, counts)
	return fx
}

// Crowded puts every issue into one column, for scroll and clamp tests.
func (g *Generator) Crowded(col model.ColumnID, n int) BoardFixture {
	b := model.NewEmptyBoard()
	for i := range b.Columns {
		if b.Columns[i].ID == col {
			b.Columns[i].Issues = g.issues(n)
		}
	}
	return BoardFixture{
		Description: fmt.Sprintf("%d issues in %s", n, col),
		Board:       b,
	}
}

func (g *Generator) issues(n int) []model.Issue {
	if n <= 0 {
		return []model.Issue{}
	}
	out := make([]model.Issue, n)
	for i := range out {
		g.next++
		out[i] = model.Issue{
			ID:      fmt.Sprintf("%s-%d", g.cfg.IDPrefix, g.next),
			Title:   fmt.Sprintf("Generated issue %d", g.next),
			DueDate: g.pickDue(),
			Tags:    g.pickTags(),
		}
	}
	return out
}

func (g *Generator) pickDue() string {
	if g.cfg.DueRatio <= 0 || g.rng.Float64() >= g.cfg.DueRatio {
		return ""
	}
	days := g.rng.Intn(g.cfg.MaxDue + 1)
	return classify.FormatDate(g.cfg.BaseTime.AddDate(0, 0, days))
}

func (g *Generator) pickTags() []string {
	if len(g.cfg.TagPool) == 0 {
		return nil
	}
	n := g.rng.Intn(3) // 0-2 tags
	seen := make(map[string]bool, n)
	var tags []string
	for range n {
		tag := g.cfg.TagPool[g.rng.Intn(len(g.cfg.TagPool))]
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// ToJSON serializes a board in the seed file format.
func ToJSON(b model.Board) string {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal board: %v", err))
	}
	return string(data)
}

// ============================================================================
// Quick helpers
// ============================================================================

// QuickBoard returns a default-generated board with the given column counts.
func QuickBoard(counts ...int) model.Board {
	return NewDefault().Board(counts...).Board
}

// QuickSpread returns a default-generated board with total issues.
func QuickSpread(total int) model.Board {
	return NewDefault().Spread(total).Board
}

// Empty returns a board with all four columns and no issues.
func Empty() model.Board {
	return model.NewEmptyBoard()
}

// Single returns a board with one issue in the first column.
func Single() model.Board {
	b := model.NewEmptyBoard()
	b.Columns[0].Issues = []model.Issue{{ID: IssueID(0), Title: "Single issue"}}
	return b
}
