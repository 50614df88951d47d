package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/vanderheijden86/kanban/pkg/board"
	"github.com/vanderheijden86/kanban/pkg/config"
	"github.com/vanderheijden86/kanban/pkg/debug"
	"github.com/vanderheijden86/kanban/pkg/export"
	"github.com/vanderheijden86/kanban/pkg/hooks"
	"github.com/vanderheijden86/kanban/pkg/metrics"
	"github.com/vanderheijden86/kanban/pkg/model"
	"github.com/vanderheijden86/kanban/pkg/seed"
	"github.com/vanderheijden86/kanban/pkg/ui"
	"github.com/vanderheijden86/kanban/pkg/version"
)

const (
	defaultSnapshotWidth  = 120
	defaultSnapshotHeight = 40
	defaultDebugFile      = "kb-debug.log"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options is the parsed command line.
type options struct {
	configPath string
	seedFile   string
	refresh    time.Duration
	noMouse    bool
	snapshot   bool
	width      int
	exportJSON bool
	exportMD   string
	noHooks    bool
	metrics    bool
	version    bool
	help       bool
}

func parseFlags(args []string, stderr io.Writer) (options, *flag.FlagSet, error) {
	var o options
	fs := flag.NewFlagSet("kb", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "Path to config.yaml (default: $XDG_CONFIG_HOME/kb/config.yaml)")
	fs.StringVar(&o.seedFile, "seed", "", "Load the initial board from a .json/.yaml file")
	fs.DurationVar(&o.refresh, "refresh", 0, "Due-date refresh interval (e.g. 30s, 1m)")
	fs.BoolVar(&o.noMouse, "no-mouse", false, "Disable mouse drag-and-drop")
	fs.BoolVar(&o.snapshot, "snapshot", false, "Render one frame to stdout and exit")
	fs.IntVar(&o.width, "width", 0, "Snapshot width in cells (default: terminal width)")
	fs.BoolVar(&o.exportJSON, "export-json", false, "Write the classified board as JSON to stdout and exit")
	fs.StringVar(&o.exportMD, "export-md", "", "Write a markdown board report to file ('-' for stdout) and exit")
	fs.BoolVar(&o.noHooks, "no-hooks", false, "Skip export hooks from hooks.yaml")
	fs.BoolVar(&o.metrics, "metrics", false, "Print operation timings as JSON to stderr on exit")
	fs.BoolVar(&o.version, "version", false, "Show version")
	fs.BoolVar(&o.help, "help", false, "Show help")
	err := fs.Parse(args)
	return o, fs, err
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.help {
		fmt.Fprintln(stdout, "Usage: kb [options]")
		fmt.Fprintln(stdout, "\nA terminal kanban board with drag-and-drop.")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		return 0
	}
	if opts.version {
		fmt.Fprintf(stdout, "kb %s\n", version.Version)
		return 0
	}

	interactive := !opts.snapshot && !opts.exportJSON && opts.exportMD == ""
	if interactive && debug.Enabled() {
		path := os.Getenv("KB_DEBUG_FILE")
		if path == "" {
			path = defaultDebugFile
		}
		f, err := tea.LogToFile(path, "kb")
		if err != nil {
			fmt.Fprintf(stderr, "Error opening debug log: %v\n", err)
			return 1
		}
		defer f.Close()
		debug.SetOutput(f)
	}

	if opts.metrics {
		metrics.SetEnabled(true)
		defer reportMetrics(stderr)
	}

	cfgPath := opts.configPath
	if cfgPath == "" {
		cfgPath = config.ConfigPath()
	}
	cfg, err := loadConfig(cfgPath, opts, stderr)
	if err != nil {
		// Non-fatal: continue with defaults
		fmt.Fprintf(stderr, "Warning: %v (using defaults)\n", err)
	}

	now := time.Now()
	b, err := loadBoard(cfg.Board.SeedFile, now)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	store := board.NewStore(b)
	debug.Log("kb: loaded %d issues", store.Len())

	if opts.exportJSON {
		return runExport(stdout, stderr, exportJob{
			format: "json", path: "-", board: store.Board(), now: now, cfg: cfg,
			hooksDir: hooksDirFor(cfgPath), noHooks: opts.noHooks,
		})
	}
	if opts.exportMD != "" {
		return runExport(stdout, stderr, exportJob{
			format: "markdown", path: opts.exportMD, board: store.Board(), now: now, cfg: cfg,
			hooksDir: hooksDirFor(cfgPath), noHooks: opts.noHooks,
		})
	}

	if opts.snapshot {
		width, height := snapshotSize(opts.width)
		fmt.Fprintln(stdout, ui.RenderSnapshot(store, width, height, now, ui.WithConfig(cfg)))
		return 0
	}

	m := ui.NewModel(store,
		ui.WithConfig(cfg),
		ui.WithConfigPath(cfgPath),
		ui.WithConfigOverrides(opts.applyOverrides),
	)
	defer m.Stop()

	if err := runTUIProgram(m, cfg.MouseEnabled()); err != nil {
		fmt.Fprintf(stderr, "Error running kb: %v\n", err)
		return 1
	}
	return 0
}

// exportJob is one non-interactive export.
type exportJob struct {
	format   string // "json" or "markdown"
	path     string // "-" for stdout
	board    model.Board
	now      time.Time
	cfg      config.Config
	hooksDir string
	noHooks  bool
}

// hooksDirFor is where hooks.yaml lives: next to the config file in use.
func hooksDirFor(cfgPath string) string {
	if cfgPath == "" {
		return ""
	}
	return filepath.Dir(cfgPath)
}

// runExport writes the board report, running any pre/post-export hooks
// configured in hooks.yaml around it.
func runExport(stdout, stderr io.Writer, job exportJob) int {
	hookCtx := hooks.ExportContext{
		ExportPath:   job.path,
		ExportFormat: job.format,
		IssueCount:   job.board.IssueCount(),
		DueSoon:      export.CountDueSoon(job.board, job.now, job.cfg.Highlights),
		Timestamp:    job.now,
	}
	executor, err := hooks.RunHooks(job.hooksDir, hookCtx, job.noHooks)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading hooks: %v\n", err)
		return 1
	}
	if executor != nil {
		defer func() {
			if summary := executor.Summary(); summary != "" {
				fmt.Fprint(stderr, summary)
			}
		}()
		if err := executor.RunPreExport(); err != nil {
			fmt.Fprintf(stderr, "Export cancelled: %v\n", err)
			return 1
		}
	}

	if err := writeExport(stdout, job); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if executor != nil {
		if err := executor.RunPostExport(); err != nil {
			fmt.Fprintf(stderr, "Warning: %v\n", err)
		}
	}
	return 0
}

func writeExport(stdout io.Writer, job exportJob) error {
	switch {
	case job.format == "json":
		return export.WriteJSON(stdout, job.board, job.now)
	case job.path == "-":
		_, err := fmt.Fprint(stdout, export.GenerateMarkdown(job.board, "Board Report", job.now, job.cfg.Highlights))
		return err
	default:
		if err := export.SaveMarkdownToFile(job.board, job.path, job.now, job.cfg.Highlights); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote %s\n", job.path)
		return nil
	}
}

// reportMetrics writes the collected timings once the run is over.
func reportMetrics(w io.Writer) {
	for _, s := range metrics.AllTimingStats() {
		debug.Dump("metrics."+s.Name, s)
	}
	if err := metrics.WriteJSON(w); err != nil {
		fmt.Fprintf(w, "Warning: %v\n", err)
	}
}

// applyOverrides forces flag-set values onto cfg. It runs at startup and
// again on every config reload.
func (o options) applyOverrides(cfg *config.Config) {
	if o.refresh != 0 {
		cfg.UI.RefreshInterval = o.refresh
	}
	if o.noMouse {
		off := false
		cfg.UI.Mouse = &off
	}
	if o.seedFile != "" {
		cfg.Board.SeedFile = o.seedFile
	}
}

// loadConfig reads the config file and applies flag overrides. The
// returned config is always usable, even alongside an error.
func loadConfig(path string, opts options, stderr io.Writer) (config.Config, error) {
	var cfg config.Config
	var err error
	if path == "" {
		cfg = config.DefaultConfig()
	} else {
		cfg, err = config.LoadFrom(path)
	}
	opts.applyOverrides(&cfg)

	for _, w := range cfg.Normalize() {
		fmt.Fprintf(stderr, "Warning: %s\n", w)
	}
	return cfg, err
}

func loadBoard(seedFile string, now time.Time) (model.Board, error) {
	if seedFile == "" {
		return seed.Default(now), nil
	}
	b, err := seed.LoadFile(seedFile)
	if err != nil {
		return model.Board{}, fmt.Errorf("loading seed file: %w", err)
	}
	return b, nil
}

// snapshotSize picks the frame size: the flag, then the terminal, then a default.
func snapshotSize(flagWidth int) (int, int) {
	width, height := defaultSnapshotWidth, defaultSnapshotHeight
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && h > 0 {
		width, height = w, h
	}
	if flagWidth > 0 {
		width = flagWidth
	}
	return width, height
}

func runTUIProgram(m ui.Model, mouse bool) error {
	progOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	}
	if mouse {
		progOpts = append(progOpts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(m, progOpts...)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated runs: set KB_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("KB_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
