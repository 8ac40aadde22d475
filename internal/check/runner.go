package check

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mmr-tortoise/embargo/internal/model"
	"github.com/mmr-tortoise/embargo/internal/modpath"
	"github.com/mmr-tortoise/embargo/internal/policy"
	"github.com/mmr-tortoise/embargo/internal/pysrc"
)

// Runner coordinates one full checker pass: per-file import extraction
// and violation checking fan out over a bounded worker pool, and all
// results funnel into a single collector.
type Runner struct {
	root      string
	workers   int
	extractor *pysrc.Extractor
	checker   *Checker
}

// NewRunner prepares a run rooted at the given application root.
// workers bounds the parallelism; values below 1 fall back to the number
// of CPUs.
//
// The top-level module set is read once, sequentially, before any worker
// starts — together with the memoized policy resolver it is the only
// state the workers share, and the workers treat both as read-mostly.
func NewRunner(root string, workers int) (*Runner, error) {
	root = filepath.Clean(root)
	local, err := modpath.TopLevelModules(root)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Runner{
		root:      root,
		workers:   workers,
		extractor: pysrc.NewExtractor(),
		checker:   NewChecker(root, policy.NewResolver(root), local),
	}, nil
}

// Run checks every file and returns the aggregated report. files must be
// absolute paths under the application root (the modpath.Discover
// contract).
//
// Per-file problems never abort the run: an unreadable or unparseable
// file degrades to a ParseFailure, a malformed config to a ConfigError,
// and all remaining results are still collected. The returned error is
// reserved for context cancellation.
func (r *Runner) Run(ctx context.Context, files []string) (*model.Report, error) {
	col := newCollector(r.root)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r.checkFile(gctx, file, col)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := col.report()
	report.Sort()
	return report, nil
}

// checkFile runs extraction and checking for a single source file,
// recording outcomes in the collector.
func (r *Runner) checkFile(ctx context.Context, file string, col *collector) {
	rel := r.rel(file)

	src, err := os.ReadFile(file)
	if err != nil {
		// No retry policy: an unreadable file is a per-file failure,
		// not a process abort.
		col.addParseFailure(rel, err.Error())
		return
	}

	consumer, err := modpath.ModuleForFile(file, r.root)
	if err != nil {
		col.addParseFailure(rel, err.Error())
		return
	}

	imports, err := r.extractor.Imports(ctx, src, rel)
	if err != nil {
		col.addParseFailure(rel, err.Error())
		return
	}

	for _, imported := range imports {
		violations, errs := r.checker.CheckImport(file, consumer, imported)
		col.addViolations(violations)
		for _, err := range errs {
			col.addConfigError(err)
		}
	}
}

func (r *Runner) rel(file string) string {
	rel, err := filepath.Rel(r.root, file)
	if err != nil {
		return file
	}
	return rel
}

// collector is the append-only, thread-safe sink the workers write to.
// It is the only shared mutable state of a run.
type collector struct {
	root string

	mu            sync.Mutex
	violations    []model.Violation
	parseFailures []model.ParseFailure
	configErrors  map[string]model.ConfigError // dedup by config path
}

func newCollector(root string) *collector {
	return &collector{root: root, configErrors: make(map[string]model.ConfigError)}
}

func (c *collector) addViolations(violations []model.Violation) {
	if len(violations) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.violations = append(c.violations, violations...)
}

func (c *collector) addParseFailure(file, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parseFailures = append(c.parseFailures, model.ParseFailure{File: file, Message: message})
}

// addConfigError records a broken config file once, no matter how many
// imports resolved through it. Errors that are not config parse failures
// are recorded under their full message so nothing is silently dropped.
func (c *collector) addConfigError(err error) {
	path := err.Error()
	message := err.Error()
	var pe *policy.ParseError
	if errors.As(err, &pe) {
		message = pe.Err.Error()
		if rel, relErr := filepath.Rel(c.root, pe.Path); relErr == nil {
			path = rel
		} else {
			path = pe.Path
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.configErrors[path]; !ok {
		c.configErrors[path] = model.ConfigError{ConfigPath: path, Message: message}
	}
}

func (c *collector) report() *model.Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	report := &model.Report{
		// Empty slice, not nil: JSON output must show [] for a clean run.
		Violations:    make([]model.Violation, 0, len(c.violations)),
		ParseFailures: c.parseFailures,
	}
	report.Violations = append(report.Violations, c.violations...)
	for _, ce := range c.configErrors {
		report.ConfigErrors = append(report.ConfigErrors, ce)
	}
	return report
}
