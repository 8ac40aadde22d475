// Package cli — watch.go implements the --watch mode of "embargo check".
//
// Watch mode keeps the process alive, re-running the full check whenever
// a Python source file or boundary config under the application root
// changes. fsnotify does not watch recursively, so every directory in the
// tree gets its own watch, and directories created later are added as
// their create events arrive.
package cli

import (
	"context"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mmr-tortoise/embargo/internal/model"
	"github.com/mmr-tortoise/embargo/internal/modpath"
	"github.com/mmr-tortoise/embargo/internal/policy"
)

// debounceDelay batches bursts of file-system events (editors typically
// emit several per save) into a single re-run.
const debounceDelay = 250 * time.Millisecond

// watchLoop runs the check once, then re-runs it on every relevant
// change until interrupted. The process exits with the code of the most
// recent run, so a Ctrl-C after a failing pass still fails the shell.
func watchLoop(ctx context.Context, root string, runOnce func(context.Context) (model.ExitCode, error)) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return model.WrapCLIError(model.ExitUsageError, "failed to start file watcher", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watchTree(watcher, root); err != nil {
		return model.WrapCLIError(model.ExitUsageError, "failed to watch source tree", err)
	}

	lastCode, err := runOnce(ctx)
	if err != nil {
		return err
	}

	// The debounce timer starts stopped; relevant events reset it, and
	// only its expiry triggers a re-run.
	debounce := time.NewTimer(debounceDelay)
	if !debounce.Stop() {
		<-debounce.C
	}

	VerboseLog("Watching %s for changes", root)
	for {
		select {
		case <-ctx.Done():
			return exitError(lastCode)

		case event, ok := <-watcher.Events:
			if !ok {
				return exitError(lastCode)
			}
			// A new directory must be watched before anything inside
			// it changes.
			if event.Op.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = watchTree(watcher, event.Name)
				}
			}
			if relevantChange(event.Name) {
				VerboseLog("Change detected: %s", event.Name)
				debounce.Reset(debounceDelay)
			}

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return exitError(lastCode)
			}
			VerboseLog("Watcher error: %v", watchErr)

		case <-debounce.C:
			lastCode, err = runOnce(ctx)
			if err != nil {
				return err
			}
		}
	}
}

// watchTree registers watches for dir and every non-ignored directory
// below it.
func watchTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && modpath.IgnoredDir(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
}

// relevantChange reports whether a changed path can affect the check
// outcome: Python sources, boundary configs, and nothing else.
func relevantChange(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, ".py") || base == policy.ConfigFileName
}
