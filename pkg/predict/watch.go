package predict

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the artifact at path whenever it is replaced on disk, until
// ctx is done. Artifacts are saved by rename, so the parent directory is
// watched rather than the file. A failed reload keeps the active artifact.
// The optional callback runs after every reload attempt.
func (p *Predictor) Watch(ctx context.Context, path string, onReload func(error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("error resolving artifact path %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("error watching %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				_, err := p.LoadArtifact(abs)
				if err != nil {
					slog.Warn("artifact reload failed", "path", abs, "error", err)
				} else {
					slog.Info("artifact reloaded", "path", abs)
				}
				if onReload != nil {
					onReload(err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("artifact watcher error", "error", err)
			}
		}
	}()
	return nil
}
