package ingestion

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// Watch ingests matching files under root as they are created or written,
// until ctx is cancelled. Directories created after Watch starts are watched
// too. Events are batched: a run starts once no event has arrived for the
// pipeline's debounce interval.
//
// A failed run is logged and does not stop the watch. Rewriting a file
// ingests it again as a new document.
func (p *Pipeline) Watch(ctx context.Context, root, source string) error {
	if root == "" {
		return ErrRootRequired
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", root, ErrNotDirectory)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addRecursive(watcher, root); err != nil {
		return err
	}
	p.logger.Info("watching", "root", root, "pattern", p.pattern, "debounce", p.debounce)

	pending := make(map[string]struct{})
	timer := time.NewTimer(p.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("watch stopped", "root", root)
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
				// files may land in a new directory before it is watched
				if err := addRecursive(watcher, event.Name); err != nil {
					p.logger.Warn("failed to watch directory", "path", event.Name, "err", err)
				}
				files, err := p.Discover(root)
				if err != nil {
					p.logger.Warn("failed to scan directory", "path", event.Name, "err", err)
					continue
				}
				prefix := event.Name + string(filepath.Separator)
				for _, f := range files {
					if strings.HasPrefix(f, prefix) {
						pending[f] = struct{}{}
					}
				}
				timer.Reset(p.debounce)
				continue
			}

			if p.matches(root, event.Name) {
				pending[event.Name] = struct{}{}
				timer.Reset(p.debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Error("watch error", "err", err)

		case <-timer.C:
			p.flush(ctx, root, source, pending)
			clear(pending)
		}
	}
}

func (p *Pipeline) flush(ctx context.Context, root, source string, pending map[string]struct{}) {
	files := make([]string, 0, len(pending))
	for path := range pending {
		// removed or renamed away before the batch ran
		if fi, err := os.Stat(path); err != nil || !fi.Mode().IsRegular() {
			continue
		}
		files = append(files, path)
	}
	if len(files) == 0 {
		return
	}
	slices.Sort(files)

	if _, err := p.IngestFiles(ctx, root, source, files); err != nil {
		p.logger.Error("watch ingestion failed", "files", len(files), "err", err)
	}
}

// matches reports whether path, relative to root, matches the pipeline's pattern.
func (p *Pipeline) matches(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	ok, err := doublestar.Match(p.pattern, filepath.ToSlash(rel))
	return err == nil && ok
}

func addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
