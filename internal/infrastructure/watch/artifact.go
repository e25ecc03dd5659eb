// Package watch observes a single artifact on disk and reports debounced
// change events, so a review can be re-run on every save.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeKind classifies how the artifact changed on disk.
type ChangeKind string

const (
	KindCreate ChangeKind = "create"
	KindWrite  ChangeKind = "write"
)

// ChangeEvent is one observed change to the watched artifact.
type ChangeEvent struct {
	Path string
	Kind ChangeKind
}

// ArtifactWatcher watches one artifact file and fires onChange after a quiet
// window. Editors commonly save by writing a temp file and renaming it over
// the original, so the watcher observes the parent directory and keeps only
// events whose base name matches the artifact.
type ArtifactWatcher struct {
	path     string
	debounce time.Duration
	onChange func(ChangeEvent)
}

// NewArtifactWatcher creates a watcher for one artifact path.
func NewArtifactWatcher(path string, debounce time.Duration, onChange func(ChangeEvent)) (*ArtifactWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve artifact path: %w", err)
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &ArtifactWatcher{path: abs, debounce: debounce, onChange: onChange}, nil
}

// Run watches the artifact's directory until the context is cancelled or the
// watcher fails.
func (w *ArtifactWatcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	debouncer := NewDebouncer(w.debounce, w.onChange)
	defer debouncer.Stop()

	base := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			kind, ok := classify(event.Op)
			if !ok {
				continue
			}
			debouncer.Observe(ChangeEvent{Path: w.path, Kind: kind})
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// classify keeps the operations that leave new artifact content on disk.
// An atomic save surfaces as a create of the artifact name; removes, renames
// away, and chmods leave nothing to review.
func classify(op fsnotify.Op) (ChangeKind, bool) {
	switch {
	case op.Has(fsnotify.Write):
		return KindWrite, true
	case op.Has(fsnotify.Create):
		return KindCreate, true
	default:
		return "", false
	}
}
