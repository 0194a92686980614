package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// Watch reports changes to the document made by other processes. It blocks
// until ctx is cancelled. Bursts of filesystem events are debounced, and a
// document identical to the last one this backend wrote or read is ignored.
func (b *FileBackend) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: saves replace the file by rename, which drops
	// a watch placed on the file itself.
	if err := watcher.Add(b.dir); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	target := filepath.Base(b.Path())
	debounce := time.NewTimer(watchDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			debounce.Reset(watchDebounce)

		case <-debounce.C:
			data, err := os.ReadFile(b.Path())
			if err != nil && !os.IsNotExist(err) {
				continue
			}
			if b.isOwn(data) {
				continue
			}
			b.remember(data)
			onChange()

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}
