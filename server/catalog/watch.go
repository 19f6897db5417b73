package catalog

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"questline/server/metrics"
)

// Watch reloads the catalog in dir into src whenever one of its YAML files
// changes. A reload that fails to parse or validate keeps the previous
// catalog. Watch blocks until ctx is done.
func Watch(ctx context.Context, dir string, src *Source) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}

	last := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !isCatalogFile(event.Name) {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < 100*time.Millisecond {
				continue
			}
			last[event.Name] = now

			c, err := LoadDir(dir)
			if err != nil {
				log.Printf("CATALOG: reload after %s failed, keeping previous catalog: %v", filepath.Base(event.Name), err)
				metrics.CatalogReloads.WithLabelValues("rejected").Inc()
				continue
			}
			src.Swap(c)
			metrics.CatalogReloads.WithLabelValues("ok").Inc()
			log.Printf("CATALOG: reloaded %d bosses, %d skill trees", len(c.Bosses()), len(c.Trees()))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("CATALOG: watcher error: %v", err)
		}
	}
}

func isCatalogFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
