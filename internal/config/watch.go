package config

import (
	"errors"
	"os"
	"sync"

	"github.com/knadh/koanf/providers/file"
)

// Watcher reloads the configuration when one of its files changes.
type Watcher struct {
	paths     []string
	onChange  func(*Config, error)
	mu        sync.Mutex
	providers []*file.File
}

// Watch starts watching the default config files. See WatchFrom.
func Watch(onChange func(*Config, error)) (*Watcher, error) {
	return WatchFrom(onChange, getConfigPaths()...)
}

// WatchFrom calls onChange with the freshly loaded configuration, built from
// all paths like LoadFrom, each time one of the existing files is written.
// Files that do not exist yet are not watched. onChange runs on the watcher's
// goroutine.
func WatchFrom(onChange func(*Config, error), paths ...string) (*Watcher, error) {
	w := &Watcher{paths: paths, onChange: onChange}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		p := file.Provider(path)
		if err := p.Watch(w.reload); err != nil {
			_ = w.Close()
			return nil, err
		}
		w.providers = append(w.providers, p)
	}
	return w, nil
}

// Watching returns the number of files being watched.
func (w *Watcher) Watching() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.providers)
}

func (w *Watcher) reload(_ any, err error) {
	if err != nil {
		w.onChange(nil, err)
		return
	}
	w.onChange(LoadFrom(w.paths...))
}

// Close stops all file watches.
func (w *Watcher) Close() error {
	w.mu.Lock()
	providers := w.providers
	w.providers = nil
	w.mu.Unlock()

	var errs []error
	for _, p := range providers {
		errs = append(errs, p.Unwatch())
	}
	return errors.Join(errs...)
}
