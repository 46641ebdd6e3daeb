// Package watcher reports changes to the model files under one or more model
// directories, with debouncing.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/nodekit/internal/log"
	"github.com/zjrosen/nodekit/internal/pubsub"
	"github.com/zjrosen/nodekit/internal/sources"
)

// Change lists the models whose text changed during one debounce window.
type Change struct {
	Projects []string
	Typekits []string
}

// Empty reports whether no model changed.
func (c Change) Empty() bool {
	return len(c.Projects) == 0 && len(c.Typekits) == 0
}

// Watcher monitors model directories and sends a Change per burst of writes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dirs      []string
	debounce  time.Duration
	events    *pubsub.Broker[Change]
	onChange  chan Change
	done      chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	Dirs        []string // model directories, each holding projects/ and typekits/
	DebounceDur time.Duration
	Events      *pubsub.Broker[Change] // optional, receives a ChangedEvent per Change
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(dirs ...string) Config {
	return Config{
		Dirs:        dirs,
		DebounceDur: 200 * time.Millisecond,
	}
}

// New creates a new model directory watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		dirs:      cfg.Dirs,
		debounce:  cfg.DebounceDur,
		events:    cfg.Events,
		onChange:  make(chan Change, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching the projects/ and typekits/ directories of every
// model directory. Missing subdirectories are skipped. Returns a channel
// that receives the changed model names.
func (w *Watcher) Start() (<-chan Change, error) {
	watched := 0
	for _, dir := range w.dirs {
		for _, sub := range []string{sources.ProjectsDir, sources.TypekitsDir} {
			path := filepath.Join(dir, sub)
			if info, err := os.Stat(path); err != nil || !info.IsDir() {
				log.Debug(log.CatWatcher, "skipping missing model directory", "path", path)
				continue
			}
			if err := w.fsWatcher.Add(path); err != nil {
				return nil, fmt.Errorf("watching directory %s: %w", path, err)
			}
			watched++
		}
	}
	if watched == 0 {
		return nil, fmt.Errorf("no %s or %s directory under %s", sources.ProjectsDir, sources.TypekitsDir, strings.Join(w.dirs, ", "))
	}
	log.Info(log.CatWatcher, "watching model directories", "dirs", strings.Join(w.dirs, ","), "count", watched)

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending = newPendingChange()
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			kind, name, ok := classify(event)
			if !ok {
				continue
			}
			pending.add(kind, name)

			// Reset or start debounce timer
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			change := pending.flush()
			if change.Empty() {
				continue
			}
			log.Debug(log.CatWatcher, "model files changed",
				"projects", strings.Join(change.Projects, ","), "typekits", strings.Join(change.Typekits, ","))
			if w.events != nil {
				w.events.Publish(pubsub.ChangedEvent, change)
			}
			w.deliver(change)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watch error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// deliver hands change to the consumer. An undelivered change still waiting
// in the channel is merged with the new one rather than dropped.
func (w *Watcher) deliver(change Change) {
	select {
	case w.onChange <- change:
		return
	default:
	}
	merged := newPendingChange()
	select {
	case old := <-w.onChange:
		merged.addAll(old)
	default:
	}
	merged.addAll(change)
	select {
	case w.onChange <- merged.flush():
	default:
	}
}

// classify maps an event on a model file to the model kind and name.
func classify(event fsnotify.Event) (kind, name string, ok bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return "", "", false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return "", "", false
	}
	switch filepath.Base(filepath.Dir(event.Name)) {
	case sources.ProjectsDir:
		for _, ext := range []string{".yml", ".yaml", ".hcl"} {
			if n, found := strings.CutSuffix(base, ext); found && n != "" {
				return sources.ProjectsDir, n, true
			}
		}
	case sources.TypekitsDir:
		for _, suffix := range []string{".registry.yml", ".typelist.yml"} {
			if n, found := strings.CutSuffix(base, suffix); found && n != "" {
				return sources.TypekitsDir, n, true
			}
		}
	}
	return "", "", false
}

type pendingChange struct {
	projects map[string]struct{}
	typekits map[string]struct{}
}

func newPendingChange() *pendingChange {
	return &pendingChange{projects: map[string]struct{}{}, typekits: map[string]struct{}{}}
}

func (p *pendingChange) add(kind, name string) {
	if kind == sources.ProjectsDir {
		p.projects[name] = struct{}{}
	} else {
		p.typekits[name] = struct{}{}
	}
}

func (p *pendingChange) addAll(c Change) {
	for _, n := range c.Projects {
		p.add(sources.ProjectsDir, n)
	}
	for _, n := range c.Typekits {
		p.add(sources.TypekitsDir, n)
	}
}

func (p *pendingChange) flush() Change {
	c := Change{Projects: sortedKeys(p.projects), Typekits: sortedKeys(p.typekits)}
	clear(p.projects)
	clear(p.typekits)
	return c
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
