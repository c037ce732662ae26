package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"accentscope/internal/acquire"
	"accentscope/internal/analysis"
	"accentscope/internal/logging"
	"accentscope/internal/services"
)

const minPollInterval = 50 * time.Millisecond

// Analyzer runs one analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req acquire.Request, progress analysis.ProgressFunc) (analysis.Report, error)
}

// Outcome is the result of analyzing one dropped file.
type Outcome struct {
	Path   string
	Report analysis.Report
	Err    error
}

// Options configure a Watcher.
type Options struct {
	Dir        string
	Settle     time.Duration
	Extensions []string
	// Existing queues files already present when Run starts.
	Existing bool
}

// Watcher turns file drops into analyses.
type Watcher struct {
	opts     Options
	analyzer Analyzer
	logger   *slog.Logger
	now      func() time.Time
}

// New constructs a Watcher.
func New(opts Options, analyzer Analyzer, logger *slog.Logger) *Watcher {
	if opts.Settle <= 0 {
		opts.Settle = 2 * time.Second
	}
	return &Watcher{
		opts:     opts,
		analyzer: analyzer,
		logger:   logging.NewComponentLogger(logger, "watcher"),
		now:      time.Now,
	}
}

// Run blocks until ctx is canceled, invoking emit after each analysis.
func (w *Watcher) Run(ctx context.Context, emit func(Outcome)) error {
	info, err := os.Stat(w.opts.Dir)
	if err != nil {
		return fmt.Errorf("watch dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch dir: %s is not a directory", w.opts.Dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			w.logger.Warn("failed to close watcher", logging.Error(err))
		}
	}()
	if err := watcher.Add(w.opts.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.opts.Dir, err)
	}
	w.logger.Info("watching for media", logging.String("dir", w.opts.Dir), logging.Duration("settle", w.opts.Settle))

	pending := newPendingSet()
	if w.opts.Existing {
		if err := w.queueExisting(pending); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(max(w.opts.Settle/4, minPollInterval))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("fsnotify watcher closed")
			}
			w.observe(pending, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("fsnotify watcher closed")
			}
			logging.WarnWithContext(w.logger, "watch error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some file events may be missed"),
			)
		case <-ticker.C:
			for _, path := range pending.ready(w.now(), w.opts.Settle) {
				if ctx.Err() != nil {
					return nil
				}
				outcome := w.process(ctx, path)
				if errors.Is(outcome.Err, context.Canceled) {
					return nil
				}
				if emit != nil {
					emit(outcome)
				}
			}
		}
	}
}

func (w *Watcher) observe(pending *pendingSet, event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		pending.drop(event.Name)
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		if !w.accepts(event.Name) {
			return
		}
		pending.touch(event.Name, w.now())
	}
}

func (w *Watcher) queueExisting(pending *pendingSet) error {
	entries, err := os.ReadDir(w.opts.Dir)
	if err != nil {
		return fmt.Errorf("list %s: %w", w.opts.Dir, err)
	}
	// Backdate so existing files are ready on the first tick.
	at := w.now().Add(-w.opts.Settle)
	for _, entry := range entries {
		path := filepath.Join(w.opts.Dir, entry.Name())
		if entry.Type().IsRegular() && w.accepts(path) {
			pending.touch(path, at)
		}
	}
	return nil
}

func (w *Watcher) accepts(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".part") {
		return false
	}
	if len(w.opts.Extensions) == 0 {
		return true
	}
	ext := acquire.Extension(name)
	for _, allowed := range w.opts.Extensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

func (w *Watcher) process(ctx context.Context, path string) Outcome {
	ctx = services.WithSource(ctx, "watch")
	logger := logging.WithContext(ctx, w.logger).With(logging.String("path", path))

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Outcome{Path: path, Err: services.Wrap(services.ErrAcquisition, "acquire", "watch", "file disappeared before analysis", err)}
		}
		return Outcome{Path: path, Err: services.Wrap(services.ErrAcquisition, "acquire", "watch", "open dropped file", err)}
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return Outcome{Path: path, Err: services.Wrap(services.ErrAcquisition, "acquire", "watch", "stat dropped file", err)}
	}

	logger.Info("analyzing dropped file", logging.Int64("bytes", info.Size()))
	report, err := w.analyzer.Analyze(ctx, acquire.Request{Upload: &acquire.Upload{
		Filename: filepath.Base(path),
		Size:     info.Size(),
		Body:     file,
	}}, nil)
	return Outcome{Path: path, Report: report, Err: err}
}

type pendingSet struct {
	seen  map[string]time.Time
	order map[string]int
	next  int
}

func newPendingSet() *pendingSet {
	return &pendingSet{seen: make(map[string]time.Time), order: make(map[string]int)}
}

func (p *pendingSet) touch(path string, at time.Time) {
	if _, ok := p.order[path]; !ok {
		p.order[path] = p.next
		p.next++
	}
	p.seen[path] = at
}

func (p *pendingSet) drop(path string) {
	delete(p.seen, path)
	delete(p.order, path)
}

// ready removes and returns paths quiet for at least settle, oldest first.
func (p *pendingSet) ready(now time.Time, settle time.Duration) []string {
	var out []string
	for path, last := range p.seen {
		if now.Sub(last) >= settle {
			out = append(out, path)
		}
	}
	sort.Slice(out, func(i, j int) bool { return p.order[out[i]] < p.order[out[j]] })
	for _, path := range out {
		p.drop(path)
	}
	return out
}
