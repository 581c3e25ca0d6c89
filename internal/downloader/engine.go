package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	apperrors "ttscraper/pkg/errors"
	"ttscraper/pkg/logger"
	"ttscraper/pkg/models"
	"ttscraper/pkg/ratelimit"
	"ttscraper/pkg/storage"
)

// Fetcher opens a media stream
type Fetcher interface {
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// Store places downloaded files on disk
type Store interface {
	Dir(author string) (string, error)
	EnsureDir(dir string) error
	Snapshot(dir string) (storage.Snapshot, error)
	Save(dir, name string, r io.Reader) (int64, error)
}

// Reporter receives every task outcome as soon as it is known.
// It may be called from several goroutines at once.
type Reporter interface {
	Report(result TaskResult)
}

// Outcome is the final state of one download task
type Outcome string

const (
	OutcomeDownloaded Outcome = "downloaded"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeFailed     Outcome = "failed"
)

// Task is one item with its resolved destination
type Task struct {
	Item models.Item
	Dir  string
	Path string
}

// TaskResult is the outcome of one Task
type TaskResult struct {
	Task     Task
	Outcome  Outcome
	Bytes    int64
	Duration time.Duration
	Err      error
}

// BatchResult collects every task outcome of one DownloadBatch call
type BatchResult struct {
	Results []TaskResult
}

// Count returns how many tasks ended with outcome
func (r BatchResult) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Err joins the errors of all failed tasks, or returns nil
func (r BatchResult) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			label := res.Task.Path
			if label == "" {
				label = res.Task.Item.Filename()
			}
			errs = append(errs, fmt.Errorf("%s: %w", label, res.Err))
		}
	}
	return errors.Join(errs...)
}

// Options tunes an Engine. The zero value fans out without bound and
// without pacing.
type Options struct {
	// MaxConcurrent bounds in-flight fetches when positive
	MaxConcurrent int
	// Limiter paces fetch starts when non-nil
	Limiter ratelimit.Limiter
	// Reporter receives per-task outcomes when non-nil
	Reporter Reporter
}

// Engine downloads batches of items into per-author directories
type Engine struct {
	fetcher  Fetcher
	store    Store
	sem      *semaphore.Weighted
	limiter  ratelimit.Limiter
	reporter Reporter
	logger   logger.Logger
}

// NewEngine creates a download engine
func NewEngine(fetcher Fetcher, store Store, opts Options, log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetLogger()
	}

	e := &Engine{
		fetcher:  fetcher,
		store:    store,
		limiter:  opts.Limiter,
		reporter: opts.Reporter,
		logger:   log.WithField("component", "downloader"),
	}
	if opts.MaxConcurrent > 0 {
		e.sem = semaphore.NewWeighted(int64(opts.MaxConcurrent))
	}
	return e
}

// DownloadBatch downloads every item not already on disk and returns once
// all of them have finished. Each destination directory is created if
// needed and listed once; items whose file is in that listing are skipped.
// A failing task never cancels its siblings.
func (e *Engine) DownloadBatch(ctx context.Context, items []models.Item) BatchResult {
	results := make([]TaskResult, len(items))
	snapshots := make(map[string]storage.Snapshot)
	dirErrs := make(map[string]error)
	claimed := make(map[string]bool)

	var wg sync.WaitGroup
	for i, item := range items {
		task, err := e.destination(item)
		if err != nil {
			results[i] = e.finish(task, OutcomeFailed, 0, 0, err)
			continue
		}
		dir := task.Dir

		snap, seen := snapshots[dir]
		if !seen && dirErrs[dir] == nil {
			snap, err = e.snapshot(dir)
			if err != nil {
				dirErrs[dir] = err
			} else {
				snapshots[dir] = snap
			}
		}

		switch {
		case dirErrs[dir] != nil:
			results[i] = e.finish(task, OutcomeFailed, 0, 0, dirErrs[dir])
			continue
		case snap.Has(item.Filename()) || claimed[task.Path]:
			results[i] = e.finish(task, OutcomeSkipped, 0, 0, nil)
			continue
		}
		claimed[task.Path] = true

		wg.Add(1)
		go func(i int, task Task) {
			defer wg.Done()
			results[i] = e.run(ctx, task)
		}(i, task)
	}
	wg.Wait()

	return BatchResult{Results: results}
}

// destination places item under its author's directory. Items whose author,
// id or format would resolve outside that directory are rejected.
func (e *Engine) destination(item models.Item) (Task, error) {
	task := Task{Item: item}
	dir, err := e.store.Dir(item.AuthorHandle)
	if err != nil {
		return task, apperrors.New(apperrors.ErrorTypeFilesystem, err, "%v", err)
	}
	task.Dir = dir
	name := item.Filename()
	if !models.IsPathElement(name) {
		return task, apperrors.New(apperrors.ErrorTypeFilesystem, nil, "%q is not a valid file name", name)
	}
	task.Path = filepath.Join(dir, name)
	return task, nil
}

// snapshot ensures dir exists and lists it
func (e *Engine) snapshot(dir string) (storage.Snapshot, error) {
	if err := e.store.EnsureDir(dir); err != nil {
		return nil, apperrors.New(apperrors.ErrorTypeFilesystem, err, "%v", err)
	}
	snap, err := e.store.Snapshot(dir)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrorTypeFilesystem, err, "%v", err)
	}
	return snap, nil
}

// run fetches one task and streams it to disk
func (e *Engine) run(ctx context.Context, task Task) TaskResult {
	start := time.Now()

	if e.sem != nil {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			return e.finish(task, OutcomeFailed, 0, time.Since(start), err)
		}
		defer e.sem.Release(1)
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return e.finish(task, OutcomeFailed, 0, time.Since(start), err)
		}
	}

	body, err := e.fetcher.Open(ctx, task.Item.DownloadURL)
	if err != nil {
		return e.finish(task, OutcomeFailed, 0, time.Since(start), err)
	}
	defer body.Close()

	src := &trackedReader{r: body}
	n, err := e.store.Save(task.Dir, task.Item.Filename(), src)
	if err != nil {
		errType := apperrors.ErrorTypeFilesystem
		if src.err != nil {
			errType = apperrors.ErrorTypeNetwork
		}
		return e.finish(task, OutcomeFailed, n, time.Since(start), apperrors.New(errType, err, "%v", err))
	}

	return e.finish(task, OutcomeDownloaded, n, time.Since(start), nil)
}

// finish logs and reports a task result
func (e *Engine) finish(task Task, outcome Outcome, n int64, d time.Duration, err error) TaskResult {
	result := TaskResult{Task: task, Outcome: outcome, Bytes: n, Duration: d, Err: err}

	logger.LogDownload(e.logger, task.Item.AuthorHandle, task.Item.Filename(), string(outcome), n, d, err)
	if e.reporter != nil {
		e.reporter.Report(result)
	}
	return result
}

// trackedReader remembers the first read error so a broken stream can be
// told apart from a failed write
type trackedReader struct {
	r   io.Reader
	err error
}

func (t *trackedReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}
