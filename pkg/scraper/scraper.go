package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ttscraper/internal/downloader"
	"ttscraper/pkg/config"
	apperrors "ttscraper/pkg/errors"
	"ttscraper/pkg/feed"
	"ttscraper/pkg/logger"
	"ttscraper/pkg/models"
	"ttscraper/pkg/scroll"
)

// Stats summarizes one run
type Stats struct {
	Responses              int
	Batches                int
	ClassificationFailures int
	Dropped                int
	Downloaded             int
	Skipped                int
	Failed                 int
	ScrollIterations       int
	Duration               time.Duration
}

// Scraper wires a browser session to the feed normalizer and download engine
type Scraper struct {
	config     *config.Config
	launcher   Launcher
	normalizer *feed.Normalizer
	engine     Downloader
	terminator *scroll.Terminator
	logger     logger.Logger

	mu    sync.Mutex
	stats Stats
}

// New creates a new Scraper instance
func New(cfg *config.Config, launcher Launcher, engine Downloader, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Scraper{
		config:     cfg,
		launcher:   launcher,
		normalizer: feed.NewNormalizer(cfg.Site.APIPrefix, cfg.Site.StateScriptID),
		engine:     engine,
		terminator: scroll.NewTerminator(cfg.Scroll.WindowSize, log),
		logger:     log,
	}
}

// NormalizeHandle trims a profile handle, drops a leading @ and lowercases it
func NormalizeHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	handle = strings.TrimPrefix(handle, "@")
	return strings.ToLower(handle)
}

// ProfileURL returns the profile page URL for handle
func ProfileURL(baseURL, handle string) string {
	return fmt.Sprintf("%s/@%s", strings.TrimRight(baseURL, "/"), handle)
}

// Run opens a session on the profile of handle, scrolls its feed to the end
// and downloads every video observed on the way. The session is closed on
// every path, after the batch in progress has finished. Only session,
// navigation and scroll failures are returned.
func (s *Scraper) Run(ctx context.Context, handle string, headless bool) (stats Stats, err error) {
	handle = NormalizeHandle(handle)
	if handle == "" {
		return Stats{}, errors.New("profile handle is required")
	}

	start := time.Now()
	s.resetStats()
	url := ProfileURL(s.config.Site.BaseURL, handle)
	log := s.logger.WithFields(map[string]interface{}{
		"handle": handle,
		"url":    url,
	})
	logger.LogComponentStart(log, "scraper", map[string]interface{}{
		"headless": headless,
	})

	session, err := s.launcher.Launch(ctx, headless)
	if err != nil {
		return Stats{}, sessionError(err, "failed to open browser session")
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.WithError(cerr).Warn("Failed to close browser session")
			if err == nil {
				err = fmt.Errorf("failed to close browser session: %w", cerr)
			}
		}
		stats = s.Stats()
		stats.Duration = time.Since(start)

		reason := "completed"
		if err != nil {
			reason = err.Error()
			if isFatal(err) {
				log.WithError(err).Error("Run aborted")
			} else {
				log.WithError(err).Warn("Run interrupted")
			}
		}
		logger.LogComponentStop(log, "scraper", reason)
		log.InfoWithFields("Run finished", map[string]interface{}{
			"responses":  stats.Responses,
			"batches":    stats.Batches,
			"downloaded": stats.Downloaded,
			"skipped":    stats.Skipped,
			"failed":     stats.Failed,
			"iterations": stats.ScrollIterations,
			"duration":   stats.Duration,
		})
	}()

	if err := session.Observe(func(resp models.Response) {
		s.HandleResponse(ctx, resp)
	}); err != nil {
		return Stats{}, sessionError(err, "failed to observe responses")
	}

	if err := session.Navigate(ctx, url); err != nil {
		return Stats{}, sessionError(err, "failed to open profile "+handle)
	}

	iterations, err := s.terminator.Run(ctx, session)
	s.mu.Lock()
	s.stats.ScrollIterations = iterations
	s.mu.Unlock()
	if err != nil {
		return Stats{}, sessionError(err, "scrolling stopped")
	}

	return Stats{}, nil
}

// sessionError wraps a failure of the browser session. Errors without a type
// are render failures and end the run; cancellation keeps its own identity.
func sessionError(err error, msg string) error {
	var typed *apperrors.Error
	if errors.As(err, &typed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return apperrors.New(apperrors.ErrorTypeNavigation, err, "%s: %v", msg, err)
}

// isFatal reports whether err carries an error type that aborts a run
func isFatal(err error) bool {
	var typed *apperrors.Error
	return errors.As(err, &typed) && apperrors.IsFatal(typed.Type)
}

// HandleResponse normalizes one response and downloads its items. It never
// fails: classification problems, dropped records, download errors and
// panics are logged and the response is skipped.
func (s *Scraper) HandleResponse(ctx context.Context, resp models.Response) {
	log := s.logger.WithField("response_url", resp.URL)
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(map[string]interface{}{
				"panic":      fmt.Sprint(r),
				"error_type": apperrors.ErrorTypeUnknown,
			}).Error("Response handler panicked")
		}
	}()

	s.count(func(st *Stats) { st.Responses++ })

	batch, err := s.normalizer.Process(resp)
	if err != nil {
		s.count(func(st *Stats) { st.ClassificationFailures++ })
		fields := map[string]interface{}{
			"source":     string(batch.Source),
			"error_type": apperrors.ErrorTypeParsing,
		}
		var cerr *feed.ClassificationError
		if errors.As(err, &cerr) {
			fields["kind"] = string(cerr.Kind)
		}
		log.WithError(err).WithFields(fields).Warn("Feed response could not be parsed")
		return
	}
	if batch.Source == feed.SourceNone {
		return
	}

	for _, d := range batch.Dropped {
		log.DebugWithFields("Record dropped", map[string]interface{}{
			"key":    d.Key,
			"reason": string(d.Reason),
			"detail": d.Detail,
		})
	}
	logger.LogBatch(log, string(batch.Source), resp.URL, len(batch.Items), len(batch.Dropped))
	s.count(func(st *Stats) {
		st.Batches++
		st.Dropped += len(batch.Dropped)
	})

	if batch.Empty() {
		return
	}

	result := s.engine.DownloadBatch(ctx, batch.Items)
	s.count(func(st *Stats) {
		st.Downloaded += result.Count(downloader.OutcomeDownloaded)
		st.Skipped += result.Count(downloader.OutcomeSkipped)
		st.Failed += result.Count(downloader.OutcomeFailed)
	})
	if err := result.Err(); err != nil {
		log.WithError(err).WithField("failed", result.Count(downloader.OutcomeFailed)).Warn("Batch finished with failed downloads")
	}
}

// Stats returns a copy of the current run statistics
func (s *Scraper) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Scraper) resetStats() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = Stats{}
}

func (s *Scraper) count(fn func(*Stats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.stats)
}
