package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"ttscraper/pkg/config"
	apperrors "ttscraper/pkg/errors"
	"ttscraper/pkg/logger"
	"ttscraper/pkg/models"
)

// idleWindow is how long the network must stay quiet for the idle load state
const idleWindow = 500 * time.Millisecond

// Options configures a browser session
type Options struct {
	Headless   bool
	Stealth    bool
	UserAgent  string
	Locale     string
	Bin        string
	StepPixels float64
	LoadState  string
	Filter     *RequestFilter
}

// OptionsFromConfig builds session options from the loaded configuration
func OptionsFromConfig(cfg *config.Config, headless bool) Options {
	return Options{
		Headless:   headless,
		Stealth:    cfg.Browser.Stealth,
		UserAgent:  cfg.Browser.UserAgent,
		Locale:     cfg.Browser.Locale,
		Bin:        cfg.Browser.Bin,
		StepPixels: cfg.Scroll.StepPixels,
		LoadState:  strings.ToLower(cfg.Scroll.LoadState),
		Filter:     NewRequestFilter(cfg.Site.TelemetryURL),
	}
}

// Session is one browser with one page driving a profile feed
type Session struct {
	opts     Options
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	router   *rod.HijackRouter
	logger   logger.Logger

	observeCancel context.CancelFunc
	observeDone   chan struct{}
	closeOnce     sync.Once
	closeErr      error
}

// Launch starts a browser, opens a page and installs the request filter
func Launch(ctx context.Context, opts Options, log logger.Logger) (*Session, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	s := &Session{opts: opts, logger: log.WithField("component", "browser")}

	l := launcher.New().Context(ctx).Headless(opts.Headless)
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, apperrors.New(apperrors.ErrorTypeNavigation, err, "failed to launch browser: %v", err)
	}
	s.launcher = l

	s.browser = rod.New().ControlURL(controlURL)
	if err := s.browser.Connect(); err != nil {
		s.launcher.Kill()
		return nil, apperrors.New(apperrors.ErrorTypeNavigation, err, "failed to connect to browser: %v", err)
	}

	if err := s.openPage(); err != nil {
		s.Close()
		return nil, err
	}

	s.logger.DebugWithFields("Browser session started", map[string]interface{}{
		"headless":   opts.Headless,
		"stealth":    opts.Stealth,
		"load_state": opts.LoadState,
	})
	return s, nil
}

func (s *Session) openPage() error {
	var page *rod.Page
	var err error
	if s.opts.Stealth {
		page, err = stealth.Page(s.browser)
	} else {
		page, err = s.browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return apperrors.New(apperrors.ErrorTypeNavigation, err, "failed to create page: %v", err)
	}
	s.page = page

	if s.opts.UserAgent != "" || s.opts.Locale != "" {
		override := &proto.NetworkSetUserAgentOverride{
			UserAgent:      s.opts.UserAgent,
			AcceptLanguage: acceptLanguage(s.opts.Locale),
		}
		if err := page.SetUserAgent(override); err != nil {
			s.logger.WithError(err).Warn("Failed to set user agent")
		}
	}
	if s.opts.Locale != "" {
		if err := (proto.EmulationSetLocaleOverride{Locale: icuLocale(s.opts.Locale)}).Call(page); err != nil {
			s.logger.WithError(err).Warn("Failed to set locale")
		}
	}

	if s.opts.Filter != nil {
		s.router = page.HijackRequests()
		if err := s.router.Add("*", "", s.filterRequest); err != nil {
			return apperrors.New(apperrors.ErrorTypeNavigation, err, "failed to install request filter: %v", err)
		}
		go s.router.Run()
	}
	return nil
}

func (s *Session) filterRequest(h *rod.Hijack) {
	url := h.Request.URL().String()
	if s.opts.Filter.Blocked(resourceKind(h.Request.Type()), url) {
		h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		return
	}
	h.ContinueRequest(&proto.FetchContinueRequest{})
}

// Observe delivers every completed response to fn, one at a time and in
// arrival order. It must be called once, before Navigate.
func (s *Session) Observe(fn func(models.Response)) error {
	if err := (proto.NetworkEnable{}).Call(s.page); err != nil {
		return apperrors.New(apperrors.ErrorTypeNavigation, err, "failed to enable network events: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.observeCancel = cancel
	s.observeDone = make(chan struct{})

	type pending struct {
		url    string
		status int
		kind   models.ResourceKind
	}
	inflight := make(map[proto.NetworkRequestID]pending)
	page := s.page

	wait := page.Context(ctx).EachEvent(
		func(e *proto.NetworkResponseReceived) {
			if e.Response == nil {
				return
			}
			inflight[e.RequestID] = pending{
				url:    e.Response.URL,
				status: e.Response.Status,
				kind:   resourceKind(e.Type),
			}
		},
		func(e *proto.NetworkLoadingFailed) {
			delete(inflight, e.RequestID)
		},
		func(e *proto.NetworkLoadingFinished) {
			meta, ok := inflight[e.RequestID]
			if !ok {
				return
			}
			delete(inflight, e.RequestID)

			fn(models.Response{
				URL:    meta.url,
				Status: meta.status,
				Kind:   meta.kind,
				Body:   responseBody(page, e.RequestID),
			})
		},
	)

	go func() {
		defer close(s.observeDone)
		wait()
	}()
	return nil
}

// responseBody fetches a response body at most once, on first use
func responseBody(page *rod.Page, id proto.NetworkRequestID) func() ([]byte, error) {
	var once sync.Once
	var body []byte
	var err error
	return func() ([]byte, error) {
		once.Do(func() {
			var res *proto.NetworkGetResponseBodyResult
			res, err = proto.NetworkGetResponseBody{RequestID: id}.Call(page)
			if err != nil {
				return
			}
			if res.Base64Encoded {
				body, err = base64.StdEncoding.DecodeString(res.Body)
				return
			}
			body = []byte(res.Body)
		})
		return body, err
	}
}

// Navigate loads url and waits for the page's load event
func (s *Session) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return apperrors.New(apperrors.ErrorTypeNavigation, err, "failed to navigate to %s: %v", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return apperrors.New(apperrors.ErrorTypeNavigation, err, "page %s did not load: %v", url, err)
	}
	return nil
}

// Advance scrolls one step down and waits for the configured load state
func (s *Session) Advance(ctx context.Context) error {
	page := s.page.Context(ctx)

	var waitIdle func()
	if s.opts.LoadState == config.LoadStateIdle {
		waitIdle = page.WaitRequestIdle(idleWindow, nil, nil, nil)
	}

	if err := page.Mouse.Scroll(0, s.opts.StepPixels, 1); err != nil {
		return apperrors.New(apperrors.ErrorTypeNavigation, err, "scroll failed: %v", err)
	}

	var err error
	switch s.opts.LoadState {
	case config.LoadStateIdle:
		waitIdle()
		err = ctx.Err()
	case config.LoadStateLoad:
		err = page.WaitLoad()
	default:
		err = page.Wait(rod.Eval(`() => document.readyState !== "loading"`))
	}
	if err != nil {
		return apperrors.New(apperrors.ErrorTypeNavigation, err, "wait for %s failed: %v", s.opts.LoadState, err)
	}
	return nil
}

// Offset returns the page's current vertical scroll position
func (s *Session) Offset(ctx context.Context) (int, error) {
	res, err := s.page.Context(ctx).Eval(`() => Math.round(window.scrollY)`)
	if err != nil {
		return 0, apperrors.New(apperrors.ErrorTypeNavigation, err, "failed to read scroll offset: %v", err)
	}
	return res.Value.Int(), nil
}

// Close stops response delivery, waits for the response being handled to
// finish, then shuts the browser down. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.observeCancel != nil {
			s.observeCancel()
			<-s.observeDone
		}
		if s.router != nil {
			if err := s.router.Stop(); err != nil {
				s.logger.WithError(err).Debug("Failed to stop request router")
			}
		}
		if s.browser != nil {
			s.closeErr = s.browser.Close()
		}
		if s.launcher != nil {
			s.launcher.Kill()
			s.launcher.Cleanup()
		}
		s.logger.Debug("Browser session closed")
	})
	return s.closeErr
}

func resourceKind(t proto.NetworkResourceType) models.ResourceKind {
	switch t {
	case proto.NetworkResourceTypeDocument:
		return models.KindDocument
	case proto.NetworkResourceTypeStylesheet:
		return models.KindStylesheet
	case proto.NetworkResourceTypeImage:
		return models.KindImage
	case proto.NetworkResourceTypeMedia:
		return models.KindMedia
	case proto.NetworkResourceTypeFont:
		return models.KindFont
	case proto.NetworkResourceTypeScript:
		return models.KindScript
	case proto.NetworkResourceTypeXHR:
		return models.KindXHR
	case proto.NetworkResourceTypeFetch:
		return models.KindFetch
	case proto.NetworkResourceTypeWebSocket:
		return models.KindWebSocket
	case proto.NetworkResourceTypeEventSource:
		return models.KindEventSource
	default:
		return models.KindOther
	}
}

// icuLocale converts a BCP 47 tag to the form the emulation domain expects
func icuLocale(tag string) string {
	return strings.ReplaceAll(tag, "-", "_")
}

// acceptLanguage builds an Accept-Language value preferring tag
func acceptLanguage(tag string) string {
	if tag == "" {
		return ""
	}
	lang, _, found := strings.Cut(tag, "-")
	if !found {
		return tag
	}
	return fmt.Sprintf("%s,%s;q=0.9", lang, tag)
}
