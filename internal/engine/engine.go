// Package engine wires configuration, identity, consent, event sources
// and transport into one session-scoped telemetry engine.
package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/decktrace/decktrace/internal/clock"
	"github.com/decktrace/decktrace/internal/config"
	"github.com/decktrace/decktrace/internal/consent"
	"github.com/decktrace/decktrace/internal/host"
	"github.com/decktrace/decktrace/internal/identity"
	"github.com/decktrace/decktrace/internal/report"
	"github.com/decktrace/decktrace/internal/track"
	"github.com/decktrace/decktrace/internal/transport"
	"github.com/decktrace/decktrace/internal/util/logger"
)

// Options configures a session engine.
type Options struct {
	// Overrides is the host-supplied configuration, merged over the
	// defaults by config.Resolve.
	Overrides *config.Overrides

	// Host is the presentation runtime adapter. Required.
	Host host.Adapter

	// Banner renders the consent banner. Nil hosts never prompt.
	Banner consent.Presenter

	// StateDir holds the token cookie and local-store files.
	// Defaults to ".decktrace".
	StateDir string

	// HTTPClient is shared by identity calls and report delivery.
	HTTPClient *http.Client

	// Teardown overrides the delivery primitive. Defaults to a Beacon.
	Teardown transport.TeardownTransport

	// ManualTime disables the clocks' tickers; time then advances only
	// through explicit ticks. Used by tests and the simulator.
	ManualTime bool
}

// Engine captures one session and ships one report at teardown.
type Engine struct {
	cfg     *config.Config
	adapter host.Adapter
	banner  consent.Presenter

	agg      *report.Aggregator
	identity *identity.Manager
	consent  *consent.Manager
	teardown transport.TeardownTransport

	sessionClock *clock.Clock
	slideClock   *clock.Clock
	dwell        *track.DwellSource
	sources      []track.Source

	ctx          context.Context
	identityDone chan struct{}
	closeOnce    sync.Once
}

// New resolves the effective configuration and assembles the engine.
// A missing collection endpoint is fatal: the error is returned and no
// event source will ever be registered.
func New(opts Options) (*Engine, error) {
	cfg, err := config.Resolve(opts.Overrides)
	if err != nil {
		return nil, err
	}
	logger.Init(&cfg.Logger)

	stateDir := opts.StateDir
	if stateDir == "" {
		stateDir = ".decktrace"
	}

	client := transport.NewClient(opts.HTTPClient)
	cookie := identity.NewCookieStore(filepath.Join(stateDir, "user_token.cookie"))
	local := identity.NewLocalStore(filepath.Join(stateDir, "user_token"))

	teardown := opts.Teardown
	if teardown == nil {
		teardown = transport.NewBeacon(opts.HTTPClient)
	}

	newClock := clock.New
	if opts.ManualTime {
		newClock = clock.NewManual
	}

	e := &Engine{
		cfg:          cfg,
		adapter:      opts.Host,
		banner:       opts.Banner,
		agg:          report.NewAggregator(true),
		identity:     identity.NewManager(cfg.Identity, cookie, local, client),
		consent:      consent.NewManager(),
		teardown:     teardown,
		sessionClock: newClock(),
		slideClock:   newClock(),
		identityDone: make(chan struct{}),
	}
	e.buildSources(newClock)
	return e, nil
}

func (e *Engine) buildSources(newClock func() *clock.Clock) {
	cfg := e.cfg

	if cfg.DwellTimes.PerSlide {
		e.dwell = track.NewDwellSource(e.agg, e.adapter, e.slideClock)
		e.sources = append(e.sources, e.dwell)
	}
	if cfg.SlideTransitions {
		e.sources = append(e.sources, track.NewTransitionSource(e.agg, e.adapter, e.sessionClock, cfg.Timestamps))
	}
	if cfg.Links.Internal || cfg.Links.External {
		observer, _ := e.adapter.(host.LinkObserver)
		e.sources = append(e.sources, track.NewLinkSource(e.agg, e.adapter, observer, e.sessionClock, cfg.Links, cfg.Timestamps))
	}
	if cfg.Media.Audio || cfg.Media.Video {
		if observer, ok := e.adapter.(host.MediaObserver); ok {
			e.sources = append(e.sources, track.NewMediaSource(e.agg, observer, e.sessionClock, cfg.Media, cfg.Timestamps))
		}
	}
	if cfg.Quiz {
		if observer, ok := e.adapter.(host.QuizObserver); ok {
			quiz := track.NewQuizSource(e.agg, observer, e.sessionClock, cfg.Timestamps)
			quiz.NewClock = newClock
			e.sources = append(e.sources, quiz)
		}
	}
}

// Init registers every event source, kicks off identity resolution and
// hooks the host lifecycle. Capture starts immediately: no behavioral
// data is lost while the user decides about consent.
func (e *Engine) Init(ctx context.Context) {
	e.ctx = ctx

	for _, s := range e.sources {
		s.Attach()
	}

	e.adapter.OnReady(func() {
		e.sessionClock.Start()
		if e.cfg.DwellTimes.PerSlide {
			e.slideClock.Start()
		}
		e.agg.SetMetadata(stripFragment(e.adapter.PresentationURL()), e.adapter.TotalSlides())
	})

	e.adapter.OnTeardown(e.finish)

	go func() {
		defer close(e.identityDone)
		state := e.identity.Load(ctx)
		if state == identity.Valid {
			// Returning user who already opted in.
			e.consent.Give()
			return
		}
		e.consent.ShowBanner(e.banner, e.cfg.ConsentBanner, func() {
			if e.identity.State() != identity.Valid {
				e.identity.Issue(e.ctx)
			}
		})
	}()
}

// WaitIdentity blocks until identity resolution (and, when applicable,
// the banner prompt) has run, or ctx expires.
func (e *Engine) WaitIdentity(ctx context.Context) error {
	select {
	case <-e.identityDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GiveConsent records consent programmatically on behalf of the host.
func (e *Engine) GiveConsent() { e.consent.Give() }

// RevokeConsent withdraws consent; delivery is suppressed even if the
// report was already assembled.
func (e *Engine) RevokeConsent() { e.consent.Revoke() }

// ConsentGiven reports the consent flag.
func (e *Engine) ConsentGiven() bool { return e.consent.Given() }

// SessionClock exposes the session-global clock for manual ticking.
func (e *Engine) SessionClock() *clock.Clock { return e.sessionClock }

// SlideClock exposes the per-slide clock for manual ticking.
func (e *Engine) SlideClock() *clock.Clock { return e.slideClock }

// finish runs on host teardown: flush the pending dwell data, finalize
// the report and hand it to the teardown transport. It never waits on
// pending asynchronous work.
func (e *Engine) finish() {
	e.closeOnce.Do(func() {
		if e.dwell != nil {
			e.dwell.FlushFinal()
		}
		if e.cfg.DwellTimes.Total {
			e.agg.Merge(report.Event{
				Kind:           report.KindTotalDwellTime,
				TotalDwellTime: e.sessionClock.String(),
			})
		}
		e.agg.Merge(report.Event{
			Kind:          report.KindEnd,
			FinalProgress: report.Float(e.adapter.Progress()),
		})

		token, ok := e.identity.Token()
		rep := e.agg.Finalize(token)

		if !e.consent.Given() {
			logger.Warnf("engine: consent not given, dropping session report")
			return
		}
		if !ok {
			logger.Warnf("engine: delivering report without user token")
		}

		payload, err := json.Marshal(rep)
		if err != nil {
			logger.Errorf("engine: encoding report failed: %v", err)
			return
		}
		e.teardown.Send(e.cfg.CollectionEndpoint, payload)
	})
}

// stripFragment removes any navigation fragment from the URL.
func stripFragment(url string) string {
	if i := strings.IndexByte(url, '#'); i >= 0 {
		return url[:i]
	}
	return url
}
