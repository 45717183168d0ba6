package track

import (
	"strconv"
	"strings"

	"github.com/decktrace/decktrace/internal/clock"
	"github.com/decktrace/decktrace/internal/config"
	"github.com/decktrace/decktrace/internal/host"
	"github.com/decktrace/decktrace/internal/report"
)

// LinkSource records clicks on anchors within the visible slide,
// classified as internal (hash-fragment navigation within the deck) or
// external by URL shape. Entries are keyed by href so later clicks
// merge into the same entry.
type LinkSource struct {
	agg          *report.Aggregator
	adapter      host.Adapter
	observer     host.LinkObserver
	sessionClock *clock.Clock
	cfg          config.Links
	timestamps   bool
}

// NewLinkSource builds the link source. observer is the host's link
// capability; callers pass nil when the host does not surface clicks.
func NewLinkSource(agg *report.Aggregator, adapter host.Adapter, observer host.LinkObserver, sessionClock *clock.Clock, cfg config.Links, timestamps bool) *LinkSource {
	return &LinkSource{agg: agg, adapter: adapter, observer: observer, sessionClock: sessionClock, cfg: cfg, timestamps: timestamps}
}

// Attach wires the source to the host's click notifications.
func (s *LinkSource) Attach() {
	if s.observer == nil {
		return
	}
	s.observer.OnLinkClicked(func(click host.LinkClick) {
		guarded("links", func() {
			s.record(click)
		})
	})
}

func (s *LinkSource) record(click host.LinkClick) {
	fragment, internal := s.classify(click.HRef)
	if fragment == "#" {
		return
	}
	if internal && !s.cfg.Internal {
		return
	}
	if !internal && !s.cfg.External {
		return
	}

	kind := report.KindExternalLink
	key := click.HRef
	var target *host.SlideContext
	if internal {
		kind = report.KindInternalLink
		key = fragment
		target = parseFragment(fragment)
	}

	cur := s.adapter.CurrentSlide()
	entry := &report.LinkEntry{
		Type:        string(kind),
		Clicked:     report.Bool(true),
		LinkText:    report.String(click.Text),
		TargetSlide: target,
		Slide:       &cur,
	}
	if s.timestamps {
		entry.Timestamp = report.String(s.sessionClock.String())
	}

	s.agg.Merge(report.Event{Kind: kind, Key: key, Link: entry})
}

// classify strips the presentation's own URL from href; what remains
// starting with "#" is in-deck navigation.
func (s *LinkSource) classify(href string) (fragment string, internal bool) {
	path := strings.TrimPrefix(href, s.adapter.PresentationURL())
	if strings.HasPrefix(path, "#") {
		return path, true
	}
	return href, false
}

// parseFragment extracts target slide indices from a "#/h/v" fragment.
func parseFragment(fragment string) *host.SlideContext {
	parts := strings.Split(strings.TrimPrefix(fragment, "#"), "/")
	var idx []int
	for _, p := range parts {
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil
		}
		idx = append(idx, n)
	}
	if len(idx) == 0 {
		return nil
	}
	ctx := &host.SlideContext{HorizontalIndex: idx[0]}
	if len(idx) > 1 {
		ctx.VerticalIndex = idx[1]
	}
	return ctx
}
