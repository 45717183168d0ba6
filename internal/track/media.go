package track

import (
	"github.com/decktrace/decktrace/internal/clock"
	"github.com/decktrace/decktrace/internal/config"
	"github.com/decktrace/decktrace/internal/host"
	"github.com/decktrace/decktrace/internal/report"
)

// MediaSource records play and pause interactions on the deck's audio
// and video elements. Entries are keyed by element id and pre-seeded
// with static metadata at registration, so playback events only fill in
// the dynamic fields.
type MediaSource struct {
	agg          *report.Aggregator
	observer     host.MediaObserver
	sessionClock *clock.Clock
	cfg          config.Media
	timestamps   bool

	kinds map[string]host.MediaKind
}

// NewMediaSource builds the media source. observer is nil when the
// host exposes no media elements.
func NewMediaSource(agg *report.Aggregator, observer host.MediaObserver, sessionClock *clock.Clock, cfg config.Media, timestamps bool) *MediaSource {
	return &MediaSource{
		agg:          agg,
		observer:     observer,
		sessionClock: sessionClock,
		cfg:          cfg,
		timestamps:   timestamps,
		kinds:        make(map[string]host.MediaKind),
	}
}

// Attach seeds entries for every enabled media element and wires the
// play/pause notifications.
func (s *MediaSource) Attach() {
	if s.observer == nil {
		return
	}

	for _, el := range s.observer.MediaElements() {
		if !s.enabled(el.Kind) {
			continue
		}
		s.kinds[el.ID] = el.Kind
		slide := el.Slide
		s.agg.Merge(report.Event{
			Kind: s.eventKind(el.Kind),
			Key:  el.ID,
			Media: &report.MediaEntry{
				Kind:   string(el.Kind),
				Source: report.String(el.Source),
				Slide:  &slide,
			},
		})
	}

	s.observer.OnMediaPlay(func(ev host.MediaEvent) {
		guarded("media", func() { s.recordPlay(ev) })
	})
	s.observer.OnMediaPause(func(ev host.MediaEvent) {
		guarded("media", func() { s.recordPause(ev) })
	})
}

func (s *MediaSource) recordPlay(ev host.MediaEvent) {
	kind, ok := s.kinds[ev.ElementID]
	if !ok {
		return
	}
	entry := &report.MediaEntry{Played: report.Bool(true)}
	if s.timestamps {
		entry.PlayedAt = report.String(s.sessionClock.String())
	}
	s.agg.Merge(report.Event{Kind: s.eventKind(kind), Key: ev.ElementID, Media: entry})
}

func (s *MediaSource) recordPause(ev host.MediaEvent) {
	kind, ok := s.kinds[ev.ElementID]
	if !ok {
		return
	}
	entry := &report.MediaEntry{Finished: report.Bool(ev.Ended)}
	if ev.Duration > 0 {
		entry.Progress = report.Float(ev.CurrentTime / ev.Duration)
	}
	if s.timestamps {
		entry.PausedAt = report.String(s.sessionClock.String())
	}
	s.agg.Merge(report.Event{Kind: s.eventKind(kind), Key: ev.ElementID, Media: entry})
}

func (s *MediaSource) enabled(kind host.MediaKind) bool {
	switch kind {
	case host.MediaAudio:
		return s.cfg.Audio
	case host.MediaVideo:
		return s.cfg.Video
	default:
		return false
	}
}

func (s *MediaSource) eventKind(kind host.MediaKind) report.Kind {
	if kind == host.MediaVideo {
		return report.KindVideo
	}
	return report.KindAudio
}
