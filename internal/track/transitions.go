package track

import (
	"github.com/decktrace/decktrace/internal/clock"
	"github.com/decktrace/decktrace/internal/host"
	"github.com/decktrace/decktrace/internal/report"
)

// TransitionSource records every navigation step with the contexts of
// both the slide left and the slide entered.
type TransitionSource struct {
	agg          *report.Aggregator
	adapter      host.Adapter
	sessionClock *clock.Clock
	timestamps   bool
}

// NewTransitionSource builds the slide-transition source.
func NewTransitionSource(agg *report.Aggregator, adapter host.Adapter, sessionClock *clock.Clock, timestamps bool) *TransitionSource {
	return &TransitionSource{agg: agg, adapter: adapter, sessionClock: sessionClock, timestamps: timestamps}
}

// Attach wires the source to slide-change notifications.
func (s *TransitionSource) Attach() {
	s.adapter.OnSlideChanged(func(change host.SlideChange) {
		guarded("transition", func() {
			prev, cur := change.Previous, change.Current
			e := report.Event{
				Kind:          report.KindSlideTransition,
				PreviousSlide: &prev,
				CurrentSlide:  &cur,
			}
			if s.timestamps {
				e.Timestamp = s.sessionClock.String()
			}
			s.agg.Merge(e)
		})
	})
}
