package track

import (
	"github.com/decktrace/decktrace/internal/clock"
	"github.com/decktrace/decktrace/internal/host"
	"github.com/decktrace/decktrace/internal/report"
)

// DwellSource records how long the viewer stays on each slide. The
// per-slide clock is reset on every transition; the event carries the
// dwell time and context of the slide just left.
type DwellSource struct {
	agg        *report.Aggregator
	adapter    host.Adapter
	slideClock *clock.Clock
}

// NewDwellSource builds the per-slide dwell source around its own clock.
func NewDwellSource(agg *report.Aggregator, adapter host.Adapter, slideClock *clock.Clock) *DwellSource {
	return &DwellSource{agg: agg, adapter: adapter, slideClock: slideClock}
}

// Attach wires the source to slide-change notifications.
func (s *DwellSource) Attach() {
	s.adapter.OnSlideChanged(func(change host.SlideChange) {
		guarded("dwell", func() {
			prev := change.Previous
			s.agg.Merge(report.Event{
				Kind:      report.KindDwellTimePerSlide,
				DwellTime: s.slideClock.String(),
				Slide:     &prev,
			})
			s.slideClock.Reset()
		})
	})
}

// FlushFinal records the dwell time of the slide still in progress.
// Called exactly once, from the teardown path.
func (s *DwellSource) FlushFinal() {
	guarded("dwell", func() {
		cur := s.adapter.CurrentSlide()
		s.agg.Merge(report.Event{
			Kind:      report.KindDwellTimePerSlide,
			DwellTime: s.slideClock.String(),
			Slide:     &cur,
		})
	})
}
