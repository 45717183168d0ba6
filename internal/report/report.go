// Package report defines the session report document and the
// aggregator that accumulates telemetry events into it.
package report

import (
	"sync"

	"github.com/decktrace/decktrace/internal/util/logger"
)

// Report is the single outbound document for a session.
type Report struct {
	UserToken           string   `json:"userToken,omitempty"`
	PresentationURL     string   `json:"presentationUrl,omitempty"`
	TotalNumberOfSlides int      `json:"totalNumberOfSlides,omitempty"`
	FinalProgress       *float64 `json:"finalProgress,omitempty"`
	TotalDwellTime      string   `json:"totalDwellTime,omitempty"`

	DwellTimes []Event `json:"dwellTimes,omitempty"`
	Timeline   []Event `json:"timeline"`

	Links   map[string]*LinkEntry  `json:"links,omitempty"`
	Media   map[string]*MediaEntry `json:"media,omitempty"`
	Quizzes map[string]*QuizEntry  `json:"quizzes,omitempty"`
}

// Aggregator owns the session's Report exclusively. Every event source
// feeds it through Merge; Transport reads the result once via Finalize.
type Aggregator struct {
	mu        sync.Mutex
	report    Report
	timeline  bool
	finalized bool
}

// NewAggregator returns an aggregator with an empty report. When
// timeline is true, chronological events are additionally kept in the
// Timeline sequence.
func NewAggregator(timeline bool) *Aggregator {
	return &Aggregator{
		report:   Report{Timeline: []Event{}},
		timeline: timeline,
	}
}

// SetMetadata records presentation-level fields, captured at host ready.
func (a *Aggregator) SetMetadata(presentationURL string, totalSlides int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.report.PresentationURL = presentationURL
	a.report.TotalNumberOfSlides = totalSlides
}

// Merge folds one event into the report. The policy per kind:
// list-append for per-slide dwell times and the timeline,
// keyed partial merge for links/media/quizzes (later fields win),
// top-level field union for total dwell time and session end.
func (a *Aggregator) Merge(e Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finalized {
		logger.Warnf("report: event %s after finalize, dropped", e.Kind)
		return
	}

	switch e.Kind {
	case KindTotalDwellTime:
		a.report.TotalDwellTime = e.TotalDwellTime

	case KindEnd:
		a.report.FinalProgress = e.FinalProgress

	case KindDwellTimePerSlide:
		a.report.DwellTimes = append(a.report.DwellTimes, e)

	case KindInternalLink, KindExternalLink:
		if e.Link == nil || e.Key == "" {
			logger.Warnf("report: link event without key or payload, dropped")
			return
		}
		if a.report.Links == nil {
			a.report.Links = make(map[string]*LinkEntry)
		}
		if cur, ok := a.report.Links[e.Key]; ok {
			cur.merge(e.Link)
		} else {
			entry := *e.Link
			a.report.Links[e.Key] = &entry
		}
		a.appendTimeline(e)

	case KindAudio, KindVideo:
		if e.Media == nil || e.Key == "" {
			logger.Warnf("report: media event without key or payload, dropped")
			return
		}
		if a.report.Media == nil {
			a.report.Media = make(map[string]*MediaEntry)
		}
		if cur, ok := a.report.Media[e.Key]; ok {
			cur.merge(e.Media)
		} else {
			entry := *e.Media
			a.report.Media[e.Key] = &entry
		}
		a.appendTimeline(e)

	case KindQuiz:
		if e.Quiz == nil || e.Key == "" {
			logger.Warnf("report: quiz event without key or payload, dropped")
			return
		}
		if a.report.Quizzes == nil {
			a.report.Quizzes = make(map[string]*QuizEntry)
		}
		if cur, ok := a.report.Quizzes[e.Key]; ok {
			cur.merge(e.Quiz)
		} else {
			entry := *e.Quiz
			a.report.Quizzes[e.Key] = &entry
		}
		a.appendTimeline(e)

	case KindSlideTransition:
		a.appendTimeline(e)

	default:
		logger.Warnf("report: unknown event kind %q, dropped", e.Kind)
	}
}

func (a *Aggregator) appendTimeline(e Event) {
	if a.timeline {
		a.report.Timeline = append(a.report.Timeline, e)
	}
}

// Finalize closes the report and returns it for transmission, attaching
// userToken when the session has a valid one. Further merges are dropped.
func (a *Aggregator) Finalize(userToken string) *Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finalized {
		logger.Warnf("report: finalize called more than once")
	}
	a.finalized = true
	a.report.UserToken = userToken
	r := a.report
	return &r
}
