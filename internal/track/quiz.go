package track

import (
	"sync"

	"github.com/decktrace/decktrace/internal/clock"
	"github.com/decktrace/decktrace/internal/host"
	"github.com/decktrace/decktrace/internal/report"
)

// QuizSource observes the quiz sub-plugin through the host's
// multi-subscriber hooks: subscribing never displaces the plugin's own
// callbacks. Each quiz gets a dedicated clock opened on start and
// closed on completion to compute its dwell time; start and completion
// data merge into one entry per quiz id.
type QuizSource struct {
	agg          *report.Aggregator
	observer     host.QuizObserver
	sessionClock *clock.Clock
	timestamps   bool

	// NewClock builds the per-quiz clocks. Defaults to started real-time
	// clocks; the engine swaps in manual clocks for simulated sessions.
	NewClock func() *clock.Clock

	mu     sync.Mutex
	clocks map[string]*clock.Clock
}

// NewQuizSource builds the quiz source. observer is nil when no quiz
// sub-plugin is present.
func NewQuizSource(agg *report.Aggregator, observer host.QuizObserver, sessionClock *clock.Clock, timestamps bool) *QuizSource {
	return &QuizSource{
		agg:          agg,
		observer:     observer,
		sessionClock: sessionClock,
		timestamps:   timestamps,
		NewClock:     clock.New,
		clocks:       make(map[string]*clock.Clock),
	}
}

// Attach subscribes to the quiz hooks.
func (s *QuizSource) Attach() {
	if s.observer == nil {
		return
	}
	s.observer.OnQuizStart(func(info host.QuizInfo) {
		guarded("quiz", func() { s.recordStart(info) })
	})
	s.observer.OnQuizComplete(func(res host.QuizResult) {
		guarded("quiz", func() { s.recordComplete(res) })
	})
}

func (s *QuizSource) recordStart(info host.QuizInfo) {
	if info.ID == "" {
		return
	}

	s.mu.Lock()
	if c, ok := s.clocks[info.ID]; ok {
		c.Reset()
	} else {
		c = s.NewClock()
		c.Start()
		s.clocks[info.ID] = c
	}
	s.mu.Unlock()

	entry := &report.QuizEntry{
		Name:              report.String(info.Name),
		Topic:             report.String(info.Topic),
		NumberOfQuestions: report.Int(info.NumberOfQuestions),
		Started:           report.Bool(true),
	}
	if s.timestamps {
		entry.StartedAt = report.String(s.sessionClock.String())
	}
	s.agg.Merge(report.Event{Kind: report.KindQuiz, Key: info.ID, Quiz: entry})
}

func (s *QuizSource) recordComplete(res host.QuizResult) {
	if res.ID == "" {
		return
	}

	var dwell string
	s.mu.Lock()
	if c, ok := s.clocks[res.ID]; ok {
		dwell = c.String()
		c.Clear()
	}
	s.mu.Unlock()

	entry := &report.QuizEntry{
		Completed: report.Bool(true),
		Score:     report.Float(res.Score),
	}
	if dwell != "" {
		entry.DwellTime = report.String(dwell)
	}
	if s.timestamps {
		entry.CompletedAt = report.String(s.sessionClock.String())
	}
	s.agg.Merge(report.Event{Kind: report.KindQuiz, Key: res.ID, Quiz: entry})
}

// QuizClock exposes a quiz's clock for manual ticking in tests and the
// simulator. Returns nil when the quiz has not started.
func (s *QuizSource) QuizClock(id string) *clock.Clock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clocks[id]
}
