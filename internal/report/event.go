package report

import "github.com/decktrace/decktrace/internal/host"

// Kind enumerates the observed event types.
type Kind string

const (
	KindDwellTimePerSlide Kind = "dwellTimePerSlide"
	KindTotalDwellTime    Kind = "totalDwellTime"
	KindInternalLink      Kind = "internalLink"
	KindExternalLink      Kind = "externalLink"
	KindAudio             Kind = "audio"
	KindVideo             Kind = "video"
	KindQuiz              Kind = "quiz"
	KindSlideTransition   Kind = "slideTransition"
	KindEnd               Kind = "end"
)

// Event is one observed occurrence. Only the fields matching Kind are
// populated; Key selects the collection entry for keyed kinds
// (links by href, media by element id, quizzes by quiz id).
type Event struct {
	Kind Kind `json:"type"`

	DwellTime      string `json:"dwellTime,omitempty"`
	TotalDwellTime string `json:"totalDwellTime,omitempty"`

	FinalProgress *float64 `json:"finalProgress,omitempty"`

	Timestamp string `json:"timestamp,omitempty"`

	Slide         *host.SlideContext `json:"slideData,omitempty"`
	PreviousSlide *host.SlideContext `json:"previousSlide,omitempty"`
	CurrentSlide  *host.SlideContext `json:"currentSlide,omitempty"`

	Key   string      `json:"-"`
	Link  *LinkEntry  `json:"link,omitempty"`
	Media *MediaEntry `json:"media,omitempty"`
	Quiz  *QuizEntry  `json:"quiz,omitempty"`
}

// LinkEntry accumulates everything observed about one link, keyed by
// href. Pointer fields distinguish "not observed yet" from zero values
// so later partial merges only overwrite what they carry.
type LinkEntry struct {
	Type        string             `json:"type,omitempty"` // internalLink | externalLink
	Clicked     *bool              `json:"clicked,omitempty"`
	LinkText    *string            `json:"linkText,omitempty"`
	Timestamp   *string            `json:"timestamp,omitempty"`
	TargetSlide *host.SlideContext `json:"targetSlide,omitempty"`
	Slide       *host.SlideContext `json:"slideData,omitempty"`
}

func (e *LinkEntry) merge(p *LinkEntry) {
	if p.Type != "" {
		e.Type = p.Type
	}
	if p.Clicked != nil {
		e.Clicked = p.Clicked
	}
	if p.LinkText != nil {
		e.LinkText = p.LinkText
	}
	if p.Timestamp != nil {
		e.Timestamp = p.Timestamp
	}
	if p.TargetSlide != nil {
		e.TargetSlide = p.TargetSlide
	}
	if p.Slide != nil {
		e.Slide = p.Slide
	}
}

// MediaEntry accumulates playback state of one audio/video element,
// keyed by element id. Seeded with static metadata at registration,
// filled in by play/pause events later.
type MediaEntry struct {
	Kind     string             `json:"kind,omitempty"` // audio | video
	Source   *string            `json:"source,omitempty"`
	Slide    *host.SlideContext `json:"slideData,omitempty"`
	Played   *bool              `json:"played,omitempty"`
	PlayedAt *string            `json:"playedAt,omitempty"`
	Finished *bool              `json:"finished,omitempty"`
	Progress *float64           `json:"progress,omitempty"`
	PausedAt *string            `json:"pausedAt,omitempty"`
}

func (e *MediaEntry) merge(p *MediaEntry) {
	if p.Kind != "" {
		e.Kind = p.Kind
	}
	if p.Source != nil {
		e.Source = p.Source
	}
	if p.Slide != nil {
		e.Slide = p.Slide
	}
	if p.Played != nil {
		e.Played = p.Played
	}
	if p.PlayedAt != nil {
		e.PlayedAt = p.PlayedAt
	}
	if p.Finished != nil {
		e.Finished = p.Finished
	}
	if p.Progress != nil {
		e.Progress = p.Progress
	}
	if p.PausedAt != nil {
		e.PausedAt = p.PausedAt
	}
}

// QuizEntry accumulates one quiz's start and completion data under a
// single key so both coexist in one entry.
type QuizEntry struct {
	Name              *string  `json:"name,omitempty"`
	Topic             *string  `json:"topic,omitempty"`
	NumberOfQuestions *int     `json:"numberOfQuestions,omitempty"`
	Started           *bool    `json:"started,omitempty"`
	StartedAt         *string  `json:"startedAt,omitempty"`
	Completed         *bool    `json:"completed,omitempty"`
	CompletedAt       *string  `json:"completedAt,omitempty"`
	Score             *float64 `json:"score,omitempty"`
	DwellTime         *string  `json:"dwellTime,omitempty"`
}

func (e *QuizEntry) merge(p *QuizEntry) {
	if p.Name != nil {
		e.Name = p.Name
	}
	if p.Topic != nil {
		e.Topic = p.Topic
	}
	if p.NumberOfQuestions != nil {
		e.NumberOfQuestions = p.NumberOfQuestions
	}
	if p.Started != nil {
		e.Started = p.Started
	}
	if p.StartedAt != nil {
		e.StartedAt = p.StartedAt
	}
	if p.Completed != nil {
		e.Completed = p.Completed
	}
	if p.CompletedAt != nil {
		e.CompletedAt = p.CompletedAt
	}
	if p.Score != nil {
		e.Score = p.Score
	}
	if p.DwellTime != nil {
		e.DwellTime = p.DwellTime
	}
}

// Bool returns a pointer to b, for building partial entries.
func Bool(b bool) *bool { return &b }

// String returns a pointer to s, for building partial entries.
func String(s string) *string { return &s }

// Float returns a pointer to f, for building partial entries.
func Float(f float64) *float64 { return &f }

// Int returns a pointer to i, for building partial entries.
func Int(i int) *int { return &i }
