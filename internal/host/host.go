// Package host defines the narrow interface through which the engine
// observes a presentation runtime. The engine depends on these
// capabilities abstractly; the real presentation host and the test
// double in hosttest both implement them.
package host

// SlideContext identifies one slide of the presentation.
type SlideContext struct {
	SlideNumber     int `json:"slideNumber"`
	HorizontalIndex int `json:"horizontalIndex"`
	VerticalIndex   int `json:"verticalIndex"`
}

// SlideChange describes one navigation step.
type SlideChange struct {
	Previous SlideContext
	Current  SlideContext
}

// LinkClick describes a click on an anchor inside the visible slide.
// HRef is the raw target as the host saw it; classification into
// internal/external links is the engine's job.
type LinkClick struct {
	HRef string
	Text string
}

// MediaKind distinguishes the tracked media element types.
type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)

// MediaElement is the static metadata of one audio/video element,
// available at registration time.
type MediaElement struct {
	ID     string
	Kind   MediaKind
	Source string
	Slide  SlideContext
}

// MediaEvent describes a play or pause on a registered element.
type MediaEvent struct {
	ElementID   string
	Ended       bool
	CurrentTime float64
	Duration    float64
}

// QuizInfo is the static metadata of a quiz on the current slide.
type QuizInfo struct {
	ID                string
	Name              string
	Topic             string
	NumberOfQuestions int
}

// QuizResult carries the outcome reported on quiz completion.
type QuizResult struct {
	QuizInfo
	Score float64
}

// Adapter is the core capability set every host must provide.
type Adapter interface {
	// PresentationURL returns the address of the running presentation,
	// without any navigation fragment.
	PresentationURL() string
	// CurrentSlide returns the context of the visible slide.
	CurrentSlide() SlideContext
	// TotalSlides returns the number of slides in the deck.
	TotalSlides() int
	// Progress reports how far through the deck the viewer is, in [0, 1].
	Progress() float64

	// OnReady registers a callback invoked once the host is fully
	// initialized. If the host is already ready the callback fires
	// immediately.
	OnReady(func())
	// OnSlideChanged registers a callback for every navigation step.
	OnSlideChanged(func(SlideChange))
	// OnTeardown registers a callback invoked as the session is being
	// destroyed. Callbacks must not block on pending asynchronous work.
	OnTeardown(func())
}

// LinkObserver is implemented by hosts that surface link clicks.
type LinkObserver interface {
	OnLinkClicked(func(LinkClick))
}

// MediaObserver is implemented by hosts that expose media elements.
type MediaObserver interface {
	MediaElements() []MediaElement
	OnMediaPlay(func(MediaEvent))
	OnMediaPause(func(MediaEvent))
}

// QuizObserver is implemented by hosts carrying a quiz sub-plugin.
// Both hooks accept any number of subscribers; the host invokes all of
// them, so wiring the engine never displaces the plugin's own handlers.
type QuizObserver interface {
	OnQuizStart(func(QuizInfo))
	OnQuizComplete(func(QuizResult))
}
