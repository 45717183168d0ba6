// Package hosttest provides a scriptable host.Adapter implementation
// for tests and the session simulator.
package hosttest

import (
	"sync"

	"github.com/decktrace/decktrace/internal/host"
)

func snapshot[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// Host is a fake presentation runtime. Fire* methods deliver events to
// every registered callback in registration order, mirroring the
// serialized event loop of a real host.
type Host struct {
	mu sync.Mutex

	URL    string
	Slides []host.SlideContext
	index  int
	ready  bool

	media []host.MediaElement

	readyCbs    []func()
	changeCbs   []func(host.SlideChange)
	teardownCbs []func()
	linkCbs     []func(host.LinkClick)
	playCbs     []func(host.MediaEvent)
	pauseCbs    []func(host.MediaEvent)
	quizStart   []func(host.QuizInfo)
	quizDone    []func(host.QuizResult)
}

// New returns a host presenting slideCount slides, positioned on the first.
func New(url string, slideCount int) *Host {
	slides := make([]host.SlideContext, slideCount)
	for i := range slides {
		slides[i] = host.SlideContext{SlideNumber: i + 1, HorizontalIndex: i}
	}
	return &Host{URL: url, Slides: slides}
}

func (h *Host) PresentationURL() string { return h.URL }

func (h *Host) CurrentSlide() host.SlideContext {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Slides[h.index]
}

func (h *Host) TotalSlides() int { return len(h.Slides) }

func (h *Host) Progress() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.Slides) <= 1 {
		return 1
	}
	return float64(h.index) / float64(len(h.Slides)-1)
}

func (h *Host) OnReady(cb func()) {
	h.mu.Lock()
	ready := h.ready
	if !ready {
		h.readyCbs = append(h.readyCbs, cb)
	}
	h.mu.Unlock()
	if ready {
		cb()
	}
}

func (h *Host) OnSlideChanged(cb func(host.SlideChange)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.changeCbs = append(h.changeCbs, cb)
}

func (h *Host) OnTeardown(cb func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.teardownCbs = append(h.teardownCbs, cb)
}

func (h *Host) OnLinkClicked(cb func(host.LinkClick)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.linkCbs = append(h.linkCbs, cb)
}

// AddMedia registers a media element before the session starts.
func (h *Host) AddMedia(el host.MediaElement) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.media = append(h.media, el)
}

func (h *Host) MediaElements() []host.MediaElement {
	h.mu.Lock()
	defer h.mu.Unlock()
	return snapshot(h.media)
}

func (h *Host) OnMediaPlay(cb func(host.MediaEvent)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.playCbs = append(h.playCbs, cb)
}

func (h *Host) OnMediaPause(cb func(host.MediaEvent)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pauseCbs = append(h.pauseCbs, cb)
}

func (h *Host) OnQuizStart(cb func(host.QuizInfo)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.quizStart = append(h.quizStart, cb)
}

func (h *Host) OnQuizComplete(cb func(host.QuizResult)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.quizDone = append(h.quizDone, cb)
}

// Ready marks the host initialized and fires pending ready callbacks.
func (h *Host) Ready() {
	h.mu.Lock()
	h.ready = true
	cbs := h.readyCbs
	h.readyCbs = nil
	h.mu.Unlock()
	for _, cb := range cbs {
		cb()
	}
}

// GoTo navigates to the slide at index and fires slide-change callbacks.
func (h *Host) GoTo(index int) {
	h.mu.Lock()
	prev := h.Slides[h.index]
	h.index = index
	cur := h.Slides[h.index]
	cbs := snapshot(h.changeCbs)
	h.mu.Unlock()
	for _, cb := range cbs {
		cb(host.SlideChange{Previous: prev, Current: cur})
	}
}

// Next advances one slide.
func (h *Host) Next() {
	h.mu.Lock()
	i := h.index
	h.mu.Unlock()
	if i+1 < len(h.Slides) {
		h.GoTo(i + 1)
	}
}

// ClickLink delivers a link click on the current slide.
func (h *Host) ClickLink(href, text string) {
	h.mu.Lock()
	cbs := snapshot(h.linkCbs)
	h.mu.Unlock()
	for _, cb := range cbs {
		cb(host.LinkClick{HRef: href, Text: text})
	}
}

// Play delivers a play event for a registered media element.
func (h *Host) Play(id string) {
	h.mu.Lock()
	cbs := snapshot(h.playCbs)
	h.mu.Unlock()
	for _, cb := range cbs {
		cb(host.MediaEvent{ElementID: id})
	}
}

// Pause delivers a pause event with playback position data.
func (h *Host) Pause(id string, current, duration float64, ended bool) {
	h.mu.Lock()
	cbs := snapshot(h.pauseCbs)
	h.mu.Unlock()
	for _, cb := range cbs {
		cb(host.MediaEvent{ElementID: id, CurrentTime: current, Duration: duration, Ended: ended})
	}
}

// StartQuiz fires the quiz-start hooks.
func (h *Host) StartQuiz(info host.QuizInfo) {
	h.mu.Lock()
	cbs := snapshot(h.quizStart)
	h.mu.Unlock()
	for _, cb := range cbs {
		cb(info)
	}
}

// CompleteQuiz fires the quiz-complete hooks.
func (h *Host) CompleteQuiz(res host.QuizResult) {
	h.mu.Lock()
	cbs := snapshot(h.quizDone)
	h.mu.Unlock()
	for _, cb := range cbs {
		cb(res)
	}
}

// Teardown fires the teardown callbacks, ending the session.
func (h *Host) Teardown() {
	h.mu.Lock()
	cbs := snapshot(h.teardownCbs)
	h.mu.Unlock()
	for _, cb := range cbs {
		cb()
	}
}
