package report

import (
	"encoding/json"
	"testing"

	"pgregory.net/rapid"

	"github.com/decktrace/decktrace/internal/host"
)

func TestDwellTimesAppendInOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 50).Draw(t, "events")

		agg := NewAggregator(false)
		for i := 0; i < n; i++ {
			agg.Merge(Event{
				Kind:      KindDwellTimePerSlide,
				DwellTime: "00:00:01",
				Slide:     &host.SlideContext{SlideNumber: i + 1},
			})
		}

		rep := agg.Finalize("")
		if len(rep.DwellTimes) != n {
			t.Fatalf("got %d dwell entries, want %d", len(rep.DwellTimes), n)
		}
		for i, e := range rep.DwellTimes {
			if e.Slide.SlideNumber != i+1 {
				t.Fatalf("entry %d out of order: slide %d", i, e.Slide.SlideNumber)
			}
		}
	})
}

func TestKeyedMergeCoalescesMediaEntry(t *testing.T) {
	agg := NewAggregator(true)

	// Seeded metadata, then play, then pause: one entry with all fields.
	agg.Merge(Event{Kind: KindVideo, Key: "vid-1", Media: &MediaEntry{
		Kind:   "video",
		Source: String("http://deck/intro.mp4"),
		Slide:  &host.SlideContext{SlideNumber: 1},
	}})
	agg.Merge(Event{Kind: KindVideo, Key: "vid-1", Media: &MediaEntry{
		Played:   Bool(true),
		PlayedAt: String("00:00:05"),
	}})
	agg.Merge(Event{Kind: KindVideo, Key: "vid-1", Media: &MediaEntry{
		Finished: Bool(false),
		Progress: Float(0.4),
		PausedAt: String("00:00:09"),
	}})

	rep := agg.Finalize("")
	if len(rep.Media) != 1 {
		t.Fatalf("got %d media entries, want 1", len(rep.Media))
	}
	entry := rep.Media["vid-1"]
	if entry == nil {
		t.Fatal("missing entry for vid-1")
	}
	if entry.Source == nil || *entry.Source != "http://deck/intro.mp4" {
		t.Errorf("seeded source lost: %+v", entry)
	}
	if entry.Played == nil || !*entry.Played {
		t.Errorf("played flag not merged: %+v", entry)
	}
	if entry.Progress == nil || *entry.Progress != 0.4 {
		t.Errorf("progress not merged: %+v", entry)
	}
}

func TestKeyedMergeLaterFieldsWin(t *testing.T) {
	agg := NewAggregator(false)
	agg.Merge(Event{Kind: KindExternalLink, Key: "https://example.org", Link: &LinkEntry{
		Type:     string(KindExternalLink),
		LinkText: String("first"),
	}})
	agg.Merge(Event{Kind: KindExternalLink, Key: "https://example.org", Link: &LinkEntry{
		Clicked:  Bool(true),
		LinkText: String("second"),
	}})

	rep := agg.Finalize("")
	entry := rep.Links["https://example.org"]
	if entry == nil {
		t.Fatal("missing link entry")
	}
	if *entry.LinkText != "second" {
		t.Errorf("later field must win: %q", *entry.LinkText)
	}
	if entry.Type != string(KindExternalLink) {
		t.Errorf("earlier-only field must survive: %q", entry.Type)
	}
}

func TestQuizStartAndCompletionShareOneEntry(t *testing.T) {
	agg := NewAggregator(false)
	agg.Merge(Event{Kind: KindQuiz, Key: "quiz-1", Quiz: &QuizEntry{
		Started:           Bool(true),
		Name:              String("Recap"),
		NumberOfQuestions: Int(5),
	}})
	agg.Merge(Event{Kind: KindQuiz, Key: "quiz-1", Quiz: &QuizEntry{
		Completed: Bool(true),
		Score:     Float(4),
		DwellTime: String("00:01:30"),
	}})

	rep := agg.Finalize("")
	if len(rep.Quizzes) != 1 {
		t.Fatalf("got %d quiz entries, want 1", len(rep.Quizzes))
	}
	entry := rep.Quizzes["quiz-1"]
	if entry.Started == nil || !*entry.Started || entry.Completed == nil || !*entry.Completed {
		t.Errorf("start and completion must coexist: %+v", entry)
	}
	if entry.Name == nil || *entry.Name != "Recap" {
		t.Errorf("start metadata lost: %+v", entry)
	}
}

func TestTopLevelFieldUnion(t *testing.T) {
	agg := NewAggregator(false)
	agg.Merge(Event{Kind: KindTotalDwellTime, TotalDwellTime: "00:10:00"})
	agg.Merge(Event{Kind: KindEnd, FinalProgress: Float(0.75)})

	rep := agg.Finalize("abc-123")
	if rep.TotalDwellTime != "00:10:00" {
		t.Errorf("total dwell time not set: %q", rep.TotalDwellTime)
	}
	if rep.FinalProgress == nil || *rep.FinalProgress != 0.75 {
		t.Errorf("final progress not set: %+v", rep.FinalProgress)
	}
	if rep.UserToken != "abc-123" {
		t.Errorf("finalize must attach the token: %q", rep.UserToken)
	}
}

func TestTimelineOnlyWhenEnabled(t *testing.T) {
	e := Event{Kind: KindSlideTransition, PreviousSlide: &host.SlideContext{SlideNumber: 1}, CurrentSlide: &host.SlideContext{SlideNumber: 2}}

	with := NewAggregator(true)
	with.Merge(e)
	if got := len(with.Finalize("").Timeline); got != 1 {
		t.Errorf("timeline enabled: got %d events, want 1", got)
	}

	without := NewAggregator(false)
	without.Merge(e)
	if got := len(without.Finalize("").Timeline); got != 0 {
		t.Errorf("timeline disabled: got %d events, want 0", got)
	}
}

func TestMergeAfterFinalizeIsDropped(t *testing.T) {
	agg := NewAggregator(false)
	rep := agg.Finalize("")
	agg.Merge(Event{Kind: KindTotalDwellTime, TotalDwellTime: "00:00:09"})
	if rep.TotalDwellTime != "" {
		t.Fatalf("merge after finalize mutated the report")
	}
}

func TestReportJSONShape(t *testing.T) {
	agg := NewAggregator(true)
	agg.SetMetadata("http://localhost:8000/deck/", 12)
	agg.Merge(Event{Kind: KindDwellTimePerSlide, DwellTime: "00:00:03", Slide: &host.SlideContext{SlideNumber: 1}})

	data, err := json.Marshal(agg.Finalize("abc-123"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"userToken", "presentationUrl", "totalNumberOfSlides", "dwellTimes", "timeline"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("report JSON missing %q: %s", key, data)
		}
	}
}
