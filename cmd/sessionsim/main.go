// sessionsim drives the capture engine through a scripted viewer
// session against a fake presentation host, delivering the resulting
// report to a real collector. Useful as a smoke test for a running
// collector and as a demo of the engine's wiring.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/decktrace/decktrace/internal/config"
	"github.com/decktrace/decktrace/internal/consent"
	"github.com/decktrace/decktrace/internal/engine"
	"github.com/decktrace/decktrace/internal/host"
	"github.com/decktrace/decktrace/internal/host/hosttest"
	"github.com/decktrace/decktrace/internal/util/logger"
)

// autoAccept stands in for the viewer: it accepts the consent banner
// as soon as it is shown.
type autoAccept struct{}

func (autoAccept) Show(_ config.Banner, actions consent.Actions) {
	logger.Infof("sessionsim: consent banner shown, accepting")
	actions.Accept()
}

func main() {
	collection := flag.String("collection", "http://localhost:8088/api/tracking", "report collection endpoint")
	validate := flag.String("validate", "http://localhost:8088/api/authentication/validate-token", "token validation endpoint")
	issue := flag.String("issue", "http://localhost:8088/api/authentication/generate-token", "token issuance endpoint")
	stateDir := flag.String("state-dir", ".decktrace", "token persistence directory")
	slides := flag.Int("slides", 5, "number of slides in the simulated deck")
	flag.Parse()

	h := hosttest.New("http://localhost:8000/deck/", *slides)
	h.AddMedia(host.MediaElement{
		ID:     "intro-video",
		Kind:   host.MediaVideo,
		Source: "http://localhost:8000/deck/intro.mp4",
		Slide:  host.SlideContext{SlideNumber: 1},
	})

	eng, err := engine.New(engine.Options{
		Overrides: &config.Overrides{
			CollectionEndpoint: *collection,
			Identity: &config.IdentityOverrides{
				ValidateEndpoint: *validate,
				IssueEndpoint:    *issue,
			},
		},
		Host:       h,
		Banner:     autoAccept{},
		StateDir:   *stateDir,
		ManualTime: true,
	})
	if err != nil {
		logger.Fatalf("sessionsim: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	eng.Init(ctx)
	h.Ready()

	if err := eng.WaitIdentity(ctx); err != nil {
		logger.Fatalf("sessionsim: identity resolution timed out: %v", err)
	}

	// Scripted session: dwell, navigate, play media, click a link.
	tick(eng, 3)
	h.Next()
	tick(eng, 2)
	h.Play("intro-video")
	tick(eng, 4)
	h.Pause("intro-video", 4, 10, false)
	h.ClickLink("https://example.org/reading", "Further reading")
	h.Next()
	tick(eng, 1)

	h.Teardown()

	// Give the beacon a moment; teardown itself never waits.
	time.Sleep(500 * time.Millisecond)
	logger.Infof("sessionsim: session delivered to %s", *collection)
}

func tick(eng *engine.Engine, seconds int) {
	for i := 0; i < seconds; i++ {
		eng.SessionClock().Tick()
		eng.SlideClock().Tick()
	}
}
