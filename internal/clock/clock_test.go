package clock

import (
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestFormatZeroPadded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 86399).Draw(t, "seconds")

		c := NewManual()
		for i := 0; i < n; i++ {
			c.Tick()
		}

		want := fmt.Sprintf("%02d:%02d:%02d", n/3600, (n/60)%60, n%60)
		if got := c.String(); got != want {
			t.Fatalf("after %d ticks: got %q, want %q", n, got, want)
		}
	})
}

func TestRollover(t *testing.T) {
	c := NewManual()
	for i := 0; i < 3661; i++ {
		c.Tick()
	}
	if got := c.String(); got != "01:01:01" {
		t.Fatalf("got %q, want 01:01:01", got)
	}
	if got := c.Elapsed(); got != 3661*time.Second {
		t.Fatalf("elapsed: got %v, want %v", got, 3661*time.Second)
	}
}

func TestClearZeroes(t *testing.T) {
	c := NewManual()
	c.Tick()
	c.Tick()
	c.Clear()
	if got := c.String(); got != "00:00:00" {
		t.Fatalf("after clear: got %q", got)
	}
}

func TestResetZeroesAndKeepsCounting(t *testing.T) {
	c := NewManual()
	for i := 0; i < 90; i++ {
		c.Tick()
	}
	c.Reset()
	if got := c.String(); got != "00:00:00" {
		t.Fatalf("after reset: got %q", got)
	}
	c.Tick()
	if got := c.String(); got != "00:00:01" {
		t.Fatalf("after reset+tick: got %q", got)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	c := New()
	c.Start()
	c.Start() // second start must not spawn a second ticker
	defer c.Clear()

	c.Tick()
	if got := c.String(); got != "00:00:01" {
		t.Fatalf("got %q, want 00:00:01", got)
	}
}
