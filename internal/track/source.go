// Package track contains the event sources, one per tracked dimension.
// Each source translates host runtime events into telemetry events and
// feeds them to the report aggregator.
package track

import (
	"github.com/decktrace/decktrace/internal/util/logger"
)

// Source is one independent observer. Attach wires it to the host for
// the lifetime of the session; there is no detach.
type Source interface {
	Attach()
}

// guarded isolates a source callback so a failure in one source never
// interrupts the others or the final delivery.
func guarded(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("track: %s source failed: %v", name, r)
		}
	}()
	fn()
}
