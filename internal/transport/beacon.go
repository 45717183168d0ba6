package transport

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/decktrace/decktrace/internal/util/logger"
)

// TeardownTransport delivers a payload with the beacon contract: the
// call is non-blocking and not guaranteed to have completed when it
// returns, but the attempt is guaranteed to be made even though the
// invoking session is being torn down.
type TeardownTransport interface {
	Send(endpoint string, payload []byte)
}

// Beacon implements TeardownTransport over HTTP POST. Payloads are
// handed to a background sender that outlives the enqueueing caller,
// so a teardown handler never waits on the network.
type Beacon struct {
	hc      *http.Client
	ch      chan beaconItem
	wg      sync.WaitGroup
	once    sync.Once
	timeout time.Duration
}

type beaconItem struct {
	endpoint string
	payload  []byte
}

// NewBeacon returns a running beacon sender. hc may be nil.
func NewBeacon(hc *http.Client) *Beacon {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	b := &Beacon{
		hc:      hc,
		ch:      make(chan beaconItem, 16),
		timeout: 10 * time.Second,
	}
	b.wg.Add(1)
	go b.run()
	return b
}

func (b *Beacon) run() {
	defer b.wg.Done()
	for item := range b.ch {
		b.attempt(item)
	}
}

func (b *Beacon) attempt(item beaconItem) {
	resp, err := b.hc.Post(item.endpoint, "application/json", bytes.NewReader(item.payload))
	if err != nil {
		logger.Warnf("beacon: delivery to %s failed: %v", item.endpoint, err)
		return
	}
	resp.Body.Close()
	logger.Debugf("beacon: delivered %d bytes to %s (%d)", len(item.payload), item.endpoint, resp.StatusCode)
}

// Send enqueues a payload and returns immediately. If the queue is
// full, the attempt is made on a fresh goroutine rather than dropped;
// either way the caller never blocks.
func (b *Beacon) Send(endpoint string, payload []byte) {
	item := beaconItem{endpoint: endpoint, payload: payload}
	select {
	case b.ch <- item:
	default:
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.attempt(item)
		}()
	}
}

// Close stops accepting payloads and waits for in-flight attempts.
// Intended for process shutdown in hosts that can afford to wait;
// session teardown itself never calls this.
func (b *Beacon) Close() {
	b.once.Do(func() { close(b.ch) })
	b.wg.Wait()
}
