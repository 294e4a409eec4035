// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package comlink

import "time"

// Ticker is the periodic timebase a Communicator drives Tick from. It
// generalizes the original's QTimer-driven timer() slot into something
// testable: production code uses realTicker (time.Ticker), tests supply a
// manualTicker driven by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// realTicker wraps time.Ticker.
type realTicker struct {
	t *time.Ticker
}

// NewTicker returns a Ticker backed by time.Ticker, firing every d.
func NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// manualTicker is a Ticker a test drives explicitly by calling Fire. Useful
// for deterministic scheduler/dispatcher timing tests without real sleeps.
type manualTicker struct {
	ch chan time.Time
}

// NewManualTicker returns a Ticker that only fires when Fire is called.
func NewManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time, 1)}
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               {}

// Fire sends now on the ticker channel, non-blocking: a tick a consumer
// hasn't read yet is simply coalesced, matching time.Ticker's own behavior.
func (m *manualTicker) Fire(now time.Time) {
	select {
	case m.ch <- now:
	default:
	}
}
