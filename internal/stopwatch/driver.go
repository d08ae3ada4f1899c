package stopwatch

import (
	"sync/atomic"
	"time"
)

// Display refresh and pulse cadence for the capture UI.
const (
	TickInterval  = 10 * time.Millisecond
	PulseInterval = 1500 * time.Millisecond
)

// Driver emits the two periodic display signals: a high-frequency tick
// carrying the current elapsed time and a slower boolean pulse toggle.
// The two signals are independent concerns and run off separate tickers.
//
// A single goroutine owns both tickers; Stop tears it down and is safe to
// call more than once. No emission happens after Stop returns.
type Driver struct {
	ticks  chan time.Duration
	pulses chan bool

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// StartDriver launches the signal loop reading elapsed from the stopwatch.
func StartDriver(sw *Stopwatch, tick, pulse time.Duration) *Driver {
	if tick <= 0 {
		tick = TickInterval
	}
	if pulse <= 0 {
		pulse = PulseInterval
	}

	d := &Driver{
		ticks:   make(chan time.Duration, 1),
		pulses:  make(chan bool, 1),
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go d.run(sw, tick, pulse)
	return d
}

func (d *Driver) run(sw *Stopwatch, tick, pulse time.Duration) {
	defer close(d.stopped)

	tickT := time.NewTicker(tick)
	defer tickT.Stop()
	pulseT := time.NewTicker(pulse)
	defer pulseT.Stop()

	light := false
	for {
		select {
		case <-d.stopCh:
			return
		case <-tickT.C:
			// Drop the stale value if the consumer lags; the next tick
			// carries a fresher elapsed anyway.
			select {
			case d.ticks <- sw.Elapsed():
			default:
				select {
				case <-d.ticks:
				default:
				}
				select {
				case d.ticks <- sw.Elapsed():
				default:
				}
			}
		case <-pulseT.C:
			light = !light
			select {
			case d.pulses <- light:
			default:
			}
		}
	}
}

// Ticks is the elapsed-time display channel.
func (d *Driver) Ticks() <-chan time.Duration {
	return d.ticks
}

// Pulses is the visual pulse toggle channel.
func (d *Driver) Pulses() <-chan bool {
	return d.pulses
}

// Stop halts both tickers and waits for the loop to exit. Idempotent.
func (d *Driver) Stop() {
	if d.closed.CompareAndSwap(false, true) {
		close(d.stopCh)
	}
	<-d.stopped
}
