package engine

import (
	"sync"
	"time"
)

// poller drives the fast and slow refresh loops of one session. Tick
// handlers that find a refresh still in flight skip their cycle; ticks
// are never queued.
//
// Burst mode temporarily shortens the fast interval; setting it resets
// the running ticker rather than spawning a second loop. Entering burst
// fires a refresh right away; leaving it only restores the interval, so
// the transition back never produces an extra fetch.
type poller struct {
	fastInterval  time.Duration
	slowInterval  time.Duration
	burstInterval time.Duration

	onFast func()
	onSlow func()

	mu    sync.Mutex
	burst bool

	reloadFast chan time.Duration
	done       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func newPoller(fast, slow, burst time.Duration, onFast, onSlow func()) *poller {
	return &poller{
		fastInterval:  fast,
		slowInterval:  slow,
		burstInterval: burst,
		onFast:        onFast,
		onSlow:        onSlow,
		reloadFast:    make(chan time.Duration, 1),
		done:          make(chan struct{}),
	}
}

// start launches both cadence loops. Each group fires once immediately so
// a fresh session has data before the first interval elapses.
func (p *poller) start() {
	p.wg.Add(2)
	go p.loop(p.fastInterval, p.onFast, p.reloadFast)
	go p.loop(p.slowInterval, p.onSlow, nil)
}

func (p *poller) loop(interval time.Duration, fn func(), reload chan time.Duration) {
	defer p.wg.Done()

	fn()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case d := <-reloadChan(reload):
			ticker.Reset(d)
			if d < interval {
				fn()
			}
			interval = d
		case <-ticker.C:
			fn()
		}
	}
}

// reloadChan turns a nil reload channel into one that never fires, so
// the slow loop can share the select shape.
func reloadChan(ch chan time.Duration) <-chan time.Duration {
	if ch == nil {
		return nil
	}
	return ch
}

// setBurst switches the fast group between its normal and burst cadence.
// Redundant calls are no-ops.
func (p *poller) setBurst(on bool) {
	p.mu.Lock()
	if p.burst == on {
		p.mu.Unlock()
		return
	}
	p.burst = on
	p.mu.Unlock()

	interval := p.fastInterval
	if on {
		interval = p.burstInterval
	}
	select {
	case p.reloadFast <- interval:
	case <-p.done:
	}
}

// inBurst reports whether burst cadence is active.
func (p *poller) inBurst() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.burst
}

// signalStop asks the loops to exit without waiting. Used from inside a
// tick handler, where waiting would deadlock.
func (p *poller) signalStop() {
	p.stopOnce.Do(func() { close(p.done) })
}

// stop halts both loops and waits for any running tick handler to
// return.
func (p *poller) stop() {
	p.signalStop()
	p.wg.Wait()
}
