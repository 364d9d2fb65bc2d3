// SPDX-License-Identifier: EPL-2.0

package output

import (
	"sync"
	"time"
)

// Pump is a Stream for software devices. It invokes the callback from its
// own goroutine, hands every filled buffer to deliver, and stops when the
// callback returns Complete, deliver fails, or Stop is called.
//
// With a zero period buffers are produced as fast as deliver accepts them;
// otherwise one buffer is produced per period.
type Pump struct {
	settings Settings
	cb       Callback
	period   time.Duration
	deliver  func(buf []float32) error

	mtx    sync.Mutex
	stop   chan struct{}
	done   chan struct{}
	err    error
	closed bool
}

func NewPump(s Settings, cb Callback, period time.Duration, deliver func(buf []float32) error) *Pump {
	return &Pump{
		settings: s,
		cb:       cb,
		period:   period,
		deliver:  deliver,
	}
}

// Start launches the pump goroutine. Starting a running pump is a no-op.
func (p *Pump) Start() error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if p.closed {
		return ErrStreamClosed
	}
	if p.done != nil {
		select {
		case <-p.done:
		default:
			return nil
		}
	}

	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(p.stop, p.done)

	return nil
}

// Stop halts the pump and waits for the goroutine to exit. It returns the
// error that ended delivery, if any.
func (p *Pump) Stop() error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	return p.halt()
}

// Close stops the pump. A closed pump cannot be restarted.
func (p *Pump) Close() error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	return p.halt()
}

// Done is closed when the pump goroutine exits. It is nil before Start.
func (p *Pump) Done() <-chan struct{} {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	return p.done
}

func (p *Pump) halt() error {
	if p.done == nil {
		return nil
	}

	select {
	case <-p.stop:
	default:
		close(p.stop)
	}
	<-p.done

	return p.err
}

func (p *Pump) run(stop, done chan struct{}) {
	defer close(done)

	buf := make([]float32, p.settings.BufferSamples())

	var tick <-chan time.Time
	if p.period > 0 {
		t := time.NewTicker(p.period)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-stop:
			return
		default:
		}

		res := p.cb(buf, p.settings.FramesPerBuffer)
		if p.deliver != nil {
			if err := p.deliver(buf); err != nil {
				p.err = err
				return
			}
		}
		if res == Complete {
			return
		}

		if tick != nil {
			select {
			case <-stop:
				return
			case <-tick:
			}
		}
	}
}
