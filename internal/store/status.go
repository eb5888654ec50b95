package store

import "time"

// setStatus transitions the indicator and arms the auto-clear timer for
// terminal states. Each transition bumps a generation counter so a
// timer armed by an older operation can never clear a newer status.
func (o *orchestrator) setStatus(state State, message string) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.statusGen++
	gen := o.statusGen
	o.status = Status{State: state, Message: message}

	if o.clearTimer != nil {
		o.clearTimer.Stop()
		o.clearTimer = nil
	}

	var delay time.Duration
	switch state {
	case StateSuccess:
		delay = o.successDelay
	case StateError:
		delay = o.errorDelay
	}
	if delay > 0 {
		o.clearTimer = time.AfterFunc(delay, func() { o.clearStatus(gen) })
	}
	o.mu.Unlock()

	o.notify(Event{Kind: EventStatus, Status: Status{State: state, Message: message}})
}

// clearStatus returns the indicator to idle if the generation still
// matches the timer that fired.
func (o *orchestrator) clearStatus(gen uint64) {
	o.mu.Lock()
	if o.closed || o.statusGen != gen || o.status.State == StateIdle {
		o.mu.Unlock()
		return
	}
	o.statusGen++
	o.status = Status{State: StateIdle}
	o.clearTimer = nil
	o.mu.Unlock()

	o.notify(Event{Kind: EventStatus, Status: Status{State: StateIdle}})
}

// subscriberBuffer sizes each subscriber channel. A consumer that falls
// further behind than this drops events and re-pulls on the next one.
const subscriberBuffer = 16

// Subscribe implements Store.Subscribe.
func (o *orchestrator) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	o.subMu.Lock()
	if o.subs == nil {
		// Closed store: hand back a closed channel so ranging ends.
		o.subMu.Unlock()
		close(ch)
		return ch
	}
	o.subs[ch] = struct{}{}
	o.subMu.Unlock()
	return ch
}

// Unsubscribe implements Store.Unsubscribe.
func (o *orchestrator) Unsubscribe(ch <-chan Event) {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	for sub := range o.subs {
		if sub == ch {
			delete(o.subs, sub)
			close(sub)
			return
		}
	}
}

// notify fans an event out to every subscriber without blocking the
// sync path. Full subscriber buffers drop the event; subscribers treat
// any event as "re-pull state", so a drop loses no information that the
// next event does not restore.
func (o *orchestrator) notify(ev Event) {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	for ch := range o.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
