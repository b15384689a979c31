package httpclient

import (
	"context"
	"sync"
)

// Publisher receives results of one invocation. Publish reports false when
// the result was discarded because a newer invocation has published.
type Publisher interface {
	Publish(Result) bool
}

// Exchange is the shared result slot of a session. Every send gets a
// sequence number from Begin; starting a send cancels the one still in
// flight, and updates carrying an older sequence number than the newest
// published one are dropped.
type Exchange struct {
	mu        sync.Mutex
	next      uint64
	latest    uint64
	result    Result
	cancel    context.CancelFunc
	cancelSeq uint64
	listeners []func(Result)
	closed    bool
}

func NewExchange() *Exchange {
	return &Exchange{}
}

// Begin allocates the next sequence number and a context that is cancelled
// by the next Begin, by Close, or by End for the same sequence number.
func (x *Exchange) Begin(parent context.Context) (context.Context, uint64) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.cancel != nil {
		x.cancel()
		x.cancel = nil
		SupersededInc()
	}

	x.next++
	ctx, cancel := context.WithCancel(parent)
	if x.closed {
		cancel()
	} else {
		x.cancel = cancel
		x.cancelSeq = x.next
	}
	return ctx, x.next
}

// End releases the context of seq if it is still the one in flight.
func (x *Exchange) End(seq uint64) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.cancel != nil && x.cancelSeq == seq {
		x.cancel()
		x.cancel = nil
	}
}

// InFlight reports whether a send is running.
func (x *Exchange) InFlight() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.cancel != nil
}

// Publish stores r unless a newer invocation already published. Listeners
// run under the slot lock, in publish order, and must not call back into
// the Exchange.
func (x *Exchange) Publish(r Result) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	if r.Seq < x.latest {
		return false
	}
	x.latest = r.Seq
	x.result = r
	for _, fn := range x.listeners {
		fn(r)
	}
	return true
}

// Result returns the latest published result.
func (x *Exchange) Result() Result {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.result
}

// OnChange registers fn to be called with every accepted result.
func (x *Exchange) OnChange(fn func(Result)) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.listeners = append(x.listeners, fn)
}

// Close cancels the in-flight send. Later sends start already cancelled.
func (x *Exchange) Close() {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.closed = true
	if x.cancel != nil {
		x.cancel()
		x.cancel = nil
	}
}
