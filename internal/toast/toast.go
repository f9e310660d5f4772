package toast

import (
	"sync"
	"time"

	"github.com/fjod/go_cart/bookshop/internal/domain"
	"github.com/fjod/go_cart/bookshop/internal/reactive"
)

const (
	DefaultPersist = 2500 * time.Millisecond
	DefaultFade    = 500 * time.Millisecond
)

type Phase int

const (
	Idle Phase = iota
	Showing
	FadingOut
)

func (p Phase) String() string {
	switch p {
	case Showing:
		return "showing"
	case FadingOut:
		return "fading-out"
	default:
		return "idle"
	}
}

// Center queues short-lived notices.
//
// Idle -> Showing on Display; Showing -> FadingOut once persist elapses;
// FadingOut -> Idle once fade elapses. Display while Showing or FadingOut
// appends to the queue and restarts the persist timer. The queue is only
// emptied on the return to Idle.
type Center struct {
	mu       sync.Mutex
	persist  time.Duration
	fade     time.Duration
	phase    Phase
	messages []string
	timer    *time.Timer
	gen      uint64 // bumped on every reschedule; stale timer callbacks compare against it
	closed   bool

	state *reactive.Signal[domain.ToastState]
}

func New(persist, fade time.Duration) *Center {
	c := &Center{
		persist: persist,
		fade:    fade,
	}
	c.state = reactive.New(c.snapshot())
	return c
}

func (c *Center) State() reactive.Accessor[domain.ToastState] {
	return c.state
}

func (c *Center) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Center) Display(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.messages = append(c.messages, text)
	c.phase = Showing
	c.schedule(c.persist, c.fadeOut)
	c.mu.Unlock()

	c.publish()
}

// Close cancels pending timers. Display is ignored afterwards.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.cancel()
}

func (c *Center) fadeOut(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.phase = FadingOut
	c.schedule(c.fade, c.reset)
	c.mu.Unlock()

	c.publish()
}

func (c *Center) reset(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.phase = Idle
	c.messages = nil
	c.cancel()
	c.mu.Unlock()

	c.publish()
}

// schedule must be called with c.mu held.
func (c *Center) schedule(d time.Duration, fn func(gen uint64)) {
	c.cancel()
	gen := c.gen
	c.timer = time.AfterFunc(d, func() { fn(gen) })
}

// cancel must be called with c.mu held.
func (c *Center) cancel() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

func (c *Center) publish() {
	c.state.Update(func(domain.ToastState) domain.ToastState {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.snapshot()
	})
}

func (c *Center) snapshot() domain.ToastState {
	return domain.ToastState{
		Show:     c.phase == Showing,
		FadeMs:   c.fade.Milliseconds(),
		Messages: append(make([]string, 0, len(c.messages)), c.messages...),
	}
}
