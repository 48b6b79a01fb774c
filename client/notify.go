package client

import (
	"sync"
	"time"
)

// DefaultNoticeTTL matches the five seconds a notice stays on screen.
const DefaultNoticeTTL = 5 * time.Second

type Notice struct {
	Message string
	At      time.Time
	expires time.Time
}

// Notifier collects transient notices. Notify never blocks and never
// fails; expired notices are pruned on read. Multiple concurrent notices
// are fine.
type Notifier struct {
	mu       sync.Mutex
	notices  []Notice
	ttl      time.Duration
	onChange func()
	now      func() time.Time
}

func NewNotifier(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	return &Notifier{ttl: ttl, now: time.Now}
}

// OnChange registers a hook fired after each new notice, typically a
// render trigger. May be nil.
func (n *Notifier) OnChange(fn func()) {
	n.mu.Lock()
	n.onChange = fn
	n.mu.Unlock()
}

func (n *Notifier) Notify(message string) {
	n.mu.Lock()
	now := n.now()
	n.notices = append(n.notices, Notice{
		Message: message,
		At:      now,
		expires: now.Add(n.ttl),
	})
	fn := n.onChange
	n.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Active returns the notices still inside their display interval and
// drops the rest.
func (n *Notifier) Active() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	kept := n.notices[:0]
	for _, notice := range n.notices {
		if notice.expires.After(now) {
			kept = append(kept, notice)
		}
	}
	n.notices = kept
	out := make([]Notice, len(kept))
	copy(out, kept)
	return out
}
