package composite

import (
	"sync"
	"time"
)

// BreakerState is the admission state of a circuit breaker.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerSettings configures a Breaker. Window is the number of most recent
// call outcomes considered; the breaker trips when at least MinCalls outcomes
// are recorded and the failure percentage reaches FailurePct. After Cooldown
// in the open state, up to Probes trial calls are admitted.
type BreakerSettings struct {
	Window     int
	MinCalls   int
	FailurePct int
	Cooldown   time.Duration
	Probes     int
}

// Breaker is a count-based sliding-window circuit breaker shared by all
// concurrent callers of one operation type. All transitions happen under a
// single mutex.
type Breaker struct {
	mu       sync.Mutex
	settings BreakerSettings

	state    BreakerState
	outcomes []bool // ring buffer of call results, true = failure
	head     int
	filled   int
	failures int
	openedAt time.Time
	probes   int

	now func() time.Time
}

// NewBreaker creates a closed breaker.
func NewBreaker(settings BreakerSettings) *Breaker {
	if settings.Window <= 0 {
		settings.Window = 10
	}
	if settings.MinCalls <= 0 {
		settings.MinCalls = settings.Window / 2
	}
	if settings.MinCalls < 1 {
		settings.MinCalls = 1
	}
	if settings.FailurePct <= 0 {
		settings.FailurePct = 50
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 10 * time.Second
	}
	if settings.Probes <= 0 {
		settings.Probes = 1
	}
	return &Breaker{
		settings: settings,
		outcomes: make([]bool, settings.Window),
		now:      time.Now,
	}
}

// Allow reports whether a call may pass through. In the open state it flips to
// half-open once the cooldown elapsed and then admits a limited number of
// probes; everything else is short-circuited.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.settings.Cooldown {
			return false
		}
		b.state = StateHalfOpen
		b.probes = 0
		fallthrough
	case StateHalfOpen:
		if b.probes < b.settings.Probes {
			b.probes++
			return true
		}
		return false
	}
	return false
}

// Record feeds a call outcome back into the breaker.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.push(!success)
		if b.filled >= b.settings.MinCalls && b.failureRate() >= b.settings.FailurePct {
			b.trip()
		}
	case StateHalfOpen:
		if success {
			b.reset()
		} else {
			b.trip()
		}
	case StateOpen:
		// Late result from a call admitted before the trip; the open timer
		// already governs recovery.
	}
}

// State returns the current admission state without advancing timers.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) push(failure bool) {
	if b.filled == len(b.outcomes) {
		if b.outcomes[b.head] {
			b.failures--
		}
	} else {
		b.filled++
	}
	b.outcomes[b.head] = failure
	if failure {
		b.failures++
	}
	b.head = (b.head + 1) % len(b.outcomes)
}

func (b *Breaker) failureRate() int {
	if b.filled == 0 {
		return 0
	}
	return b.failures * 100 / b.filled
}

func (b *Breaker) trip() {
	b.state = StateOpen
	b.openedAt = b.now()
	b.clearWindow()
}

func (b *Breaker) reset() {
	b.state = StateClosed
	b.clearWindow()
}

func (b *Breaker) clearWindow() {
	for i := range b.outcomes {
		b.outcomes[i] = false
	}
	b.head = 0
	b.filled = 0
	b.failures = 0
	b.probes = 0
}
