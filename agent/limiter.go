package agent

import (
	"fmt"
	"sync"

	"github.com/hupe1980/nanocode/core"
)

// RoundLimiter enforces a maximum number of tool rounds per user request.
type RoundLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewRoundLimiter creates a new limiter allowing max tool rounds.
// If max == 0, unlimited rounds are allowed.
func NewRoundLimiter(max int) *RoundLimiter {
	return &RoundLimiter{max: max}
}

// Increment records a tool round and returns core.ErrToolLoopExceeded once the
// limit is exceeded.
func (rl *RoundLimiter) Increment() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.count++
	if rl.max > 0 && rl.count > rl.max {
		return fmt.Errorf("%w: more than %d tool rounds", core.ErrToolLoopExceeded, rl.max)
	}

	return nil
}

// Count returns the number of rounds recorded.
func (rl *RoundLimiter) Count() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return rl.count
}

// Remaining returns how many rounds are left before hitting the limit.
func (rl *RoundLimiter) Remaining() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.max == 0 {
		return -1 // unlimited
	}

	return rl.max - rl.count
}
