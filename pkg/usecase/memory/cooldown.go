package memory

import (
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/model"
)

// DefaultCooldown is the minimum interval between consolidation passes
// for one user
const DefaultCooldown = 10 * time.Minute

// Cooldown throttles consolidation per user. It is a heuristic, not a
// lock: two triggers racing past the boundary may both run, and the
// consolidation phases tolerate that.
type Cooldown interface {
	// Active reports whether the user is still within the cooldown window
	Active(user model.UserID) bool
	// Touch starts a new cooldown window for the user
	Touch(user model.UserID)
}

type ristrettoCooldown struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewCooldown creates a TTL-cache-backed cooldown store. The TTL is the
// cooldown window; zero selects DefaultCooldown.
func NewCooldown(ttl time.Duration) (Cooldown, error) {
	if ttl <= 0 {
		ttl = DefaultCooldown
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create cooldown cache")
	}

	return &ristrettoCooldown{cache: cache, ttl: ttl}, nil
}

func (c *ristrettoCooldown) Active(user model.UserID) bool {
	_, ok := c.cache.Get(string(user))
	return ok
}

func (c *ristrettoCooldown) Touch(user model.UserID) {
	c.cache.SetWithTTL(string(user), time.Now(), 1, c.ttl)
	// Flush the set buffer so an immediately following Active sees it
	c.cache.Wait()
}
