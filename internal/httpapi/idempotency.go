package httpapi

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	replayCacheSize = 10_000
	replayCacheTTL  = 24 * time.Hour
)

type cachedResponse struct {
	status int
	body   any
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// replayCache remembers successful responses per caller and Idempotency-Key
// so that a retried request returns the first result instead of running twice.
// Responses expire after ttl and the oldest are evicted past size.
type replayCache struct {
	mapMu     sync.Mutex
	muMap     map[string]*keyLock
	responses *expirable.LRU[string, cachedResponse]
}

func newReplayCache(size int, ttl time.Duration) *replayCache {
	return &replayCache{
		muMap:     make(map[string]*keyLock),
		responses: expirable.NewLRU[string, cachedResponse](size, nil, ttl),
	}
}

// lock serialises requests sharing key and returns the unlock func. The
// per-key mutex is dropped once nobody holds or waits on it.
func (c *replayCache) lock(key string) func() {
	c.mapMu.Lock()
	kl, exists := c.muMap[key]
	if !exists {
		kl = &keyLock{}
		c.muMap[key] = kl
	}
	kl.refs++
	c.mapMu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()

		c.mapMu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(c.muMap, key)
		}
		c.mapMu.Unlock()
	}
}

func (c *replayCache) get(key string) (cachedResponse, bool) {
	return c.responses.Get(key)
}

func (c *replayCache) put(key string, resp cachedResponse) {
	c.responses.Add(key, resp)
}
