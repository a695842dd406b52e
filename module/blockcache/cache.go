package blockcache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/chainforge/validator/model/ledger"
	"github.com/chainforge/validator/module"
	"github.com/chainforge/validator/storage"
)

const (
	DefaultKeepTime       = 300 * time.Second
	DefaultPurgeFrequency = 30 * time.Second

	// DefaultCapacity bounds the cache independent of the keep time.
	DefaultCapacity = 10_000
)

type entry struct {
	block      *ledger.Block
	lastAccess time.Time
}

// Cache holds recently accessed blocks. Lookups that miss fall back to the block
// store. Blocks that were not accessed for the keep time are purged, at most once
// per purge frequency, lazily on the next access. Cache is safe for concurrent use
// by the chain controller and the block publisher.
type Cache struct {
	log            zerolog.Logger
	store          storage.Blocks
	metrics        module.JournalMetrics
	keepTime       time.Duration
	purgeFrequency time.Duration
	now            func() time.Time

	mu        sync.Mutex
	blocks    *lru.Cache[ledger.Identifier, *entry]
	lastPurge time.Time
}

var _ module.BlockCache = (*Cache)(nil)

type OptionFunc func(*Cache)

// WithClock replaces the time source. Used by tests.
func WithClock(now func() time.Time) OptionFunc {
	return func(c *Cache) {
		c.now = now
	}
}

// WithCapacity bounds the number of cached blocks.
func WithCapacity(capacity int) OptionFunc {
	return func(c *Cache) {
		blocks, err := lru.New[ledger.Identifier, *entry](capacity)
		if err == nil {
			c.blocks = blocks
		}
	}
}

func New(
	log zerolog.Logger,
	store storage.Blocks,
	metrics module.JournalMetrics,
	keepTime time.Duration,
	purgeFrequency time.Duration,
	opts ...OptionFunc,
) *Cache {
	blocks, _ := lru.New[ledger.Identifier, *entry](DefaultCapacity)
	c := &Cache{
		log:            log.With().Str("component", "block_cache").Logger(),
		store:          store,
		metrics:        metrics,
		keepTime:       keepTime,
		purgeFrequency: purgeFrequency,
		now:            time.Now,
		blocks:         blocks,
	}
	for _, apply := range opts {
		apply(c)
	}
	c.lastPurge = c.now()
	return c
}

// Add inserts or refreshes the block.
func (c *Cache) Add(block *ledger.Block) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.blocks.Add(block.ID(), &entry{block: block, lastAccess: now})
	c.purgeIfDue(now)
	c.metrics.BlockCacheSize(c.blocks.Len())
}

// Get returns the block with the given ID, loading it from the block store and
// caching it on a miss.
func (c *Cache) Get(blockID ledger.Identifier) (*ledger.Block, bool) {
	c.mu.Lock()
	now := c.now()
	c.purgeIfDue(now)
	cached, ok := c.blocks.Get(blockID)
	if ok {
		cached.lastAccess = now
		c.mu.Unlock()
		return cached.block, true
	}
	c.mu.Unlock()

	if c.store == nil {
		return nil, false
	}
	block, err := c.store.ByID(blockID)
	if err != nil {
		return nil, false
	}
	c.Add(block)
	return block, true
}

// Has checks the cache only, without consulting the block store.
func (c *Cache) Has(blockID ledger.Identifier) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.blocks.Contains(blockID)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.blocks.Len()
}

// purgeIfDue removes every block not accessed within the keep time. It runs at
// most once per purge frequency. Must be called with the lock held.
func (c *Cache) purgeIfDue(now time.Time) {
	if now.Sub(c.lastPurge) < c.purgeFrequency {
		return
	}
	c.lastPurge = now

	purged := 0
	for _, id := range c.blocks.Keys() {
		cached, ok := c.blocks.Peek(id)
		if ok && now.Sub(cached.lastAccess) > c.keepTime {
			c.blocks.Remove(id)
			purged++
		}
	}
	if purged > 0 {
		c.log.Debug().Int("purged", purged).Int("remaining", c.blocks.Len()).Msg("purged block cache")
		c.metrics.BlockCacheSize(c.blocks.Len())
	}
}
