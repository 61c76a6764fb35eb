package txpool

import (
	"time"

	"github.com/dominant-strategies/go-layerpool/common"
	"github.com/dominant-strategies/go-layerpool/common/timedcache"
	"github.com/dominant-strategies/go-layerpool/core/types"
)

// EvictedTx records a transaction that left the pool for good.
type EvictedTx struct {
	Tx        *types.Transaction
	Layer     LayerKind // layer the transaction was removed from
	Reason    RemovalReason
	Local     bool
	EvictedAt time.Time
}

// evictCollector is the terminal stage of the pool. It keeps a bounded, time
// limited record of removed transactions and never hands them back to the
// other layers.
type evictCollector struct {
	cache *timedcache.TimedCache[common.Hash, *EvictedTx]
}

func newEvictCollector(retention int, lifetime time.Duration) *evictCollector {
	cache, err := timedcache.New[common.Hash, *EvictedTx](retention, lifetime)
	if err != nil {
		// only possible for a non-positive size, which sanitize rules out
		panic(err)
	}
	return &evictCollector{cache: cache}
}

func (c *evictCollector) add(ptx *PendingTx, from LayerKind, reason RemovalReason) {
	c.cache.Add(ptx.hash, &EvictedTx{
		Tx:        ptx.Tx,
		Layer:     from,
		Reason:    reason,
		Local:     ptx.local,
		EvictedAt: time.Now(),
	})
}

func (c *evictCollector) get(hash common.Hash) *EvictedTx {
	evicted, _ := c.cache.Get(hash)
	return evicted
}

func (c *evictCollector) evicted() []*EvictedTx { return c.cache.Values() }
func (c *evictCollector) drain() []*EvictedTx   { return c.cache.Drain() }
func (c *evictCollector) Len() int              { return c.cache.Len() }
