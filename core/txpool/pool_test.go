// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package txpool

import (
	"sync"
	"testing"

	"github.com/davecgh/go-spew/spew"
	fuzz "github.com/google/gofuzz"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominant-strategies/go-layerpool/common"
	"github.com/dominant-strategies/go-layerpool/core/types"
	"github.com/dominant-strategies/go-layerpool/log"
)

type droppedEvent struct {
	hash   common.Hash
	reason RemovalReason
}

// eventRecorder collects the notifications of a pool in delivery order.
type eventRecorder struct {
	mu      sync.Mutex
	added   []common.Hash
	dropped []droppedEvent
}

func recordEvents(pool *TxPool) *eventRecorder {
	rec := new(eventRecorder)
	pool.SubscribeAdded(AddedListenerFunc(func(tx *types.Transaction) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.added = append(rec.added, tx.Hash())
	}))
	pool.SubscribeDropped(DroppedListenerFunc(func(tx *types.Transaction, reason RemovalReason) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.dropped = append(rec.dropped, droppedEvent{tx.Hash(), reason})
	}))
	return rec
}

func (rec *eventRecorder) droppedWith(reason RemovalReason) []common.Hash {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	var hashes []common.Hash
	for _, ev := range rec.dropped {
		if ev.reason == reason {
			hashes = append(hashes, ev.hash)
		}
	}
	return hashes
}

func selectAll(pool *TxPool) []common.Hash {
	var hashes []common.Hash
	pool.Select(func(ptx *PendingTx) SelectionResult {
		hashes = append(hashes, ptx.Hash())
		return SelectContinue
	})
	return hashes
}

func layerOf(t *testing.T, pool *TxPool, tx *types.Transaction) LayerKind {
	t.Helper()
	kind, ok := pool.Layer(tx.Hash())
	require.True(t, ok, "transaction %x not in pool", tx.Hash())
	return kind
}

func TestOutOfOrderNoncesBecomeExecutable(t *testing.T) {
	pool := newTestPool(t, nil)
	addr := testAddr(1)

	txs := []*types.Transaction{pricedTx(addr, 0, 1), pricedTx(addr, 1, 1), pricedTx(addr, 2, 1)}
	for i := len(txs) - 1; i >= 0; i-- {
		require.Equal(t, Added, pool.AddRemote(txs[i], 0))
		require.NoError(t, validatePoolInternals(pool))
	}
	statuses := pool.Status([]common.Hash{txs[0].Hash(), txs[1].Hash(), txs[2].Hash()})
	assert.Equal(t, []TxStatus{TxStatusPending, TxStatusPending, TxStatusPending}, statuses)
	assert.Equal(t, []common.Hash{txs[0].Hash(), txs[1].Hash(), txs[2].Hash()}, selectAll(pool))
}

func TestNextNonceWithGap(t *testing.T) {
	pool := newTestPool(t, func(c *Config) { c.MaxFutureBySender = 5 })
	addr := testAddr(1)

	assert.Equal(t, RejectedStale, pool.AddRemote(pricedTx(addr, 0, 1), 1))
	for _, nonce := range []uint64{1, 2, 4} {
		require.Equal(t, Added, pool.AddRemote(pricedTx(addr, nonce, 1), 1))
	}
	assert.Equal(t, 3, pool.Size())
	next, ok := pool.NextNonce(addr)
	require.True(t, ok)
	assert.Equal(t, uint64(3), next)

	require.Equal(t, Added, pool.AddRemote(pricedTx(addr, 3, 1), 1))
	assert.Equal(t, 4, pool.Size())
	next, _ = pool.NextNonce(addr)
	assert.Equal(t, uint64(5), next)
	assert.Equal(t, LayerPrioritized, layerOf(t, pool, pricedTx(addr, 4, 1)))

	assert.Equal(t, Added, pool.AddRemote(pricedTx(addr, 5, 1), 1))
	assert.Equal(t, NonceTooFarInFuture, pool.AddRemote(pricedTx(addr, 6, 1), 1))
	assert.Equal(t, NonceTooFarInFuture, pool.AddRemote(pricedTx(addr, 7, 1), 1))
	assert.Equal(t, 5, pool.Size())
	next, _ = pool.NextNonce(addr)
	assert.Equal(t, uint64(6), next)
	require.NoError(t, validatePoolInternals(pool))
}

func TestNonceTooFarInFuture(t *testing.T) {
	pool := newTestPool(t, func(c *Config) { c.MaxFutureBySender = 4 })
	addr := testAddr(1)

	for _, nonce := range []uint64{1, 2, 4, 3} {
		require.Equal(t, Added, pool.AddRemote(pricedTx(addr, nonce, 1), 1))
	}
	for _, nonce := range []uint64{5, 6, 7} {
		assert.Equal(t, NonceTooFarInFuture, pool.AddRemote(pricedTx(addr, nonce, 1), 1))
	}
	assert.Equal(t, 4, pool.Size())
	next, _ := pool.NextNonce(addr)
	assert.Equal(t, uint64(5), next)
}

func TestNextNonceRequiresOnChainNonce(t *testing.T) {
	pool := newTestPool(t, nil)
	addr := testAddr(1)

	require.Equal(t, Added, pool.AddRemote(pricedTx(addr, 3, 1), 1))
	_, ok := pool.NextNonce(addr)
	assert.False(t, ok)
	assert.Equal(t, []TxStatus{TxStatusQueued}, pool.Status([]common.Hash{pricedTx(addr, 3, 1).Hash()}))

	_, ok = pool.NextNonce(testAddr(2))
	assert.False(t, ok)
}

func TestCapacityEvictsLowestValue(t *testing.T) {
	pool := newTestPool(t, func(c *Config) {
		c.MaxPrioritized = 2
		c.LayerMaxCapacityBytes = 2 * txSize
	})
	// Two executable senders in each executable layer, two gapped ones
	for i, price := range []uint64{1, 2, 3, 4} {
		require.Equal(t, Added, pool.AddRemote(pricedTx(testAddr(byte(i+1)), 0, price), 0))
	}
	require.Equal(t, Added, pool.AddRemote(pricedTx(testAddr(5), 1, 5), 0))
	require.Equal(t, Added, pool.AddRemote(pricedTx(testAddr(6), 1, 6), 0))
	require.Equal(t, 6, pool.Size())
	assert.Equal(t, LayerReady, layerOf(t, pool, pricedTx(testAddr(1), 0, 1)))

	rec := recordEvents(pool)
	rich := pricedTx(testAddr(7), 0, 100)
	require.Equal(t, Added, pool.AddRemote(rich, 0))
	require.NoError(t, validatePoolInternals(pool))

	victim := pricedTx(testAddr(1), 0, 1)
	assert.Equal(t, []common.Hash{victim.Hash()}, rec.droppedWith(ReasonCapacity))
	assert.Len(t, rec.dropped, 1)
	assert.Equal(t, 6, pool.Size())
	assert.Nil(t, pool.Get(victim.Hash()))
	assert.Equal(t, LayerPrioritized, layerOf(t, pool, rich))

	evicted := pool.EvictedByHash(victim.Hash())
	require.NotNil(t, evicted)
	assert.Equal(t, ReasonCapacity, evicted.Reason)
	assert.Equal(t, LayerSparse, evicted.Layer)
}

func TestUnderpricedReplacementRejected(t *testing.T) {
	pool := newTestPool(t, nil)
	addr := testAddr(1)

	original := pricedTx(addr, 0, 2)
	require.Equal(t, Added, pool.AddRemote(original, 0))
	assert.Equal(t, RejectedUnderpricedReplacement, pool.AddRemote(pricedTx(addr, 0, 1), 0))
	assert.Equal(t, RejectedUnderpricedReplacement, pool.AddRemote(pricedDataTx(addr, 0, 2, []byte{1}), 0))

	assert.Equal(t, 1, pool.Size())
	assert.True(t, pool.Has(original.Hash()))
}

func TestReplacementKeepsOnePendingTransaction(t *testing.T) {
	pool := newTestPool(t, nil)
	rec := recordEvents(pool)
	addr := testAddr(1)

	price := uint64(100)
	var last *types.Transaction
	for i := 0; i < 5; i++ {
		last = pricedTx(addr, 0, price)
		result := pool.AddLocal(last, 0)
		if i == 0 {
			require.Equal(t, Added, result)
		} else {
			require.Equal(t, Replaced, result)
		}
		price = price * 2
	}
	assert.Equal(t, 1, pool.Size())
	assert.Len(t, rec.droppedWith(ReasonReplaced), 4)
	assert.Len(t, rec.added, 5)
	assert.Equal(t, []common.Hash{last.Hash()}, selectAll(pool))

	// Resubmitting the winner is a no-op
	assert.Equal(t, AlreadyKnown, pool.AddLocal(last, 0))
	assert.Len(t, rec.added, 5)
	require.NoError(t, validatePoolInternals(pool))
}

func TestReplacementInSparseLayer(t *testing.T) {
	pool := newTestPool(t, nil)
	addr := testAddr(1)

	require.Equal(t, Added, pool.AddRemote(pricedTx(addr, 3, 10), 0))
	better := pricedTx(addr, 3, 20)
	require.Equal(t, Replaced, pool.AddRemote(better, 0))
	assert.Equal(t, LayerSparse, layerOf(t, pool, better))
	assert.Equal(t, 1, pool.Size())
}

func TestAlreadyKnownFromOtherOrigin(t *testing.T) {
	pool := newTestPool(t, nil)
	rec := recordEvents(pool)
	tx := pricedTx(testAddr(1), 0, 1)

	require.Equal(t, Added, pool.AddRemote(tx, 0))
	assert.Equal(t, AlreadyKnown, pool.AddLocal(tx, 0))
	assert.Equal(t, 1, pool.Size())
	assert.Len(t, rec.added, 1)
	assert.Equal(t, ErrAlreadyKnown, AlreadyKnown.Err())
}

func TestLocalSendersAreRemembered(t *testing.T) {
	pool := newTestPool(t, nil)
	local, remote := testAddr(1), testAddr(2)

	require.Equal(t, Added, pool.AddRemote(pricedTx(local, 0, 1), 0))
	require.Equal(t, Added, pool.AddRemote(pricedTx(remote, 0, 1), 0))
	assert.Empty(t, pool.LocalTransactions())

	require.Equal(t, Added, pool.AddLocal(pricedTx(local, 1, 1), 0))
	require.Equal(t, Added, pool.AddRemote(pricedTx(local, 2, 1), 0))

	assert.Equal(t, []common.Address{local}, pool.Locals())
	locals := pool.LocalTransactions()
	require.Len(t, locals, 3)
	for i, tx := range locals {
		assert.Equal(t, local, tx.From())
		assert.Equal(t, uint64(i), tx.Nonce())
	}
}

func TestNoLocals(t *testing.T) {
	pool := newTestPool(t, func(c *Config) { c.NoLocals = true })

	require.Equal(t, Added, pool.AddLocal(pricedTx(testAddr(1), 0, 1), 0))
	assert.Empty(t, pool.Locals())
	assert.Empty(t, pool.LocalTransactions())
}

func TestConfiguredLocals(t *testing.T) {
	addr := testAddr(1)
	pool := newTestPool(t, func(c *Config) { c.Locals = []common.Address{addr} })

	require.Equal(t, Added, pool.AddRemote(pricedTx(addr, 0, 1), 0))
	assert.Len(t, pool.LocalTransactions(), 1)
}

func TestSparseSenderLimit(t *testing.T) {
	pool := newTestPool(t, func(c *Config) { c.MaxSparsePerSender = 2 })
	rec := recordEvents(pool)
	addr := testAddr(1)

	for _, nonce := range []uint64{2, 3, 4} {
		require.Equal(t, Added, pool.AddRemote(pricedTx(addr, nonce, 1), 0))
	}
	assert.Equal(t, 2, pool.Size())
	assert.Equal(t, []common.Hash{pricedTx(addr, 4, 1).Hash()}, rec.droppedWith(ReasonCapacity))

	pending, queued := pool.Stats()
	assert.Equal(t, 0, pending)
	assert.Equal(t, 2, queued)
	require.NoError(t, validatePoolInternals(pool))
}

func TestOnBlockAddedPrunesConfirmed(t *testing.T) {
	pool := newTestPool(t, nil)
	rec := recordEvents(pool)
	addr := testAddr(1)

	for nonce := uint64(0); nonce < 4; nonce++ {
		require.Equal(t, Added, pool.AddRemote(pricedTx(addr, nonce, 1), 0))
	}
	pool.OnBlockAdded(map[common.Address]uint64{addr: 2, testAddr(9): 7})
	require.NoError(t, validatePoolInternals(pool))

	assert.Equal(t, 2, pool.Size())
	assert.Equal(t, []common.Hash{pricedTx(addr, 0, 1).Hash(), pricedTx(addr, 1, 1).Hash()}, rec.droppedWith(ReasonConfirmed))
	next, ok := pool.NextNonce(addr)
	require.True(t, ok)
	assert.Equal(t, uint64(4), next)

	// Lower hints are ignored while the sender is tracked
	pool.OnBlockAdded(map[common.Address]uint64{addr: 1})
	assert.Equal(t, 2, pool.Size())
	assert.Equal(t, RejectedStale, pool.AddRemote(pricedTx(addr, 1, 5), 1))

	// Untracked senders are not remembered
	_, ok = pool.NextNonce(testAddr(9))
	assert.False(t, ok)
	assert.Len(t, pool.Evicted(), 2)

	drained := pool.DrainEvicted()
	require.Len(t, drained, 2)
	for _, evicted := range drained {
		assert.Equal(t, ReasonConfirmed, evicted.Reason)
	}
	assert.Empty(t, pool.Evicted())
	assert.Nil(t, pool.EvictedByHash(pricedTx(addr, 0, 1).Hash()))
}

func TestOnBlockAddedClosesGap(t *testing.T) {
	pool := newTestPool(t, nil)
	addr := testAddr(1)

	require.Equal(t, Added, pool.AddRemote(pricedTx(addr, 0, 1), 0))
	gapped := pricedTx(addr, 2, 1)
	require.Equal(t, Added, pool.AddRemote(gapped, 0))
	require.Equal(t, LayerSparse, layerOf(t, pool, gapped))

	pool.OnBlockAdded(map[common.Address]uint64{addr: 2})
	assert.Equal(t, LayerPrioritized, layerOf(t, pool, gapped))
	assert.Equal(t, 1, pool.Size())
	require.NoError(t, validatePoolInternals(pool))
}

func TestAddWithHigherNonceHintPrunes(t *testing.T) {
	pool := newTestPool(t, nil)
	addr := testAddr(1)

	require.Equal(t, Added, pool.AddRemote(pricedTx(addr, 0, 1), 0))
	require.Equal(t, Added, pool.AddRemote(pricedTx(addr, 1, 1), 0))
	require.Equal(t, Added, pool.AddRemote(pricedTx(addr, 2, 1), 2))

	assert.Equal(t, 1, pool.Size())
	require.NoError(t, validatePoolInternals(pool))
}

func TestOnBlockAddedRebalancesOnBaseFee(t *testing.T) {
	fees := NewBaseFeeTracker(nil)
	config := DefaultConfig
	config.MaxPrioritized = 1
	pool := NewTxPool(config, fees, nil, log.Global, nil)
	defer pool.Stop()

	dynamic := dynamicFeeTx(testAddr(1), 0, 10, 100)
	fixed := pricedTx(testAddr(2), 0, 5)
	require.Equal(t, Added, pool.AddRemote(dynamic, 0))
	require.Equal(t, Added, pool.AddRemote(fixed, 0))
	require.Equal(t, LayerPrioritized, layerOf(t, pool, dynamic))
	require.Equal(t, LayerReady, layerOf(t, pool, fixed))

	fees.SetBaseFee(uint256.NewInt(97))
	pool.OnBlockAdded(nil)

	assert.Equal(t, LayerReady, layerOf(t, pool, dynamic))
	assert.Equal(t, LayerPrioritized, layerOf(t, pool, fixed))
	require.NoError(t, validatePoolInternals(pool))
}

func TestPrioritizedOverflowKeepsRunsContiguous(t *testing.T) {
	pool := newTestPool(t, func(c *Config) { c.MaxPrioritized = 3 })
	a, b := testAddr(1), testAddr(2)

	for nonce := uint64(0); nonce < 3; nonce++ {
		require.Equal(t, Added, pool.AddRemote(pricedTx(a, nonce, 1), 0))
	}
	for nonce := uint64(0); nonce < 2; nonce++ {
		require.Equal(t, Added, pool.AddRemote(pricedTx(b, nonce, 10), 0))
	}
	require.NoError(t, validatePoolInternals(pool))
	assert.Equal(t, LayerPrioritized, layerOf(t, pool, pricedTx(a, 0, 1)))
	assert.Equal(t, LayerReady, layerOf(t, pool, pricedTx(a, 1, 1)))
	assert.Equal(t, LayerReady, layerOf(t, pool, pricedTx(a, 2, 1)))

	// The ready run of a continues in the ready layer
	require.Equal(t, Added, pool.AddRemote(pricedTx(a, 3, 50), 0))
	assert.Equal(t, LayerReady, layerOf(t, pool, pricedTx(a, 3, 50)))

	pending, queued := pool.Stats()
	assert.Equal(t, 6, pending)
	assert.Equal(t, 0, queued)
	require.NoError(t, validatePoolInternals(pool))
}

func TestReadyOverflowDemotesToSparse(t *testing.T) {
	pool := newTestPool(t, func(c *Config) {
		c.MaxPrioritized = 1
		c.LayerMaxCapacityBytes = 2 * txSize
	})
	a := testAddr(1)
	for nonce := uint64(0); nonce < 4; nonce++ {
		require.Equal(t, Added, pool.AddRemote(pricedTx(a, nonce, 1), 0))
	}
	assert.Equal(t, LayerPrioritized, layerOf(t, pool, pricedTx(a, 0, 1)))
	assert.Equal(t, LayerReady, layerOf(t, pool, pricedTx(a, 2, 1)))
	assert.Equal(t, LayerSparse, layerOf(t, pool, pricedTx(a, 3, 1)))

	// Freed room pulls the run back up once the head is confirmed
	pool.OnBlockAdded(map[common.Address]uint64{a: 1})
	assert.Equal(t, LayerPrioritized, layerOf(t, pool, pricedTx(a, 1, 1)))
	assert.Equal(t, LayerReady, layerOf(t, pool, pricedTx(a, 3, 1)))
	require.NoError(t, validatePoolInternals(pool))
}

func TestShrinkingReplacementPromotesOtherSenders(t *testing.T) {
	a, b := testAddr(1), testAddr(2)
	heavy := pricedDataTx(a, 1, 10, make([]byte, 300))
	pool := newTestPool(t, func(c *Config) {
		c.MaxPrioritized = 1
		c.LayerMaxCapacityBytes = heavy.Size() + txSize
	})
	require.Equal(t, Added, pool.AddRemote(pricedTx(a, 0, 10), 0))
	require.Equal(t, Added, pool.AddRemote(heavy, 0))
	require.Equal(t, Added, pool.AddRemote(pricedTx(b, 0, 5), 0))
	require.Equal(t, Added, pool.AddRemote(pricedTx(b, 1, 5), 0))
	require.NoError(t, validatePoolInternals(pool))
	assert.Equal(t, LayerReady, layerOf(t, pool, heavy))
	assert.Equal(t, LayerReady, layerOf(t, pool, pricedTx(b, 0, 5)))
	assert.Equal(t, LayerSparse, layerOf(t, pool, pricedTx(b, 1, 5)))

	// A smaller replacement frees ready bytes for the stranded run of b
	require.Equal(t, Replaced, pool.AddRemote(pricedTx(a, 1, 20), 0))
	require.NoError(t, validatePoolInternals(pool))
	assert.Equal(t, LayerReady, layerOf(t, pool, pricedTx(b, 1, 5)))

	pending, queued := pool.Stats()
	assert.Equal(t, 4, pending)
	assert.Zero(t, queued)
}

func TestRejectedLocalDoesNotMarkSender(t *testing.T) {
	pool := newTestPool(t, func(c *Config) { c.MaxFutureBySender = 4 })
	addr := testAddr(1)

	require.Equal(t, Added, pool.AddRemote(pricedTx(addr, 3, 10), 3))
	assert.Equal(t, RejectedStale, pool.AddLocal(pricedTx(addr, 0, 1), 3))
	assert.Equal(t, NonceTooFarInFuture, pool.AddLocal(pricedTx(addr, 9, 1), 3))
	assert.Equal(t, RejectedUnderpricedReplacement, pool.AddLocal(pricedTx(addr, 3, 9), 3))
	assert.Empty(t, pool.Locals())
	assert.Empty(t, pool.LocalTransactions())

	// Acceptance marks the sender and migrates its remote transactions
	require.Equal(t, Added, pool.AddLocal(pricedTx(addr, 4, 1), 3))
	assert.Equal(t, []common.Address{addr}, pool.Locals())
	assert.Len(t, pool.LocalTransactions(), 2)
	require.NoError(t, validatePoolInternals(pool))
}

func TestListenerUnsubscribe(t *testing.T) {
	pool := newTestPool(t, nil)

	var added int
	id := pool.SubscribeAdded(AddedListenerFunc(func(*types.Transaction) { added++ }))
	require.Equal(t, Added, pool.AddRemote(pricedTx(testAddr(1), 0, 1), 0))
	assert.Equal(t, 1, added)

	pool.Unsubscribe(id)
	pool.Unsubscribe(id)
	require.Equal(t, Added, pool.AddRemote(pricedTx(testAddr(1), 1, 1), 0))
	assert.Equal(t, 1, added)
}

func TestListenerMayCallBackIntoPool(t *testing.T) {
	pool := newTestPool(t, nil)
	addr := testAddr(1)

	var (
		sizes []int
		order []uint64
	)
	pool.SubscribeAdded(AddedListenerFunc(func(tx *types.Transaction) {
		order = append(order, tx.Nonce())
		sizes = append(sizes, pool.Size())
		if tx.Nonce() == 0 {
			pool.AddRemote(pricedTx(addr, 1, 1), 0)
		}
	}))
	require.Equal(t, Added, pool.AddRemote(pricedTx(addr, 0, 1), 0))

	assert.Equal(t, []uint64{0, 1}, order)
	assert.Equal(t, []int{1, 2}, sizes)
	assert.Equal(t, 2, pool.Size())
}

func TestStopTearsDown(t *testing.T) {
	pool := NewTxPool(DefaultConfig, nil, nil, log.Global, nil)
	rec := recordEvents(pool)

	tx := pricedTx(testAddr(1), 0, 1)
	require.Equal(t, Added, pool.AddRemote(tx, 0))
	pool.Stop()
	pool.Stop()

	assert.Nil(t, pool.Get(tx.Hash()))
	assert.Equal(t, 0, pool.Size())
	assert.Equal(t, RejectedPoolClosed, pool.AddRemote(pricedTx(testAddr(1), 1, 1), 0))
	assert.Equal(t, ErrPoolClosed, RejectedPoolClosed.Err())
	assert.Len(t, rec.added, 1)
	assert.Empty(t, rec.dropped)
	assert.Empty(t, selectAll(pool))
}

func TestContentAndLayerStats(t *testing.T) {
	pool := newTestPool(t, func(c *Config) { c.MaxPrioritized = 1 })
	addr := testAddr(1)
	for _, nonce := range []uint64{0, 1, 5} {
		require.Equal(t, Added, pool.AddRemote(pricedTx(addr, nonce, 1), 0))
	}
	pending, queued := pool.Content()
	assert.Len(t, pending[addr], 2)
	assert.Len(t, queued[addr], 1)

	stats := pool.LayerStats()
	require.Len(t, stats, 4)
	assert.Equal(t, LayerStats{LayerPrioritized, 1, txSize}, stats[0])
	assert.Equal(t, LayerStats{LayerReady, 1, txSize}, stats[1])
	assert.Equal(t, LayerStats{LayerSparse, 1, txSize}, stats[2])
	assert.Equal(t, LayerStats{LayerEvicted, 0, 0}, stats[3])
}

func TestPoolMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	pool := NewTxPool(DefaultConfig, nil, nil, log.Global, reg)
	defer pool.Stop()
	addr := testAddr(1)

	require.Equal(t, Added, pool.AddLocal(pricedTx(addr, 0, 1), 0))
	require.Equal(t, Added, pool.AddRemote(pricedTx(testAddr(2), 3, 1), 0))
	require.Equal(t, RejectedStale, pool.AddRemote(pricedTx(testAddr(2), 0, 1), 1))
	require.Equal(t, Replaced, pool.AddLocal(pricedTx(addr, 0, 5), 0))

	m := pool.metrics
	assert.Equal(t, float64(2), testutil.ToFloat64(m.added.WithLabelValues("prioritized", "local")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.added.WithLabelValues("sparse", "remote")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.removed.WithLabelValues("prioritized", "local", "replaced")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rejected.WithLabelValues("stale")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.transactions.WithLabelValues("prioritized")))
	assert.Equal(t, float64(txSize), testutil.ToFloat64(m.bytes.WithLabelValues("sparse")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.origins.WithLabelValues("local")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.origins.WithLabelValues("remote")))

	count, err := testutil.GatherAndCount(reg, "txpool_transactions")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

// poolOp is one randomly generated step of TestRandomizedOperations.
type poolOp struct {
	Kind   uint8
	Sender uint8
	Nonce  uint8
	Price  uint8
	Local  bool
	Data   uint8
}

func TestRandomizedOperations(t *testing.T) {
	pool := newTestPool(t, func(c *Config) {
		c.MaxPrioritized = 4
		c.MaxFutureBySender = 8
		c.MaxSparsePerSender = 3
		c.LayerMaxCapacityBytes = 5 * txSize
	})
	var (
		f        = fuzz.NewWithSeed(7)
		onChain  = make(map[common.Address]uint64)
		selected int
	)
	for i := 0; i < 3000; i++ {
		var op poolOp
		f.Fuzz(&op)

		addr := testAddr(op.Sender%5 + 1)
		switch op.Kind % 8 {
		case 0:
			// a block confirms the lowest prioritized nonces of every sender
			confirmed := make(map[common.Address]uint64)
			pool.Select(func(ptx *PendingTx) SelectionResult {
				confirmed[ptx.Sender()] = ptx.Nonce() + 1
				return SelectContinue
			})
			for sender, nonce := range confirmed {
				onChain[sender] = nonce
			}
			pool.OnBlockAdded(confirmed)
		case 1:
			pool.Select(func(ptx *PendingTx) SelectionResult {
				selected++
				switch ptx.Nonce() % 3 {
				case 0:
					return SelectContinue
				case 1:
					return SelectDeleteAndContinue
				}
				return SelectStop
			})
		default:
			nonce := onChain[addr] + uint64(op.Nonce%10)
			tx := pricedDataTx(addr, nonce, uint64(op.Price)+1, make([]byte, op.Data%3))
			if op.Local {
				pool.AddLocal(tx, onChain[addr])
			} else {
				pool.AddRemote(tx, onChain[addr])
			}
		}
		if err := validatePoolInternals(pool); err != nil {
			t.Fatalf("step %d: %v\nop: %s\nlayers: %s", i, err, spew.Sdump(op), spew.Sdump(pool.LayerStats()))
		}
	}
	assert.Positive(t, selected)
}
