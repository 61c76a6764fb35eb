// Copyright 2014 The go-ethereum Authors
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
	"fmt"
	"sort"
	"sync"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dominant-strategies/go-layerpool/common"
	"github.com/dominant-strategies/go-layerpool/core/types"
	"github.com/dominant-strategies/go-layerpool/log"
)

// LayerStats describes the occupancy of one layer.
type LayerStats struct {
	Layer        LayerKind
	Transactions int
	Bytes        uint64
}

// TxPool contains all currently known transactions. Transactions enter the
// pool when they are received from the network or submitted locally, and
// leave it when they are confirmed, replaced, invalidated by block selection
// or pushed out by capacity limits.
//
// The pool separates executable transactions from gapped ones. Executable
// transactions of a sender form a contiguous nonce run starting at the
// sender's on-chain nonce: the best of them sit in the prioritized layer that
// block selection reads from, the rest in the ready layer. Gapped and overflow
// transactions wait in the sparse layer. Removed transactions are recorded by
// the evict collector.
type TxPool struct {
	config  Config
	fees    BaseFeeOracle
	replace ReplacementPolicy
	metrics *poolMetrics
	logger  *log.Logger

	mu     sync.Mutex
	closed bool
	seq    uint64 // last insertion sequence handed out

	locals      *accountSet // Set of local senders
	all         *txLookup   // All transactions to allow lookups
	nonces      *txNoncer   // Per sender on-chain and held nonces
	prioritized *prioritizedLayer
	ready       *readyLayer
	sparse      *sparseLayer
	evicted     *evictCollector
	freed       bool             // set when removals may allow promotions
	idle        []common.Address // senders that lost a transaction, checked for gc

	subs     *subscriptions
	notifier *notifier
	events   []txEvent // produced under mu, delivered after it is released
}

// NewTxPool creates a new transaction pool. A nil oracle ranks dynamic fee
// transactions by their tip cap alone and a nil replacement policy falls back
// to PriceBump with the configured percentage. Metrics are registered on reg
// when it is not nil.
func NewTxPool(config Config, fees BaseFeeOracle, replace ReplacementPolicy, logger *log.Logger, reg prometheus.Registerer) *TxPool {
	if logger == nil {
		logger = log.Global
	}
	// Sanitize the input to ensure no unworkable limits are set
	config = (&config).sanitize(logger)
	if replace == nil {
		replace = PriceBump(config.PriceBump)
	}
	subs := newSubscriptions()
	pool := &TxPool{
		config:      config,
		fees:        fees,
		replace:     replace,
		metrics:     newPoolMetrics(reg),
		logger:      logger,
		locals:      newAccountSet(),
		all:         newTxLookup(),
		nonces:      newTxNoncer(config.MaxFutureBySender),
		prioritized: newPrioritizedLayer(config.MaxPrioritized),
		ready:       newReadyLayer(config.LayerMaxCapacityBytes),
		sparse:      newSparseLayer(config.LayerMaxCapacityBytes, config.MaxSparsePerSender),
		evicted:     newEvictCollector(config.EvictedRetention, config.EvictedLifetime),
		subs:        subs,
		notifier:    newNotifier(subs),
	}
	for _, addr := range config.Locals {
		logger.WithField("address", addr).Debug("Setting new local account")
		pool.locals.add(addr)
	}
	pool.updateGauges()
	return pool
}

// AddLocal submits a transaction from a local source. senderNonce is the
// current on-chain nonce of the transaction's sender.
func (pool *TxPool) AddLocal(tx *types.Transaction, senderNonce uint64) AddResult {
	return pool.add(tx, senderNonce, true)
}

// AddRemote submits a transaction received from the network. senderNonce is
// the current on-chain nonce of the transaction's sender.
func (pool *TxPool) AddRemote(tx *types.Transaction, senderNonce uint64) AddResult {
	return pool.add(tx, senderNonce, false)
}

func (pool *TxPool) add(tx *types.Transaction, senderNonce uint64, local bool) AddResult {
	pool.mu.Lock()
	defer pool.unlockAndNotify()

	result := pool.addLocked(tx, senderNonce, local)
	if !result.Accepted() {
		pool.metrics.markRejected(result)
		pool.logger.WithFields(log.Fields{
			"hash":   tx.Hash(),
			"sender": tx.From(),
			"nonce":  tx.Nonce(),
			"result": result,
		}).Trace("Transaction not added")
	}
	return result
}

func (pool *TxPool) addLocked(tx *types.Transaction, senderNonce uint64, local bool) AddResult {
	if pool.closed {
		return RejectedPoolClosed
	}
	// If the transaction is already known, discard it
	if pool.all.Get(tx.Hash()) != nil {
		return AlreadyKnown
	}
	from := tx.From()
	local = !pool.config.NoLocals && (local || pool.locals.contains(from))

	defer pool.nonces.gc(from)
	if _, advanced := pool.nonces.observe(from, senderNonce); advanced {
		pool.prune(from)
	}
	switch pool.nonces.classify(from, tx.Nonce()) {
	case nonceStale:
		pool.settle(from)
		return RejectedStale
	case nonceTooFar:
		pool.settle(from)
		return NonceTooFarInFuture
	}

	pool.seq++
	ptx := newPendingTx(tx, local, pool.seq)

	// If the nonce is taken, the replacement policy decides
	if old, kind := pool.occupant(from, ptx.nonce); old != nil {
		if !pool.replace(old, ptx, pool.baseFee()) {
			pool.settle(from)
			return RejectedUnderpricedReplacement
		}
		if local {
			pool.markLocal(from)
		}
		pool.replaceTx(old, ptx, kind)
		pool.settle(from)
		return Replaced
	}

	kind := LayerSparse
	if ptx.nonce == pool.nextReadyNonce(from) {
		if pool.ready.has(from) {
			kind = LayerReady
		} else {
			kind = LayerPrioritized
		}
	}
	if local {
		pool.markLocal(from)
	}
	pool.insert(ptx, kind)
	pool.settle(from)
	return Added
}

// markLocal remembers the sender of an accepted local transaction and
// upgrades whatever it already has in the pool.
func (pool *TxPool) markLocal(addr common.Address) {
	if !pool.locals.add(addr) {
		return
	}
	pool.logger.WithField("address", addr).Info("Setting new local account")
	if migrated := pool.all.RemoteToLocals(pool.locals); migrated > 0 {
		pool.logger.WithFields(log.Fields{
			"address":  addr,
			"migrated": migrated,
		}).Debug("Migrated remote transactions to locals")
	}
}

// settle restores the layer limits after a mutation touching addr.
func (pool *TxPool) settle(addr common.Address) {
	pool.promoteFromSparse(addr)
	pool.enforceSenderSparse(addr)
	pool.enforceLimits()
	if pool.freed {
		pool.refill()
	}
	pool.forgetIdle()
	pool.updateGauges()
}

// forgetIdle drops the nonce state of senders left without transactions.
func (pool *TxPool) forgetIdle() {
	for _, addr := range pool.idle {
		pool.nonces.gc(addr)
	}
	pool.idle = pool.idle[:0]
}

func (pool *TxPool) baseFee() *uint256.Int {
	if pool.fees == nil {
		return nil
	}
	return pool.fees.BaseFee()
}

func (pool *TxPool) layer(kind LayerKind) layer {
	switch kind {
	case LayerPrioritized:
		return pool.prioritized
	case LayerReady:
		return pool.ready
	case LayerSparse:
		return pool.sparse
	}
	panic(fmt.Sprintf("no holding layer %s", kind))
}

// occupant returns the transaction holding (addr, nonce) and its layer.
func (pool *TxPool) occupant(addr common.Address, nonce uint64) (*PendingTx, LayerKind) {
	for _, l := range []layer{pool.prioritized, pool.ready, pool.sparse} {
		if ptx := l.get(addr, nonce); ptx != nil {
			return ptx, l.Kind()
		}
	}
	return nil, LayerEvicted
}

// nextReadyNonce is the nonce that would extend the executable run of addr.
func (pool *TxPool) nextReadyNonce(addr common.Address) uint64 {
	if last := pool.ready.last(addr); last != nil {
		return last.nonce + 1
	}
	if last := pool.prioritized.last(addr); last != nil {
		return last.nonce + 1
	}
	onChain, _ := pool.nonces.onChain(addr)
	return onChain
}

func (pool *TxPool) insert(ptx *PendingTx, kind LayerKind) {
	pool.layer(kind).put(ptx)
	pool.all.Add(ptx, kind)
	pool.nonces.hold(ptx.sender, ptx.nonce)
	pool.metrics.markAdded(ptx, kind)
	pool.events = append(pool.events, txEvent{tx: ptx.Tx})

	pool.logger.WithFields(log.Fields{
		"hash":   ptx.hash,
		"sender": ptx.sender,
		"nonce":  ptx.nonce,
		"layer":  kind,
	}).Trace("Added transaction")
}

func (pool *TxPool) replaceTx(old, ptx *PendingTx, kind LayerKind) {
	pool.layer(kind).replace(old, ptx)
	pool.all.Remove(old.hash, pool.logger)
	pool.all.Add(ptx, kind)
	if ptx.Size() < old.Size() {
		pool.freed = true
	}
	pool.evicted.add(old, kind, ReasonReplaced)
	pool.metrics.markRemoved(old, kind, ReasonReplaced)
	pool.metrics.markAdded(ptx, kind)
	pool.events = append(pool.events,
		txEvent{tx: old.Tx, dropped: true, reason: ReasonReplaced},
		txEvent{tx: ptx.Tx},
	)

	pool.logger.WithFields(log.Fields{
		"old":   old.hash,
		"new":   ptx.hash,
		"nonce": ptx.nonce,
		"layer": kind,
	}).Trace("Replaced transaction")
}

// moveTx hands a transaction from one layer to another.
func (pool *TxPool) moveTx(ptx *PendingTx, from, to layer) {
	from.remove(ptx)
	to.put(ptx)
	pool.all.Move(ptx.hash, to.Kind(), pool.logger)
}

// drop removes a transaction from the pool for good and hands it to the
// evict collector.
func (pool *TxPool) drop(ptx *PendingTx, reason RemovalReason) {
	kind, ok := pool.all.Layer(ptx.hash)
	if !ok {
		pool.logger.WithField("hash", ptx.hash).Error("Dropping transaction unknown to the lookup")
		return
	}
	pool.layer(kind).remove(ptx)
	pool.all.Remove(ptx.hash, pool.logger)
	pool.nonces.release(ptx.sender, ptx.nonce)
	pool.idle = append(pool.idle, ptx.sender)
	pool.evicted.add(ptx, kind, reason)
	pool.metrics.markRemoved(ptx, kind, reason)
	pool.events = append(pool.events, txEvent{tx: ptx.Tx, dropped: true, reason: reason})

	pool.logger.WithFields(log.Fields{
		"hash":   ptx.hash,
		"nonce":  ptx.nonce,
		"layer":  kind,
		"reason": reason,
	}).Trace("Removed transaction")
}

// prune drops every transaction of addr below its on-chain nonce.
func (pool *TxPool) prune(addr common.Address) int {
	onChain, _ := pool.nonces.onChain(addr)
	var stale []*PendingTx
	for _, l := range []*txLayer{pool.prioritized.txLayer, pool.ready.txLayer, pool.sparse.txLayer} {
		stale = append(stale, l.below(addr, onChain)...)
	}
	for _, ptx := range stale {
		pool.drop(ptx, ReasonConfirmed)
	}
	if len(stale) > 0 {
		pool.freed = true
	}
	return len(stale)
}

// invalidate drops the transaction of addr at nonce and every higher nonce
// of the same sender, since none of them can execute any more.
func (pool *TxPool) invalidate(addr common.Address, nonce uint64) int {
	var doomed []*PendingTx
	for _, l := range []*txLayer{pool.prioritized.txLayer, pool.ready.txLayer, pool.sparse.txLayer} {
		doomed = append(doomed, l.above(addr, nonce)...)
	}
	for _, ptx := range doomed {
		pool.drop(ptx, ReasonInvalidated)
	}
	if len(doomed) > 0 {
		pool.freed = true
	}
	return len(doomed)
}

// promoteFromSparse moves the sparse transactions of addr that continue its
// executable run into the prioritized or the ready layer, as long as they fit
// without pushing anything out.
func (pool *TxPool) promoteFromSparse(addr common.Address) {
	for {
		ptx := pool.sparse.get(addr, pool.nextReadyNonce(addr))
		if ptx == nil {
			return
		}
		switch {
		case !pool.ready.has(addr) && pool.prioritized.hasRoom():
			pool.moveTx(ptx, pool.sparse, pool.prioritized)
		case pool.ready.fits(ptx):
			pool.moveTx(ptx, pool.sparse, pool.ready)
		default:
			return
		}
	}
}

// enforceSenderSparse drops the highest sparse nonces of addr above its cap.
func (pool *TxPool) enforceSenderSparse(addr common.Address) {
	for pool.sparse.senderOverflow(addr) {
		pool.drop(pool.sparse.last(addr), ReasonCapacity)
	}
}

// enforceLimits cascades overflow down the layers. Only sender tails are
// moved, so every executable run stays contiguous.
func (pool *TxPool) enforceLimits() {
	baseFee := pool.baseFee()
	for pool.prioritized.overflow() {
		pool.moveTx(pool.prioritized.worstTail(baseFee), pool.prioritized, pool.ready)
	}
	for pool.ready.overflow() {
		victim := pool.ready.worstTail(baseFee)
		pool.moveTx(victim, pool.ready, pool.sparse)
		pool.enforceSenderSparse(victim.sender)
	}
	for pool.sparse.overflow() {
		pool.drop(pool.sparse.worstTail(baseFee), ReasonCapacity)
	}
}

// refill promotes into freed room: the best ready heads into the prioritized
// layer and sparse transactions that closed a gap into the executable layers.
func (pool *TxPool) refill() {
	pool.freed = false
	baseFee := pool.baseFee()

	pool.fillPrioritized(baseFee)

	var heads []*PendingTx
	for addr, list := range pool.sparse.senders {
		if head := list.First(); head.nonce == pool.nextReadyNonce(addr) {
			heads = append(heads, head)
		}
	}
	sort.Slice(heads, func(i, j int) bool { return outranks(heads[i], heads[j], baseFee) })
	for _, head := range heads {
		pool.promoteFromSparse(head.sender)
	}
	pool.fillPrioritized(baseFee)
}

func (pool *TxPool) fillPrioritized(baseFee *uint256.Int) {
	for pool.prioritized.hasRoom() {
		head := pool.ready.bestHead(baseFee)
		if head == nil {
			return
		}
		pool.moveTx(head, pool.ready, pool.prioritized)
	}
}

// rebalance swaps ready heads that outrank prioritized tails, which happens
// when the base fee moves.
func (pool *TxPool) rebalance(baseFee *uint256.Int) int {
	swaps := 0
	for ; swaps < pool.config.MaxPrioritized; swaps++ {
		best, worst := pool.ready.bestHead(baseFee), pool.prioritized.worstTail(baseFee)
		if best == nil || worst == nil || best.sender == worst.sender || !outranks(best, worst, baseFee) {
			break
		}
		pool.moveTx(worst, pool.prioritized, pool.ready)
		pool.moveTx(best, pool.ready, pool.prioritized)
	}
	return swaps
}

// OnBlockAdded informs the pool about the on-chain nonces of senders after a
// new block. Transactions below them are dropped as confirmed and the layers
// are reordered against the oracle's current base fee. Senders unknown to the
// pool are ignored, as are nonces lower than the tracked ones.
func (pool *TxPool) OnBlockAdded(confirmed map[common.Address]uint64) {
	pool.mu.Lock()
	defer pool.unlockAndNotify()

	if pool.closed {
		return
	}
	addrs := make([]common.Address, 0, len(confirmed))
	for addr := range confirmed {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Cmp(addrs[j]) < 0 })

	pruned := 0
	for _, addr := range addrs {
		if _, tracked := pool.nonces.onChain(addr); !tracked {
			continue
		}
		if _, advanced := pool.nonces.observe(addr, confirmed[addr]); advanced {
			pruned += pool.prune(addr)
		}
	}
	baseFee := pool.baseFee()
	swaps := pool.rebalance(baseFee)
	pool.enforceLimits()
	pool.refill()
	pool.forgetIdle()
	pool.updateGauges()

	pool.logger.WithFields(log.Fields{
		"senders": len(addrs),
		"pruned":  pruned,
		"swaps":   swaps,
		"baseFee": baseFee,
	}).Debug("Processed new block")
}

// unlockAndNotify releases the pool lock and delivers the events produced
// while it was held.
func (pool *TxPool) unlockAndNotify() {
	events := pool.events
	pool.events = nil
	pool.notifier.enqueue(events)
	pool.mu.Unlock()
	pool.notifier.flush()
}

func (pool *TxPool) updateGauges() {
	pool.metrics.update(pool.all.LocalCount(), pool.all.RemoteCount(), pool.prioritized, pool.ready, pool.sparse)
}

// Stop terminates the transaction pool. Every held transaction is discarded
// without notification and every subscription is cancelled.
func (pool *TxPool) Stop() {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	if pool.closed {
		return
	}
	pool.closed = true
	pool.prioritized.reset()
	pool.ready.reset()
	pool.sparse.reset()
	pool.all.reset()
	pool.nonces.reset()
	pool.idle = nil
	pool.evicted.cache.Purge()
	pool.events = nil
	pool.subs.clear()
	pool.updateGauges()

	pool.logger.Info("Transaction pool stopped")
}

// Get returns a transaction if it is contained in the pool and nil otherwise.
func (pool *TxPool) Get(hash common.Hash) *types.Transaction {
	if ptx := pool.all.Get(hash); ptx != nil {
		return ptx.Tx
	}
	return nil
}

// Has returns an indicator whether txpool has a transaction cached with the
// given hash.
func (pool *TxPool) Has(hash common.Hash) bool {
	return pool.all.Get(hash) != nil
}

// Layer returns the layer currently holding the transaction.
func (pool *TxPool) Layer(hash common.Hash) (LayerKind, bool) {
	return pool.all.Layer(hash)
}

// Status returns the status (unknown/pending/queued) of a batch of transactions
// identified by their hashes. Executable transactions are pending, gapped ones
// are queued.
func (pool *TxPool) Status(hashes []common.Hash) []TxStatus {
	status := make([]TxStatus, len(hashes))
	for i, hash := range hashes {
		kind, ok := pool.all.Layer(hash)
		if !ok {
			continue
		}
		switch kind {
		case LayerPrioritized, LayerReady:
			status[i] = TxStatusPending
		case LayerSparse:
			status[i] = TxStatusQueued
		}
	}
	return status
}

// Size returns the number of transactions held by the prioritized, ready and
// sparse layers. Evicted transactions are not counted.
func (pool *TxPool) Size() int {
	return pool.all.Count()
}

// Stats retrieves the current pool stats, namely the number of pending and the
// number of queued (non-executable) transactions.
func (pool *TxPool) Stats() (int, int) {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	return pool.prioritized.Len() + pool.ready.Len(), pool.sparse.Len()
}

// LayerStats reports count and bytes of every layer, the evict collector
// last.
func (pool *TxPool) LayerStats() []LayerStats {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	stats := make([]LayerStats, 0, 4)
	for _, l := range []layer{pool.prioritized, pool.ready, pool.sparse} {
		stats = append(stats, LayerStats{Layer: l.Kind(), Transactions: l.Len(), Bytes: l.Bytes()})
	}
	return append(stats, LayerStats{Layer: LayerEvicted, Transactions: pool.evicted.Len()})
}

// NextNonce returns the nonce following the contiguous run of held
// transactions that starts at the sender's on-chain nonce. It reports false
// when the pool does not hold the on-chain nonce itself.
func (pool *TxPool) NextNonce(addr common.Address) (uint64, bool) {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	return pool.nonces.next(addr)
}

// Content retrieves the data content of the transaction pool, returning all the
// pending as well as queued transactions, grouped by account and sorted by nonce.
func (pool *TxPool) Content() (map[common.Address]types.Transactions, map[common.Address]types.Transactions) {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	pending := make(map[common.Address]types.Transactions)
	for _, l := range []*txLayer{pool.prioritized.txLayer, pool.ready.txLayer} {
		for addr, list := range l.senders {
			for _, ptx := range list.Flatten() {
				pending[addr] = append(pending[addr], ptx.Tx)
			}
		}
	}
	queued := make(map[common.Address]types.Transactions)
	for addr, list := range pool.sparse.senders {
		for _, ptx := range list.Flatten() {
			queued[addr] = append(queued[addr], ptx.Tx)
		}
	}
	return pending, queued
}

// Locals retrieves the accounts currently considered local by the pool.
func (pool *TxPool) Locals() []common.Address {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	return pool.locals.flatten()
}

// LocalTransactions returns the local transactions held by the pool, ordered
// by sender and nonce.
func (pool *TxPool) LocalTransactions() types.Transactions {
	var locals []*PendingTx
	pool.all.Range(func(ptx *PendingTx, _ LayerKind) bool {
		locals = append(locals, ptx)
		return true
	}, true, false)

	sort.Slice(locals, func(i, j int) bool {
		if c := locals[i].sender.Cmp(locals[j].sender); c != 0 {
			return c < 0
		}
		return locals[i].nonce < locals[j].nonce
	})
	txs := make(types.Transactions, len(locals))
	for i, ptx := range locals {
		txs[i] = ptx.Tx
	}
	return txs
}

// Evicted returns the removed transactions still remembered by the evict
// collector.
func (pool *TxPool) Evicted() []*EvictedTx {
	return pool.evicted.evicted()
}

// EvictedByHash returns the eviction record of a transaction, if remembered.
func (pool *TxPool) EvictedByHash(hash common.Hash) *EvictedTx {
	return pool.evicted.get(hash)
}

// DrainEvicted returns and forgets the remembered removed transactions.
func (pool *TxPool) DrainEvicted() []*EvictedTx {
	return pool.evicted.drain()
}

// SubscribeAdded registers a listener for accepted transactions.
func (pool *TxPool) SubscribeAdded(l AddedListener) SubscriptionID {
	return pool.subs.subscribeAdded(l)
}

// SubscribeDropped registers a listener for removed transactions.
func (pool *TxPool) SubscribeDropped(l DroppedListener) SubscriptionID {
	return pool.subs.subscribeDropped(l)
}

// Unsubscribe cancels a subscription. Unknown ids are ignored.
func (pool *TxPool) Unsubscribe(id SubscriptionID) {
	pool.subs.unsubscribe(id)
}
