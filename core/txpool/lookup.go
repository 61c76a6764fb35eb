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
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/dominant-strategies/go-layerpool/common"
	"github.com/dominant-strategies/go-layerpool/log"
)

// accountSet is simply a set of addresses to check for existence.
type accountSet struct {
	accounts mapset.Set[common.Address]
}

// newAccountSet creates a new address set.
func newAccountSet(addrs ...common.Address) *accountSet {
	return &accountSet{accounts: mapset.NewThreadUnsafeSet[common.Address](addrs...)}
}

// contains checks if a given address is contained within the set.
func (as *accountSet) contains(addr common.Address) bool {
	return as.accounts.Contains(addr)
}

// add inserts a new address into the set to track. It reports whether the
// address was new.
func (as *accountSet) add(addr common.Address) bool {
	return as.accounts.Add(addr)
}

// flatten returns the addresses within this set in byte order.
func (as *accountSet) flatten() []common.Address {
	accounts := as.accounts.ToSlice()
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Cmp(accounts[j]) < 0 })
	return accounts
}

type lookupEntry struct {
	tx    *PendingTx
	layer LayerKind
}

// txLookup is used internally by TxPool to track transactions while allowing
// lookup without mutex contention.
//
// Note, although this type is properly protected against concurrent access, it
// is **not** a type that should ever be mutated or even exposed outside of the
// transaction pool, since its internal state is tightly coupled with the pools
// internal mechanisms. The sole purpose of the type is to permit out-of-bound
// peeking into the pool in TxPool.Get without having to acquire the widely scoped
// TxPool.mu mutex.
type txLookup struct {
	lock    sync.RWMutex
	locals  map[common.Hash]*lookupEntry
	remotes map[common.Hash]*lookupEntry
}

// newTxLookup returns a new txLookup structure.
func newTxLookup() *txLookup {
	return &txLookup{
		locals:  make(map[common.Hash]*lookupEntry),
		remotes: make(map[common.Hash]*lookupEntry),
	}
}

// Range calls f on each transaction present in the lookup. The callback passed
// should return the indicator whether the iteration needs to be continued.
// Callers need to specify which set (or both) to be iterated.
func (t *txLookup) Range(f func(ptx *PendingTx, layer LayerKind) bool, local bool, remote bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	if local {
		for _, entry := range t.locals {
			if !f(entry.tx, entry.layer) {
				return
			}
		}
	}
	if remote {
		for _, entry := range t.remotes {
			if !f(entry.tx, entry.layer) {
				return
			}
		}
	}
}

func (t *txLookup) entry(hash common.Hash) *lookupEntry {
	if entry := t.locals[hash]; entry != nil {
		return entry
	}
	return t.remotes[hash]
}

// Get returns a transaction if it exists in the lookup, or nil if not found.
func (t *txLookup) Get(hash common.Hash) *PendingTx {
	t.lock.RLock()
	defer t.lock.RUnlock()

	if entry := t.entry(hash); entry != nil {
		return entry.tx
	}
	return nil
}

// Layer returns the layer currently owning the transaction.
func (t *txLookup) Layer(hash common.Hash) (LayerKind, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	if entry := t.entry(hash); entry != nil {
		return entry.layer, true
	}
	return LayerEvicted, false
}

// Count returns the current number of transactions in the lookup.
func (t *txLookup) Count() int {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return len(t.locals) + len(t.remotes)
}

// LocalCount returns the current number of local transactions in the lookup.
func (t *txLookup) LocalCount() int {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return len(t.locals)
}

// RemoteCount returns the current number of remote transactions in the lookup.
func (t *txLookup) RemoteCount() int {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return len(t.remotes)
}

// Add adds a transaction to the lookup.
func (t *txLookup) Add(ptx *PendingTx, layer LayerKind) {
	t.lock.Lock()
	defer t.lock.Unlock()

	entry := &lookupEntry{tx: ptx, layer: layer}
	if ptx.local {
		t.locals[ptx.hash] = entry
	} else {
		t.remotes[ptx.hash] = entry
	}
}

// Move records that a transaction changed layer.
func (t *txLookup) Move(hash common.Hash, layer LayerKind, logger *log.Logger) {
	t.lock.Lock()
	defer t.lock.Unlock()

	entry := t.entry(hash)
	if entry == nil {
		logger.WithField("hash", hash).Error("Missing transaction in lookup set, please report the issue")
		return
	}
	entry.layer = layer
}

// Remove removes a transaction from the lookup.
func (t *txLookup) Remove(hash common.Hash, logger *log.Logger) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.entry(hash) == nil {
		logger.WithField("hash", hash).Error("No transaction found to be deleted")
		return
	}
	delete(t.locals, hash)
	delete(t.remotes, hash)
}

// RemoteToLocals migrates the transactions belongs to the given locals to locals
// set. The assumption is held the locals set is thread-safe to be used.
func (t *txLookup) RemoteToLocals(locals *accountSet) int {
	t.lock.Lock()
	defer t.lock.Unlock()

	var migrated int
	for hash, entry := range t.remotes {
		if locals.contains(entry.tx.sender) {
			entry.tx.local = true
			t.locals[hash] = entry
			delete(t.remotes, hash)
			migrated += 1
		}
	}
	return migrated
}

func (t *txLookup) reset() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.locals = make(map[common.Hash]*lookupEntry)
	t.remotes = make(map[common.Hash]*lookupEntry)
}
