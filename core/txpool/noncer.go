// Copyright 2019 The go-ethereum Authors
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
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/dominant-strategies/go-layerpool/common"
)

// nonceClass is the verdict of the noncer on a candidate nonce.
type nonceClass int

const (
	nonceEligible nonceClass = iota
	nonceStale
	nonceTooFar
)

// senderNonces is what the pool knows about one sender: the on-chain nonce
// last reported for it and the nonces it currently holds in any layer.
type senderNonces struct {
	onChain uint64
	held    mapset.Set[uint64]
}

// txNoncer tracks per-sender nonce state for the senders that have
// transactions in the pool. A sender is forgotten as soon as it holds nothing,
// so on-chain nonces are never cached beyond the life of its transactions.
//
// The noncer is not safe for concurrent use; the pool lock guards it.
type txNoncer struct {
	maxFuture uint64
	senders   map[common.Address]*senderNonces
}

func newTxNoncer(maxFuture uint64) *txNoncer {
	return &txNoncer{
		maxFuture: maxFuture,
		senders:   make(map[common.Address]*senderNonces),
	}
}

// observe records the on-chain nonce reported for addr. The nonce only moves
// forward while the sender is tracked; it returns the previous value and
// whether it advanced.
func (txn *txNoncer) observe(addr common.Address, onChain uint64) (uint64, bool) {
	state := txn.senders[addr]
	if state == nil {
		txn.senders[addr] = &senderNonces{
			onChain: onChain,
			held:    mapset.NewThreadUnsafeSet[uint64](),
		}
		return onChain, false
	}
	if onChain <= state.onChain {
		return state.onChain, false
	}
	prev := state.onChain
	state.onChain = onChain
	return prev, true
}

// onChain returns the tracked on-chain nonce of addr.
func (txn *txNoncer) onChain(addr common.Address) (uint64, bool) {
	if state := txn.senders[addr]; state != nil {
		return state.onChain, true
	}
	return 0, false
}

// classify decides whether nonce is below the on-chain nonce, too far ahead of
// it, or acceptable. The sender must have been observed.
func (txn *txNoncer) classify(addr common.Address, nonce uint64) nonceClass {
	state := txn.senders[addr]
	switch {
	case nonce < state.onChain:
		return nonceStale
	case nonce-state.onChain >= txn.maxFuture:
		return nonceTooFar
	}
	return nonceEligible
}

func (txn *txNoncer) hold(addr common.Address, nonce uint64) {
	txn.senders[addr].held.Add(nonce)
}

func (txn *txNoncer) release(addr common.Address, nonce uint64) {
	if state := txn.senders[addr]; state != nil {
		state.held.Remove(nonce)
	}
}

func (txn *txNoncer) holds(addr common.Address, nonce uint64) bool {
	state := txn.senders[addr]
	return state != nil && state.held.Contains(nonce)
}

// gc forgets addr if it holds no transactions.
func (txn *txNoncer) gc(addr common.Address) {
	if state := txn.senders[addr]; state != nil && state.held.Cardinality() == 0 {
		delete(txn.senders, addr)
	}
}

// next returns one past the run of held nonces that starts at the on-chain
// nonce. There is no answer when the on-chain nonce itself is not held.
func (txn *txNoncer) next(addr common.Address) (uint64, bool) {
	state := txn.senders[addr]
	if state == nil || !state.held.Contains(state.onChain) {
		return 0, false
	}
	nonce := state.onChain
	for state.held.Contains(nonce) {
		nonce++
	}
	return nonce, true
}

// Len returns the number of tracked senders.
func (txn *txNoncer) Len() int {
	return len(txn.senders)
}

func (txn *txNoncer) reset() {
	txn.senders = make(map[common.Address]*senderNonces)
}
