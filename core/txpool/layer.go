package txpool

import (
	"fmt"

	"github.com/dominant-strategies/go-layerpool/common"
	"github.com/holiman/uint256"
)

// LayerKind names the stage of the pool a transaction sits in.
type LayerKind int

const (
	LayerPrioritized LayerKind = iota
	LayerReady
	LayerSparse
	LayerEvicted
)

// String implements fmt.Stringer.
func (k LayerKind) String() string {
	switch k {
	case LayerPrioritized:
		return "prioritized"
	case LayerReady:
		return "ready"
	case LayerSparse:
		return "sparse"
	case LayerEvicted:
		return "evicted"
	}
	return "unknown"
}

// layer is the capability shared by the three holding stages of the pool.
// Stage specific admission and overflow rules live on the concrete types.
type layer interface {
	Kind() LayerKind
	Len() int
	Bytes() uint64

	get(addr common.Address, nonce uint64) *PendingTx
	put(ptx *PendingTx)
	replace(old, ptx *PendingTx)
	remove(ptx *PendingTx)
	txs(addr common.Address) []*PendingTx
}

// txLayer keeps per-sender nonce ordered lists together with the layer wide
// count and byte totals.
type txLayer struct {
	kind    LayerKind
	senders map[common.Address]*txList
	count   int
	bytes   uint64
}

func newTxLayer(kind LayerKind) *txLayer {
	return &txLayer{
		kind:    kind,
		senders: make(map[common.Address]*txList),
	}
}

func (l *txLayer) Kind() LayerKind { return l.kind }
func (l *txLayer) Len() int        { return l.count }
func (l *txLayer) Bytes() uint64   { return l.bytes }

func (l *txLayer) get(addr common.Address, nonce uint64) *PendingTx {
	if list := l.senders[addr]; list != nil {
		return list.Get(nonce)
	}
	return nil
}

// put stores a transaction in a free (sender, nonce) slot. Taking an occupied
// slot breaks single occupancy and is a bug in the caller.
func (l *txLayer) put(ptx *PendingTx) {
	list := l.senders[ptx.sender]
	if list == nil {
		list = newTxList()
		l.senders[ptx.sender] = list
	}
	if old := list.Put(ptx); old != nil {
		panic(fmt.Sprintf("%s layer: slot of %s already taken by %s", l.kind, ptx, old))
	}
	l.count++
	l.bytes += ptx.Size()
}

// replace swaps the occupant of a slot for a transaction with the same nonce.
func (l *txLayer) replace(old, ptx *PendingTx) {
	list := l.senders[old.sender]
	if list == nil || list.Get(old.nonce) != old {
		panic(fmt.Sprintf("%s layer: replaced transaction %s not held", l.kind, old))
	}
	list.Put(ptx)
	l.bytes = l.bytes - old.Size() + ptx.Size()
}

func (l *txLayer) remove(ptx *PendingTx) {
	list := l.senders[ptx.sender]
	if list == nil || list.Remove(ptx.nonce) == nil {
		panic(fmt.Sprintf("%s layer: removed transaction %s not held", l.kind, ptx))
	}
	if list.Empty() {
		delete(l.senders, ptx.sender)
	}
	l.count--
	l.bytes -= ptx.Size()
}

// txs returns the transactions of a sender in nonce order.
func (l *txLayer) txs(addr common.Address) []*PendingTx {
	if list := l.senders[addr]; list != nil {
		return list.Flatten()
	}
	return nil
}

func (l *txLayer) has(addr common.Address) bool {
	return l.senders[addr] != nil
}

func (l *txLayer) senderLen(addr common.Address) int {
	if list := l.senders[addr]; list != nil {
		return list.Len()
	}
	return 0
}

func (l *txLayer) last(addr common.Address) *PendingTx {
	if list := l.senders[addr]; list != nil {
		return list.Last()
	}
	return nil
}

// worstTail returns, across senders, the highest nonce transaction with the
// lowest priority. Taking tails only keeps every sender's run contiguous.
func (l *txLayer) worstTail(baseFee *uint256.Int) *PendingTx {
	var worst *PendingTx
	for _, list := range l.senders {
		if tail := list.Last(); worst == nil || outranks(worst, tail, baseFee) {
			worst = tail
		}
	}
	return worst
}

// bestHead returns, across senders, the lowest nonce transaction with the
// highest priority.
func (l *txLayer) bestHead(baseFee *uint256.Int) *PendingTx {
	var best *PendingTx
	for _, list := range l.senders {
		if head := list.First(); best == nil || outranks(head, best, baseFee) {
			best = head
		}
	}
	return best
}

// above returns the sender's transactions with nonce >= from.
func (l *txLayer) above(addr common.Address, from uint64) []*PendingTx {
	list := l.senders[addr]
	if list == nil {
		return nil
	}
	var txs []*PendingTx
	list.Ascend(from, func(ptx *PendingTx) bool {
		txs = append(txs, ptx)
		return true
	})
	return txs
}

// below returns the sender's transactions with nonce < until.
func (l *txLayer) below(addr common.Address, until uint64) []*PendingTx {
	list := l.senders[addr]
	if list == nil {
		return nil
	}
	var txs []*PendingTx
	list.items.Ascend(func(ptx *PendingTx) bool {
		if ptx.nonce >= until {
			return false
		}
		txs = append(txs, ptx)
		return true
	})
	return txs
}

func (l *txLayer) reset() {
	l.senders = make(map[common.Address]*txList)
	l.count = 0
	l.bytes = 0
}
