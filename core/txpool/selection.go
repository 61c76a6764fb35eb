package txpool

import (
	"container/heap"

	"github.com/holiman/uint256"

	"github.com/dominant-strategies/go-layerpool/log"
)

// SelectionResult is the verdict of a Visitor on one transaction.
type SelectionResult int

const (
	// SelectContinue keeps the transaction and moves on to the next one.
	SelectContinue SelectionResult = iota
	// SelectStop ends the pass without touching the transaction.
	SelectStop
	// SelectDeleteAndContinue drops the transaction together with every
	// higher nonce of its sender and moves on to the other senders.
	SelectDeleteAndContinue
)

// Visitor is called by Select for every prioritized transaction in priority
// order. It runs under the pool lock and must not call back into the pool.
type Visitor func(ptx *PendingTx) SelectionResult

// txWithTip wraps a transaction with its effective tip at the base fee the
// selection pass started with.
type txWithTip struct {
	ptx *PendingTx
	tip *uint256.Int
}

func newTxWithTip(ptx *PendingTx, baseFee *uint256.Int) *txWithTip {
	return &txWithTip{ptx: ptx, tip: ptx.Tx.EffectiveGasTip(baseFee)}
}

// txByPriceAndTime implements both the sort and the heap interface, making it
// useful for all at once sorting as well as individually adding and removing
// elements.
type txByPriceAndTime []*txWithTip

func (s txByPriceAndTime) Len() int { return len(s) }
func (s txByPriceAndTime) Less(i, j int) bool {
	// If the tips are equal, use the arrival order and then the hash for
	// deterministic sorting
	if cmp := s[i].tip.Cmp(s[j].tip); cmp != 0 {
		return cmp > 0
	}
	if s[i].ptx.seq != s[j].ptx.seq {
		return s[i].ptx.seq < s[j].ptx.seq
	}
	return s[i].ptx.hash.Cmp(s[j].ptx.hash) < 0
}
func (s txByPriceAndTime) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

func (s *txByPriceAndTime) Push(x interface{}) {
	*s = append(*s, x.(*txWithTip))
}

func (s *txByPriceAndTime) Pop() interface{} {
	old := *s
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*s = old[0 : n-1]
	return x
}

// Select walks the prioritized layer in priority order while honouring nonce
// order within every sender. The whole pass runs under the pool lock, so the
// visitor sees a consistent snapshot. Transactions promoted because of
// deletions are only moved in once the pass is over.
func (pool *TxPool) Select(visitor Visitor) {
	pool.mu.Lock()
	defer pool.unlockAndNotify()

	if pool.closed {
		return
	}
	baseFee := pool.baseFee()

	heads := make(txByPriceAndTime, 0, len(pool.prioritized.senders))
	for _, list := range pool.prioritized.senders {
		heads = append(heads, newTxWithTip(list.First(), baseFee))
	}
	heap.Init(&heads)

	var (
		visited int
		deleted int
	)
	for len(heads) > 0 {
		head := heads[0].ptx
		visited++

		switch visitor(head) {
		case SelectContinue:
			if next := pool.prioritized.get(head.sender, head.nonce+1); next != nil {
				heads[0] = newTxWithTip(next, baseFee)
				heap.Fix(&heads, 0)
			} else {
				heap.Pop(&heads)
			}
		case SelectDeleteAndContinue:
			heap.Pop(&heads)
			deleted += pool.invalidate(head.sender, head.nonce)
		default:
			heads = heads[:0]
		}
	}
	if deleted > 0 {
		pool.refill()
		pool.forgetIdle()
		pool.updateGauges()
	}
	pool.logger.WithFields(log.Fields{
		"visited": visited,
		"deleted": deleted,
	}).Debug("Selection pass finished")
}
