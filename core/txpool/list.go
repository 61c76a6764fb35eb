package txpool

import (
	"github.com/google/btree"
)

// txList is a nonce->transaction map of a single sender kept in nonce order.
type txList struct {
	items *btree.BTreeG[*PendingTx]
	bytes uint64
}

func byNonce(a, b *PendingTx) bool {
	return a.nonce < b.nonce
}

func newTxList() *txList {
	return &txList{items: btree.NewG[*PendingTx](8, byNonce)}
}

// Get retrieves the transaction with the given nonce, if any.
func (l *txList) Get(nonce uint64) *PendingTx {
	ptx, _ := l.items.Get(&PendingTx{nonce: nonce})
	return ptx
}

// Put inserts a transaction, returning the one previously stored under the
// same nonce.
func (l *txList) Put(ptx *PendingTx) *PendingTx {
	old, replaced := l.items.ReplaceOrInsert(ptx)
	l.bytes += ptx.Size()
	if replaced {
		l.bytes -= old.Size()
		return old
	}
	return nil
}

// Remove deletes the transaction with the given nonce.
func (l *txList) Remove(nonce uint64) *PendingTx {
	ptx, ok := l.items.Delete(&PendingTx{nonce: nonce})
	if !ok {
		return nil
	}
	l.bytes -= ptx.Size()
	return ptx
}

// First returns the lowest nonce transaction.
func (l *txList) First() *PendingTx {
	ptx, _ := l.items.Min()
	return ptx
}

// Last returns the highest nonce transaction.
func (l *txList) Last() *PendingTx {
	ptx, _ := l.items.Max()
	return ptx
}

func (l *txList) Len() int      { return l.items.Len() }
func (l *txList) Bytes() uint64 { return l.bytes }
func (l *txList) Empty() bool   { return l.items.Len() == 0 }

// Ascend iterates the transactions with nonce >= from in nonce order until f
// returns false.
func (l *txList) Ascend(from uint64, f func(ptx *PendingTx) bool) {
	l.items.AscendGreaterOrEqual(&PendingTx{nonce: from}, f)
}

// Flatten returns the transactions in nonce order.
func (l *txList) Flatten() []*PendingTx {
	txs := make([]*PendingTx, 0, l.items.Len())
	l.items.Ascend(func(ptx *PendingTx) bool {
		txs = append(txs, ptx)
		return true
	})
	return txs
}
