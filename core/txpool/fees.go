package txpool

import (
	"sync"

	"github.com/holiman/uint256"
)

// BaseFeeOracle supplies the base fee effective priorities are computed
// against. A nil base fee means dynamic fee transactions are ranked by their
// tip cap alone.
type BaseFeeOracle interface {
	BaseFee() *uint256.Int
}

// StaticBaseFee is an oracle that never changes.
type StaticBaseFee struct {
	Fee *uint256.Int
}

func (s StaticBaseFee) BaseFee() *uint256.Int {
	if s.Fee == nil {
		return nil
	}
	return new(uint256.Int).Set(s.Fee)
}

// BaseFeeTracker is an oracle updated by whoever follows the chain head.
type BaseFeeTracker struct {
	mu  sync.RWMutex
	fee *uint256.Int
}

func NewBaseFeeTracker(initial *uint256.Int) *BaseFeeTracker {
	t := &BaseFeeTracker{}
	t.SetBaseFee(initial)
	return t
}

// SetBaseFee records the base fee of the latest block.
func (t *BaseFeeTracker) SetBaseFee(fee *uint256.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if fee == nil {
		t.fee = nil
		return
	}
	t.fee = new(uint256.Int).Set(fee)
}

func (t *BaseFeeTracker) BaseFee() *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.fee == nil {
		return nil
	}
	return new(uint256.Int).Set(t.fee)
}
