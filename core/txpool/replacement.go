package txpool

import (
	"github.com/holiman/uint256"
)

// ReplacementPolicy decides whether candidate may take the (sender, nonce)
// slot currently held by existing. The pool treats it as opaque.
type ReplacementPolicy func(existing, candidate *PendingTx, baseFee *uint256.Int) bool

// PriceBump returns the default replacement rule: the candidate must pay at
// least percent more than the transaction it replaces.
//
// Fixed fee transactions compare gas prices. Dynamic fee transactions must
// bump both the fee cap and the tip cap. When the fee models differ, the
// effective tips at the current base fee are compared instead.
func PriceBump(percent uint64) ReplacementPolicy {
	return func(existing, candidate *PendingTx, baseFee *uint256.Int) bool {
		old, cand := existing.Tx, candidate.Tx
		switch {
		case old.HasFixedFee() && cand.HasFixedFee():
			return bumped(old.GasPrice(), cand.GasPrice(), percent)
		case !old.HasFixedFee() && !cand.HasFixedFee():
			return bumped(old.GasFeeCap(), cand.GasFeeCap(), percent) &&
				bumped(old.GasTipCap(), cand.GasTipCap(), percent)
		default:
			return bumped(old.EffectiveGasTip(baseFee), cand.EffectiveGasTip(baseFee), percent)
		}
	}
}

// bumped reports whether next is strictly above prev and at least
// prev*(100+percent)/100.
func bumped(prev, next *uint256.Int, percent uint64) bool {
	if next.Cmp(prev) <= 0 {
		return false
	}
	threshold, overflow := new(uint256.Int).MulOverflow(prev, uint256.NewInt(100+percent))
	if overflow {
		return false
	}
	threshold.Div(threshold, uint256.NewInt(100))
	return next.Cmp(threshold) >= 0
}
