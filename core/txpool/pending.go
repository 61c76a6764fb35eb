package txpool

import (
	"fmt"
	"time"

	"github.com/dominant-strategies/go-layerpool/common"
	"github.com/dominant-strategies/go-layerpool/core/types"
	"github.com/holiman/uint256"
)

// PendingTx is a transaction held by the pool together with the metadata the
// pool ordered it by. Exactly one layer owns a PendingTx at any time.
type PendingTx struct {
	Tx *types.Transaction

	hash   common.Hash
	sender common.Address
	nonce  uint64
	local  bool
	seq    uint64 // insertion order, monotonic per pool
	added  time.Time
}

func newPendingTx(tx *types.Transaction, local bool, seq uint64) *PendingTx {
	return &PendingTx{
		Tx:     tx,
		hash:   tx.Hash(),
		sender: tx.From(),
		nonce:  tx.Nonce(),
		local:  local,
		seq:    seq,
		added:  time.Now(),
	}
}

func (p *PendingTx) Hash() common.Hash      { return p.hash }
func (p *PendingTx) Sender() common.Address { return p.sender }
func (p *PendingTx) Nonce() uint64          { return p.nonce }
func (p *PendingTx) Size() uint64           { return p.Tx.Size() }
func (p *PendingTx) IsLocal() bool          { return p.local }

// Sequence is the arrival order of the transaction in the pool.
func (p *PendingTx) Sequence() uint64 { return p.seq }

// AddedAt is the time the pool accepted the transaction.
func (p *PendingTx) AddedAt() time.Time { return p.added }

// String implements fmt.Stringer.
func (p *PendingTx) String() string {
	return fmt.Sprintf("%s{sender: %s, nonce: %d, seq: %d, local: %t}", p.hash.TerminalString(), p.sender.Hex(), p.nonce, p.seq, p.local)
}

// outranks reports whether a is strictly preferred over b. Higher effective
// tip wins, then earlier arrival, then the lower hash.
func outranks(a, b *PendingTx, baseFee *uint256.Int) bool {
	if c := a.Tx.EffectiveGasTip(baseFee).Cmp(b.Tx.EffectiveGasTip(baseFee)); c != 0 {
		return c > 0
	}
	if a.seq != b.seq {
		return a.seq < b.seq
	}
	return a.hash.Cmp(b.hash) < 0
}
