package txpool

import (
	"fmt"
	"testing"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dominant-strategies/go-layerpool/common"
	"github.com/dominant-strategies/go-layerpool/core/types"
	"github.com/dominant-strategies/go-layerpool/log"
)

func testAddr(i byte) common.Address {
	var addr common.Address
	addr[0] = 0xaa
	addr[common.AddressLength-1] = i
	return addr
}

func pricedTx(from common.Address, nonce uint64, price uint64) *types.Transaction {
	return pricedDataTx(from, nonce, price, nil)
}

func pricedDataTx(from common.Address, nonce uint64, price uint64, data []byte) *types.Transaction {
	return types.NewTx(&types.LegacyTx{
		From:     from,
		Nonce:    nonce,
		GasPrice: uint256.NewInt(price),
		Gas:      21000,
		Value:    uint256.NewInt(1),
		Data:     data,
	})
}

func dynamicFeeTx(from common.Address, nonce uint64, tip, feeCap uint64) *types.Transaction {
	return types.NewTx(&types.DynamicFeeTx{
		From:      from,
		Nonce:     nonce,
		GasTipCap: uint256.NewInt(tip),
		GasFeeCap: uint256.NewInt(feeCap),
		Gas:       21000,
		Value:     uint256.NewInt(1),
	})
}

// txSize is the encoded size shared by every pricedTx.
var txSize = pricedTx(common.Address{}, 0, 1).Size()

func newTestPool(t *testing.T, mutate func(*Config)) *TxPool {
	t.Helper()
	config := DefaultConfig
	if mutate != nil {
		mutate(&config)
	}
	pool := NewTxPool(config, nil, nil, log.Global, prometheus.NewRegistry())
	t.Cleanup(pool.Stop)
	return pool
}

type slot struct {
	sender common.Address
	nonce  uint64
}

// validatePoolInternals checks the pool's internal consistency: layer
// accounting, index coherence, single occupancy, per sender contiguity of the
// executable layers and the capacity limits.
func validatePoolInternals(pool *TxPool) error {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	var (
		seen  = make(map[common.Hash]LayerKind)
		slots = make(map[slot]LayerKind)
		held  = make(map[common.Address]int)
		total int
	)
	for _, l := range []*txLayer{pool.prioritized.txLayer, pool.ready.txLayer, pool.sparse.txLayer} {
		var (
			count int
			bytes uint64
		)
		for addr, list := range l.senders {
			if list.Empty() {
				return fmt.Errorf("%s layer keeps an empty list for %s", l.kind, addr.Hex())
			}
			var listBytes uint64
			for _, ptx := range list.Flatten() {
				if ptx.sender != addr {
					return fmt.Errorf("%s layer files %s under %s", l.kind, ptx, addr.Hex())
				}
				if prev, ok := seen[ptx.hash]; ok {
					return fmt.Errorf("transaction %s held by %s and %s", ptx, prev, l.kind)
				}
				seen[ptx.hash] = l.kind
				key := slot{addr, ptx.nonce}
				if prev, ok := slots[key]; ok {
					return fmt.Errorf("slot of %s taken in %s and %s", ptx, prev, l.kind)
				}
				slots[key] = l.kind
				if kind, ok := pool.all.Layer(ptx.hash); !ok || kind != l.kind {
					return fmt.Errorf("lookup files %s under %s, held by %s", ptx, kind, l.kind)
				}
				if !pool.nonces.holds(addr, ptx.nonce) {
					return fmt.Errorf("noncer does not hold %s", ptx)
				}
				onChain, _ := pool.nonces.onChain(addr)
				if ptx.nonce < onChain {
					return fmt.Errorf("%s below on-chain nonce %d", ptx, onChain)
				}
				held[addr]++
				count++
				bytes += ptx.Size()
				listBytes += ptx.Size()
			}
			if listBytes != list.Bytes() {
				return fmt.Errorf("%s list of %s accounts %d bytes, have %d", l.kind, addr.Hex(), list.Bytes(), listBytes)
			}
		}
		if count != l.count || bytes != l.bytes {
			return fmt.Errorf("%s layer accounts %d txs/%d bytes, have %d/%d", l.kind, l.count, l.bytes, count, bytes)
		}
		total += count
	}
	if total != pool.all.Count() {
		return fmt.Errorf("lookup holds %d transactions, layers %d", pool.all.Count(), total)
	}
	if pool.nonces.Len() != len(held) {
		return fmt.Errorf("noncer tracks %d senders, %d hold transactions", pool.nonces.Len(), len(held))
	}
	for addr, state := range pool.nonces.senders {
		if state.held.Cardinality() != held[addr] {
			return fmt.Errorf("noncer holds %d nonces of %s, layers %d", state.held.Cardinality(), addr.Hex(), held[addr])
		}
	}
	// Executable runs start at the on-chain nonce, prioritized first
	executable := make(map[common.Address]struct{})
	for addr := range pool.prioritized.senders {
		executable[addr] = struct{}{}
	}
	for addr := range pool.ready.senders {
		executable[addr] = struct{}{}
	}
	for addr := range executable {
		next, _ := pool.nonces.onChain(addr)
		for _, ptx := range append(pool.prioritized.txs(addr), pool.ready.txs(addr)...) {
			if ptx.nonce != next {
				return fmt.Errorf("executable run of %s broken: want nonce %d, have %s", addr.Hex(), next, ptx)
			}
			next++
		}
	}
	if pool.prioritized.Len() > pool.config.MaxPrioritized {
		return fmt.Errorf("prioritized layer holds %d > %d", pool.prioritized.Len(), pool.config.MaxPrioritized)
	}
	if pool.ready.Bytes() > pool.config.LayerMaxCapacityBytes {
		return fmt.Errorf("ready layer holds %d > %d bytes", pool.ready.Bytes(), pool.config.LayerMaxCapacityBytes)
	}
	if pool.sparse.Bytes() > pool.config.LayerMaxCapacityBytes {
		return fmt.Errorf("sparse layer holds %d > %d bytes", pool.sparse.Bytes(), pool.config.LayerMaxCapacityBytes)
	}
	for addr := range pool.sparse.senders {
		if n := pool.sparse.senderLen(addr); n > pool.config.MaxSparsePerSender {
			return fmt.Errorf("sparse layer holds %d > %d of %s", n, pool.config.MaxSparsePerSender, addr.Hex())
		}
	}
	return nil
}

func uint256Of(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}
