package main

import (
	"context"
	"encoding/binary"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"

	"github.com/dominant-strategies/go-layerpool/common"
	"github.com/dominant-strategies/go-layerpool/core/txpool"
	"github.com/dominant-strategies/go-layerpool/core/types"
	"github.com/dominant-strategies/go-layerpool/log"
)

const (
	txGas = 21000

	// Elasticity of the simulated base fee, as a divisor of the relative
	// distance to the target block fullness.
	baseFeeChangeDenominator = 8
)

// chain is the simulated account state: the next nonce of every sender.
type chain struct {
	lock   sync.RWMutex
	nonces map[common.Address]uint64
}

func newChain() *chain {
	return &chain{nonces: make(map[common.Address]uint64)}
}

func (c *chain) nonce(addr common.Address) uint64 {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.nonces[addr]
}

func (c *chain) apply(confirmed map[common.Address]uint64) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for addr, next := range confirmed {
		if next > c.nonces[addr] {
			c.nonces[addr] = next
		}
	}
}

type sender struct {
	addr   common.Address
	nonces []uint64 // submission order
}

func senderAddress(i int) common.Address {
	var addr common.Address
	addr[0] = 0x5e
	binary.BigEndian.PutUint32(addr[common.AddressLength-4:], uint32(i))
	return addr
}

// newSenders builds the senders of a workload, locals first. Each sender
// submits its nonces in order except for adjacent pairs swapped with the
// workload's gap probability.
func newSenders(w Workload, rng *rand.Rand) (locals []*sender, remotes []*sender) {
	for i := 0; i < w.Senders; i++ {
		s := &sender{addr: senderAddress(i), nonces: make([]uint64, w.TxsPerSender)}
		for n := range s.nonces {
			s.nonces[n] = uint64(n)
		}
		for n := 0; n+1 < len(s.nonces); n++ {
			if rng.Float64() < w.GapProbability {
				s.nonces[n], s.nonces[n+1] = s.nonces[n+1], s.nonces[n]
				n++
			}
		}
		if i < w.LocalSenders {
			locals = append(locals, s)
		} else {
			remotes = append(remotes, s)
		}
	}
	return locals, remotes
}

type blockSummary struct {
	included int
	invalid  int
	baseFee  *uint256.Int
}

func (b blockSummary) empty() bool { return b.included == 0 && b.invalid == 0 }

// simulation feeds a pool from concurrent ingress actors while a block
// builder drains it.
type simulation struct {
	pool      *txpool.TxPool
	fees      *txpool.BaseFeeTracker
	chain     *chain
	workload  Workload
	blockSize int
	blockTime time.Duration
	report    *report
	logger    *log.Logger

	activeIngress atomic.Int32
}

func newSimulation(pool *txpool.TxPool, fees *txpool.BaseFeeTracker, workload Workload, blockSize int, blockTime time.Duration, logger *log.Logger) *simulation {
	s := &simulation{
		pool:      pool,
		fees:      fees,
		chain:     newChain(),
		workload:  workload,
		blockSize: blockSize,
		blockTime: blockTime,
		report:    newReport(),
		logger:    logger,
	}
	pool.SubscribeAdded(s.report)
	pool.SubscribeDropped(s.report)
	return s
}

// run blocks until every submitted transaction was either included or is
// stuck, or until ctx is done.
func (s *simulation) run(ctx context.Context, seed int64) error {
	locals, remotes := newSenders(s.workload, rand.New(rand.NewSource(seed)))

	g, ctx := errgroup.WithContext(ctx)
	s.activeIngress.Store(2)
	g.Go(func() error {
		defer s.activeIngress.Add(-1)
		return s.ingress(ctx, remotes, false, rand.New(rand.NewSource(seed+1)))
	})
	g.Go(func() error {
		defer s.activeIngress.Add(-1)
		return s.ingress(ctx, locals, true, rand.New(rand.NewSource(seed+2)))
	})
	g.Go(func() error {
		return s.build(ctx, rand.New(rand.NewSource(seed+3)))
	})
	return g.Wait()
}

// ingress submits one transaction per sender per round until every sender
// ran out of nonces.
func (s *simulation) ingress(ctx context.Context, senders []*sender, local bool, rng *rand.Rand) error {
	for round := 0; ; round++ {
		progressed := false
		for _, snd := range senders {
			if round >= len(snd.nonces) {
				continue
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			progressed = true

			tx := s.newTx(rng, snd.addr, snd.nonces[round])
			s.submit(tx, local)
			if rng.Float64() < s.workload.ReplaceProbability {
				s.submit(bumpFees(tx), local)
			}
		}
		if !progressed {
			s.logger.WithField("local", local).Debug("Ingress exhausted")
			return nil
		}
	}
}

// submit hands tx to the pool. The chain stays read locked across the pool
// call so the reported sender nonce cannot fall behind a confirmed block.
func (s *simulation) submit(tx *types.Transaction, local bool) {
	s.chain.lock.RLock()
	defer s.chain.lock.RUnlock()

	var (
		nonce  = s.chain.nonces[tx.From()]
		result txpool.AddResult
	)
	if local {
		result = s.pool.AddLocal(tx, nonce)
	} else {
		result = s.pool.AddRemote(tx, nonce)
	}
	s.report.addResult(result)
	s.logger.WithFields(log.Fields{
		"hash":   tx.Hash(),
		"nonce":  tx.Nonce(),
		"result": result,
	}).Trace("Submitted transaction")
}

func (s *simulation) newTx(rng *rand.Rand, from common.Address, nonce uint64) *types.Transaction {
	w := s.workload
	tip := w.MinTip
	if w.MaxTip > w.MinTip {
		tip += uint64(rng.Int63n(int64(w.MaxTip - w.MinTip + 1)))
	}
	var payload []byte
	if size := w.MinPayload + rng.Intn(w.MaxPayload-w.MinPayload+1); size > 0 {
		payload = make([]byte, size)
		rng.Read(payload)
	}
	baseFee := s.fees.BaseFee()
	if baseFee == nil {
		baseFee = new(uint256.Int)
	}
	if rng.Float64() < w.DynamicFeeShare {
		feeCap := new(uint256.Int).Mul(baseFee, uint256.NewInt(2))
		return types.NewTx(&types.DynamicFeeTx{
			From:      from,
			Nonce:     nonce,
			GasTipCap: uint256.NewInt(tip),
			GasFeeCap: feeCap.Add(feeCap, uint256.NewInt(tip)),
			Gas:       txGas,
			Value:     uint256.NewInt(1),
			Data:      payload,
		})
	}
	return types.NewTx(&types.LegacyTx{
		From:     from,
		Nonce:    nonce,
		GasPrice: new(uint256.Int).Add(baseFee, uint256.NewInt(tip)),
		Gas:      txGas,
		Value:    uint256.NewInt(1),
		Data:     payload,
	})
}

// bumpFees returns a copy of tx paying twice the fees, which clears any sane
// price bump.
func bumpFees(tx *types.Transaction) *types.Transaction {
	double := func(v *uint256.Int) *uint256.Int {
		v.Lsh(v, 1)
		return v.AddUint64(v, 1)
	}
	if tx.HasFixedFee() {
		return types.NewTx(&types.LegacyTx{
			From:     tx.From(),
			Nonce:    tx.Nonce(),
			GasPrice: double(tx.GasPrice()),
			Gas:      tx.Gas(),
			Value:    tx.Value(),
			Data:     tx.Data(),
			To:       tx.To(),
		})
	}
	return types.NewTx(&types.DynamicFeeTx{
		From:      tx.From(),
		Nonce:     tx.Nonce(),
		GasTipCap: double(tx.GasTipCap()),
		GasFeeCap: double(tx.GasFeeCap()),
		Gas:       tx.Gas(),
		Value:     tx.Value(),
		Data:      tx.Data(),
		To:        tx.To(),
	})
}

// build produces a block every block time. Once ingress is over it stops at
// the first block that finds nothing to select.
func (s *simulation) build(ctx context.Context, rng *rand.Rand) error {
	ticker := time.NewTicker(s.blockTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		drained := s.activeIngress.Load() == 0
		if summary := s.buildBlock(rng); drained && summary.empty() {
			return nil
		}
	}
}

func (s *simulation) buildBlock(rng *rand.Rand) blockSummary {
	var (
		start     = time.Now()
		confirmed = make(map[common.Address]uint64)
		summary   blockSummary
	)
	s.pool.Select(func(ptx *txpool.PendingTx) txpool.SelectionResult {
		if summary.included >= s.blockSize {
			return txpool.SelectStop
		}
		if rng.Float64() < s.workload.InvalidProbability {
			summary.invalid++
			return txpool.SelectDeleteAndContinue
		}
		confirmed[ptx.Sender()] = ptx.Nonce() + 1
		summary.included++
		return txpool.SelectContinue
	})
	s.chain.apply(confirmed)
	s.pool.OnBlockAdded(confirmed)

	summary.baseFee = s.adjustBaseFee(summary.included)
	s.report.addBlock(summary)

	s.logger.WithFields(log.Fields{
		"included": summary.included,
		"invalid":  summary.invalid,
		"senders":  len(confirmed),
		"baseFee":  summary.baseFee,
		"pending":  s.pool.Size(),
		"elapsed":  common.PrettyDuration(time.Since(start)),
	}).Info("Built block")
	return summary
}

// adjustBaseFee moves the base fee toward keeping blocks half full and
// returns the new value. It never drops below one.
func (s *simulation) adjustBaseFee(included int) *uint256.Int {
	fee := s.fees.BaseFee()
	if fee == nil {
		fee = uint256.NewInt(1)
	}
	target := uint64(s.blockSize / 2)
	if target == 0 {
		target = 1
	}
	used := uint64(included)
	switch {
	case used > target:
		delta := new(uint256.Int).Mul(fee, uint256.NewInt(used-target))
		delta.Div(delta, uint256.NewInt(target*baseFeeChangeDenominator))
		if delta.IsZero() {
			delta.SetOne()
		}
		fee.Add(fee, delta)
	case used < target:
		delta := new(uint256.Int).Mul(fee, uint256.NewInt(target-used))
		delta.Div(delta, uint256.NewInt(target*baseFeeChangeDenominator))
		if delta.Cmp(fee) >= 0 {
			fee.SetOne()
		} else {
			fee.Sub(fee, delta)
		}
	}
	if fee.IsZero() {
		fee.SetOne()
	}
	s.fees.SetBaseFee(fee)
	return fee
}
