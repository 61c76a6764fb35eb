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

package types

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/dominant-strategies/go-layerpool/common"
	"github.com/dominant-strategies/go-layerpool/crypto"
	"github.com/holiman/uint256"
)

// Transaction types.
const (
	LegacyTxType = iota
	DynamicFeeTxType
)

// Transaction is an immutable transaction as seen by the pool. The sender is
// carried by the payload since signature recovery happens before the pool.
type Transaction struct {
	inner TxData // Consensus contents of a transaction

	// caches
	hash atomic.Value
	size atomic.Value
	enc  atomic.Value
}

// NewTx creates a new transaction.
func NewTx(inner TxData) *Transaction {
	return &Transaction{inner: inner.copy()}
}

// TxData is the underlying data of a transaction.
//
// This is implemented by LegacyTx and DynamicFeeTx.
type TxData interface {
	txType() byte // returns the type ID
	copy() TxData // creates a deep copy and initializes all fields

	from() common.Address
	data() []byte
	gas() uint64
	gasPrice() *uint256.Int
	gasTipCap() *uint256.Int
	gasFeeCap() *uint256.Int
	value() *uint256.Int
	nonce() uint64
	to() *common.Address
}

// Type returns the transaction type.
func (tx *Transaction) Type() uint8 {
	return tx.inner.txType()
}

// From returns the sender of the transaction.
func (tx *Transaction) From() common.Address { return tx.inner.from() }

// Data returns the input data of the transaction.
func (tx *Transaction) Data() []byte { return common.CopyBytes(tx.inner.data()) }

// Gas returns the gas limit of the transaction.
func (tx *Transaction) Gas() uint64 { return tx.inner.gas() }

// GasPrice returns the gas price of the transaction. For dynamic fee
// transactions this is the fee cap.
func (tx *Transaction) GasPrice() *uint256.Int { return new(uint256.Int).Set(tx.inner.gasPrice()) }

// GasTipCap returns the gasTipCap per gas of the transaction.
func (tx *Transaction) GasTipCap() *uint256.Int { return new(uint256.Int).Set(tx.inner.gasTipCap()) }

// GasFeeCap returns the fee cap per gas of the transaction.
func (tx *Transaction) GasFeeCap() *uint256.Int { return new(uint256.Int).Set(tx.inner.gasFeeCap()) }

// Value returns the ether amount of the transaction.
func (tx *Transaction) Value() *uint256.Int { return new(uint256.Int).Set(tx.inner.value()) }

// Nonce returns the sender account nonce of the transaction.
func (tx *Transaction) Nonce() uint64 { return tx.inner.nonce() }

// To returns the recipient address of the transaction.
// For contract-creation transactions, To returns nil.
func (tx *Transaction) To() *common.Address {
	if to := tx.inner.to(); to != nil {
		cpy := *to
		return &cpy
	}
	return nil
}

// HasFixedFee reports whether the transaction pays a flat gas price.
func (tx *Transaction) HasFixedFee() bool {
	return tx.inner.txType() == LegacyTxType
}

// EffectiveGasTip returns the reward per gas the transaction pays at the given
// base fee. Fixed fee transactions pay their gas price regardless of the base
// fee. Dynamic fee transactions pay min(tipCap, feeCap-baseFee), floored at
// zero when the fee cap does not cover the base fee.
func (tx *Transaction) EffectiveGasTip(baseFee *uint256.Int) *uint256.Int {
	if tx.HasFixedFee() {
		return tx.GasPrice()
	}
	tip := tx.GasTipCap()
	if baseFee == nil {
		return tip
	}
	feeCap := tx.inner.gasFeeCap()
	if feeCap.Cmp(baseFee) < 0 {
		return new(uint256.Int)
	}
	headroom := new(uint256.Int).Sub(feeCap, baseFee)
	if headroom.Cmp(tip) < 0 {
		return headroom
	}
	return tip
}

// Hash returns the transaction hash.
func (tx *Transaction) Hash() common.Hash {
	if hash := tx.hash.Load(); hash != nil {
		return hash.(common.Hash)
	}
	h := crypto.Keccak256Hash(tx.encode())
	tx.hash.Store(h)
	return h
}

// Size returns the encoded size of the transaction in bytes.
func (tx *Transaction) Size() uint64 {
	if size := tx.size.Load(); size != nil {
		return size.(uint64)
	}
	size := uint64(len(tx.encode()))
	tx.size.Store(size)
	return size
}

// encode returns the canonical byte encoding of the transaction. Numbers are
// written big-endian in fixed width, the recipient is prefixed by a presence
// byte and the payload by its length.
func (tx *Transaction) encode() []byte {
	if enc := tx.enc.Load(); enc != nil {
		return enc.([]byte)
	}
	var (
		inner = tx.inner
		buf   = make([]byte, 0, 160+len(inner.data()))
		word  [32]byte
	)
	buf = append(buf, inner.txType())
	from := inner.from()
	buf = append(buf, from[:]...)
	buf = binary.BigEndian.AppendUint64(buf, inner.nonce())
	buf = binary.BigEndian.AppendUint64(buf, inner.gas())
	switch inner.txType() {
	case LegacyTxType:
		word = inner.gasPrice().Bytes32()
		buf = append(buf, word[:]...)
	default:
		word = inner.gasTipCap().Bytes32()
		buf = append(buf, word[:]...)
		word = inner.gasFeeCap().Bytes32()
		buf = append(buf, word[:]...)
	}
	if to := inner.to(); to != nil {
		buf = append(buf, 1)
		buf = append(buf, to[:]...)
	} else {
		buf = append(buf, 0)
	}
	word = inner.value().Bytes32()
	buf = append(buf, word[:]...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(inner.data())))
	buf = append(buf, inner.data()...)

	tx.enc.Store(buf)
	return buf
}

// Transactions implements DerivableList for transactions.
type Transactions []*Transaction

// Len returns the length of s.
func (s Transactions) Len() int { return len(s) }
