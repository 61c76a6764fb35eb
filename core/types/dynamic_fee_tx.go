// Copyright 2021 The go-ethereum Authors
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
	"github.com/dominant-strategies/go-layerpool/common"
	"github.com/holiman/uint256"
)

// DynamicFeeTx pays a tip on top of the block base fee, bounded by a fee cap.
type DynamicFeeTx struct {
	From      common.Address
	Nonce     uint64
	GasTipCap *uint256.Int
	GasFeeCap *uint256.Int
	Gas       uint64
	To        *common.Address // nil means contract creation
	Value     *uint256.Int
	Data      []byte
}

// copy creates a deep copy of the transaction data and initializes all fields.
func (tx *DynamicFeeTx) copy() TxData {
	cpy := &DynamicFeeTx{
		From:  tx.From,
		Nonce: tx.Nonce,
		To:    copyAddressPtr(tx.To),
		Data:  common.CopyBytes(tx.Data),
		Gas:   tx.Gas,
		// These are copied below.
		Value:     new(uint256.Int),
		GasTipCap: new(uint256.Int),
		GasFeeCap: new(uint256.Int),
	}
	if tx.Value != nil {
		cpy.Value.Set(tx.Value)
	}
	if tx.GasTipCap != nil {
		cpy.GasTipCap.Set(tx.GasTipCap)
	}
	if tx.GasFeeCap != nil {
		cpy.GasFeeCap.Set(tx.GasFeeCap)
	}
	return cpy
}

// accessors for innerTx.
func (tx *DynamicFeeTx) txType() byte            { return DynamicFeeTxType }
func (tx *DynamicFeeTx) from() common.Address    { return tx.From }
func (tx *DynamicFeeTx) data() []byte            { return tx.Data }
func (tx *DynamicFeeTx) gas() uint64             { return tx.Gas }
func (tx *DynamicFeeTx) gasPrice() *uint256.Int  { return tx.GasFeeCap }
func (tx *DynamicFeeTx) gasTipCap() *uint256.Int { return tx.GasTipCap }
func (tx *DynamicFeeTx) gasFeeCap() *uint256.Int { return tx.GasFeeCap }
func (tx *DynamicFeeTx) value() *uint256.Int     { return tx.Value }
func (tx *DynamicFeeTx) nonce() uint64           { return tx.Nonce }
func (tx *DynamicFeeTx) to() *common.Address     { return tx.To }
