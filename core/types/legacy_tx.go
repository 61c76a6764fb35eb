// Copyright 2020 The go-ethereum Authors
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

// LegacyTx is a transaction paying a fixed gas price.
type LegacyTx struct {
	From     common.Address
	Nonce    uint64
	GasPrice *uint256.Int
	Gas      uint64
	To       *common.Address // nil means contract creation
	Value    *uint256.Int
	Data     []byte
}

// copy creates a deep copy of the transaction data and initializes all fields.
func (tx *LegacyTx) copy() TxData {
	cpy := &LegacyTx{
		From:  tx.From,
		Nonce: tx.Nonce,
		To:    copyAddressPtr(tx.To),
		Data:  common.CopyBytes(tx.Data),
		Gas:   tx.Gas,
		// These are initialized below.
		Value:    new(uint256.Int),
		GasPrice: new(uint256.Int),
	}
	if tx.Value != nil {
		cpy.Value.Set(tx.Value)
	}
	if tx.GasPrice != nil {
		cpy.GasPrice.Set(tx.GasPrice)
	}
	return cpy
}

// accessors for innerTx.
func (tx *LegacyTx) txType() byte            { return LegacyTxType }
func (tx *LegacyTx) from() common.Address    { return tx.From }
func (tx *LegacyTx) data() []byte            { return tx.Data }
func (tx *LegacyTx) gas() uint64             { return tx.Gas }
func (tx *LegacyTx) gasPrice() *uint256.Int  { return tx.GasPrice }
func (tx *LegacyTx) gasTipCap() *uint256.Int { return tx.GasPrice }
func (tx *LegacyTx) gasFeeCap() *uint256.Int { return tx.GasPrice }
func (tx *LegacyTx) value() *uint256.Int     { return tx.Value }
func (tx *LegacyTx) nonce() uint64           { return tx.Nonce }
func (tx *LegacyTx) to() *common.Address     { return tx.To }

func copyAddressPtr(a *common.Address) *common.Address {
	if a == nil {
		return nil
	}
	cpy := *a
	return &cpy
}
