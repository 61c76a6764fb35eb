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

package txpool

import "errors"

var (
	// ErrAlreadyKnown is returned if the transactions is already contained
	// within the pool.
	ErrAlreadyKnown = errors.New("already known")

	// ErrReplaceUnderpriced is returned if a transaction is attempted to be replaced
	// with a different one without the required price bump.
	ErrReplaceUnderpriced = errors.New("replacement transaction underpriced")

	// ErrNonceTooLow is returned if the nonce of a transaction is lower than the
	// one present in the sender's account.
	ErrNonceTooLow = errors.New("nonce too low")

	// ErrNonceTooHigh is returned if the nonce of a transaction is too far ahead
	// of the sender's account nonce to be retained.
	ErrNonceTooHigh = errors.New("nonce too high")

	// ErrPoolClosed is returned for transactions submitted after Stop.
	ErrPoolClosed = errors.New("txpool is stopped")
)

// AddResult is the outcome of submitting a transaction to the pool. Rejections
// are ordinary results, not errors.
type AddResult int

const (
	Added AddResult = iota
	AlreadyKnown
	Replaced
	RejectedUnderpricedReplacement
	NonceTooFarInFuture
	RejectedStale
	RejectedPoolClosed
)

var addResultNames = map[AddResult]string{
	Added:                          "added",
	AlreadyKnown:                   "already_known",
	Replaced:                       "replaced",
	RejectedUnderpricedReplacement: "underpriced_replacement",
	NonceTooFarInFuture:            "nonce_too_far",
	RejectedStale:                  "stale",
	RejectedPoolClosed:             "pool_closed",
}

// String implements fmt.Stringer.
func (r AddResult) String() string {
	if name, ok := addResultNames[r]; ok {
		return name
	}
	return "unknown"
}

// Accepted reports whether the transaction is now held by the pool.
func (r AddResult) Accepted() bool {
	return r == Added || r == Replaced
}

// Err maps the result onto the sentinel error callers of the RPC layer expect.
// Accepted results map to nil.
func (r AddResult) Err() error {
	switch r {
	case Added, Replaced:
		return nil
	case AlreadyKnown:
		return ErrAlreadyKnown
	case RejectedUnderpricedReplacement:
		return ErrReplaceUnderpriced
	case NonceTooFarInFuture:
		return ErrNonceTooHigh
	case RejectedStale:
		return ErrNonceTooLow
	default:
		return ErrPoolClosed
	}
}

// RemovalReason tells listeners why a transaction left the pool.
type RemovalReason int

const (
	// ReasonCapacity means the transaction was pushed out by layer limits.
	ReasonCapacity RemovalReason = iota
	// ReasonReplaced means a better priced transaction took the same nonce.
	ReasonReplaced
	// ReasonConfirmed means the sender's on-chain nonce moved past it.
	ReasonConfirmed
	// ReasonInvalidated means block selection rejected it or a lower nonce
	// of the same sender.
	ReasonInvalidated
)

// String implements fmt.Stringer.
func (r RemovalReason) String() string {
	switch r {
	case ReasonCapacity:
		return "capacity"
	case ReasonReplaced:
		return "replaced"
	case ReasonConfirmed:
		return "confirmed"
	case ReasonInvalidated:
		return "invalidated"
	}
	return "unknown"
}

// TxStatus is the current status of a transaction as seen by the pool.
type TxStatus uint

const (
	TxStatusUnknown TxStatus = iota
	TxStatusQueued
	TxStatusPending
)
