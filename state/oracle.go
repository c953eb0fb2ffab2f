// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"context"

	"github.com/wzj13456/shardeum/ledger"
)

// Oracle decides whether data may take part in a transaction on this shard,
// and is notified when data is missing locally.
//
// Storage reads ask ContractStorageInvolved with isRead false and storage writes
// with isRead true. Implementations must expect this inverted polarity.
type Oracle interface {
	AccountInvolved(ts *TransactionState, addr ledger.Address, isRead bool) bool
	ContractStorageInvolved(ts *TransactionState, addr ledger.Address, key ledger.Bytes32, isRead bool) bool

	// StorageMiss may fetch the account from another shard as a side effect.
	StorageMiss(ctx context.Context, ts *TransactionState, addr ledger.Address) error
	// ContractStorageMiss may fetch the slot from another shard as a side effect.
	ContractStorageMiss(ctx context.Context, ts *TransactionState, addr ledger.Address, key ledger.Bytes32) error
}

// Callbacks adapts plain functions to Oracle. Nil involvement funcs allow
// everything, nil miss funcs do nothing.
type Callbacks struct {
	AccountInvolvedFunc         func(ts *TransactionState, addr ledger.Address, isRead bool) bool
	ContractStorageInvolvedFunc func(ts *TransactionState, addr ledger.Address, key ledger.Bytes32, isRead bool) bool
	StorageMissFunc             func(ctx context.Context, ts *TransactionState, addr ledger.Address) error
	ContractStorageMissFunc     func(ctx context.Context, ts *TransactionState, addr ledger.Address, key ledger.Bytes32) error
}

var _ Oracle = (*Callbacks)(nil)

func (c *Callbacks) AccountInvolved(ts *TransactionState, addr ledger.Address, isRead bool) bool {
	if c.AccountInvolvedFunc == nil {
		return true
	}
	return c.AccountInvolvedFunc(ts, addr, isRead)
}

func (c *Callbacks) ContractStorageInvolved(ts *TransactionState, addr ledger.Address, key ledger.Bytes32, isRead bool) bool {
	if c.ContractStorageInvolvedFunc == nil {
		return true
	}
	return c.ContractStorageInvolvedFunc(ts, addr, key, isRead)
}

func (c *Callbacks) StorageMiss(ctx context.Context, ts *TransactionState, addr ledger.Address) error {
	if c.StorageMissFunc == nil {
		return nil
	}
	return c.StorageMissFunc(ctx, ts, addr)
}

func (c *Callbacks) ContractStorageMiss(ctx context.Context, ts *TransactionState, addr ledger.Address, key ledger.Bytes32) error {
	if c.ContractStorageMissFunc == nil {
		return nil
	}
	return c.ContractStorageMissFunc(ctx, ts, addr, key)
}
