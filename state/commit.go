// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"context"
	"slices"
	"time"

	"github.com/pkg/errors"
	"github.com/wzj13456/shardeum/ledger"
	"github.com/wzj13456/shardeum/muxdb"
)

// RegisterPendingStorageKey makes key of addr eligible for CommitContractStorage.
// It must be called before the value is committed.
func (ts *TransactionState) RegisterPendingStorageKey(addr ledger.Address, key ledger.Bytes32) {
	keys, ok := ts.pending[addr]
	if !ok {
		keys = make(map[ledger.Bytes32][]byte)
		ts.pending[addr] = keys
	}
	if _, ok := keys[key]; !ok {
		keys[key] = nil
	}
}

// CommitContractStorage stages an encoded storage value for the next CommitAccount
// of addr. Only registered keys are staged, the result tells whether it was.
// No trie is written and the oracle is not consulted.
func (ts *TransactionState) CommitContractStorage(addr ledger.Address, key ledger.Bytes32, value []byte) bool {
	keys, ok := ts.pending[addr]
	if !ok {
		return false
	}
	if _, ok := keys[key]; !ok {
		return false
	}
	keys[key] = bytes.Clone(value)
	return true
}

// CommitAccount writes the account into the world trie.
//
// Pending storage values of addr are flushed into its storage trie first, and
// acc.StateRoot is set to the resulting root before acc is encoded. Both tries
// are committed together or not at all.
func (ts *TransactionState) CommitAccount(ctx context.Context, addr ledger.Address, acc *Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	startTime := time.Now()

	scope, err := ts.db.Begin()
	if err != nil {
		return err
	}
	defer scope.Release()

	world, err := scope.Open(muxdb.AccountTrieName)
	if err != nil {
		return err
	}
	world.Checkpoint()

	if keys, ok := ts.pending[addr]; ok {
		storage, err := scope.Open(muxdb.StorageTrieName(addr))
		if err != nil {
			return err
		}
		storage.Checkpoint()
		for _, key := range sortedKeys(keys) {
			val := keys[key]
			// registered but never committed
			if val == nil {
				continue
			}
			if err := storage.Put(key.Bytes(), val); err != nil {
				logger.Error("failed to put storage, reverting", "tx", ts.linkTX, "addr", addr, "key", key, "err", err)
				return errors.Wrapf(err, "commit storage %v", addr)
			}
		}
		if err := storage.Commit(); err != nil {
			return errors.Wrapf(err, "commit storage %v", addr)
		}
		acc.StateRoot = storage.Hash()
	}

	raw, err := EncodeAccount(acc)
	if err != nil {
		return errors.Wrapf(err, "encode account %v", addr)
	}
	if err := world.Put(addr.Bytes(), raw); err != nil {
		logger.Error("failed to put account, reverting", "tx", ts.linkTX, "addr", addr, "err", err)
		return errors.Wrapf(err, "commit account %v", addr)
	}
	if err := world.Commit(); err != nil {
		return errors.Wrapf(err, "commit account %v", addr)
	}
	if err := scope.Commit(); err != nil {
		logger.Error("failed to commit account, reverted", "tx", ts.linkTX, "addr", addr, "err", err)
		return errors.Wrapf(err, "commit account %v", addr)
	}

	metricCommitDuration().Observe(time.Since(startTime).Milliseconds())
	logger.Debug("account committed", "tx", ts.linkTX, "addr", addr, "stateRoot", acc.StateRoot)
	return nil
}

// TouchedContracts returns contracts with storage writes, in address order.
func (ts *TransactionState) TouchedContracts() []ledger.Address {
	addrs := make([]ledger.Address, 0, len(ts.touched))
	for addr := range ts.touched {
		addrs = append(addrs, addr)
	}
	slices.SortFunc(addrs, func(a, b ledger.Address) int {
		return bytes.Compare(a[:], b[:])
	})
	return addrs
}

func sortedKeys[V any](m map[ledger.Bytes32]V) []ledger.Bytes32 {
	keys := make([]ledger.Bytes32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b ledger.Bytes32) int {
		return bytes.Compare(a[:], b[:])
	})
	return keys
}
