// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package shard

import (
	"context"
	"sync"

	"github.com/wzj13456/shardeum/ledger"
	"github.com/wzj13456/shardeum/log"
	"github.com/wzj13456/shardeum/state"
)

var logger = log.WithContext("pkg", "shard")

// Fetcher pulls data owned by other shards into the local store.
type Fetcher interface {
	FetchAccount(ctx context.Context, addr ledger.Address) error
	FetchStorage(ctx context.Context, addr ledger.Address, key ledger.Bytes32) error
}

// Oracle involves accounts owned by the local shard, plus the accounts each
// transaction declared with Involve. Involvement does not depend on whether
// the access is a read or a write.
type Oracle struct {
	cfg     *Config
	fetcher Fetcher

	lock     sync.RWMutex
	declared map[string]map[ledger.Address]struct{}
}

var _ state.Oracle = (*Oracle)(nil)

// NewOracle creates an oracle. fetcher may be nil, then remote misses stay misses.
func NewOracle(cfg *Config, fetcher Fetcher) *Oracle {
	return &Oracle{
		cfg:      cfg,
		fetcher:  fetcher,
		declared: make(map[string]map[ledger.Address]struct{}),
	}
}

// Involve declares addrs as taking part in transaction txID.
func (o *Oracle) Involve(txID string, addrs ...ledger.Address) {
	o.lock.Lock()
	defer o.lock.Unlock()

	set, ok := o.declared[txID]
	if !ok {
		set = make(map[ledger.Address]struct{}, len(addrs))
		o.declared[txID] = set
	}
	for _, addr := range addrs {
		set[addr] = struct{}{}
	}
}

// Forget drops the declarations of txID.
func (o *Oracle) Forget(txID string) {
	o.lock.Lock()
	defer o.lock.Unlock()

	delete(o.declared, txID)
}

func (o *Oracle) involved(txID string, addr ledger.Address) bool {
	if o.cfg.IsLocal(addr) {
		return true
	}
	o.lock.RLock()
	defer o.lock.RUnlock()

	_, ok := o.declared[txID][addr]
	return ok
}

func (o *Oracle) AccountInvolved(ts *state.TransactionState, addr ledger.Address, _ bool) bool {
	return o.involved(ts.LinkedTX(), addr)
}

func (o *Oracle) ContractStorageInvolved(ts *state.TransactionState, addr ledger.Address, _ ledger.Bytes32, _ bool) bool {
	return o.involved(ts.LinkedTX(), addr)
}

// StorageMiss fetches a remote account. Local misses are genuine absences.
func (o *Oracle) StorageMiss(ctx context.Context, ts *state.TransactionState, addr ledger.Address) error {
	if o.fetcher == nil || o.cfg.IsLocal(addr) {
		return nil
	}
	err := o.fetcher.FetchAccount(ctx, addr)
	o.observe("account", err)
	if err != nil {
		logger.Warn("failed to fetch account", "tx", ts.LinkedTX(), "addr", addr, "shard", o.cfg.Partition(addr), "err", err)
	}
	return err
}

// ContractStorageMiss fetches a remote storage slot.
func (o *Oracle) ContractStorageMiss(ctx context.Context, ts *state.TransactionState, addr ledger.Address, key ledger.Bytes32) error {
	if o.fetcher == nil || o.cfg.IsLocal(addr) {
		return nil
	}
	err := o.fetcher.FetchStorage(ctx, addr, key)
	o.observe("storage", err)
	if err != nil {
		logger.Warn("failed to fetch storage", "tx", ts.LinkedTX(), "addr", addr, "key", key, "err", err)
	}
	return err
}

func (o *Oracle) observe(target string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metricFetchCount().AddWithLabel(1, map[string]string{"target": target, "result": result})
}
