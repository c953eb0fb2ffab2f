// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"context"

	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	"github.com/wzj13456/shardeum/cache"
	"github.com/wzj13456/shardeum/ledger"
	"github.com/wzj13456/shardeum/log"
	"github.com/wzj13456/shardeum/muxdb"
)

var logger = log.WithContext("pkg", "state")

// TrieReader reads values by key. A nil value means absent.
// *muxdb.Trie implements it.
type TrieReader interface {
	Get(key []byte) ([]byte, error)
}

// slot identifies an account, or a storage slot of a contract when isStorage is set.
type slot struct {
	addr      ledger.Address
	key       ledger.Bytes32
	isStorage bool
}

func accountSlot(addr ledger.Address) slot { return slot{addr: addr} }

func storageSlot(addr ledger.Address, key ledger.Bytes32) slot {
	return slot{addr: addr, key: key, isStorage: true}
}

// TransactionState holds reads and writes of a single transaction.
// It is not safe for concurrent use.
type TransactionState struct {
	db     *muxdb.MuxDB
	oracle Oracle
	linkTX string
	accs   *cache.LRU

	firstReads map[slot][]byte // first value observed, never overwritten
	writes     map[slot][]byte // latest value written
	pending    map[ledger.Address]map[ledger.Bytes32][]byte
	touched    map[ledger.Address]struct{}
}

// Option configures a TransactionState.
type Option func(*options)

type options struct {
	linkedTX string
	blob     *TransferBlob
	accs     *cache.LRU
}

// WithLinkedTX sets the correlation id of the transaction.
func WithLinkedTX(id string) Option {
	return func(o *options) { o.linkedTX = id }
}

// WithTransferBlob preloads first reads, usually received from another shard.
func WithTransferBlob(b *TransferBlob) Option {
	return func(o *options) { o.blob = b }
}

// WithAccountCache shares a cache of decoded accounts, keyed by their encoding.
func WithAccountCache(c *cache.LRU) Option {
	return func(o *options) { o.accs = c }
}

// New creates the state of one transaction.
func New(db *muxdb.MuxDB, oracle Oracle, opts ...Option) (*TransactionState, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.linkedTX == "" {
		o.linkedTX = uuid.New()
	}

	ts := &TransactionState{
		db:         db,
		oracle:     oracle,
		linkTX:     o.linkedTX,
		accs:       o.accs,
		firstReads: make(map[slot][]byte),
		writes:     make(map[slot][]byte),
		pending:    make(map[ledger.Address]map[ledger.Bytes32][]byte),
		touched:    make(map[ledger.Address]struct{}),
	}
	if o.blob != nil {
		if err := o.blob.each(func(s slot, raw []byte) {
			ts.firstReads[s] = raw
		}); err != nil {
			return nil, errors.Wrap(err, "load transfer blob")
		}
		logger.Debug("first reads preloaded", "tx", ts.linkTX, "count", len(ts.firstReads))
	}
	return ts, nil
}

// LinkedTX returns the correlation id of the transaction.
func (ts *TransactionState) LinkedTX() string { return ts.linkTX }

// DB returns the backing store.
func (ts *TransactionState) DB() *muxdb.MuxDB { return ts.db }

// GetAccount returns the account at addr, or nil if absent.
//
// Unless originalOnly, the transaction's own writes are seen first. On a cache
// miss the oracle must involve the account before trie is read. A store miss
// notifies the oracle, then fails with ErrDataUnavailable if canThrow.
func (ts *TransactionState) GetAccount(ctx context.Context, trie TrieReader, addr ledger.Address, originalOnly, canThrow bool) (*Account, error) {
	s := accountSlot(addr)
	if !originalOnly {
		if raw, ok := ts.writes[s]; ok {
			metricReadCount().AddWithLabel(1, map[string]string{"source": "write"})
			return ts.decodeAccount(addr, raw)
		}
	}
	if raw, ok := ts.firstReads[s]; ok {
		metricReadCount().AddWithLabel(1, map[string]string{"source": "first"})
		return ts.decodeAccount(addr, raw)
	}

	if !ts.oracle.AccountInvolved(ts, addr, true) {
		metricDeniedCount().AddWithLabel(1, map[string]string{"target": "account"})
		logger.Warn("account involvement denied", "tx", ts.linkTX, "addr", addr, "read", true)
		return nil, newError(ErrInvolvementDenied, addr, nil, nil)
	}

	raw, err := trie.Get(addr.Bytes())
	if err != nil {
		return nil, errors.Wrapf(err, "get account %v", addr)
	}
	if len(raw) == 0 {
		metricReadCount().AddWithLabel(1, map[string]string{"source": "miss"})
		if err := ts.oracle.StorageMiss(ctx, ts, addr); err != nil {
			return nil, newError(ErrDataUnavailable, addr, nil, err)
		}
		if canThrow {
			logger.Warn("account not available", "tx", ts.linkTX, "addr", addr)
			return nil, newError(ErrDataUnavailable, addr, nil, nil)
		}
		return nil, nil
	}

	metricReadCount().AddWithLabel(1, map[string]string{"source": "store"})
	acc, err := ts.decodeAccount(addr, raw)
	if err != nil {
		return nil, err
	}
	if _, ok := ts.firstReads[s]; !ok {
		ts.firstReads[s] = raw
	}
	return acc, nil
}

// PutAccount stages acc as the latest value of addr.
func (ts *TransactionState) PutAccount(addr ledger.Address, acc *Account) error {
	if !ts.oracle.AccountInvolved(ts, addr, false) {
		metricDeniedCount().AddWithLabel(1, map[string]string{"target": "account"})
		logger.Warn("account involvement denied", "tx", ts.linkTX, "addr", addr, "read", false)
		return newError(ErrInvolvementDenied, addr, nil, nil)
	}
	raw, err := EncodeAccount(acc)
	if err != nil {
		return errors.Wrapf(err, "encode account %v", addr)
	}
	ts.writes[accountSlot(addr)] = raw
	return nil
}

// GetContractStorage returns the content of a storage slot, or nil if absent.
// It follows GetAccount, with trie being the contract's storage trie.
func (ts *TransactionState) GetContractStorage(ctx context.Context, trie TrieReader, addr ledger.Address, key ledger.Bytes32, originalOnly, canThrow bool) ([]byte, error) {
	s := storageSlot(addr, key)
	if !originalOnly {
		if raw, ok := ts.writes[s]; ok {
			metricReadCount().AddWithLabel(1, map[string]string{"source": "write"})
			return decodeStorage(addr, key, raw)
		}
	}
	if raw, ok := ts.firstReads[s]; ok {
		metricReadCount().AddWithLabel(1, map[string]string{"source": "first"})
		return decodeStorage(addr, key, raw)
	}

	// reads are checked with isRead false
	if !ts.oracle.ContractStorageInvolved(ts, addr, key, false) {
		metricDeniedCount().AddWithLabel(1, map[string]string{"target": "storage"})
		logger.Warn("storage involvement denied", "tx", ts.linkTX, "addr", addr, "key", key, "read", true)
		return nil, newError(ErrInvolvementDenied, addr, &key, nil)
	}

	raw, err := trie.Get(key.Bytes())
	if err != nil {
		return nil, errors.Wrapf(err, "get storage %v %v", addr, key)
	}
	if len(raw) == 0 {
		metricReadCount().AddWithLabel(1, map[string]string{"source": "miss"})
		if err := ts.oracle.ContractStorageMiss(ctx, ts, addr, key); err != nil {
			return nil, newError(ErrDataUnavailable, addr, &key, err)
		}
		if canThrow {
			logger.Warn("storage not available", "tx", ts.linkTX, "addr", addr, "key", key)
			return nil, newError(ErrDataUnavailable, addr, &key, nil)
		}
		return nil, nil
	}

	metricReadCount().AddWithLabel(1, map[string]string{"source": "store"})
	val, err := decodeStorage(addr, key, raw)
	if err != nil {
		return nil, err
	}
	if _, ok := ts.firstReads[s]; !ok {
		ts.firstReads[s] = raw
	}
	return val, nil
}

// PutContractStorage stages value for a storage slot and marks the contract touched.
func (ts *TransactionState) PutContractStorage(addr ledger.Address, key ledger.Bytes32, value []byte) error {
	// writes are checked with isRead true
	if !ts.oracle.ContractStorageInvolved(ts, addr, key, true) {
		metricDeniedCount().AddWithLabel(1, map[string]string{"target": "storage"})
		logger.Warn("storage involvement denied", "tx", ts.linkTX, "addr", addr, "key", key, "read", false)
		return newError(ErrInvolvementDenied, addr, &key, nil)
	}
	raw, err := EncodeStorageValue(value)
	if err != nil {
		return errors.Wrapf(err, "encode storage %v %v", addr, key)
	}
	ts.writes[storageSlot(addr, key)] = raw
	ts.touched[addr] = struct{}{}
	return nil
}

func (ts *TransactionState) decodeAccount(addr ledger.Address, raw []byte) (*Account, error) {
	load := func(any) (any, error) {
		return DecodeAccount(raw)
	}
	var (
		v   any
		err error
	)
	if ts.accs != nil {
		v, err = ts.accs.GetOrLoad(string(raw), load)
	} else {
		v, err = load(nil)
	}
	if err != nil {
		return nil, newError(ErrCorruptRecord, addr, nil, err)
	}
	// cached accounts are shared
	return v.(*Account).Copy(), nil
}

func decodeStorage(addr ledger.Address, key ledger.Bytes32, raw []byte) ([]byte, error) {
	val, err := DecodeStorageValue(raw)
	if err != nil {
		return nil, newError(ErrCorruptRecord, addr, &key, err)
	}
	return val, nil
}
