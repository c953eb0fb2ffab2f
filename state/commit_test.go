// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wzj13456/shardeum/ledger"
	"github.com/wzj13456/shardeum/muxdb"
)

func storedAccount(t *testing.T, db *muxdb.MuxDB, addr ledger.Address) *Account {
	raw, err := openTrie(t, db, muxdb.AccountTrieName).Get(addr.Bytes())
	require.Nil(t, err)
	require.NotNil(t, raw)
	acc, err := DecodeAccount(raw)
	require.Nil(t, err)
	return acc
}

func encodeValue(t *testing.T, v []byte) []byte {
	raw, err := EncodeStorageValue(v)
	require.Nil(t, err)
	return raw
}

// A read that misses triggers a fetch, the next read hits.
func TestScenarioReadWriteCommit(t *testing.T) {
	ctx := context.Background()
	addr := ledger.BytesToAddress([]byte{0xaa})

	var ts *TransactionState
	ts, db := newTestState(t, &Callbacks{
		StorageMissFunc: func(_ context.Context, _ *TransactionState, a ledger.Address) error {
			// fetched from the owning shard
			seedAccount(t, ts.DB(), a, 10)
			return nil
		},
	})
	world := openTrie(t, db, muxdb.AccountTrieName)

	acc, err := ts.GetAccount(ctx, world, addr, false, false)
	require.Nil(t, err)
	assert.Nil(t, acc)

	acc, err = ts.GetAccount(ctx, world, addr, false, true)
	require.Nil(t, err)
	assert.Equal(t, uint64(10), acc.Balance.Uint64())

	acc.Balance.SetUint64(15)
	require.Nil(t, ts.PutAccount(addr, acc))

	orig, err := ts.GetAccount(ctx, world, addr, true, true)
	require.Nil(t, err)
	assert.Equal(t, uint64(10), orig.Balance.Uint64())

	latest, err := ts.GetAccount(ctx, world, addr, false, true)
	require.Nil(t, err)
	assert.Equal(t, uint64(15), latest.Balance.Uint64())

	require.Nil(t, ts.CommitAccount(ctx, addr, latest))
	assert.Equal(t, uint64(15), storedAccount(t, db, addr).Balance.Uint64())
}

// Storage written but never registered does not reach the storage trie.
func TestScenarioUnregisteredStorage(t *testing.T) {
	ctx := context.Background()
	ts, db := newTestState(t, nil)

	addr := ledger.BytesToAddress([]byte{0xcc})
	k1 := ledger.BytesToBytes32([]byte("k1"))

	require.Nil(t, ts.PutContractStorage(addr, k1, []byte{5}))
	assert.False(t, ts.CommitContractStorage(addr, k1, encodeValue(t, []byte{5})))

	require.Nil(t, ts.CommitAccount(ctx, addr, NewAccount()))

	storage := openTrie(t, db, muxdb.StorageTrieName(addr))
	v, err := storage.Get(k1.Bytes())
	assert.Nil(t, err)
	assert.Nil(t, v)
	assert.Equal(t, ledger.EmptyRoot, storage.Hash())
	assert.Equal(t, ledger.EmptyRoot, storedAccount(t, db, addr).StateRoot)
}

func TestCommitOrdering(t *testing.T) {
	ctx := context.Background()
	ts, db := newTestState(t, nil)

	addr := ledger.BytesToAddress([]byte("contract"))
	k1 := ledger.BytesToBytes32([]byte("k1"))
	k2 := ledger.BytesToBytes32([]byte("k2"))
	k3 := ledger.BytesToBytes32([]byte("k3"))

	ts.RegisterPendingStorageKey(addr, k1)
	ts.RegisterPendingStorageKey(addr, k2)
	ts.RegisterPendingStorageKey(addr, k3)
	assert.True(t, ts.CommitContractStorage(addr, k1, encodeValue(t, []byte{1})))
	assert.True(t, ts.CommitContractStorage(addr, k2, encodeValue(t, []byte{2})))
	// k3 registered, never committed

	acc := NewAccount()
	acc.CodeHash = ledger.Keccak256([]byte("code"))
	require.Nil(t, ts.CommitAccount(ctx, addr, acc))

	storage := openTrie(t, db, muxdb.StorageTrieName(addr))
	stored := storedAccount(t, db, addr)
	assert.Equal(t, storage.CommittedHash(), stored.StateRoot)
	assert.Equal(t, acc.StateRoot, stored.StateRoot)
	assert.NotEqual(t, ledger.EmptyRoot, stored.StateRoot)

	// the same puts into a fresh trie give the same root
	fresh := muxdb.NewMem()
	defer fresh.Close()
	expected := openTrie(t, fresh, "expected")
	require.Nil(t, expected.Put(k1.Bytes(), encodeValue(t, []byte{1})))
	require.Nil(t, expected.Put(k2.Bytes(), encodeValue(t, []byte{2})))
	assert.Equal(t, expected.Hash(), stored.StateRoot)

	v, err := storage.Get(k3.Bytes())
	assert.Nil(t, err)
	assert.Nil(t, v)
}

func TestCommitIsAtomic(t *testing.T) {
	ctx := context.Background()
	ts, db := newTestState(t, nil)

	addr := ledger.BytesToAddress([]byte("contract"))
	key := ledger.BytesToBytes32([]byte("k"))
	ts.RegisterPendingStorageKey(addr, key)
	ts.CommitContractStorage(addr, key, encodeValue(t, []byte{1}))

	world := openTrie(t, db, muxdb.AccountTrieName)
	storage := openTrie(t, db, muxdb.StorageTrieName(addr))
	worldRoot := world.Hash()

	// a checkpoint left open outside any scope makes the storage step fail
	storage.Checkpoint()
	err := ts.CommitAccount(ctx, addr, NewAccount())
	assert.NotNil(t, err)
	storage.Revert()

	assert.Equal(t, worldRoot, world.Hash())
	assert.Equal(t, worldRoot, world.CommittedHash())
	v, err := world.Get(addr.Bytes())
	assert.Nil(t, err)
	assert.Nil(t, v, "world trie reverted")

	// retry succeeds
	require.Nil(t, ts.CommitAccount(ctx, addr, NewAccount()))
	assert.Equal(t, storage.CommittedHash(), storedAccount(t, db, addr).StateRoot)
}

func TestCommitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ts, db := newTestState(t, nil)
	addr := ledger.BytesToAddress([]byte("a"))
	assert.ErrorIs(t, ts.CommitAccount(ctx, addr, NewAccount()), context.Canceled)

	v, err := openTrie(t, db, muxdb.AccountTrieName).Get(addr.Bytes())
	assert.Nil(t, err)
	assert.Nil(t, v)
}

func TestPendingRegistration(t *testing.T) {
	ts, _ := newTestState(t, nil)
	addr := ledger.BytesToAddress([]byte("a"))
	key := ledger.BytesToBytes32([]byte("k"))

	assert.False(t, ts.CommitContractStorage(addr, key, []byte{0x01}))
	ts.RegisterPendingStorageKey(addr, key)
	assert.False(t, ts.CommitContractStorage(addr, ledger.BytesToBytes32([]byte("x")), []byte{0x01}))
	assert.True(t, ts.CommitContractStorage(addr, key, []byte{0x01}))

	// registering again keeps the staged value
	ts.RegisterPendingStorageKey(addr, key)
	assert.Equal(t, []byte{0x01}, ts.pending[addr][key])
}
