// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package shard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wzj13456/shardeum/ledger"
	"github.com/wzj13456/shardeum/muxdb"
	"github.com/wzj13456/shardeum/state"
)

var (
	localAddr  = ledger.Address{0, 0, 0, 0, 0xaa}
	remoteAddr = ledger.Address{0, 0, 0, 1, 0xbb}
)

func twoShards() *Config {
	return &Config{Shards: 2, Local: 0, Topology: MultiShard}
}

func newDB(t *testing.T) *muxdb.MuxDB {
	db := muxdb.NewMem()
	t.Cleanup(func() { db.Close() })
	return db
}

func openTrie(t *testing.T, db *muxdb.MuxDB, name string) *muxdb.Trie {
	tr, err := db.OpenTrie(name)
	require.Nil(t, err)
	return tr
}

func seedAccount(t *testing.T, db *muxdb.MuxDB, addr ledger.Address, balance uint64) {
	acc := state.NewAccount()
	acc.Balance.SetUint64(balance)
	raw, err := state.EncodeAccount(acc)
	require.Nil(t, err)
	require.Nil(t, openTrie(t, db, muxdb.AccountTrieName).Put(addr.Bytes(), raw))
}

func TestOracleInvolvement(t *testing.T) {
	db := newDB(t)
	oracle := NewOracle(twoShards(), nil)

	ts, err := state.New(db, oracle, state.WithLinkedTX("tx"))
	require.Nil(t, err)

	assert.True(t, oracle.AccountInvolved(ts, localAddr, true))
	assert.False(t, oracle.AccountInvolved(ts, remoteAddr, true))
	assert.False(t, oracle.ContractStorageInvolved(ts, remoteAddr, ledger.Bytes32{}, false))

	oracle.Involve("tx", remoteAddr)
	assert.True(t, oracle.AccountInvolved(ts, remoteAddr, false))
	assert.True(t, oracle.ContractStorageInvolved(ts, remoteAddr, ledger.Bytes32{}, true))

	other, err := state.New(db, oracle, state.WithLinkedTX("other"))
	require.Nil(t, err)
	assert.False(t, oracle.AccountInvolved(other, remoteAddr, true), "declared per transaction")

	oracle.Forget("tx")
	assert.False(t, oracle.AccountInvolved(ts, remoteAddr, true))
}

func TestCrossShardFetch(t *testing.T) {
	ctx := context.Background()
	var (
		local  = newDB(t)
		remote = newDB(t)
	)
	seedAccount(t, remote, remoteAddr, 10)

	oracle := NewOracle(twoShards(), &PeerFetcher{Local: local, Peer: remote})
	ts, err := state.New(local, oracle)
	require.Nil(t, err)
	oracle.Involve(ts.LinkedTX(), remoteAddr)
	world := openTrie(t, local, muxdb.AccountTrieName)

	// first read misses and pulls the account over
	acc, err := ts.GetAccount(ctx, world, remoteAddr, false, false)
	require.Nil(t, err)
	assert.Nil(t, acc)

	acc, err = ts.GetAccount(ctx, world, remoteAddr, false, true)
	require.Nil(t, err)
	assert.Equal(t, uint64(10), acc.Balance.Uint64())

	// a remote account absent everywhere stays absent
	missing := ledger.Address{0, 0, 0, 3}
	oracle.Involve(ts.LinkedTX(), missing)
	_, err = ts.GetAccount(ctx, world, missing, false, true)
	assert.True(t, errors.Is(err, state.ErrDataUnavailable))
}

func TestCrossShardStorageFetch(t *testing.T) {
	ctx := context.Background()
	var (
		local  = newDB(t)
		remote = newDB(t)
		key    = ledger.BytesToBytes32([]byte("k"))
	)
	raw, err := state.EncodeStorageValue([]byte{4})
	require.Nil(t, err)
	require.Nil(t, openTrie(t, remote, muxdb.StorageTrieName(remoteAddr)).Put(key.Bytes(), raw))

	oracle := NewOracle(twoShards(), &PeerFetcher{Local: local, Peer: remote})
	ts, err := state.New(local, oracle)
	require.Nil(t, err)
	oracle.Involve(ts.LinkedTX(), remoteAddr)
	storage := openTrie(t, local, muxdb.StorageTrieName(remoteAddr))

	v, err := ts.GetContractStorage(ctx, storage, remoteAddr, key, false, false)
	require.Nil(t, err)
	assert.Nil(t, v)

	v, err = ts.GetContractStorage(ctx, storage, remoteAddr, key, false, true)
	require.Nil(t, err)
	assert.Equal(t, []byte{4}, v)
	assert.Equal(t, openTrie(t, remote, muxdb.StorageTrieName(remoteAddr)).Hash(), storage.CommittedHash())
}

type failingFetcher struct{ err error }

func (f failingFetcher) FetchAccount(context.Context, ledger.Address) error { return f.err }
func (f failingFetcher) FetchStorage(context.Context, ledger.Address, ledger.Bytes32) error {
	return f.err
}

func TestFetchFailure(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	fetchErr := errors.New("timeout")
	oracle := NewOracle(twoShards(), failingFetcher{fetchErr})

	ts, err := state.New(db, oracle)
	require.Nil(t, err)
	oracle.Involve(ts.LinkedTX(), remoteAddr)

	_, err = ts.GetAccount(ctx, openTrie(t, db, muxdb.AccountTrieName), remoteAddr, false, false)
	assert.True(t, errors.Is(err, state.ErrDataUnavailable))
	assert.True(t, errors.Is(err, fetchErr))

	// local misses never reach the fetcher
	acc, err := ts.GetAccount(ctx, openTrie(t, db, muxdb.AccountTrieName), localAddr, false, false)
	assert.Nil(t, err)
	assert.Nil(t, acc)
}

func TestDeniedRemoteAccount(t *testing.T) {
	db := newDB(t)
	ts, err := state.New(db, NewOracle(twoShards(), nil))
	require.Nil(t, err)

	_, err = ts.GetAccount(context.Background(), openTrie(t, db, muxdb.AccountTrieName), remoteAddr, false, true)
	assert.True(t, errors.Is(err, state.ErrInvolvementDenied))
	assert.True(t, errors.Is(ts.PutAccount(remoteAddr, state.NewAccount()), state.ErrInvolvementDenied))
}
