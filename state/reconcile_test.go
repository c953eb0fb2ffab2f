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

func TestLocalReconciler(t *testing.T) {
	ctx := context.Background()
	ts, db := newTestState(t, nil)

	addr := ledger.BytesToAddress([]byte("contract"))
	seedAccount(t, db, addr, 1)
	k1 := ledger.BytesToBytes32([]byte("k1"))
	k2 := ledger.BytesToBytes32([]byte("k2"))
	require.Nil(t, ts.PutContractStorage(addr, k1, []byte{1}))
	require.Nil(t, ts.PutContractStorage(addr, k2, []byte{2}))

	r, err := LocalReconciler{}.Reconcile(ctx, ts)
	require.Nil(t, err)
	assert.Nil(t, r.Verify())

	fresh := muxdb.NewMem()
	defer fresh.Close()
	expected := openTrie(t, fresh, "expected")
	require.Nil(t, expected.Put(k1.Bytes(), encodeValue(t, []byte{1})))
	require.Nil(t, expected.Put(k2.Bytes(), encodeValue(t, []byte{2})))
	assert.Equal(t, expected.Hash(), r.Roots[addr])

	// staged, not persisted
	acc, err := ts.GetAccount(ctx, openTrie(t, db, muxdb.AccountTrieName), addr, false, true)
	require.Nil(t, err)
	assert.Equal(t, r.Roots[addr], acc.StateRoot)
	assert.Equal(t, uint64(1), acc.Balance.Uint64())

	storage := openTrie(t, db, muxdb.StorageTrieName(addr))
	assert.Equal(t, ledger.EmptyRoot, storage.Hash())
	assert.Equal(t, ledger.EmptyRoot, storedAccount(t, db, addr).StateRoot)
}

func TestProofReconciler(t *testing.T) {
	ctx := context.Background()
	_, db := newTestState(t, nil)

	contracts := []ledger.Address{
		ledger.BytesToAddress([]byte("c1")),
		ledger.BytesToAddress([]byte("c2")),
		ledger.BytesToAddress([]byte("c3")), // empty storage
	}
	k1 := ledger.BytesToBytes32([]byte("k1"))
	k2 := ledger.BytesToBytes32([]byte("k2"))
	for _, c := range contracts[:2] {
		seedStorage(t, db, c, k1, []byte{1})
		seedStorage(t, db, c, k2, []byte{2})
	}

	ts, err := New(db, &Callbacks{})
	require.Nil(t, err)
	for _, c := range contracts[:2] {
		_, err := ts.GetContractStorage(ctx, openTrie(t, db, muxdb.StorageTrieName(c)), c, k1, false, true)
		require.Nil(t, err)
	}
	absent := ledger.BytesToBytes32([]byte("new"))
	for _, c := range contracts {
		require.Nil(t, ts.PutContractStorage(c, absent, []byte{3}))
	}

	r, err := ProofReconciler{Concurrency: 2}.Reconcile(ctx, ts)
	require.Nil(t, err)
	require.Nil(t, r.Verify())

	// k1 read and one written slot for each non-empty contract
	assert.Len(t, r.Proofs, 4)
	assert.Len(t, r.Roots, 3)
	assert.Equal(t, ledger.EmptyRoot, r.Roots[contracts[2]])
	for _, p := range r.Proofs {
		assert.Equal(t, openTrie(t, db, muxdb.StorageTrieName(p.Addr)).CommittedHash(), p.Root)
		switch p.Key {
		case k1:
			assert.Equal(t, encodeValue(t, []byte{1}), p.Value)
		case absent:
			assert.Nil(t, p.Value)
		default:
			t.Fatalf("unexpected key %v", p.Key)
		}
	}

	r.Proofs[0].Value = []byte{0xff}
	assert.NotNil(t, r.Verify())
}
