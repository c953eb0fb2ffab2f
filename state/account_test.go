// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wzj13456/shardeum/ledger"
)

func TestAccount(t *testing.T) {
	acc := NewAccount()
	assert.False(t, acc.IsContract(), "newly constructed account should not be a contract")
	assert.Equal(t, ledger.EmptyRoot, acc.StateRoot)

	acc.CodeHash = ledger.Keccak256([]byte("code"))
	assert.True(t, acc.IsContract())
}

func TestAccountCodec(t *testing.T) {
	acc := &Account{
		Nonce:     3,
		Balance:   uint256.NewInt(1000),
		StateRoot: ledger.Keccak256([]byte("root")),
		CodeHash:  ledger.Keccak256([]byte("code")),
	}
	data, err := EncodeAccount(acc)
	require.Nil(t, err)

	dec, err := DecodeAccount(data)
	require.Nil(t, err)
	assert.Equal(t, acc, dec)

	_, err = DecodeAccount([]byte{0x01, 0x02})
	assert.NotNil(t, err)
}

func TestAccountCopy(t *testing.T) {
	acc := NewAccount()
	acc.Balance.SetUint64(10)

	cpy := acc.Copy()
	cpy.Balance.SetUint64(20)
	cpy.Nonce = 1

	assert.Equal(t, uint64(10), acc.Balance.Uint64())
	assert.Equal(t, uint64(0), acc.Nonce)
}

func TestStorageCodec(t *testing.T) {
	tests := []struct {
		in   []byte
		want []byte
	}{
		{[]byte{0, 0, 5}, []byte{5}},
		{[]byte{1, 0}, []byte{1, 0}},
		{[]byte{0, 0}, []byte{}},
	}
	for _, tt := range tests {
		enc, err := EncodeStorageValue(tt.in)
		require.Nil(t, err)
		dec, err := DecodeStorageValue(enc)
		require.Nil(t, err)
		assert.Equal(t, tt.want, dec)
	}

	dec, err := DecodeStorageValue(nil)
	assert.Nil(t, err)
	assert.Nil(t, dec)

	_, err = DecodeStorageValue([]byte{0xc1, 0x01})
	assert.NotNil(t, err, "list is not a storage value")

	_, err = DecodeStorageValue([]byte{0x01, 0x02})
	assert.NotNil(t, err, "trailing bytes")
}
