// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/wzj13456/shardeum/ledger"
)

// Account is the consensus representation of an account.
// RLP encoded objects are stored in the world trie.
type Account struct {
	Nonce     uint64
	Balance   *uint256.Int
	StateRoot ledger.Bytes32 // merkle root of the storage trie
	CodeHash  ledger.Bytes32
}

// NewAccount returns an account without storage and code.
func NewAccount() *Account {
	return &Account{
		Balance:   new(uint256.Int),
		StateRoot: ledger.EmptyRoot,
		CodeHash:  ledger.EmptyCodeHash,
	}
}

// IsContract returns if the account carries code.
func (a *Account) IsContract() bool {
	return a.CodeHash != ledger.EmptyCodeHash && !a.CodeHash.IsZero()
}

// Copy returns a deep copy.
func (a *Account) Copy() *Account {
	cpy := *a
	if a.Balance != nil {
		cpy.Balance = new(uint256.Int).Set(a.Balance)
	}
	return &cpy
}

// EncodeAccount encodes the account into its stored form.
func EncodeAccount(a *Account) ([]byte, error) {
	return rlp.EncodeToBytes(a)
}

// DecodeAccount decodes an account from its stored form.
func DecodeAccount(data []byte) (*Account, error) {
	var a Account
	if err := rlp.DecodeBytes(data, &a); err != nil {
		return nil, err
	}
	if a.Balance == nil {
		a.Balance = new(uint256.Int)
	}
	return &a, nil
}
