// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package muxdb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/pkg/errors"
	"github.com/wzj13456/shardeum/ledger"
)

// VerifyProof checks a proof produced by Trie.Prove against root.
// It returns the proven value, nil if the proof shows the key is absent.
func VerifyProof(root ledger.Bytes32, key []byte, proof [][]byte) ([]byte, error) {
	proofDB := memorydb.New()
	for _, node := range proof {
		if err := proofDB.Put(crypto.Keccak256(node), node); err != nil {
			return nil, err
		}
	}
	val, err := trie.VerifyProof(common.Hash(root), hashKey(key), proofDB)
	if err != nil {
		return nil, errors.Wrap(err, "verify proof")
	}
	return val, nil
}
