// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// EmptyRoot is the root hash of an empty merkle patricia trie.
	EmptyRoot = Keccak256([]byte{0x80})
	// EmptyCodeHash is the code hash of an account without code.
	EmptyCodeHash = Keccak256(nil)
)

// Keccak256 computes keccak-256 checksum for given data.
func Keccak256(data ...[]byte) Bytes32 {
	return Bytes32(crypto.Keccak256Hash(data...))
}
