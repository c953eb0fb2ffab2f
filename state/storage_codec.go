// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"errors"

	"github.com/ethereum/go-ethereum/rlp"
)

// EncodeStorageValue strips leading zero bytes and rlp encodes the rest.
// Caches and storage tries hold values in this form.
func EncodeStorageValue(v []byte) ([]byte, error) {
	return rlp.EncodeToBytes(bytes.TrimLeft(v, "\x00"))
}

// DecodeStorageValue returns the content of an encoded storage value.
func DecodeStorageValue(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	content, rest, err := rlp.SplitString(data)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, errors.New("trailing bytes after storage value")
	}
	return content, nil
}
