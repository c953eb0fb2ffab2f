// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"maps"
	"slices"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/wzj13456/shardeum/ledger"
)

// TransferBlob is a set of encoded accounts and storage values.
// Map keys are addresses and storage keys in ledger Hex form.
type TransferBlob struct {
	Accounts map[string][]byte
	KVPairs  map[string]map[string][]byte
}

func newTransferBlob(src map[slot][]byte) *TransferBlob {
	b := &TransferBlob{
		Accounts: make(map[string][]byte),
		KVPairs:  make(map[string]map[string][]byte),
	}
	for s, raw := range src {
		addr := s.addr.Hex()
		if !s.isStorage {
			b.Accounts[addr] = bytes.Clone(raw)
			continue
		}
		kvs, ok := b.KVPairs[addr]
		if !ok {
			kvs = make(map[string][]byte)
			b.KVPairs[addr] = kvs
		}
		kvs[s.key.Hex()] = bytes.Clone(raw)
	}
	return b
}

// TransferBlob returns the first value read of every account and storage slot,
// the data another shard needs to run the same transaction.
func (ts *TransactionState) TransferBlob() *TransferBlob {
	return newTransferBlob(ts.firstReads)
}

// WrittenAccounts returns the latest value written to every account and storage slot.
func (ts *TransactionState) WrittenAccounts() *TransferBlob {
	return newTransferBlob(ts.writes)
}

// each visits every entry, parsing the hex keys.
func (b *TransferBlob) each(fn func(s slot, raw []byte)) error {
	for a, raw := range b.Accounts {
		addr, err := ledger.ParseAddress(a)
		if err != nil {
			return errors.Wrapf(err, "account %q", a)
		}
		fn(accountSlot(addr), bytes.Clone(raw))
	}
	for a, kvs := range b.KVPairs {
		addr, err := ledger.ParseAddress(a)
		if err != nil {
			return errors.Wrapf(err, "account %q", a)
		}
		for k, raw := range kvs {
			key, err := ledger.ParseBytes32(k)
			if err != nil {
				return errors.Wrapf(err, "storage key %q of %v", k, addr)
			}
			fn(storageSlot(addr, key), bytes.Clone(raw))
		}
	}
	return nil
}

type blobAccount struct {
	Addr ledger.Address
	Raw  []byte
}

type blobSlot struct {
	Addr ledger.Address
	Key  ledger.Bytes32
	Raw  []byte
}

type blobRLP struct {
	Accounts []blobAccount
	Slots    []blobSlot
}

// Encode serializes the blob. Entries are sorted, equal blobs encode equally.
func (b *TransferBlob) Encode() ([]byte, error) {
	var enc blobRLP
	if err := b.each(func(s slot, raw []byte) {
		if s.isStorage {
			enc.Slots = append(enc.Slots, blobSlot{s.addr, s.key, raw})
		} else {
			enc.Accounts = append(enc.Accounts, blobAccount{s.addr, raw})
		}
	}); err != nil {
		return nil, err
	}
	slices.SortFunc(enc.Accounts, func(a, b blobAccount) int {
		return bytes.Compare(a.Addr[:], b.Addr[:])
	})
	slices.SortFunc(enc.Slots, func(a, b blobSlot) int {
		if c := bytes.Compare(a.Addr[:], b.Addr[:]); c != 0 {
			return c
		}
		return bytes.Compare(a.Key[:], b.Key[:])
	})
	return rlp.EncodeToBytes(&enc)
}

// DecodeTransferBlob parses data produced by Encode.
func DecodeTransferBlob(data []byte) (*TransferBlob, error) {
	var dec blobRLP
	if err := rlp.DecodeBytes(data, &dec); err != nil {
		return nil, errors.Wrap(err, "decode transfer blob")
	}
	src := make(map[slot][]byte, len(dec.Accounts)+len(dec.Slots))
	for _, a := range dec.Accounts {
		src[accountSlot(a.Addr)] = a.Raw
	}
	for _, s := range dec.Slots {
		src[storageSlot(s.Addr, s.Key)] = s.Raw
	}
	return newTransferBlob(src), nil
}

// Len returns the number of entries.
func (b *TransferBlob) Len() int {
	n := len(b.Accounts)
	for kvs := range maps.Values(b.KVPairs) {
		n += len(kvs)
	}
	return n
}
