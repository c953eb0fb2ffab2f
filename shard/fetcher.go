// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package shard

import (
	"context"

	"github.com/pkg/errors"
	"github.com/wzj13456/shardeum/ledger"
	"github.com/wzj13456/shardeum/muxdb"
)

// PeerFetcher copies data from the store of another shard in the same process.
type PeerFetcher struct {
	Local *muxdb.MuxDB
	Peer  *muxdb.MuxDB
}

var _ Fetcher = (*PeerFetcher)(nil)

func (f *PeerFetcher) FetchAccount(ctx context.Context, addr ledger.Address) error {
	return f.pull(ctx, muxdb.AccountTrieName, addr.Bytes())
}

func (f *PeerFetcher) FetchStorage(ctx context.Context, addr ledger.Address, key ledger.Bytes32) error {
	return f.pull(ctx, muxdb.StorageTrieName(addr), key.Bytes())
}

func (f *PeerFetcher) pull(ctx context.Context, name string, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	peer, err := f.Peer.OpenTrie(name)
	if err != nil {
		return errors.Wrap(err, "open peer trie")
	}
	val, err := peer.Get(key)
	if err != nil {
		return errors.Wrap(err, "read peer trie")
	}
	// absent on the owner too
	if val == nil {
		return nil
	}

	scope, err := f.Local.Begin(name)
	if err != nil {
		return err
	}
	defer scope.Release()

	local, err := scope.Open(name)
	if err != nil {
		return err
	}
	if err := local.Put(key, val); err != nil {
		return err
	}
	return scope.Commit()
}
