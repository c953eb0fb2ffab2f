// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/wzj13456/shardeum/cache"
	"github.com/wzj13456/shardeum/ledger"
	"github.com/wzj13456/shardeum/muxdb"
	"github.com/wzj13456/shardeum/shard"
	"github.com/wzj13456/shardeum/state"
	cli "gopkg.in/urfave/cli.v1"
)

type applyResult struct {
	LinkedTX  string
	Blob      *state.TransferBlob
	Written   *state.TransferBlob
	Recon     *state.Reconciliation
	Committed []ledger.Address
	Skipped   []ledger.Address
	WorldRoot ledger.Bytes32
}

func applyAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("usage: statedb apply <tx.yaml>")
	}
	t, err := loadTx(ctx.Args().First())
	if err != nil {
		return err
	}
	cfg, err := loadShardConfig(ctx)
	if err != nil {
		return err
	}
	db, err := openMainDB(ctx)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing main database..."); db.Close() }()

	accs, err := cache.NewLRU(ctx.Int(accountCacheFlag.Name))
	if err != nil {
		return errors.Wrap(err, "account cache")
	}
	opts := []state.Option{state.WithAccountCache(accs)}
	if path := ctx.String(blobInFlag.Name); path != "" {
		blob, err := readBlob(path)
		if err != nil {
			return err
		}
		opts = append(opts, state.WithTransferBlob(blob))
	}

	res, err := applyTx(context.Background(), db, cfg, t, !ctx.Bool(dryRunFlag.Name), opts...)
	if err != nil {
		return err
	}

	if path := ctx.String(blobOutFlag.Name); path != "" {
		if err := writeBlob(path, res.Blob); err != nil {
			return err
		}
	}
	hit, miss := accs.Stats()
	logger.Debug("account cache", "hit", hit, "miss", miss)

	fmt.Printf("tx:          %v\n", res.LinkedTX)
	fmt.Printf("first reads: %d\n", res.Blob.Len())
	fmt.Printf("writes:      %d\n", res.Written.Len())
	fmt.Printf("proofs:      %d\n", len(res.Recon.Proofs))
	for _, addr := range res.Committed {
		fmt.Printf("committed:   %v\n", addr)
	}
	for _, addr := range res.Skipped {
		fmt.Printf("remote:      %v\n", addr)
	}
	fmt.Printf("world root:  %v\n", res.WorldRoot)
	return nil
}

// readBlob loads a transfer blob in the hex form written by writeBlob.
func readBlob(path string) (*state.TransferBlob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read transfer blob")
	}
	raw, err := hexutil.Decode(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, errors.Wrapf(err, "transfer blob %v", path)
	}
	return state.DecodeTransferBlob(raw)
}

func writeBlob(path string, blob *state.TransferBlob) error {
	data, err := blob.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(hexutil.Encode(data)), 0o644); err != nil {
		return errors.Wrap(err, "write transfer blob")
	}
	return nil
}

// applyTx runs t through a TransactionState and, if commit, writes the
// accounts owned by the local shard.
func applyTx(ctx context.Context, db *muxdb.MuxDB, cfg *shard.Config, t *tx, commit bool, opts ...state.Option) (*applyResult, error) {
	oracle := shard.NewOracle(cfg, nil)

	if t.ID != "" {
		opts = append(opts, state.WithLinkedTX(t.ID))
	}
	ts, err := state.New(db, oracle, opts...)
	if err != nil {
		return nil, err
	}
	oracle.Involve(ts.LinkedTX(), t.Involve...)
	defer oracle.Forget(ts.LinkedTX())

	world, err := db.OpenTrie(muxdb.AccountTrieName)
	if err != nil {
		return nil, err
	}

	for _, addr := range t.AccountReads {
		if _, err := ts.GetAccount(ctx, world, addr, false, false); err != nil {
			return nil, err
		}
	}
	for _, s := range t.StorageReads {
		st, err := db.OpenTrie(muxdb.StorageTrieName(s.Addr))
		if err != nil {
			return nil, err
		}
		if _, err := ts.GetContractStorage(ctx, st, s.Addr, s.Key, false, false); err != nil {
			return nil, err
		}
	}

	accounts := make(map[ledger.Address]struct{})
	for _, w := range t.AccountWrites {
		acc, err := ts.GetAccount(ctx, world, w.Addr, false, false)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = state.NewAccount()
		}
		if w.Nonce != nil {
			acc.Nonce = *w.Nonce
		}
		if w.Balance != nil {
			acc.Balance.Set(w.Balance)
		}
		if err := ts.PutAccount(w.Addr, acc); err != nil {
			return nil, err
		}
		accounts[w.Addr] = struct{}{}
	}
	for _, s := range t.StorageWrites {
		if err := ts.PutContractStorage(s.Addr, s.Key, s.Value); err != nil {
			return nil, err
		}
		raw, err := state.EncodeStorageValue(s.Value)
		if err != nil {
			return nil, err
		}
		ts.RegisterPendingStorageKey(s.Addr, s.Key)
		ts.CommitContractStorage(s.Addr, s.Key, raw)
	}

	recon, err := shard.NewReconciler(cfg).Reconcile(ctx, ts)
	if err != nil {
		return nil, errors.Wrap(err, "reconcile state roots")
	}
	if err := recon.Verify(); err != nil {
		return nil, err
	}

	res := &applyResult{
		LinkedTX: ts.LinkedTX(),
		Blob:     ts.TransferBlob(),
		Written:  ts.WrittenAccounts(),
		Recon:    recon,
	}
	if commit {
		for _, addr := range ts.TouchedContracts() {
			accounts[addr] = struct{}{}
		}
		addrs := make([]ledger.Address, 0, len(accounts))
		for addr := range accounts {
			addrs = append(addrs, addr)
		}
		slices.SortFunc(addrs, func(a, b ledger.Address) int { return bytes.Compare(a[:], b[:]) })

		for _, addr := range addrs {
			if !cfg.IsLocal(addr) {
				res.Skipped = append(res.Skipped, addr)
				continue
			}
			acc, err := ts.GetAccount(ctx, world, addr, false, false)
			if err != nil {
				return nil, err
			}
			if acc == nil {
				acc = state.NewAccount()
			}
			if err := ts.CommitAccount(ctx, addr, acc); err != nil {
				return nil, err
			}
			res.Committed = append(res.Committed, addr)
		}
	}
	res.WorldRoot = world.Hash()
	logger.Info("transaction applied", "tx", res.LinkedTX, "committed", len(res.Committed), "root", res.WorldRoot)
	return res, nil
}
