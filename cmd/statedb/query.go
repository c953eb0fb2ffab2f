// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/wzj13456/shardeum/ledger"
	"github.com/wzj13456/shardeum/muxdb"
	"github.com/wzj13456/shardeum/state"
	cli "gopkg.in/urfave/cli.v1"
)

func withDB(ctx *cli.Context, nargs int, usage string, fn func(db *muxdb.MuxDB) error) error {
	if ctx.NArg() != nargs {
		return errors.New("usage: statedb " + usage)
	}
	db, err := openMainDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func parseSlotArgs(ctx *cli.Context) (ledger.Address, ledger.Bytes32, error) {
	addr, err := ledger.ParseAddress(ctx.Args().Get(0))
	if err != nil {
		return ledger.Address{}, ledger.Bytes32{}, errors.Wrap(err, "address")
	}
	key, err := ledger.ParseBytes32(ctx.Args().Get(1))
	if err != nil {
		return ledger.Address{}, ledger.Bytes32{}, errors.Wrap(err, "key")
	}
	return addr, key, nil
}

// loadAccount reads a committed account, nil if absent.
func loadAccount(db *muxdb.MuxDB, addr ledger.Address) (*state.Account, []byte, error) {
	world, err := db.OpenTrie(muxdb.AccountTrieName)
	if err != nil {
		return nil, nil, err
	}
	raw, err := world.Get(addr.Bytes())
	if err != nil || raw == nil {
		return nil, nil, err
	}
	acc, err := state.DecodeAccount(raw)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "decode account %v", addr)
	}
	return acc, raw, nil
}

func printAccount(w io.Writer, addr ledger.Address, acc *state.Account) {
	fmt.Fprintf(w, "address:   %v\n", addr)
	fmt.Fprintf(w, "nonce:     %d\n", acc.Nonce)
	fmt.Fprintf(w, "balance:   %v\n", acc.Balance.Dec())
	fmt.Fprintf(w, "stateRoot: %v\n", acc.StateRoot)
	fmt.Fprintf(w, "codeHash:  %v\n", acc.CodeHash)
}

func accountAction(ctx *cli.Context) error {
	return withDB(ctx, 1, "account <address>", func(db *muxdb.MuxDB) error {
		addr, err := ledger.ParseAddress(ctx.Args().First())
		if err != nil {
			return err
		}
		acc, _, err := loadAccount(db, addr)
		if err != nil {
			return err
		}
		if acc == nil {
			return errors.Errorf("account %v not found", addr)
		}
		printAccount(os.Stdout, addr, acc)
		return nil
	})
}

func storageAction(ctx *cli.Context) error {
	return withDB(ctx, 2, "storage <address> <key>", func(db *muxdb.MuxDB) error {
		addr, key, err := parseSlotArgs(ctx)
		if err != nil {
			return err
		}
		st, err := db.OpenTrie(muxdb.StorageTrieName(addr))
		if err != nil {
			return err
		}
		raw, err := st.Get(key.Bytes())
		if err != nil {
			return err
		}
		val, err := state.DecodeStorageValue(raw)
		if err != nil {
			return err
		}
		fmt.Println(hexutil.Encode(val))
		return nil
	})
}

func rootAction(ctx *cli.Context) error {
	return withDB(ctx, 0, "root", func(db *muxdb.MuxDB) error {
		world, err := db.OpenTrie(muxdb.AccountTrieName)
		if err != nil {
			return err
		}
		fmt.Println(world.CommittedHash())
		return nil
	})
}

func proveAction(ctx *cli.Context) error {
	return withDB(ctx, 2, "prove <address> <key>", func(db *muxdb.MuxDB) error {
		addr, key, err := parseSlotArgs(ctx)
		if err != nil {
			return err
		}
		st, err := db.OpenTrie(muxdb.StorageTrieName(addr))
		if err != nil {
			return err
		}
		root := st.CommittedHash()
		if root == ledger.EmptyRoot {
			return errors.Errorf("storage of %v is empty", addr)
		}
		proof, err := st.Prove(key.Bytes())
		if err != nil {
			return err
		}
		val, err := muxdb.VerifyProof(root, key.Bytes(), proof)
		if err != nil {
			return err
		}
		fmt.Printf("root:  %v\n", root)
		for i, node := range proof {
			fmt.Printf("node%d: %v\n", i, hexutil.Encode(node))
		}
		if val == nil {
			fmt.Println("value: absent")
		} else {
			fmt.Printf("value: %v\n", hexutil.Encode(val))
		}
		return nil
	})
}

func inspectAction(ctx *cli.Context) error {
	return withDB(ctx, 1, "inspect <address>", func(db *muxdb.MuxDB) error {
		addr, err := ledger.ParseAddress(ctx.Args().First())
		if err != nil {
			return err
		}
		acc, raw, err := loadAccount(db, addr)
		if err != nil {
			return err
		}
		st, err := db.OpenTrie(muxdb.StorageTrieName(addr))
		if err != nil {
			return err
		}
		spew.Fdump(os.Stdout, struct {
			Address     string
			Raw         string
			Account     *state.Account
			StorageRoot string
		}{
			addr.String(),
			hexutil.Encode(raw),
			acc,
			st.CommittedHash().String(),
		})
		return nil
	})
}
