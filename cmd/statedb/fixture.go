// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/wzj13456/shardeum/ledger"
	"gopkg.in/yaml.v3"
)

// txFixture describes a transaction as a list of state accesses.
//
//	id: tx-1
//	involve: [0x...]
//	reads:
//	  accounts: [0x...]
//	  storage: [{address: 0x..., key: 0x...}]
//	writes:
//	  accounts: [{address: 0x..., nonce: 1, balance: "100"}]
//	  storage: [{address: 0x..., key: 0x..., value: 0x05}]
type txFixture struct {
	ID      string   `yaml:"id"`
	Involve []string `yaml:"involve"`
	Reads   struct {
		Accounts []string      `yaml:"accounts"`
		Storage  []slotFixture `yaml:"storage"`
	} `yaml:"reads"`
	Writes struct {
		Accounts []accountFixture `yaml:"accounts"`
		Storage  []slotFixture    `yaml:"storage"`
	} `yaml:"writes"`
}

type accountFixture struct {
	Address string  `yaml:"address"`
	Nonce   *uint64 `yaml:"nonce"`
	Balance string  `yaml:"balance"`
}

type slotFixture struct {
	Address string `yaml:"address"`
	Key     string `yaml:"key"`
	Value   string `yaml:"value"`
}

type accountWrite struct {
	Addr    ledger.Address
	Nonce   *uint64
	Balance *uint256.Int
}

type slotAccess struct {
	Addr  ledger.Address
	Key   ledger.Bytes32
	Value []byte
}

// tx is a parsed txFixture.
type tx struct {
	ID            string
	Involve       []ledger.Address
	AccountReads  []ledger.Address
	StorageReads  []slotAccess
	AccountWrites []accountWrite
	StorageWrites []slotAccess
}

func loadTx(path string) (*tx, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read tx fixture")
	}
	return parseTx(data)
}

func parseTx(data []byte) (*tx, error) {
	var fx txFixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, errors.Wrap(err, "parse tx fixture")
	}

	out := &tx{ID: fx.ID}
	for _, s := range fx.Involve {
		addr, err := ledger.ParseAddress(s)
		if err != nil {
			return nil, errors.Wrapf(err, "involve %q", s)
		}
		out.Involve = append(out.Involve, addr)
	}
	for _, s := range fx.Reads.Accounts {
		addr, err := ledger.ParseAddress(s)
		if err != nil {
			return nil, errors.Wrapf(err, "read account %q", s)
		}
		out.AccountReads = append(out.AccountReads, addr)
	}
	for _, s := range fx.Reads.Storage {
		slot, err := s.parse(false)
		if err != nil {
			return nil, err
		}
		out.StorageReads = append(out.StorageReads, slot)
	}
	for _, a := range fx.Writes.Accounts {
		addr, err := ledger.ParseAddress(a.Address)
		if err != nil {
			return nil, errors.Wrapf(err, "write account %q", a.Address)
		}
		w := accountWrite{Addr: addr, Nonce: a.Nonce}
		if a.Balance != "" {
			if w.Balance, err = uint256.FromDecimal(a.Balance); err != nil {
				return nil, errors.Wrapf(err, "balance of %v", addr)
			}
		}
		out.AccountWrites = append(out.AccountWrites, w)
	}
	for _, s := range fx.Writes.Storage {
		slot, err := s.parse(true)
		if err != nil {
			return nil, err
		}
		out.StorageWrites = append(out.StorageWrites, slot)
	}
	return out, nil
}

func (s slotFixture) parse(withValue bool) (slotAccess, error) {
	addr, err := ledger.ParseAddress(s.Address)
	if err != nil {
		return slotAccess{}, errors.Wrapf(err, "slot address %q", s.Address)
	}
	key, err := ledger.ParseBytes32(s.Key)
	if err != nil {
		return slotAccess{}, errors.Wrapf(err, "slot key %q", s.Key)
	}
	slot := slotAccess{Addr: addr, Key: key}
	if withValue {
		if slot.Value, err = hexutil.Decode(s.Value); err != nil {
			return slotAccess{}, errors.Wrapf(err, "slot value %q", s.Value)
		}
	}
	return slot, nil
}
