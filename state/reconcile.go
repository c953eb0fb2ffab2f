// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/wzj13456/shardeum/ledger"
	"github.com/wzj13456/shardeum/muxdb"
	"golang.org/x/sync/errgroup"
)

// Reconciler brings the state roots of touched contracts in line with their
// storage writes.
type Reconciler interface {
	Reconcile(ctx context.Context, ts *TransactionState) (*Reconciliation, error)
}

// StorageProof proves the committed value of a storage slot.
type StorageProof struct {
	Addr  ledger.Address
	Root  ledger.Bytes32
	Key   ledger.Bytes32
	Value []byte // encoded, nil if absent
	Proof [][]byte
}

// Reconciliation is the result of a Reconciler.
type Reconciliation struct {
	// Roots maps each touched contract to a storage root. LocalReconciler
	// reports the root after the writes, ProofReconciler the committed one.
	Roots  map[ledger.Address]ledger.Bytes32
	Proofs []*StorageProof
}

// Verify checks every proof against its root.
func (r *Reconciliation) Verify() error {
	for _, p := range r.Proofs {
		val, err := muxdb.VerifyProof(p.Root, p.Key.Bytes(), p.Proof)
		if err != nil {
			return errors.Wrapf(err, "proof of %v %v", p.Addr, p.Key)
		}
		if !bytes.Equal(val, p.Value) {
			return errors.Errorf("proof of %v %v: value mismatch", p.Addr, p.Key)
		}
	}
	return nil
}

// LocalReconciler computes new storage roots by applying the writes to the
// local storage tries and reverting them afterwards. The updated accounts are
// staged with PutAccount. It needs every storage slot to be local.
type LocalReconciler struct{}

func (LocalReconciler) Reconcile(ctx context.Context, ts *TransactionState) (*Reconciliation, error) {
	world, err := ts.db.OpenTrie(muxdb.AccountTrieName)
	if err != nil {
		return nil, err
	}
	var (
		writes = groupStorage(ts.writes)
		r      = &Reconciliation{Roots: make(map[ledger.Address]ledger.Bytes32)}
	)
	for _, addr := range ts.TouchedContracts() {
		acc, err := ts.GetAccount(ctx, world, addr, false, false)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = NewAccount()
		}
		root, err := ts.previewStorageRoot(addr, writes[addr])
		if err != nil {
			return nil, err
		}
		acc.StateRoot = root
		if err := ts.PutAccount(addr, acc); err != nil {
			return nil, err
		}
		r.Roots[addr] = root
	}
	return r, nil
}

func (ts *TransactionState) previewStorageRoot(addr ledger.Address, writes map[ledger.Bytes32][]byte) (ledger.Bytes32, error) {
	scope, err := ts.db.Begin(muxdb.StorageTrieName(addr))
	if err != nil {
		return ledger.Bytes32{}, err
	}
	// reverts the puts
	defer scope.Release()

	st, err := scope.Open(muxdb.StorageTrieName(addr))
	if err != nil {
		return ledger.Bytes32{}, err
	}
	for _, key := range sortedKeys(writes) {
		if err := st.Put(key.Bytes(), writes[key]); err != nil {
			return ledger.Bytes32{}, errors.Wrapf(err, "preview storage %v", addr)
		}
	}
	return st.Hash(), nil
}

// ProofReconciler collects merkle proofs of every slot a touched contract read
// or wrote, so a remote shard can recompute the storage root. Contracts are
// proven in parallel, at most Concurrency at a time when it is positive.
type ProofReconciler struct {
	Concurrency int
}

func (p ProofReconciler) Reconcile(ctx context.Context, ts *TransactionState) (*Reconciliation, error) {
	var (
		writes  = groupStorage(ts.writes)
		reads   = groupStorage(ts.firstReads)
		addrs   = ts.TouchedContracts()
		roots   = make([]ledger.Bytes32, len(addrs))
		results = make([][]*StorageProof, len(addrs))
	)

	g, ctx := errgroup.WithContext(ctx)
	if p.Concurrency > 0 {
		g.SetLimit(p.Concurrency)
	}
	for i, addr := range addrs {
		keys := make(map[ledger.Bytes32]struct{})
		for k := range writes[addr] {
			keys[k] = struct{}{}
		}
		for k := range reads[addr] {
			keys[k] = struct{}{}
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			st, err := ts.db.OpenTrie(muxdb.StorageTrieName(addr))
			if err != nil {
				return err
			}
			root := st.CommittedHash()
			roots[i] = root
			// nothing to prove in an empty trie
			if root == ledger.EmptyRoot {
				return nil
			}
			for _, key := range sortedKeys(keys) {
				proof, err := st.Prove(key.Bytes())
				if err != nil {
					return err
				}
				val, err := muxdb.VerifyProof(root, key.Bytes(), proof)
				if err != nil {
					return errors.Wrapf(err, "prove %v %v", addr, key)
				}
				results[i] = append(results[i], &StorageProof{
					Addr:  addr,
					Root:  root,
					Key:   key,
					Value: val,
					Proof: proof,
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := &Reconciliation{Roots: make(map[ledger.Address]ledger.Bytes32, len(addrs))}
	for i, addr := range addrs {
		r.Roots[addr] = roots[i]
		r.Proofs = append(r.Proofs, results[i]...)
	}
	logger.Debug("storage proofs generated", "tx", ts.linkTX, "contracts", len(addrs), "proofs", len(r.Proofs))
	return r, nil
}

func groupStorage(src map[slot][]byte) map[ledger.Address]map[ledger.Bytes32][]byte {
	out := make(map[ledger.Address]map[ledger.Bytes32][]byte)
	for s, raw := range src {
		if !s.isStorage {
			continue
		}
		kvs, ok := out[s.addr]
		if !ok {
			kvs = make(map[ledger.Bytes32][]byte)
			out[s.addr] = kvs
		}
		kvs[s.key] = raw
	}
	return out
}
