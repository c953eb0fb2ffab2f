// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package muxdb

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/pkg/errors"
	"github.com/wzj13456/shardeum/kv"
	"github.com/wzj13456/shardeum/ledger"
	"github.com/wzj13456/shardeum/stackedmap"
)

// Trie is a named merkle trie with nested checkpoints.
//
// The committed state lives in an in-memory merkle patricia trie, rebuilt from
// persisted leaves when opened. Uncommitted puts stay in a stacked overlay until
// the outermost checkpoint commits.
//
// Checkpoint, Commit and Revert do not lock the trie across calls. A commit
// sequence that may race with another one must run inside a Scope from
// MuxDB.Begin, which holds the trie exclusively and refuses a trie that
// already has checkpoints opened outside of it.
type Trie struct {
	name   string
	engine kv.Store
	leaves kv.Bucket
	props  kv.Bucket

	scopeLock sync.Mutex // held by a Scope for its whole life

	lock    sync.Mutex
	mpt     *trie.Trie // committed state
	working *trie.Trie // committed state plus overlay, built on demand
	sm      *stackedmap.StackedMap
	revs    []int
}

type change struct {
	key string
	val []byte
}

func hashKey(key []byte) []byte {
	return crypto.Keccak256(key)
}

func loadTrie(name string, engine kv.Store) (*Trie, error) {
	t := &Trie{
		name:   name,
		engine: engine,
		leaves: kv.Bucket(string(trieLeafSpace) + name + "\x00"),
		props:  kv.Bucket(string(namedStoreSpace) + propStoreName),
		mpt:    trie.NewEmpty(nil),
	}
	t.sm = stackedmap.New(func(key any) (any, bool, error) {
		val, err := t.mpt.Get(hashKey([]byte(key.(string))))
		if err != nil {
			return nil, false, err
		}
		return val, len(val) > 0, nil
	})

	var (
		n      int
		updErr error
	)
	if err := t.leaves.NewStore(engine).Iterate(kv.Range{}, func(pair kv.Pair) bool {
		// iterator buffers are reused
		if updErr = t.mpt.Update(hashKey(pair.Key()), common.CopyBytes(pair.Value())); updErr != nil {
			return false
		}
		n++
		return true
	}); err != nil {
		return nil, errors.Wrapf(err, "load trie %v", name)
	}
	if updErr != nil {
		return nil, errors.Wrapf(updErr, "load trie %v", name)
	}

	saved := ledger.EmptyRoot
	data, err := t.props.NewGetter(engine).Get([]byte(rootKeyPrefix + name))
	if err != nil {
		if !engine.IsNotFound(err) {
			return nil, errors.Wrapf(err, "load root of trie %v", name)
		}
	} else {
		saved = ledger.BytesToBytes32(data)
	}
	if root := ledger.Bytes32(t.mpt.Hash()); root != saved {
		logger.Error("trie root mismatch", "name", name, "saved", saved, "rebuilt", root, "leaves", n)
		return nil, errors.Wrapf(ErrCorrupted, "trie %v", name)
	}
	logger.Debug("trie loaded", "name", name, "leaves", n, "root", saved)
	return t, nil
}

// Name returns the trie name.
func (t *Trie) Name() string {
	return t.name
}

// Get returns the value for key, seen through uncommitted puts.
// A nil value means the key is absent.
func (t *Trie) Get(key []byte) ([]byte, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	v, _, err := t.sm.Get(string(key))
	if err != nil {
		return nil, err
	}
	if val, _ := v.([]byte); len(val) > 0 {
		return common.CopyBytes(val), nil
	}
	return nil, nil
}

// Put sets the value for key. An empty value deletes the key.
// Without an open checkpoint the put is persisted immediately.
func (t *Trie) Put(key, val []byte) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.working = nil
	if len(t.revs) == 0 {
		bulk := t.engine.Bulk()
		next, err := t.stage(bulk, []change{{string(key), common.CopyBytes(val)}})
		if err != nil {
			return err
		}
		if err := bulk.Write(); err != nil {
			return errors.Wrapf(err, "put trie %v", t.name)
		}
		t.mpt = next
		return nil
	}
	t.sm.Put(string(key), common.CopyBytes(val))
	return nil
}

// Checkpoint opens a nested checkpoint.
func (t *Trie) Checkpoint() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.revs = append(t.revs, t.sm.Push())
}

// Commit closes the innermost checkpoint. An inner checkpoint merges into its
// parent, the outermost one flushes every change atomically.
func (t *Trie) Commit() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	switch len(t.revs) {
	case 0:
		return errors.Errorf("commit trie %v: no checkpoint", t.name)
	case 1:
		bulk := t.engine.Bulk()
		next, err := t.stage(bulk, t.changes())
		if err == nil {
			err = bulk.Write()
		}
		if err != nil {
			t.revertAll()
			return errors.Wrapf(err, "commit trie %v", t.name)
		}
		t.finalize(next)
	default:
		t.revs = t.revs[:len(t.revs)-1]
	}
	return nil
}

// Revert discards every put since the innermost checkpoint and closes it.
func (t *Trie) Revert() {
	t.lock.Lock()
	defer t.lock.Unlock()

	if len(t.revs) == 0 {
		return
	}
	t.working = nil
	t.sm.PopTo(t.revs[len(t.revs)-1])
	t.revs = t.revs[:len(t.revs)-1]
}

// Hash returns the root hash, including uncommitted puts.
func (t *Trie) Hash() ledger.Bytes32 {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.sm.Depth() == 0 {
		return ledger.Bytes32(t.mpt.Hash())
	}
	if t.working == nil {
		w := t.mpt.Copy()
		for _, c := range t.changes() {
			if len(c.val) == 0 {
				w.MustDelete(hashKey([]byte(c.key)))
			} else {
				w.MustUpdate(hashKey([]byte(c.key)), c.val)
			}
		}
		t.working = w
	}
	return ledger.Bytes32(t.working.Hash())
}

// CommittedHash returns the root hash of the persisted state.
func (t *Trie) CommittedHash() ledger.Bytes32 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return ledger.Bytes32(t.mpt.Hash())
}

// Prove returns the merkle proof of key against CommittedHash.
// The proof of an absent key proves its absence.
func (t *Trie) Prove(key []byte) ([][]byte, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	proofDB := memorydb.New()
	if err := t.mpt.Prove(hashKey(key), proofDB); err != nil {
		return nil, errors.Wrapf(err, "prove trie %v", t.name)
	}
	var proof [][]byte
	it := proofDB.NewIterator(nil, nil)
	defer it.Release()
	for it.Next() {
		proof = append(proof, common.CopyBytes(it.Value()))
	}
	return proof, it.Error()
}

// changes returns the journaled puts, last value wins.
func (t *Trie) changes() []change {
	var (
		idx = make(map[string]int)
		out []change
	)
	t.sm.Journal(func(k, v any) bool {
		key := k.(string)
		if i, ok := idx[key]; ok {
			out[i].val = v.([]byte)
		} else {
			idx[key] = len(out)
			out = append(out, change{key, v.([]byte)})
		}
		return true
	})
	return out
}

// stage writes changes and the resulting root into bulk, and returns the
// trie that becomes committed once bulk is written.
func (t *Trie) stage(bulk kv.Bulk, changes []change) (*trie.Trie, error) {
	var (
		next   = t.mpt.Copy()
		leaves = t.leaves.NewPutter(bulk)
	)
	for _, c := range changes {
		hk := hashKey([]byte(c.key))
		if len(c.val) == 0 {
			if err := next.Delete(hk); err != nil {
				return nil, err
			}
			if err := leaves.Delete([]byte(c.key)); err != nil {
				return nil, err
			}
			continue
		}
		if err := next.Update(hk, c.val); err != nil {
			return nil, err
		}
		if err := leaves.Put([]byte(c.key), c.val); err != nil {
			return nil, err
		}
	}
	root := next.Hash()
	if err := t.props.NewPutter(bulk).Put([]byte(rootKeyPrefix+t.name), root[:]); err != nil {
		return nil, err
	}
	return next, nil
}

func (t *Trie) finalize(next *trie.Trie) {
	t.mpt = next
	t.working = nil
	t.sm.PopTo(0)
	t.revs = nil
	metricTrieCommitCount().Add(1)
}

func (t *Trie) revertAll() {
	t.working = nil
	t.sm.PopTo(0)
	t.revs = nil
}
