// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package muxdb

import (
	"time"

	"github.com/ethereum/go-ethereum/trie"
	"github.com/pkg/errors"
)

// Scope groups tries into one commit sequence.
//
// Each trie opened in a scope is locked against other scopes and gets a guard
// checkpoint. Commit flushes all of them in a single batch. Release reverts
// whatever was not committed, so a deferred Release undoes a failed sequence.
type Scope struct {
	db        *MuxDB
	tries     []*Trie
	committed bool
	released  bool
}

// Begin starts a scope holding the named tries.
func (db *MuxDB) Begin(names ...string) (*Scope, error) {
	s := &Scope{db: db}
	for _, name := range names {
		if _, err := s.Open(name); err != nil {
			s.Release()
			return nil, err
		}
	}
	return s, nil
}

// Open adds the named trie to the scope and returns it.
// It blocks while another scope holds the trie.
func (s *Scope) Open(name string) (*Trie, error) {
	if s.released || s.committed {
		return nil, errors.New("muxdb: scope closed")
	}
	for _, t := range s.tries {
		if t.name == name {
			return t, nil
		}
	}
	t, err := s.db.OpenTrie(name)
	if err != nil {
		return nil, err
	}
	t.scopeLock.Lock()

	t.lock.Lock()
	defer t.lock.Unlock()
	if len(t.revs) > 0 {
		t.scopeLock.Unlock()
		return nil, errors.Errorf("muxdb: trie %v has checkpoints outside scope", name)
	}
	t.revs = append(t.revs, t.sm.Push())

	s.tries = append(s.tries, t)
	return t, nil
}

// Commit flushes every trie of the scope in one batch.
// Only the guard checkpoint of each trie may be open.
func (s *Scope) Commit() error {
	if s.released || s.committed {
		return errors.New("muxdb: scope closed")
	}
	startTime := time.Now()

	for _, t := range s.tries {
		t.lock.Lock()
		depth := len(t.revs)
		t.lock.Unlock()
		if depth != 1 {
			return errors.Errorf("commit scope: trie %v has %d unbalanced checkpoints", t.name, depth-1)
		}
	}

	type staged struct {
		t    *Trie
		next *trie.Trie
	}
	var (
		bulk  = s.db.engine.Bulk()
		nexts = make([]staged, 0, len(s.tries))
	)
	// later acquired tries first, contract storage precedes the world trie
	for i := len(s.tries) - 1; i >= 0; i-- {
		t := s.tries[i]
		t.lock.Lock()
		next, err := t.stage(bulk, t.changes())
		t.lock.Unlock()
		if err != nil {
			return errors.Wrapf(err, "commit scope: stage trie %v", t.name)
		}
		nexts = append(nexts, staged{t, next})
	}
	if err := bulk.Write(); err != nil {
		return errors.Wrap(err, "commit scope")
	}
	for _, p := range nexts {
		p.t.lock.Lock()
		p.t.finalize(p.next)
		p.t.lock.Unlock()
	}
	s.committed = true
	metricScopeCommitMs().Observe(time.Since(startTime).Milliseconds())
	logger.Debug("scope committed", "tries", len(s.tries), "elapsed", time.Since(startTime))
	return nil
}

// Release reverts uncommitted tries and unlocks them. It is safe to call more than once.
func (s *Scope) Release() {
	if s.released {
		return
	}
	s.released = true
	for i := len(s.tries) - 1; i >= 0; i-- {
		t := s.tries[i]
		if !s.committed {
			t.lock.Lock()
			t.revertAll()
			t.lock.Unlock()
		}
		t.scopeLock.Unlock()
	}
}
