// Copyright (c) 2019 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package muxdb implements the value store behind the transaction state.
// It manages named merkle tries and general purpose named kv-stores on a single leveldb.
package muxdb

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	dberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/wzj13456/shardeum/kv"
	"github.com/wzj13456/shardeum/ledger"
	"github.com/wzj13456/shardeum/log"
)

const (
	trieLeafSpace   = byte(0) // the key space for trie leaves, keyed by preimage.
	namedStoreSpace = byte(1) // the key space for named store.
)

const (
	propStoreName = "muxdb.props"
	configKey     = "config"
	rootKeyPrefix = "root/"

	dbVersion = 1
)

// AccountTrieName is the name of the world trie.
const AccountTrieName = "a"

// StorageTrieName returns the name of the storage trie of the given contract.
func StorageTrieName(addr ledger.Address) string {
	return "s" + addr.Hex()
}

var logger = log.WithContext("pkg", "muxdb")

// ErrCorrupted is returned when a persisted trie does not hash to its saved root.
var ErrCorrupted = errors.New("muxdb: trie corrupted")

// Options optional parameters for MuxDB.
type Options struct {
	// OpenFilesCacheCapacity is the capacity of open files caching for underlying database.
	OpenFilesCacheCapacity int
	// ReadCacheMB is the size of read cache for underlying database.
	ReadCacheMB int
	// WriteBufferMB is the size of write buffer for underlying database.
	WriteBufferMB int
}

// MuxDB is the database holding the world trie and every contract storage trie.
type MuxDB struct {
	engine *levelEngine
	props  kv.Store

	lock  sync.Mutex
	tries map[string]*Trie
}

// Open opens or creates DB at the given path.
func Open(path string, options *Options) (*MuxDB, error) {
	// prepare leveldb options
	ldbOpts := opt.Options{
		OpenFilesCacheCapacity: options.OpenFilesCacheCapacity,
		BlockCacheCapacity:     options.ReadCacheMB * opt.MiB,
		WriteBuffer:            options.WriteBufferMB * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
		BlockSize:              1024 * 32, // balance performance of point reads and compression ratio.
		CompactionTableSize:    4 * opt.MiB,
	}

	// open leveldb
	ldb, err := leveldb.OpenFile(path, &ldbOpts)
	if _, corrupted := err.(*dberrors.ErrCorrupted); corrupted {
		logger.Warn("database corrupted, recovering", "path", path)
		ldb, err = leveldb.RecoverFile(path, &ldbOpts)
	}
	if err != nil {
		return nil, errors.Wrap(err, "open leveldb")
	}

	db := newDB(ldb)
	// persists critical options to avoid corruption when tweaked.
	cfg := config{Version: dbVersion}
	if err := cfg.LoadOrSave(db.props); err != nil {
		ldb.Close()
		return nil, err
	}
	if cfg.Version != dbVersion {
		ldb.Close()
		return nil, errors.Errorf("unsupported db version %d", cfg.Version)
	}
	return db, nil
}

// NewMem creates a memory-backed DB.
func NewMem() *MuxDB {
	storage := storage.NewMemStorage()
	ldb, _ := leveldb.Open(storage, nil)
	return newDB(ldb)
}

func newDB(ldb *leveldb.DB) *MuxDB {
	engine := newLevelEngine(ldb)
	return &MuxDB{
		engine: engine,
		props:  kv.Bucket(string(namedStoreSpace) + propStoreName).NewStore(engine),
		tries:  make(map[string]*Trie),
	}
}

// Close closes the DB.
func (db *MuxDB) Close() error {
	db.lock.Lock()
	metricOpenTries().Add(-int64(len(db.tries)))
	db.tries = make(map[string]*Trie)
	db.lock.Unlock()

	return db.engine.Close()
}

// OpenTrie opens the named trie, creating it if it does not exist.
// Handles are shared, every caller of the same name sees the same trie.
func (db *MuxDB) OpenTrie(name string) (*Trie, error) {
	db.lock.Lock()
	defer db.lock.Unlock()

	if t, ok := db.tries[name]; ok {
		return t, nil
	}
	t, err := loadTrie(name, db.engine)
	if err != nil {
		return nil, err
	}
	db.tries[name] = t
	metricOpenTries().Add(1)
	return t, nil
}

// NewStore creates named kv-store.
func (db *MuxDB) NewStore(name string) kv.Store {
	return kv.Bucket(string(namedStoreSpace) + name).NewStore(db.engine)
}

// IsNotFound returns if the error indicates key not found.
func (db *MuxDB) IsNotFound(err error) bool {
	return db.engine.IsNotFound(err)
}

type config struct {
	Version uint32
}

func (c *config) LoadOrSave(store kv.Store) error {
	// try to load
	data, err := store.Get([]byte(configKey))
	if err == nil {
		// and decode
		return json.Unmarshal(data, c)
	}

	if !store.IsNotFound(err) {
		return err
	}
	// not found
	// encode and save
	data, err = json.Marshal(c)
	if err != nil {
		return err
	}
	return store.Put([]byte(configKey), data)
}
