package storage

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	gethleveldb "github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/syndtr/goleveldb/leveldb"
)

// Database is a generic interface for a key-value store so the settlement
// engine can run against an in-memory backend in tests and LevelDB in
// production.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	TrieDB() *triedb.Database
	Close()
}

// --- In-Memory DB (for testing) ---

type MemDB struct {
	mu     sync.RWMutex
	data   map[string][]byte
	trieDB *triedb.Database
}

func NewMemDB() *MemDB {
	return &MemDB{
		data:   make(map[string][]byte),
		trieDB: triedb.NewDatabase(rawdb.NewMemoryDatabase(), nil),
	}
}

func (db *MemDB) Put(key []byte, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data[string(key)] = value
	return nil
}

func (db *MemDB) Get(key []byte) ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	value, ok := db.data[string(key)]
	if !ok {
		return nil, fmt.Errorf("key not found")
	}
	return value, nil
}

// TrieDB exposes the trie database backing state tries.
func (db *MemDB) TrieDB() *triedb.Database {
	return db.trieDB
}

// Close satisfies the Database interface for MemDB.
func (db *MemDB) Close() {
	// Nothing to close for an in-memory database.
}

// --- Persistent DB ---

// LevelDB is a persistent key-value store using LevelDB. Trie nodes live in a
// dedicated column prefix managed by the go-ethereum trie database.
type LevelDB struct {
	db     *leveldb.DB
	nodes  ethdb.Database
	trieDB *triedb.Database
}

// NewLevelDB creates or opens a LevelDB database at the specified path.
func NewLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	ldbKV, err := gethleveldb.New(filepath.Join(path, "trie"), 128, 128, "watchvault", false)
	if err != nil {
		db.Close()
		return nil, err
	}
	kv := rawdb.NewDatabase(ldbKV)
	return &LevelDB{db: db, nodes: kv, trieDB: triedb.NewDatabase(kv, nil)}, nil
}

// Put inserts or updates a key-value pair.
func (ldb *LevelDB) Put(key []byte, value []byte) error {
	return ldb.db.Put(key, value, nil)
}

// Get retrieves a value for a given key.
func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	return ldb.db.Get(key, nil)
}

// TrieDB exposes the trie database backing state tries.
func (ldb *LevelDB) TrieDB() *triedb.Database {
	return ldb.trieDB
}

// Close closes the database connection.
func (ldb *LevelDB) Close() {
	ldb.db.Close()
	if ldb.nodes != nil {
		ldb.nodes.Close()
	}
}
