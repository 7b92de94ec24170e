// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package lexi is a thin layer over a badger key-value database. Data is
// partitioned into named Tables, each of which owns a short key prefix, and
// tables can be iterated lexicographically by key prefix.
package lexi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"paywaila.org/waila/wallet"
)

const (
	// ErrKeyNotFound is returned when a requested key is not in the Table.
	ErrKeyNotFound = wallet.ErrorKind("key not found")
	// ErrTableNotFound is returned by Table for a read-only DB that has no
	// table with the requested name.
	ErrTableNotFound = wallet.ErrorKind("table not found")
	// ErrReadOnly is returned for writes to a DB opened read-only.
	ErrReadOnly = wallet.ErrorKind("database is read-only")
)

func convertError(err error) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrKeyNotFound
	}
	return err
}

// DB is the Lexi DB. It wraps a badger key-value database.
type DB struct {
	*badger.DB
	readOnly bool
}

// Config is the configuration settings for the Lexi DB.
type Config struct {
	Path string
	Log  wallet.Logger
	// ReadOnly opens the database without write access. A read-only DB can
	// be opened while another process holds the database open read-only,
	// but not while a writer holds it.
	ReadOnly bool
}

// New constructs a new Lexi DB.
func New(cfg *Config) (*DB, error) {
	log := cfg.Log
	if log == nil {
		log = wallet.Disabled
	}
	opts := badger.DefaultOptions(cfg.Path).
		WithLogger(&badgerLoggerWrapper{log}).
		WithReadOnly(cfg.ReadOnly)
	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &DB{
		DB:       bdb,
		readOnly: cfg.ReadOnly,
	}, nil
}

// Update runs f in a read-write transaction. Badger returns ErrConflict if a
// read in the transaction went stale before commit, so the update is retried
// with a doubling backoff.
func (db *DB) Update(f func(txn *badger.Txn) error) (err error) {
	if db.readOnly {
		return ErrReadOnly
	}
	const maxRetries = 10
	sleepTime := 5 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		if err = db.DB.Update(f); err == nil || !errors.Is(err, badger.ErrConflict) {
			return err
		}
		sleepTime *= 2
		time.Sleep(sleepTime)
	}

	return err
}

const versionKey = "__version__"

// Version is the schema version recorded by Upgrade. A fresh database is
// version 0.
func (db *DB) Version() (version uint32, err error) {
	prefix, err := db.prefixForName(versionKey)
	if errors.Is(err, ErrTableNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(prefix[:])
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(b []byte) error {
			if len(b) != 4 {
				return fmt.Errorf("bad version length %d", len(b))
			}
			version = binary.BigEndian.Uint32(b)
			return nil
		})
	})
	return
}

func (db *DB) setVersion(version uint32) error {
	prefix, err := db.prefixForName(versionKey)
	if err != nil {
		return err
	}
	return db.Update(func(txn *badger.Txn) error {
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, version)
		return txn.Set(prefix[:], b)
	})
}

// Upgrade applies schema upgrades. Each upgrade is applied once, in order,
// and the database version becomes the number of upgrades applied. Upgrades
// already applied in a previous call are skipped.
func (db *DB) Upgrade(upgrades []func() error) error {
	version, err := db.Version()
	if err != nil {
		return err
	}

	if version > uint32(len(upgrades)) {
		return fmt.Errorf("upgrade list is too short. expected at least %d upgrades, got %d",
			version, len(upgrades))
	}

	for i, upgrade := range upgrades {
		if i < int(version) {
			continue
		}
		if err := upgrade(); err != nil {
			return fmt.Errorf("upgrade %d failed: %w", i+1, err)
		}
		if err := db.setVersion(uint32(i + 1)); err != nil {
			return err
		}
	}

	return nil
}

// prefixForName returns a unique prefix for the provided name, registering a
// new prefix if needed. Repeated calls with the same name return the same
// prefix, including through restarts. A read-only DB can't register names and
// returns ErrTableNotFound instead.
func (db *DB) prefixForName(name string) (prefix keyPrefix, _ error) {
	nameKey := prefixedKey(nameToPrefixPrefix, []byte(name))
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nameKey)
		if err != nil {
			return err
		}
		return item.Value(func(b []byte) error {
			prefix = bytesToPrefix(b)
			return nil
		})
	})
	if err == nil {
		return prefix, nil
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return prefix, fmt.Errorf("error getting name: %w", err)
	}
	if db.readOnly {
		return prefix, ErrTableNotFound
	}
	return prefix, db.Update(func(txn *badger.Txn) error {
		// Another writer may have registered the name since the View.
		if item, err := txn.Get(nameKey); err == nil {
			return item.Value(func(b []byte) error {
				prefix = bytesToPrefix(b)
				return nil
			})
		}
		lastPrefix := lastKeyForPrefix(txn, prefixToNamePrefix)
		if len(lastPrefix) == 0 {
			prefix = firstAvailablePrefix
		} else {
			prefix = incrementPrefix(bytesToPrefix(lastPrefix))
		}
		if err := txn.Set(nameKey, prefix[:]); err != nil {
			return fmt.Errorf("error setting prefix for table name: %w", err)
		}
		if err := txn.Set(prefixedKey(prefixToNamePrefix, prefix[:]), []byte(name)); err != nil {
			return fmt.Errorf("error setting table name for prefix: %w", err)
		}
		return nil
	})
}
