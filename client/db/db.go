// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package db provides access to the wallet engine's key-value store. Keys are
// the engine's string keys and values are JSON.
package db

import (
	"errors"
	"fmt"

	"paywaila.org/waila/wallet"
	"paywaila.org/waila/wallet/lexi"
)

const (
	// OutboundPaymentPrefix starts the key of every outbound Lightning
	// payment record.
	OutboundPaymentPrefix = "payment_outbound"

	storeTableName = "wallet_store"

	// ErrEndScan can be returned from a ScanPrefix callback to stop the scan
	// without error.
	ErrEndScan = lexi.ErrEndIteration
	// ErrNotFound is returned for keys that aren't in the store.
	ErrNotFound = lexi.ErrKeyNotFound
)

// Store is the wallet key-value store.
type Store struct {
	db *lexi.DB
	// table is nil for a read-only store that has never been written.
	table *lexi.Table
	log   wallet.Logger
}

// Open opens the store at path. A read-only store can be opened alongside
// other read-only openers, but not while a writer such as the wallet engine
// holds the store open. Writable stores replace existing values on Put.
func Open(path string, log wallet.Logger, readOnly bool) (*Store, error) {
	if log == nil {
		log = wallet.Disabled
	}
	ldb, err := lexi.New(&lexi.Config{
		Path:     path,
		Log:      log,
		ReadOnly: readOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("error opening store: %w", err)
	}
	s := &Store{db: ldb, log: log}
	if !readOnly {
		if err := ldb.Upgrade(upgrades(ldb)); err != nil {
			ldb.Close()
			return nil, err
		}
	}
	s.table, err = ldb.Table(storeTableName)
	if err != nil && !errors.Is(err, lexi.ErrTableNotFound) {
		ldb.Close()
		return nil, fmt.Errorf("error opening %s table: %w", storeTableName, err)
	}
	if s.table != nil {
		s.table.UseDefaultSetOptions(lexi.WithReplace())
	}
	return s, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores the value at key, replacing any existing value.
func (s *Store) Put(key string, v []byte) error {
	if s.table == nil {
		return lexi.ErrReadOnly
	}
	return s.table.Set([]byte(key), v)
}

// Get retrieves the value at key. ErrNotFound is returned if there is none.
func (s *Store) Get(key string) ([]byte, error) {
	if s.table == nil {
		return nil, ErrNotFound
	}
	return s.table.Get([]byte(key))
}

// PutPayment stores the payment record.
func (s *Store) PutPayment(key string, r *PaymentRecord) error {
	b, err := r.Encode()
	if err != nil {
		return err
	}
	return s.Put(key, b)
}

// Payment retrieves the payment record at key.
func (s *Store) Payment(key string) (*PaymentRecord, error) {
	b, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	return DecodePaymentRecord(b)
}

// ScanPrefix calls f for every key starting with prefix, in key order. The
// value is only valid during the call. If f returns ErrEndScan the scan stops
// and ScanPrefix returns nil. Any other error stops the scan and is returned.
func (s *Store) ScanPrefix(prefix string, f func(key string, v []byte) error) error {
	if s.table == nil {
		return nil
	}
	return s.table.Iterate([]byte(prefix), func(it *lexi.Iter) error {
		k := string(it.K())
		return it.V(func(v []byte) error {
			return f(k, v)
		})
	})
}
