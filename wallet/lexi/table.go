// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package lexi

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Table is a prefixed section of the k-v DB. Keys are stored as given, after
// the table prefix, so iteration order is the lexicographic order of the
// keys.
type Table struct {
	*DB
	name              string
	prefix            keyPrefix
	defaultSetOptions setOpts
}

// Table constructs a new table in the DB, or loads the existing table with
// the same name.
func (db *DB) Table(name string) (*Table, error) {
	p, err := db.prefixForName(name)
	if err != nil {
		return nil, err
	}
	return &Table{
		DB:     db,
		name:   name,
		prefix: p,
	}, nil
}

// UseDefaultSetOptions sets default options for Set.
func (t *Table) UseDefaultSetOptions(setOpts ...SetOption) {
	for i := range setOpts {
		setOpts[i](&t.defaultSetOptions)
	}
}

// Get retrieves a copy of the value stored for the key.
func (t *Table) Get(k []byte) (v []byte, err error) {
	err = t.View(func(txn *badger.Txn) error {
		item, err := txn.Get(prefixedKey(t.prefix, k))
		if err != nil {
			return convertError(err)
		}
		v, err = item.ValueCopy(nil)
		return err
	})
	return
}

type setOpts struct {
	replace bool
}

// SetOption is a knob to control how items are inserted into the table with
// Set.
type SetOption func(opts *setOpts)

// WithReplace allows replacing pre-existing values when calling Set.
func WithReplace() SetOption {
	return func(opts *setOpts) {
		opts.replace = true
	}
}

// Set inserts a new value for the key.
func (t *Table) Set(k, v []byte, setOpts ...SetOption) error {
	// Zero length keys would collide with the bare table prefix.
	if len(k) == 0 {
		return errors.New("no zero-length keys allowed")
	}
	opts := t.defaultSetOptions
	for i := range setOpts {
		setOpts[i](&opts)
	}
	pk := prefixedKey(t.prefix, k)
	return t.Update(func(txn *badger.Txn) error {
		if !opts.replace {
			_, err := txn.Get(pk)
			if err == nil {
				return fmt.Errorf("attempted to replace entry %q in table %s without specifying WithReplace", k, t.name)
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("error looking for existing entry: %w", err)
			}
		}
		return txn.Set(pk, v)
	})
}
