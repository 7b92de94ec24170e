// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package lexi

import (
	"bytes"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"paywaila.org/waila/wallet"
)

// ErrEndIteration can be returned from the function passed to Iterate to end
// iteration. No error will be returned from Iterate.
const ErrEndIteration = wallet.ErrorKind("end iteration")

// Iter is an entry in the Table.
type Iter struct {
	item *badger.Item
}

// K is a copy of the entry's key, without the table prefix.
func (i *Iter) K() []byte {
	return i.item.KeyCopy(nil)[prefixSize:]
}

// V gives access to the value bytes. The byte slice passed to f is only valid
// for the duration of the function call. The caller should make a copy if
// they intend to use the bytes outside of the scope of f.
func (i *Iter) V(f func(vB []byte) error) error {
	return i.item.Value(f)
}

// Iterate iterates the entries of the Table whose keys start with prefix, in
// lexicographical order. A nil prefix iterates the whole table.
func (t *Table) Iterate(prefix []byte, f func(*Iter) error) error {
	return t.View(func(txn *badger.Txn) error {
		return iteratePrefix(txn, prefixedKey(t.prefix, prefix), func(iter *badger.Iterator) error {
			return f(&Iter{item: iter.Item()})
		})
	})
}

func iteratePrefix(txn *badger.Txn, prefix []byte, f func(iter *badger.Iterator) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := txn.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		if err := f(iter); err != nil {
			if errors.Is(err, ErrEndIteration) {
				return nil
			}
			return err
		}
	}
	return nil
}

// https://github.com/dgraph-io/badger/issues/436#issuecomment-1073008604
func seekLast(it *badger.Iterator, prefix []byte) {
	tweaked := make([]byte, len(prefix))
	copy(tweaked, prefix)
	n := len(prefix)
	for n > 0 {
		if tweaked[n-1] == 0xff {
			n -= 1
		} else {
			tweaked[n-1] += 1
			break
		}
	}
	tweaked = tweaked[0:n]
	it.Seek(tweaked)
	if it.Valid() && bytes.Equal(tweaked, it.Item().Key()) {
		it.Next()
	}
}

func reverseIteratePrefix(txn *badger.Txn, prefix []byte, f func(iter *badger.Iterator) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.Reverse = true
	iter := txn.NewIterator(opts)
	defer iter.Close()

	for seekLast(iter, prefix); iter.ValidForPrefix(prefix); iter.Next() {
		if err := f(iter); err != nil {
			if errors.Is(err, ErrEndIteration) {
				return nil
			}
			return err
		}
	}
	return nil
}
