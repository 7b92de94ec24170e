// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package db

import "paywaila.org/waila/wallet/lexi"

// upgrades lists the upgrades applied by a writable Open. The index of an
// upgrade is the version it upgrades from.
func upgrades(ldb *lexi.DB) []func() error {
	return []func() error{
		// v1 registers the store table, so that read-only opens find it.
		func() error {
			_, err := ldb.Table(storeTableName)
			return err
		},
	}
}
