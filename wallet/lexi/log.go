// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package lexi

import (
	"github.com/dgraph-io/badger/v4"
	"paywaila.org/waila/wallet"
)

// badgerLoggerWrapper wraps wallet.Logger and translates Warnf to Warningf to
// satisfy badger.Logger. It also lowers the log level of Infof to Debugf.
// Debugf is discarded as badger's debug logs are too noisy even for trace.
type badgerLoggerWrapper struct {
	wallet.Logger
}

var _ badger.Logger = (*badgerLoggerWrapper)(nil)

// Debugf is discarded.
func (log *badgerLoggerWrapper) Debugf(s string, a ...any) {}

// Infof -> wallet.Logger.Debugf
func (log *badgerLoggerWrapper) Infof(s string, a ...any) {
	log.Logger.Debugf(s, a...)
}

// Warningf -> wallet.Logger.Warnf
func (log *badgerLoggerWrapper) Warningf(s string, a ...any) {
	log.Logger.Warnf(s, a...)
}
