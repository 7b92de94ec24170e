// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package inflight periodically checks the wallet store for outbound Lightning
// payments that haven't resolved, and raises a notification when it finds
// one. The check is best-effort. Any failure ends the current check quietly
// and the next scheduled check tries again.
package inflight

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"paywaila.org/waila/client/db"
	"paywaila.org/waila/client/metrics"
	"paywaila.org/waila/wallet"
)

// DefaultInterval is the time between scheduled checks.
const DefaultInterval = 15 * time.Minute

// Metric names.
const (
	checkEvent        = "inflight_check"
	checkAbortedEvent = "inflight_check_aborted"
	notifyEvent       = "inflight_notification"
	checkLatency      = "inflight_check"
)

// Store is the part of the wallet store the checker reads. *db.Store
// satisfies Store. A callback returning db.ErrEndScan ends the scan without
// error.
type Store interface {
	ScanPrefix(prefix string, f func(key string, v []byte) error) error
	Close() error
}

// Opener opens the Store for a single check.
type Opener func() (Store, error)

// DBOpener opens the wallet store at path read-only. The wallet engine owns
// the store, so it's opened fresh for every check.
func DBOpener(path string, log wallet.Logger) Opener {
	return func() (Store, error) {
		s, err := db.Open(path, log, true)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Notifier is told about an unresolved payment.
type Notifier interface {
	NotifyInFlight(key string, rec *db.PaymentRecord)
}

// Config is the Checker configuration.
type Config struct {
	Open     Opener
	Notifier Notifier
	// Interval is the time between checks in Run. Zero means
	// DefaultInterval.
	Interval time.Duration
	Logger   wallet.Logger
	Recorder metrics.Recorder
}

// Checker checks for in-flight payments.
type Checker struct {
	open     Opener
	notifier Notifier
	interval time.Duration
	log      wallet.Logger
	rec      metrics.Recorder

	// checkMtx keeps checks from overlapping.
	checkMtx sync.Mutex
}

// NewChecker is the constructor for a Checker.
func NewChecker(cfg *Config) (*Checker, error) {
	if cfg.Open == nil {
		return nil, errors.New("no store opener")
	}
	if cfg.Notifier == nil {
		return nil, errors.New("no notifier")
	}
	c := &Checker{
		open:     cfg.Open,
		notifier: cfg.Notifier,
		interval: cfg.Interval,
		log:      cfg.Logger,
		rec:      cfg.Recorder,
	}
	if c.interval <= 0 {
		c.interval = DefaultInterval
	}
	if c.log == nil {
		c.log = wallet.Disabled
	}
	if c.rec == nil {
		c.rec = metrics.NoopRecorder{}
	}
	return c, nil
}

// Interval is the time between scheduled checks.
func (c *Checker) Interval() time.Duration {
	return c.interval
}

// Check scans the outbound payment records and sends one notification for
// the first unresolved payment found, ending the scan there. The return value
// is true if a notification was sent. Errors are logged and end the check.
func (c *Checker) Check(ctx context.Context) bool {
	c.checkMtx.Lock()
	defer c.checkMtx.Unlock()

	start := time.Now()
	c.rec.IncCounter(checkEvent, nil)
	defer func() {
		c.rec.ObserveLatency(checkLatency, time.Since(start), nil)
	}()

	if ctx.Err() != nil {
		return false
	}

	store, err := c.open()
	if err != nil {
		c.abort("Skipping in-flight payment check. Error opening wallet store: %v", err)
		return false
	}
	defer func() {
		if err := store.Close(); err != nil {
			c.log.Errorf("Error closing wallet store: %v", err)
		}
	}()

	var key string
	var rec *db.PaymentRecord
	err = store.ScanPrefix(db.OutboundPaymentPrefix, func(k string, v []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := db.DecodePaymentRecord(v)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		if r.Status.Unresolved() {
			key, rec = k, r
			return db.ErrEndScan
		}
		return nil
	})
	if err != nil && !errors.Is(err, db.ErrEndScan) {
		c.abort("In-flight payment check aborted. Error reading wallet store: %v", err)
		return false
	}
	if rec == nil {
		c.log.Tracef("No in-flight payments")
		return false
	}

	c.log.Debugf("Found %s payment %s", rec.Status, key)
	c.notifier.NotifyInFlight(key, rec)
	c.rec.IncCounter(notifyEvent, nil)
	return true
}

func (c *Checker) abort(format string, args ...any) {
	c.log.Warnf(format, args...)
	c.rec.IncCounter(checkAbortedEvent, nil)
}

// Run checks now and then on every interval until the context is canceled.
func (c *Checker) Run(ctx context.Context) {
	c.log.Infof("Checking for in-flight payments every %s", c.interval)
	c.Check(ctx)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}
