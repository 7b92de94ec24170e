// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package core is the wallet shell's client core. It resolves payment
// strings for the configured network and watches the wallet store for
// payments left in flight.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"paywaila.org/waila/client/db"
	"paywaila.org/waila/client/inflight"
	"paywaila.org/waila/client/metrics"
	"paywaila.org/waila/client/payreq"
	"paywaila.org/waila/wallet"
	"paywaila.org/waila/wallet/waila"
)

// Config is the configuration for the Core.
type Config struct {
	// DBPath is the directory of the wallet engine's key-value store. The
	// store is only read, and need not exist yet.
	DBPath string
	// Net is the wallet network.
	Net wallet.Network
	// LoggerMaker makes the subsystem loggers. Logging is disabled if
	// LoggerMaker is nil.
	LoggerMaker *wallet.LoggerMaker
	// InFlightInterval is the time between in-flight payment checks. Zero
	// means inflight.DefaultInterval.
	InFlightInterval time.Duration
	// Recorder records metrics. Nil disables metrics.
	Recorder metrics.Recorder
	// Parser overrides the payment string parser. Used for testing.
	Parser payreq.Parser
}

// Core is the client core.
type Core struct {
	net      wallet.Network
	log      wallet.Logger
	resolver *payreq.Resolver
	checker  *inflight.Checker

	noteMtx   sync.RWMutex
	noteChans []chan Notification
}

// New is the constructor for a new Core.
func New(cfg *Config) (*Core, error) {
	if !cfg.Net.Valid() {
		return nil, fmt.Errorf("invalid network %s", cfg.Net)
	}
	if cfg.DBPath == "" {
		return nil, errors.New("no wallet store path")
	}
	logger := func(string) wallet.Logger { return wallet.Disabled }
	if cfg.LoggerMaker != nil {
		logger = cfg.LoggerMaker.Logger
	}
	rec := cfg.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	parser := cfg.Parser
	if parser == nil {
		parser = waila.Parser{}
	}

	c := &Core{
		net:      cfg.Net,
		log:      logger("CORE"),
		resolver: payreq.NewResolver(parser, logger("PREQ"), rec),
	}
	checker, err := inflight.NewChecker(&inflight.Config{
		Open:     inflight.DBOpener(cfg.DBPath, logger("DB")),
		Notifier: c,
		Interval: cfg.InFlightInterval,
		Logger:   logger("INFL"),
		Recorder: rec,
	})
	if err != nil {
		return nil, err
	}
	c.checker = checker
	c.log.Tracef("New client core created for %s", cfg.Net)
	return c, nil
}

var _ wallet.Runner = (*Core)(nil)

// Run runs the in-flight payment checks until the context is canceled.
// Satisfies the wallet.Runner interface.
func (c *Core) Run(ctx context.Context) {
	c.log.Infof("Started client core on %s", c.net)
	c.checker.Run(ctx)
	c.log.Infof("Client core off")
}

// Network is the wallet network.
func (c *Core) Network() wallet.Network {
	return c.net
}

// Resolve resolves a payment string for the wallet network.
func (c *Core) Resolve(raw string) (*payreq.Descriptor, error) {
	return c.resolver.Resolve(raw, c.net)
}

// ResolveFor resolves a payment string for the specified network.
func (c *Core) ResolveFor(raw string, net wallet.Network) (*payreq.Descriptor, error) {
	return c.resolver.Resolve(raw, net)
}

// CheckInFlight runs an in-flight payment check now. The return value is
// true if a notification was sent.
func (c *Core) CheckInFlight(ctx context.Context) bool {
	return c.checker.Check(ctx)
}

// NotifyInFlight sends an InFlightNote. Satisfies inflight.Notifier.
func (c *Core) NotifyInFlight(key string, rec *db.PaymentRecord) {
	c.notify(newInFlightNote(key, rec))
}
