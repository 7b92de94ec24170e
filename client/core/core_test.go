// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package core

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"paywaila.org/waila/client/db"
	"paywaila.org/waila/client/payreq"
	"paywaila.org/waila/wallet"
)

var tLoggerMaker *wallet.LoggerMaker

func TestMain(m *testing.M) {
	var err error
	tLoggerMaker, err = wallet.NewLoggerMaker(os.Stdout, "trace", true)
	if err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestCore(t *testing.T, net wallet.Network) (*Core, string) {
	t.Helper()
	dir := t.TempDir()
	c, err := New(&Config{
		DBPath:           dir,
		Net:              net,
		LoggerMaker:      tLoggerMaker,
		InFlightInterval: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return c, dir
}

func TestNew(t *testing.T) {
	if _, err := New(&Config{DBPath: t.TempDir(), Net: wallet.Network(7)}); err == nil {
		t.Fatalf("no error for invalid network")
	}
	if _, err := New(&Config{Net: wallet.Mainnet}); err == nil {
		t.Fatalf("no error for missing db path")
	}
	// Logging and metrics are optional.
	c, err := New(&Config{DBPath: t.TempDir(), Net: wallet.Signet})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if c.Network() != wallet.Signet {
		t.Fatalf("wrong network %s", c.Network())
	}
}

func TestResolve(t *testing.T) {
	c, _ := newTestCore(t, wallet.Mainnet)
	d, err := c.Resolve("satoshi@example.com")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if d.Network != wallet.Mainnet || d.Target.Type() != payreq.TypeLightningAddress {
		t.Fatalf("wrong descriptor %+v", d)
	}
	d, err = c.ResolveFor("satoshi@example.com", wallet.Regtest)
	if err != nil || d.Network != wallet.Regtest {
		t.Fatalf("ResolveFor: %+v, %v", d, err)
	}
	if _, err := c.Resolve("nonsense"); !errors.Is(err, payreq.ErrInvalidPaymentRequest) {
		t.Fatalf("wrong error %v", err)
	}
}

func TestNotificationFeed(t *testing.T) {
	c, _ := newTestCore(t, wallet.Mainnet)
	feed1 := c.NotificationFeed()
	feed2 := c.NotificationFeed()

	amt := uint64(21)
	c.NotifyInFlight("payment_outbound_x", &db.PaymentRecord{Status: db.Pending, AmountSats: &amt})
	ids := make(chan string, 2)
	for _, feed := range []<-chan Notification{feed1, feed2} {
		select {
		case n := <-feed:
			// Consumers read the shared note concurrently.
			go func() { ids <- n.ID() }()
			note, ok := n.(*InFlightNote)
			if !ok {
				t.Fatalf("wrong note type %T", n)
			}
			if note.PaymentKey != "payment_outbound_x" || note.Status != db.Pending || *note.AmountSats != 21 {
				t.Fatalf("wrong note %+v", note)
			}
			if n.Type() != NoteTypeInFlight || n.Severity() != db.WarningLevel || n.Time() == 0 {
				t.Fatalf("wrong note fields")
			}
		default:
			t.Fatalf("no notification")
		}
	}
	id1, id2 := <-ids, <-ids
	if id1 == "" || id1 != id2 {
		t.Fatalf("wrong note IDs %q, %q", id1, id2)
	}

	// A full channel doesn't block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			c.NotifyInFlight("payment_outbound_x", &db.PaymentRecord{Status: db.InFlight})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("notify blocked on a full channel")
	}
	if len(feed1) != 16 {
		t.Fatalf("wanted a full channel, got %d notes", len(feed1))
	}
}

func TestCheckInFlight(t *testing.T) {
	c, dir := newTestCore(t, wallet.Testnet)
	feed := c.NotificationFeed()

	// The store doesn't exist yet.
	if c.CheckInFlight(context.Background()) {
		t.Fatalf("notification without a store")
	}

	s, err := db.Open(dir, nil, false)
	if err != nil {
		t.Fatalf("db.Open error: %v", err)
	}
	if err := s.PutPayment("payment_outbound_1", &db.PaymentRecord{Status: db.InFlight}); err != nil {
		t.Fatalf("PutPayment error: %v", err)
	}
	s.Close()

	if !c.CheckInFlight(context.Background()) {
		t.Fatalf("no notification")
	}
	select {
	case n := <-feed:
		if n.(*InFlightNote).PaymentKey != "payment_outbound_1" {
			t.Fatalf("wrong note %+v", n)
		}
	default:
		t.Fatalf("notification not sent to feed")
	}
}

func TestRun(t *testing.T) {
	c, dir := newTestCore(t, wallet.Regtest)
	s, err := db.Open(dir, nil, false)
	if err != nil {
		t.Fatalf("db.Open error: %v", err)
	}
	s.PutPayment("payment_outbound_1", &db.PaymentRecord{Status: db.Pending})
	s.Close()

	feed := c.NotificationFeed()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	select {
	case <-feed:
	case <-time.After(5 * time.Second):
		t.Fatalf("no notification from Run")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Run didn't return")
	}
}
