// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package inflight

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"paywaila.org/waila/client/db"
	"paywaila.org/waila/wallet"
)

var tLogger = wallet.StdOutLogger("TEST", wallet.LevelTrace)

type tStore struct {
	records map[string]string
	scanErr error
	// visited is the number of records passed to the scan callback.
	visited int
	scans   int
	closed  bool
}

func (s *tStore) ScanPrefix(prefix string, f func(key string, v []byte) error) error {
	s.scans++
	if s.scanErr != nil {
		return s.scanErr
	}
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.visited++
		if err := f(k, []byte(s.records[k])); err != nil {
			if errors.Is(err, db.ErrEndScan) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (s *tStore) Close() error {
	s.closed = true
	return nil
}

type tNotifier struct {
	mtx  sync.Mutex
	keys []string
}

func (n *tNotifier) NotifyInFlight(key string, rec *db.PaymentRecord) {
	n.mtx.Lock()
	n.keys = append(n.keys, key)
	n.mtx.Unlock()
}

func (n *tNotifier) count() int {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	return len(n.keys)
}

func newTestChecker(t *testing.T, store *tStore, openErr error) (*Checker, *tNotifier) {
	t.Helper()
	n := &tNotifier{}
	c, err := NewChecker(&Config{
		Open: func() (Store, error) {
			if openErr != nil {
				return nil, openErr
			}
			return store, nil
		},
		Notifier: n,
		Logger:   tLogger,
	})
	if err != nil {
		t.Fatalf("NewChecker error: %v", err)
	}
	return c, n
}

func TestCheckSingleInFlight(t *testing.T) {
	store := &tStore{records: map[string]string{
		"payment_outbound_1": `{"status":"InFlight"}`,
	}}
	c, n := newTestChecker(t, store, nil)
	if !c.Check(context.Background()) {
		t.Fatalf("no notification")
	}
	if n.count() != 1 || n.keys[0] != "payment_outbound_1" {
		t.Fatalf("wrong notifications %v", n.keys)
	}
	if store.scans != 1 || store.visited != 1 {
		t.Fatalf("wanted 1 scan of 1 record, got %d scans of %d records", store.scans, store.visited)
	}
	if !store.closed {
		t.Fatalf("store not closed")
	}
}

func TestCheckShortCircuits(t *testing.T) {
	store := &tStore{records: map[string]string{
		"payment_outbound_1": `{"status":"Succeeded"}`,
		"payment_outbound_2": `{"status":"Pending"}`,
		"payment_outbound_3": `{"status":"InFlight"}`,
		"payment_outbound_4": `not json`,
	}}
	c, n := newTestChecker(t, store, nil)
	if !c.Check(context.Background()) {
		t.Fatalf("no notification")
	}
	if n.count() != 1 || n.keys[0] != "payment_outbound_2" {
		t.Fatalf("wrong notifications %v", n.keys)
	}
	if store.visited != 2 {
		t.Fatalf("scan continued past the first unresolved payment: %d records visited", store.visited)
	}
}

func TestCheckNothingInFlight(t *testing.T) {
	tests := []struct {
		name    string
		records map[string]string
	}{
		{"empty", nil},
		{"other prefixes", map[string]string{
			"payment_inbound_1": `{"status":"InFlight"}`,
			"channel_1":         `{"status":"Pending"}`,
		}},
		{"all resolved", map[string]string{
			"payment_outbound_1": `{"status":"Succeeded"}`,
			"payment_outbound_2": `{"status":"Failed"}`,
		}},
	}
	for _, tt := range tests {
		store := &tStore{records: tt.records}
		c, n := newTestChecker(t, store, nil)
		if c.Check(context.Background()) {
			t.Fatalf("%s: unexpected notification", tt.name)
		}
		if n.count() != 0 {
			t.Fatalf("%s: %d notifications", tt.name, n.count())
		}
		if store.scans != 1 || !store.closed {
			t.Fatalf("%s: wrong store usage", tt.name)
		}
	}
}

func TestCheckFailures(t *testing.T) {
	// Open error.
	c, n := newTestChecker(t, nil, errors.New("locked"))
	if c.Check(context.Background()) || n.count() != 0 {
		t.Fatalf("notification after open error")
	}

	// Read error.
	store := &tStore{scanErr: errors.New("read error")}
	c, n = newTestChecker(t, store, nil)
	if c.Check(context.Background()) || n.count() != 0 {
		t.Fatalf("notification after read error")
	}
	if !store.closed {
		t.Fatalf("store not closed after read error")
	}

	// An undecodable record ends the check before a later in-flight record.
	store = &tStore{records: map[string]string{
		"payment_outbound_1": `{"status":`,
		"payment_outbound_2": `{"status":"InFlight"}`,
	}}
	c, n = newTestChecker(t, store, nil)
	if c.Check(context.Background()) || n.count() != 0 {
		t.Fatalf("notification after bad record")
	}

	// Canceled context.
	store = &tStore{records: map[string]string{"payment_outbound_1": `{"status":"InFlight"}`}}
	c, n = newTestChecker(t, store, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if c.Check(ctx) || n.count() != 0 || store.scans != 0 {
		t.Fatalf("check ran with canceled context")
	}

	// The next check runs normally.
	if !c.Check(context.Background()) {
		t.Fatalf("no notification on retry")
	}
}

func TestNewChecker(t *testing.T) {
	if _, err := NewChecker(&Config{Notifier: &tNotifier{}}); err == nil {
		t.Fatalf("no error for missing opener")
	}
	if _, err := NewChecker(&Config{Open: func() (Store, error) { return nil, nil }}); err == nil {
		t.Fatalf("no error for missing notifier")
	}
	c, _ := newTestChecker(t, &tStore{}, nil)
	if c.Interval() != DefaultInterval {
		t.Fatalf("wrong default interval %s", c.Interval())
	}
}

func TestRun(t *testing.T) {
	store := &tStore{records: map[string]string{"payment_outbound_1": `{"status":"Pending"}`}}
	n := &tNotifier{}
	var mtx sync.Mutex
	var opens int
	c, err := NewChecker(&Config{
		Open: func() (Store, error) {
			mtx.Lock()
			defer mtx.Unlock()
			opens++
			return &tStore{records: store.records}, nil
		},
		Notifier: n,
		Interval: 10 * time.Millisecond,
		Logger:   tLogger,
	})
	if err != nil {
		t.Fatalf("NewChecker error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run didn't return after cancel")
	}
	// One immediate check plus at least a couple of scheduled ones.
	if n.count() < 3 {
		t.Fatalf("wanted at least 3 notifications, got %d", n.count())
	}
	mtx.Lock()
	defer mtx.Unlock()
	if opens != n.count() {
		t.Fatalf("%d opens for %d notifications", opens, n.count())
	}
}

func TestDBOpener(t *testing.T) {
	dir := t.TempDir()

	// No store at the path yet.
	c, n := newDBChecker(t, dir+"/missing")
	if c.Check(context.Background()) {
		t.Fatalf("notification for missing store")
	}

	s, err := db.Open(dir, nil, false)
	if err != nil {
		t.Fatalf("db.Open error: %v", err)
	}
	s.PutPayment("payment_outbound_a", &db.PaymentRecord{Status: db.Succeeded})
	s.PutPayment("payment_outbound_b", &db.PaymentRecord{Status: db.InFlight})
	s.Close()

	c, n = newDBChecker(t, dir)
	if !c.Check(context.Background()) {
		t.Fatalf("no notification")
	}
	if n.count() != 1 || n.keys[0] != "payment_outbound_b" {
		t.Fatalf("wrong notifications %v", n.keys)
	}
	// The store was closed, so it can be opened for writing again.
	s, err = db.Open(dir, nil, false)
	if err != nil {
		t.Fatalf("store not closed by the checker: %v", err)
	}

	// While the writer holds the store, the check can't open it and is
	// skipped. The next check succeeds once the writer is done.
	c, n = newDBChecker(t, dir)
	if c.Check(context.Background()) {
		t.Fatalf("notification while a writer holds the store")
	}
	s.Close()
	if !c.Check(context.Background()) || n.count() != 1 {
		t.Fatalf("no notification after the writer closed the store")
	}
}

func newDBChecker(t *testing.T, path string) (*Checker, *tNotifier) {
	t.Helper()
	n := &tNotifier{}
	c, err := NewChecker(&Config{
		Open:     DBOpener(path, tLogger),
		Notifier: n,
		Logger:   tLogger,
	})
	if err != nil {
		t.Fatalf("NewChecker error: %v", err)
	}
	return c, n
}
