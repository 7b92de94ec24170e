// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package core

import (
	"fmt"

	"paywaila.org/waila/client/db"
)

// Notification type strings.
const (
	NoteTypeInFlight = "inflight"
)

// notify sends a notification to all subscribers.
func (c *Core) notify(n Notification) {
	c.log.Debugf("Notification: %s", n.DBNote())
	c.noteMtx.RLock()
	for _, ch := range c.noteChans {
		select {
		case ch <- n:
		default:
			c.log.Errorf("blocking notification channel")
		}
	}
	c.noteMtx.RUnlock()
}

// NotificationFeed returns a new receiving channel for notifications. The
// channel has capacity 16, and should be monitored for the lifetime of the
// Core. Notifications to a full channel are dropped.
func (c *Core) NotificationFeed() <-chan Notification {
	ch := make(chan Notification, 16)
	c.noteMtx.Lock()
	c.noteChans = append(c.noteChans, ch)
	c.noteMtx.Unlock()
	return ch
}

// Notification is an interface for a user notification. Notification is
// satisfied by *db.Notification, so concrete types can embed the db type.
type Notification interface {
	// Type is a string ID unique to the concrete type.
	Type() string
	// Subject is a short description of the notification contents.
	Subject() string
	// Details should contain more detailed information.
	Details() string
	// Severity is the notification severity.
	Severity() db.Severity
	// Time is the notification timestamp, a UNIX timestamp in milliseconds.
	Time() uint64
	// Acked is true if the user has seen the notification.
	Acked() bool
	// ID should be unique, except in the case of identical copies of
	// db.Notification where the IDs should be the same.
	ID() string
	// Stamp sets the notification timestamp.
	Stamp()
	// DBNote returns the underlying *db.Notification.
	DBNote() *db.Notification
}

// InFlightNote is a notification that an outbound Lightning payment has not
// resolved. The wallet needs to be open for the payment to complete.
type InFlightNote struct {
	db.Notification
	PaymentKey string        `json:"paymentKey"`
	Status     db.HTLCStatus `json:"status"`
	AmountSats *uint64       `json:"amountSats,omitempty"`
}

func newInFlightNote(key string, rec *db.PaymentRecord) *InFlightNote {
	details := "A Lightning payment is still in flight. Open the wallet to let it complete."
	if rec.AmountSats != nil {
		details = fmt.Sprintf("A Lightning payment of %d sats is still in flight. Open the wallet to let it complete.", *rec.AmountSats)
	}
	return &InFlightNote{
		Notification: db.NewNotification(NoteTypeInFlight, "Payment in flight", details, db.WarningLevel),
		PaymentKey:   key,
		Status:       rec.Status,
		AmountSats:   rec.AmountSats,
	}
}
