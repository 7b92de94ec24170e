// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package db

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"
)

// Severity indicates the level of required action for a notification. The
// notification feed and the browser use it to decide how to display a
// notification.
type Severity uint8

const (
	Ignorable Severity = iota
	// Data notifications are not meant for display to the user.
	Data
	// Poke notifications are not persistent across sessions.
	Poke
	Success
	WarningLevel
	ErrorLevel
)

// String satisfies fmt.Stringer for Severity.
func (s Severity) String() string {
	switch s {
	case Ignorable:
		return "ignore"
	case Data:
		return "data"
	case Poke:
		return "poke"
	case WarningLevel:
		return "warning"
	case ErrorLevel:
		return "error"
	case Success:
		return "success"
	}
	return "unknown severity"
}

// Notification is information for the user that something has happened.
// Concrete notification types embed Notification.
type Notification struct {
	NoteType    string   `json:"type"`
	SubjectText string   `json:"subject"`
	DetailText  string   `json:"details"`
	Severeness  Severity `json:"severity"`
	// TimeStamp is a UNIX timestamp, in milliseconds.
	TimeStamp uint64 `json:"stamp"`
	Ack       bool   `json:"acked"`
	Id        string `json:"id"`
}

// NewNotification is a constructor for a Notification.
func NewNotification(noteType, subject, details string, severity Severity) Notification {
	note := Notification{
		NoteType:    noteType,
		SubjectText: subject,
		DetailText:  details,
		Severeness:  severity,
	}
	note.Stamp()
	return note
}

// ID is a unique ID based on the contents of the notification. The ID is set
// by Stamp.
func (n *Notification) ID() string {
	if n.Id != "" {
		return n.Id
	}
	return n.contentID()
}

func (n *Notification) contentID() string {
	var stamp [8]byte
	binary.BigEndian.PutUint64(stamp[:], n.TimeStamp)
	h := sha256.New()
	h.Write([]byte(n.NoteType))
	h.Write([]byte(n.SubjectText))
	h.Write([]byte(n.DetailText))
	h.Write([]byte{byte(n.Severeness)})
	h.Write(stamp[:])
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Type is the notification type.
func (n *Notification) Type() string {
	return n.NoteType
}

// Subject is a short description of the notification contents.
func (n *Notification) Subject() string {
	return n.SubjectText
}

// Details should contain more detailed information.
func (n *Notification) Details() string {
	return n.DetailText
}

// Severity is the notification severity.
func (n *Notification) Severity() Severity {
	return n.Severeness
}

// Time is the notification timestamp. The timestamp is set in
// NewNotification.
func (n *Notification) Time() uint64 {
	return n.TimeStamp
}

// Acked is true if the user has seen the notification.
func (n *Notification) Acked() bool {
	return n.Ack
}

// Stamp sets the notification timestamp and the ID. Stamp must be called
// before the notification is shared.
func (n *Notification) Stamp() {
	n.TimeStamp = uint64(time.Now().UnixMilli())
	n.Id = n.contentID()
}

// DBNote is the underlying *Notification.
func (n *Notification) DBNote() *Notification {
	return n
}

// String generates a compact human-readable representation of the
// Notification that is suitable for logging.
func (n *Notification) String() string {
	return fmt.Sprintf("%s: %s", n.SubjectText, n.DetailText)
}
