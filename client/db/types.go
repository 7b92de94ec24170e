// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package db

import (
	"encoding/json"
	"fmt"
)

// HTLCStatus is the state of a Lightning payment as recorded by the wallet
// engine.
type HTLCStatus string

const (
	Pending   HTLCStatus = "Pending"
	InFlight  HTLCStatus = "InFlight"
	Succeeded HTLCStatus = "Succeeded"
	Failed    HTLCStatus = "Failed"
)

// Unresolved is true for a payment that has neither succeeded nor failed.
func (s HTLCStatus) Unresolved() bool {
	return s == Pending || s == InFlight
}

// PaymentRecord is the wallet engine's record of a Lightning payment.
type PaymentRecord struct {
	Status     HTLCStatus `json:"status"`
	AmountSats *uint64    `json:"amount_sats,omitempty"`
	Bolt11     string     `json:"bolt11,omitempty"`
	Preimage   string     `json:"preimage,omitempty"`
	// LastUpdate is a UNIX timestamp, in seconds.
	LastUpdate uint64 `json:"last_update"`
}

// Encode encodes the record as JSON.
func (r *PaymentRecord) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// DecodePaymentRecord decodes a JSON payment record. A record without a
// status is an error.
func DecodePaymentRecord(b []byte) (*PaymentRecord, error) {
	var r PaymentRecord
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("error decoding payment record: %w", err)
	}
	if r.Status == "" {
		return nil, fmt.Errorf("payment record has no status")
	}
	return &r, nil
}
