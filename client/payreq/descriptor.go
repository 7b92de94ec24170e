// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package payreq

import (
	"encoding/hex"
	"encoding/json"
	"errors"

	"paywaila.org/waila/wallet"
	"paywaila.org/waila/wallet/waila"
)

// TargetType identifies the kind of payment target.
type TargetType string

const (
	TypeOnchain          TargetType = "onchain"
	TypeLightningInvoice TargetType = "lightning_invoice"
	TypeLNURL            TargetType = "lnurl"
	TypeLightningAddress TargetType = "lightning_address"
	TypeNWC              TargetType = "nwc"
	TypeFedimintInvite   TargetType = "fedimint_invite"
	TypeNode             TargetType = "node"
)

// Target is one of *OnchainTarget, *LightningInvoice, *LnurlTarget,
// *LightningAddress, *NwcURI, *FedimintInvite or *NodeTarget.
type Target interface {
	Type() TargetType
	// fields adds the target's fields to the flat encoding.
	fields(*descriptorJSON)
}

// Descriptor is a resolved payment request.
type Descriptor struct {
	// Original is the input string.
	Original string
	Network  wallet.Network
	Target   Target
}

// OnchainTarget is a bare address or BIP21 URI. A unified BIP21 URI also
// carries a Lightning invoice or an LNURL.
type OnchainTarget struct {
	Address         string
	AmountSats      *uint64
	Label           string
	Memo            string
	PayjoinEnabled  bool
	PayjoinEndpoint string
	Invoice         *LightningInvoice
	LNURL           *LnurlTarget
}

func (*OnchainTarget) Type() TargetType { return TypeOnchain }

func (t *OnchainTarget) fields(d *descriptorJSON) {
	if t.Address != "" {
		d.Address = t.Address
	}
	d.AmountSats = t.AmountSats
	d.Memo = t.Memo
	d.PayjoinEnabled = &t.PayjoinEnabled
	if t.Invoice != nil {
		d.Invoice = t.Invoice.Invoice
		d.NodePubkey = t.Invoice.NodePubkey
	}
	if t.LNURL != nil {
		t.LNURL.fields(d)
	}
}

// LightningInvoice is a BOLT11 invoice.
type LightningInvoice struct {
	// Invoice is the encoded invoice.
	Invoice     string
	AmountSats  *uint64
	Memo        string
	NodePubkey  string
	PaymentHash string
	ExpiresAt   int64 // unix seconds
}

func (*LightningInvoice) Type() TargetType { return TypeLightningInvoice }

func (t *LightningInvoice) fields(d *descriptorJSON) {
	d.Invoice = t.Invoice
	d.AmountSats = t.AmountSats
	d.Memo = t.Memo
	d.NodePubkey = t.NodePubkey
}

func newLightningInvoice(inv *waila.Invoice, amt *uint64, memo string) *LightningInvoice {
	return &LightningInvoice{
		Invoice:     inv.Encoded,
		AmountSats:  amt,
		Memo:        memo,
		NodePubkey:  inv.PayeeHex(),
		PaymentHash: hex.EncodeToString(inv.PaymentHash),
		ExpiresAt:   inv.ExpiresAt().Unix(),
	}
}

// LnurlTarget is an LNURL, bech32 or LUD-17.
type LnurlTarget struct {
	LNURL string
	// Endpoint is the decoded service URL.
	Endpoint string
	IsAuth   bool
}

func (*LnurlTarget) Type() TargetType { return TypeLNURL }

func (t *LnurlTarget) fields(d *descriptorJSON) {
	d.LNURL = t.LNURL
	d.IsLNURLAuth = &t.IsAuth
}

// LightningAddress is a LUD-16 Lightning address.
type LightningAddress struct {
	Address  string
	Endpoint string
}

func (*LightningAddress) Type() TargetType { return TypeLightningAddress }

func (t *LightningAddress) fields(d *descriptorJSON) {
	d.LightningAddress = t.Address
}

// NwcURI is a Nostr Wallet Connect or wallet auth URI.
type NwcURI struct {
	URI string
}

func (*NwcURI) Type() TargetType { return TypeNWC }

func (t *NwcURI) fields(d *descriptorJSON) {
	d.NostrWalletAuth = t.URI
}

// FedimintInvite is a federation invite code.
type FedimintInvite struct {
	Code string
}

func (*FedimintInvite) Type() TargetType { return TypeFedimintInvite }

func (t *FedimintInvite) fields(d *descriptorJSON) {
	d.FedimintInvite = t.Code
}

// NodeTarget is a Lightning node to connect or open a channel to.
type NodeTarget struct {
	Pubkey string
	// Host is host:port, if given.
	Host string
}

func (*NodeTarget) Type() TargetType { return TypeNode }

func (t *NodeTarget) fields(d *descriptorJSON) {
	d.NodePubkey = t.Pubkey
}

// newTarget picks the target for the parsed fields. A unified BIP21 URI is
// on-chain with an invoice attached.
func newTarget(p *waila.Params) (Target, error) {
	switch {
	case p.Address != "":
		t := &OnchainTarget{
			Address:         p.Address,
			AmountSats:      p.AmountSats,
			Label:           p.Label,
			Memo:            p.Memo,
			PayjoinEnabled:  p.PayjoinEnabled,
			PayjoinEndpoint: p.PayjoinEndpoint,
		}
		if p.Invoice != nil {
			t.Invoice = newLightningInvoice(p.Invoice, p.AmountSats, p.Memo)
		}
		if p.LNURL != "" {
			t.LNURL = newLnurlTarget(p)
		}
		return t, nil
	case p.Invoice != nil:
		return newLightningInvoice(p.Invoice, p.AmountSats, p.Memo), nil
	case p.LNURL != "":
		return newLnurlTarget(p), nil
	case p.LightningAddress != "":
		return &LightningAddress{Address: p.LightningAddress, Endpoint: p.LNURLEndpoint}, nil
	case p.NostrWalletAuth != "":
		return &NwcURI{URI: p.NostrWalletAuth}, nil
	case p.FedimintInvite != "":
		return &FedimintInvite{Code: p.FedimintInvite}, nil
	case p.NodePubkey != "":
		return &NodeTarget{Pubkey: p.NodePubkey, Host: p.NodeHost}, nil
	}
	return nil, errors.New("no payment target")
}

func newLnurlTarget(p *waila.Params) *LnurlTarget {
	return &LnurlTarget{LNURL: p.LNURL, Endpoint: p.LNURLEndpoint, IsAuth: p.IsLNURLAuth}
}

// descriptorJSON is the flat encoding of a Descriptor. Only the fields of the
// target type are set.
type descriptorJSON struct {
	Type             TargetType     `json:"type"`
	Original         string         `json:"original"`
	Network          wallet.Network `json:"network"`
	Address          string         `json:"address,omitempty"`
	Invoice          string         `json:"invoice,omitempty"`
	AmountSats       *uint64        `json:"amount_sats,omitempty"`
	Memo             string         `json:"memo,omitempty"`
	NodePubkey       string         `json:"node_pubkey,omitempty"`
	LNURL            string         `json:"lnurl,omitempty"`
	LightningAddress string         `json:"lightning_address,omitempty"`
	NostrWalletAuth  string         `json:"nostr_wallet_auth,omitempty"`
	FedimintInvite   string         `json:"fedimint_invite,omitempty"`
	PayjoinEnabled   *bool          `json:"payjoin_enabled,omitempty"`
	IsLNURLAuth      *bool          `json:"is_lnurl_auth,omitempty"`
}

// MarshalJSON encodes the descriptor as a flat object with a type field.
func (d *Descriptor) MarshalJSON() ([]byte, error) {
	if d.Target == nil {
		return nil, errors.New("descriptor has no target")
	}
	dj := &descriptorJSON{
		Type:     d.Target.Type(),
		Original: d.Original,
		Network:  d.Network,
	}
	d.Target.fields(dj)
	return json.Marshal(dj)
}
