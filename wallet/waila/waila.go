// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package waila ("what am I looking at") recognizes payment strings: BIP21
// URIs, BOLT11 invoices, LNURLs, Lightning addresses, Nostr wallet URIs,
// Fedimint invite codes, node pubkeys and bare on-chain addresses. Parse
// reports what the string is and, where the encoding says, which network it
// is for. It makes no judgement about whether that network is acceptable.
package waila

import (
	"errors"
	"strings"

	"paywaila.org/waila/wallet"
)

const (
	ErrEmptyInput      = wallet.ErrorKind("empty input")
	ErrUnrecognized    = wallet.ErrorKind("unrecognized payment string")
	ErrInvalidBIP21    = wallet.ErrorKind("invalid bitcoin URI")
	ErrInvalidInvoice  = wallet.ErrorKind("invalid lightning invoice")
	ErrInvalidLNURL    = wallet.ErrorKind("invalid LNURL")
	ErrInvalidNostrURI = wallet.ErrorKind("invalid nostr wallet URI")
	ErrInvalidFedimint = wallet.ErrorKind("invalid fedimint invite code")
	ErrInvalidNode     = wallet.ErrorKind("invalid node connection string")
)

// Params is everything Parse could learn from a payment string. Only the
// fields that apply to the recognized kind of string are set.
type Params struct {
	// Original is the input, trimmed of surrounding whitespace.
	Original string
	// Network is nil when the string doesn't encode a network.
	Network *wallet.Network
	// Address is an on-chain address.
	Address string
	// Invoice is a decoded BOLT11 invoice, possibly from a BIP21 URI.
	Invoice    *Invoice
	AmountSats *uint64
	Memo       string
	// Label is the BIP21 label.
	Label      string
	NodePubkey string
	// NodeHost is the host:port of a node connection string.
	NodeHost string
	// LNURL is the LNURL as given, bech32 or LUD-17.
	LNURL string
	// LNURLEndpoint is the decoded LNURL service URL.
	LNURLEndpoint    string
	IsLNURLAuth      bool
	LightningAddress string
	// NostrWalletAuth is a nostr+walletauth or nostr+walletconnect URI.
	NostrWalletAuth string
	FedimintInvite  string
	// PayjoinEndpoint is the BIP78 pj parameter of a BIP21 URI.
	PayjoinEndpoint string
	PayjoinEnabled  bool
}

// Parser satisfies interfaces that want a Parse method.
type Parser struct{}

// Parse parses the payment string. See the package-level Parse.
func (Parser) Parse(raw string) (*Params, error) {
	return Parse(raw)
}

func netPtr(net wallet.Network) *wallet.Network {
	return &net
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}

// hasPrefixFold is strings.HasPrefix, ignoring case.
func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// Parse recognizes the payment string. An error is returned for anything that
// isn't a well-formed payment string of a known kind.
func Parse(raw string) (*Params, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, ErrEmptyInput
	}
	switch {
	case hasPrefixFold(s, "bitcoin:"):
		return parseBIP21(s)
	case hasPrefixFold(s, "lightning:"):
		rest := strings.TrimPrefix(s[len("lightning:"):], "//")
		p, err := parseLightning(rest)
		if err != nil {
			return nil, err
		}
		p.Original = s
		return p, nil
	case hasPrefixFold(s, nostrWalletAuthScheme+"://"), hasPrefixFold(s, nostrWalletConnectScheme+"://"):
		return parseNostrWalletURI(s)
	case hasPrefixFold(s, "https://"), hasPrefixFold(s, "http://"):
		return parseLNURLFallback(s)
	case hasPrefixFold(s, "fed1"):
		return parseFedimintInvite(s)
	}
	if p, err := parseLightning(s); err == nil {
		return p, nil
	} else if !errors.Is(err, ErrUnrecognized) {
		return nil, err
	}
	if looksLikeNode(s) {
		return parseNode(s)
	}
	if p, err := parseOnchainAddress(s); err == nil {
		return p, nil
	}
	return nil, ErrUnrecognized
}

// parseLightning parses the things that can follow a "lightning:" prefix:
// invoices, LNURLs and Lightning addresses. ErrUnrecognized is returned if
// the string is none of them.
func parseLightning(s string) (*Params, error) {
	switch {
	case s == "":
		return nil, ErrUnrecognized
	case isLUD17(s):
		return parseLUD17(s)
	case hasPrefixFold(s, "lnurl1"):
		return parseBech32LNURL(s)
	case strings.Contains(s, "@"):
		if looksLikeNode(s) {
			return nil, ErrUnrecognized
		}
		return parseLightningAddress(s)
	case hasPrefixFold(s, "ln"):
		inv, err := DecodeInvoice(s)
		if err != nil {
			return nil, err
		}
		return invoiceParams(s, inv), nil
	}
	return nil, ErrUnrecognized
}

func invoiceParams(original string, inv *Invoice) *Params {
	p := &Params{
		Original:   original,
		Network:    netPtr(inv.Network),
		Invoice:    inv,
		Memo:       inv.Description,
		NodePubkey: inv.PayeeHex(),
	}
	if inv.AmountMsat != nil {
		p.AmountSats = uint64Ptr(*inv.AmountMsat / 1000)
	}
	return p
}
