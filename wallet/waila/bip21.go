// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package waila

import (
	"errors"
	"net/url"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/shopspring/decimal"
	"paywaila.org/waila/wallet"
	"paywaila.org/waila/wallet/networks/btc"
)

const bip21Scheme = "bitcoin:"

// Recognized BIP21 parameters. Keys are matched case-insensitively.
const (
	bip21Amount    = "amount"
	bip21Label     = "label"
	bip21Message   = "message"
	bip21Lightning = "lightning"
	bip21Payjoin   = "pj"
	bip21PayjoinOS = "pjos"
)

var satsPerBTC = decimal.NewFromInt(btcutil.SatoshiPerBitcoin)

// parseBIP21 parses a bitcoin: URI. A unified URI carries both an on-chain
// address and a lightning= invoice, and both must be for the same network.
// The lightning parameter may instead be an LNURL, which has no network.
func parseBIP21(s string) (*Params, error) {
	rest := s[len(bip21Scheme):]
	addr, rawQuery, _ := strings.Cut(rest, "?")
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, wallet.NewErrorf(ErrInvalidBIP21, "query: %v", err)
	}
	args := make(map[string]string, len(q))
	for k, vs := range q {
		k = strings.ToLower(k)
		if _, dupe := args[k]; dupe || len(vs) > 1 {
			return nil, wallet.NewErrorf(ErrInvalidBIP21, "duplicate parameter %q", k)
		}
		switch k {
		case bip21Amount, bip21Label, bip21Message, bip21Lightning, bip21Payjoin, bip21PayjoinOS:
		default:
			if strings.HasPrefix(k, "req-") {
				return nil, wallet.NewErrorf(ErrInvalidBIP21, "unsupported required parameter %q", k)
			}
		}
		args[k] = vs[0]
	}

	p := &Params{
		Original: s,
		Label:    args[bip21Label],
		Memo:     args[bip21Message],
	}

	var addrNet *wallet.Network
	if addr != "" {
		a, net, err := btc.DecodeAddress(addr)
		if err != nil {
			return nil, wallet.NewError(ErrInvalidBIP21, err.Error())
		}
		p.Address = a.EncodeAddress()
		addrNet = &net
	}

	if amtStr, found := args[bip21Amount]; found {
		sats, err := parseBTCAmount(amtStr)
		if err != nil {
			return nil, wallet.NewError(ErrInvalidBIP21, err.Error())
		}
		p.AmountSats = &sats
	}

	if pj := args[bip21Payjoin]; pj != "" {
		u, err := url.Parse(pj)
		if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
			return nil, wallet.NewErrorf(ErrInvalidBIP21, "invalid payjoin endpoint %q", pj)
		}
		p.PayjoinEndpoint = pj
		p.PayjoinEnabled = true
	}

	var invNet *wallet.Network
	if ln := args[bip21Lightning]; ln != "" {
		lp, err := parseLightning(ln)
		if errors.Is(err, ErrUnrecognized) {
			return nil, wallet.NewErrorf(ErrInvalidBIP21, "unrecognized lightning parameter %q", ln)
		}
		if err != nil {
			return nil, err
		}
		switch {
		case lp.Invoice != nil:
			inv := lp.Invoice
			p.Invoice = inv
			invNet = &inv.Network
			if p.AmountSats == nil && inv.AmountMsat != nil {
				p.AmountSats = uint64Ptr(*inv.AmountMsat / 1000)
			}
			if p.Memo == "" {
				p.Memo = inv.Description
			}
			p.NodePubkey = inv.PayeeHex()
		case lp.LNURL != "":
			p.LNURL = lp.LNURL
			p.LNURLEndpoint = lp.LNURLEndpoint
			p.IsLNURLAuth = lp.IsLNURLAuth
		default:
			return nil, wallet.NewErrorf(ErrInvalidBIP21, "lightning parameter %q is not an invoice or LNURL", ln)
		}
	}

	switch {
	case addrNet == nil && invNet == nil:
		if p.LNURL == "" {
			return nil, wallet.NewError(ErrInvalidBIP21, "nothing to pay")
		}
		// An LNURL doesn't encode a network.
	case addrNet == nil:
		p.Network = netPtr(*invNet)
	case invNet == nil:
		p.Network = netPtr(*addrNet)
	default:
		net, ok := reconcileUnified(*addrNet, *invNet)
		if !ok {
			return nil, wallet.NewErrorf(ErrInvalidBIP21, "address network %s does not match invoice network %s", *addrNet, *invNet)
		}
		p.Network = netPtr(net)
	}
	return p, nil
}

// reconcileUnified picks the network of a unified URI. Signet addresses
// decode as testnet, so a testnet address with a signet invoice is signet.
func reconcileUnified(addrNet, invNet wallet.Network) (wallet.Network, bool) {
	if addrNet == invNet {
		return addrNet, true
	}
	if addrNet == wallet.Testnet && invNet == wallet.Signet {
		return wallet.Signet, true
	}
	return 0, false
}

// parseBTCAmount parses a BIP21 amount, a decimal number of bitcoin, into
// satoshis.
func parseBTCAmount(s string) (uint64, error) {
	var dots int
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '.':
			dots++
		case s[i] < '0' || s[i] > '9':
			return 0, wallet.NewErrorf(ErrInvalidBIP21, "invalid amount %q", s)
		}
	}
	if dots > 1 || s == "" || s == "." {
		return 0, wallet.NewErrorf(ErrInvalidBIP21, "invalid amount %q", s)
	}
	btcAmt, err := decimal.NewFromString(s)
	if err != nil {
		return 0, wallet.NewErrorf(ErrInvalidBIP21, "invalid amount %q: %v", s, err)
	}
	sats := btcAmt.Mul(satsPerBTC)
	if !sats.Equal(sats.Truncate(0)) {
		return 0, wallet.NewErrorf(ErrInvalidBIP21, "amount %q has more than 8 decimal places", s)
	}
	if sats.GreaterThan(decimal.NewFromInt(btcutil.MaxSatoshi)) {
		return 0, wallet.NewErrorf(ErrInvalidBIP21, "amount %q exceeds the supply", s)
	}
	return uint64(sats.IntPart()), nil
}
