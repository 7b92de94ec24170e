// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package waila

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/chaincfg"
	"paywaila.org/waila/wallet"
)

var (
	tPayeeKey, tPayeePub = btcec.PrivKeyFromBytes(bytes.Repeat([]byte{0x11}, 32))
	tPayeeHex            = hex.EncodeToString(tPayeePub.SerializeCompressed())
	tPaymentHash         = bytes.Repeat([]byte{0xaa}, 32)
	tTimestamp           = time.Unix(1_700_000_000, 0)
)

func to5(t *testing.T, b []byte) []byte {
	t.Helper()
	groups, err := bech32.ConvertBits(b, 8, 5, true)
	if err != nil {
		t.Fatalf("ConvertBits error: %v", err)
	}
	return groups
}

func uintGroups(v uint64, n int) []byte {
	groups := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		groups[i] = byte(v & 31)
		v >>= 5
	}
	return groups
}

func taggedField(typ byte, groups []byte) []byte {
	return append([]byte{typ, byte(len(groups) >> 5), byte(len(groups) & 31)}, groups...)
}

type invoiceField []byte

func hashField(t *testing.T, h []byte) invoiceField {
	return taggedField(fieldPaymentHash, to5(t, h))
}

func descField(t *testing.T, d string) invoiceField {
	return taggedField(fieldDescription, to5(t, []byte(d)))
}

func payeeField(t *testing.T, pk *btcec.PublicKey) invoiceField {
	return taggedField(fieldPayee, to5(t, pk.SerializeCompressed()))
}

func expiryField(secs uint64) invoiceField {
	return taggedField(fieldExpiry, uintGroups(secs, 4))
}

// encodeInvoice builds and signs an invoice with the given human-readable
// part and tagged fields.
func encodeInvoice(t *testing.T, signer *btcec.PrivateKey, hrp string, fields ...invoiceField) string {
	t.Helper()
	data := uintGroups(uint64(tTimestamp.Unix()), timestampGroups)
	for _, f := range fields {
		data = append(data, f...)
	}
	hash, err := invoiceSigHash(hrp, data)
	if err != nil {
		t.Fatalf("invoiceSigHash error: %v", err)
	}
	compact := ecdsa.SignCompact(signer, hash, true)
	// Compact signatures lead with the recovery code. Invoices end with the
	// bare recovery id.
	sig := append(append([]byte{}, compact[1:]...), compact[0]-27-4)
	data = append(data, to5(t, sig)...)
	s, err := bech32.Encode(hrp, data)
	if err != nil {
		t.Fatalf("bech32.Encode error: %v", err)
	}
	return s
}

func simpleInvoice(t *testing.T, hrp string) string {
	return encodeInvoice(t, tPayeeKey, hrp, hashField(t, tPaymentHash), descField(t, "coffee"))
}

func address(t *testing.T, p *chaincfg.Params) string {
	a, err := btcutil.NewAddressWitnessPubKeyHash(bytes.Repeat([]byte{0x02}, 20), p)
	if err != nil {
		t.Fatalf("error making address: %v", err)
	}
	return a.EncodeAddress()
}

func TestParseInvoiceAmount(t *testing.T) {
	tests := []struct {
		amt     string
		msat    uint64
		wantErr bool
	}{
		{"1", 100_000_000_000, false},
		{"2500u", 250_000_000, false},
		{"20m", 2_000_000_000, false},
		{"10n", 1_000, false},
		{"10p", 1, false},
		{"1p", 0, true},
		{"025m", 0, true},
		{"12x", 0, true},
		{"m", 0, true},
		{"99999999999999999999", 0, true},
	}
	for _, tt := range tests {
		msat, err := parseInvoiceAmount(tt.amt)
		if (err != nil) != tt.wantErr {
			t.Fatalf("%s: wantErr = %t, err = %v", tt.amt, tt.wantErr, err)
		}
		if err == nil && msat != tt.msat {
			t.Fatalf("%s: wanted %d msat, got %d", tt.amt, tt.msat, msat)
		}
	}
}

func TestDecodeInvoice(t *testing.T) {
	tests := []struct {
		hrp  string
		net  wallet.Network
		msat *uint64
	}{
		{"lnbc2500u", wallet.Mainnet, uint64Ptr(250_000_000)},
		{"lnbc", wallet.Mainnet, nil},
		{"lntb1m", wallet.Testnet, uint64Ptr(100_000_000)},
		{"lntbs10n", wallet.Signet, uint64Ptr(1_000)},
		{"lnbcrt500u", wallet.Regtest, uint64Ptr(50_000_000)},
	}
	for _, tt := range tests {
		inv, err := DecodeInvoice(simpleInvoice(t, tt.hrp))
		if err != nil {
			t.Fatalf("%s: decode error: %v", tt.hrp, err)
		}
		if inv.Network != tt.net {
			t.Fatalf("%s: wanted network %s, got %s", tt.hrp, tt.net, inv.Network)
		}
		if (tt.msat == nil) != (inv.AmountMsat == nil) || (tt.msat != nil && *tt.msat != *inv.AmountMsat) {
			t.Fatalf("%s: wrong amount %v", tt.hrp, inv.AmountMsat)
		}
		if inv.PayeeHex() != tPayeeHex {
			t.Fatalf("%s: wrong payee %s", tt.hrp, inv.PayeeHex())
		}
		if !bytes.Equal(inv.PaymentHash, tPaymentHash) {
			t.Fatalf("%s: wrong payment hash %x", tt.hrp, inv.PaymentHash)
		}
		if inv.Description != "coffee" {
			t.Fatalf("%s: wrong description %q", tt.hrp, inv.Description)
		}
		if inv.Expiry != DefaultInvoiceExpiry {
			t.Fatalf("%s: wrong default expiry %s", tt.hrp, inv.Expiry)
		}
		if !inv.Timestamp.Equal(tTimestamp) {
			t.Fatalf("%s: wrong timestamp %s", tt.hrp, inv.Timestamp)
		}
	}
}

func TestDecodeInvoiceFields(t *testing.T) {
	// Explicit payee that matches the signer.
	s := encodeInvoice(t, tPayeeKey, "lnbc1m", hashField(t, tPaymentHash), payeeField(t, tPayeePub), expiryField(60))
	inv, err := DecodeInvoice(s)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if inv.PayeeHex() != tPayeeHex {
		t.Fatalf("wrong payee")
	}
	if inv.Expiry != time.Minute {
		t.Fatalf("wrong expiry %s", inv.Expiry)
	}
	if !inv.Expired(tTimestamp.Add(2*time.Minute)) || inv.Expired(tTimestamp.Add(30*time.Second)) {
		t.Fatalf("wrong expiration")
	}

	// Upper case is accepted.
	if _, err := DecodeInvoice(strings.ToUpper(s)); err != nil {
		t.Fatalf("upper case decode error: %v", err)
	}

	// A payee field that doesn't match the signature.
	_, otherPub := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{0x22}, 32))
	s = encodeInvoice(t, tPayeeKey, "lnbc1m", hashField(t, tPaymentHash), payeeField(t, otherPub))
	if _, err := DecodeInvoice(s); !errors.Is(err, ErrInvalidInvoice) {
		t.Fatalf("wrong error for mismatched payee: %v", err)
	}

	// Unknown fields and fields of the wrong length are skipped, but a
	// payment hash is required.
	s = encodeInvoice(t, tPayeeKey, "lnbc1m", taggedField(fieldPaymentHash, to5(t, []byte{1, 2, 3})), taggedField(31, []byte{1, 2}))
	if _, err := DecodeInvoice(s); !errors.Is(err, ErrInvalidInvoice) {
		t.Fatalf("wrong error for missing payment hash: %v", err)
	}

	// Corrupted checksum.
	s = simpleInvoice(t, "lnbc1m")
	flip := "q"
	if s[len(s)-1] == 'q' {
		flip = "p"
	}
	corrupt := s[:len(s)-1] + flip
	if _, err := DecodeInvoice(corrupt); !errors.Is(err, ErrInvalidInvoice) {
		t.Fatalf("wrong error for bad checksum: %v", err)
	}

	// Unknown currency.
	if _, err := DecodeInvoice(simpleInvoice(t, "lnxyz1m")); !errors.Is(err, ErrInvalidInvoice) {
		t.Fatalf("wrong error for unknown currency: %v", err)
	}
}

func TestParseInvoice(t *testing.T) {
	s := simpleInvoice(t, "lntbs2500u")
	for _, in := range []string{s, "  " + s + "\n", "lightning:" + s, "LIGHTNING:" + s, "lightning://" + s, strings.ToUpper(s)} {
		p, err := Parse(in)
		if err != nil {
			t.Fatalf("%q: parse error: %v", in, err)
		}
		if p.Network == nil || *p.Network != wallet.Signet {
			t.Fatalf("%q: wrong network %v", in, p.Network)
		}
		if p.AmountSats == nil || *p.AmountSats != 250_000 {
			t.Fatalf("%q: wrong amount %v", in, p.AmountSats)
		}
		if p.Memo != "coffee" || p.NodePubkey != tPayeeHex || p.Invoice == nil {
			t.Fatalf("%q: wrong params %+v", in, p)
		}
		if p.Address != "" || p.LNURL != "" || p.LightningAddress != "" {
			t.Fatalf("%q: unexpected fields set %+v", in, p)
		}
	}
}

func TestParseBIP21(t *testing.T) {
	mainAddr := address(t, &chaincfg.MainNetParams)
	testAddr := address(t, &chaincfg.TestNet3Params)
	regAddr := address(t, &chaincfg.RegressionNetParams)
	mainInv := simpleInvoice(t, "lnbc1m")
	signetInv := simpleInvoice(t, "lntbs1m")
	mainInvNoAmt := simpleInvoice(t, "lnbc")

	tests := []struct {
		name       string
		uri        string
		wantErr    bool
		net        wallet.Network
		addr       string
		sats       *uint64
		memo       string
		label      string
		hasInvoice bool
		payjoin    bool
	}{
		{name: "address only", uri: "bitcoin:" + mainAddr, net: wallet.Mainnet, addr: mainAddr},
		{name: "upper scheme", uri: "BITCOIN:" + strings.ToUpper(mainAddr), net: wallet.Mainnet, addr: mainAddr},
		{
			name: "amount label message",
			uri:  "bitcoin:" + testAddr + "?amount=0.00123&label=Luke-Jr&message=Donation%20for%20project%20xyz",
			net:  wallet.Testnet, addr: testAddr, sats: uint64Ptr(123_000), memo: "Donation for project xyz", label: "Luke-Jr",
		},
		{name: "whole amount", uri: "bitcoin:" + regAddr + "?amount=50", net: wallet.Regtest, addr: regAddr, sats: uint64Ptr(5_000_000_000)},
		{
			name: "unified",
			uri:  "bitcoin:" + mainAddr + "?amount=0.001&lightning=" + mainInv,
			net:  wallet.Mainnet, addr: mainAddr, sats: uint64Ptr(100_000), memo: "coffee", hasInvoice: true,
		},
		{
			name: "unified upper-case key",
			uri:  "bitcoin:" + mainAddr + "?LIGHTNING=" + mainInvNoAmt,
			net:  wallet.Mainnet, addr: mainAddr, memo: "coffee", hasInvoice: true,
		},
		{
			name: "unified signet",
			uri:  "bitcoin:" + testAddr + "?lightning=" + signetInv,
			net:  wallet.Signet, addr: testAddr, sats: uint64Ptr(100_000), memo: "coffee", hasInvoice: true,
		},
		{
			name: "invoice only",
			uri:  "bitcoin:?lightning=" + mainInv,
			net:  wallet.Mainnet, sats: uint64Ptr(100_000), memo: "coffee", hasInvoice: true,
		},
		{
			name: "payjoin",
			uri:  "bitcoin:" + mainAddr + "?amount=1&pj=" + url.QueryEscape("https://example.com/pj"),
			net:  wallet.Mainnet, addr: mainAddr, sats: uint64Ptr(100_000_000), payjoin: true,
		},
		{
			name: "address with lnurl",
			uri:  "bitcoin:" + mainAddr + "?amount=0.001&lightning=" + encodeLNURL(t, "https://service.com/pay"),
			net:  wallet.Mainnet, addr: mainAddr, sats: uint64Ptr(100_000),
		},
		{name: "optional unknown param", uri: "bitcoin:" + mainAddr + "?somethingyoudontunderstand=50", net: wallet.Mainnet, addr: mainAddr},
		{name: "required unknown param", uri: "bitcoin:" + mainAddr + "?req-somethingyoudontunderstand=50", wantErr: true},
		{name: "network mismatch", uri: "bitcoin:" + testAddr + "?lightning=" + mainInv, wantErr: true},
		{name: "regtest signet mismatch", uri: "bitcoin:" + regAddr + "?lightning=" + signetInv, wantErr: true},
		{name: "empty", uri: "bitcoin:", wantErr: true},
		{name: "bad address", uri: "bitcoin:notanaddress", wantErr: true},
		{name: "bad invoice", uri: "bitcoin:" + mainAddr + "?lightning=lnbc1notaninvoice", wantErr: true},
		{name: "negative amount", uri: "bitcoin:" + mainAddr + "?amount=-1", wantErr: true},
		{name: "too precise", uri: "bitcoin:" + mainAddr + "?amount=0.000000001", wantErr: true},
		{name: "exponent", uri: "bitcoin:" + mainAddr + "?amount=1e3", wantErr: true},
		{name: "too big", uri: "bitcoin:" + mainAddr + "?amount=21000001", wantErr: true},
		{name: "two dots", uri: "bitcoin:" + mainAddr + "?amount=1.2.3", wantErr: true},
		{name: "duplicate", uri: "bitcoin:" + mainAddr + "?amount=1&amount=2", wantErr: true},
		{name: "bad payjoin", uri: "bitcoin:" + mainAddr + "?pj=ftp://example.com", wantErr: true},
	}
	for _, tt := range tests {
		p, err := Parse(tt.uri)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%s: no error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: parse error: %v", tt.name, err)
		}
		if p.Network == nil || *p.Network != tt.net {
			t.Fatalf("%s: wanted network %s, got %v", tt.name, tt.net, p.Network)
		}
		if p.Address != tt.addr {
			t.Fatalf("%s: wanted address %q, got %q", tt.name, tt.addr, p.Address)
		}
		if (tt.sats == nil) != (p.AmountSats == nil) || (tt.sats != nil && *tt.sats != *p.AmountSats) {
			t.Fatalf("%s: wrong amount %v", tt.name, p.AmountSats)
		}
		if p.Memo != tt.memo || p.Label != tt.label {
			t.Fatalf("%s: wrong memo/label %q / %q", tt.name, p.Memo, p.Label)
		}
		if (p.Invoice != nil) != tt.hasInvoice {
			t.Fatalf("%s: wrong invoice presence", tt.name)
		}
		if p.PayjoinEnabled != tt.payjoin {
			t.Fatalf("%s: wrong payjoin flag", tt.name)
		}
		if p.Original != tt.uri {
			t.Fatalf("%s: wrong original %q", tt.name, p.Original)
		}
	}
}

func encodeLNURL(t *testing.T, u string) string {
	s, err := bech32.Encode(lnurlHRP, to5(t, []byte(u)))
	if err != nil {
		t.Fatalf("bech32.Encode error: %v", err)
	}
	return s
}

func TestParseLNURL(t *testing.T) {
	payURL := "https://service.com/api?q=3fc3645b439ce8e7f2553a69e5267081d96dcd340693afabe04be7b0ccd178df"
	authURL := "https://site.com/auth?tag=login&k1=e2af6254a8df433264fa23f67eb8188635d15ce883e8fc020989d5f82ae6f11e"
	payLNURL := encodeLNURL(t, payURL)

	tests := []struct {
		name     string
		in       string
		endpoint string
		lnurl    string
		auth     bool
		wantErr  bool
	}{
		{name: "bech32", in: payLNURL, endpoint: payURL, lnurl: payLNURL},
		{name: "bech32 upper", in: strings.ToUpper(payLNURL), endpoint: payURL, lnurl: payLNURL},
		{name: "bech32 lightning prefix", in: "lightning:" + payLNURL, endpoint: payURL, lnurl: payLNURL},
		{name: "bech32 auth", in: encodeLNURL(t, authURL), endpoint: authURL, lnurl: encodeLNURL(t, authURL), auth: true},
		{name: "bech32 onion http", in: encodeLNURL(t, "http://abc.onion/pay"), endpoint: "http://abc.onion/pay", lnurl: encodeLNURL(t, "http://abc.onion/pay")},
		{name: "bech32 clearnet http", in: encodeLNURL(t, "http://service.com/pay"), wantErr: true},
		{name: "lnurlp", in: "lnurlp://service.com/pay/123", endpoint: "https://service.com/pay/123", lnurl: "lnurlp://service.com/pay/123"},
		{name: "lnurlw onion", in: "lnurlw://abc.onion/withdraw", endpoint: "http://abc.onion/withdraw", lnurl: "lnurlw://abc.onion/withdraw"},
		{name: "keyauth", in: "keyauth://site.com/auth?k1=abc", endpoint: "https://site.com/auth?k1=abc", lnurl: "keyauth://site.com/auth?k1=abc", auth: true},
		{name: "fallback", in: "https://service.com/giftcard?lightning=" + payLNURL, endpoint: payURL, lnurl: payLNURL},
		{name: "fallback no param", in: "https://service.com/giftcard", wantErr: true},
		{name: "bip21", in: "bitcoin:?lightning=" + payLNURL, endpoint: payURL, lnurl: payLNURL},
		{name: "bip21 lud17", in: "bitcoin:?lightning=lnurlp://service.com/pay", endpoint: "https://service.com/pay", lnurl: "lnurlp://service.com/pay"},
		{name: "bip21 lightning address", in: "bitcoin:?lightning=satoshi@example.com", wantErr: true},
		{name: "bip21 garbage", in: "bitcoin:?lightning=xyz", wantErr: true},
		{name: "lud17 no host", in: "lnurlp:///pay", wantErr: true},
	}
	for _, tt := range tests {
		p, err := Parse(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%s: no error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: parse error: %v", tt.name, err)
		}
		if p.LNURLEndpoint != tt.endpoint {
			t.Fatalf("%s: wanted endpoint %q, got %q", tt.name, tt.endpoint, p.LNURLEndpoint)
		}
		if p.LNURL != tt.lnurl {
			t.Fatalf("%s: wanted lnurl %q, got %q", tt.name, tt.lnurl, p.LNURL)
		}
		if p.IsLNURLAuth != tt.auth {
			t.Fatalf("%s: wrong auth flag", tt.name)
		}
		if p.Network != nil {
			t.Fatalf("%s: LNURL has a network", tt.name)
		}
	}
}

func TestParseLightningAddress(t *testing.T) {
	for _, in := range []string{"satoshi@example.com", "Satoshi@Example.COM", "lightning:satoshi@example.com", "ln.user+tip@pay.example.co.uk"} {
		p, err := Parse(in)
		if err != nil {
			t.Fatalf("%q: parse error: %v", in, err)
		}
		if p.LightningAddress != strings.ToLower(strings.TrimPrefix(in, "lightning:")) {
			t.Fatalf("%q: wrong lightning address %q", in, p.LightningAddress)
		}
		if p.Network != nil {
			t.Fatalf("%q: lightning address has a network", in)
		}
	}
	p, _ := Parse("satoshi@example.com")
	if p.LNURLEndpoint != "https://example.com/.well-known/lnurlp/satoshi" {
		t.Fatalf("wrong endpoint %q", p.LNURLEndpoint)
	}
	for _, bad := range []string{"satoshi@", "@example.com", "satoshi@localhost", "sat oshi@example.com", "a@b@example.com"} {
		if _, err := Parse(bad); err == nil {
			t.Fatalf("%q: no error", bad)
		}
	}
}

func TestParseNostrWalletURI(t *testing.T) {
	_, pub := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{0x33}, 32))
	pk := hex.EncodeToString(schnorr.SerializePubKey(pub))
	secret := hex.EncodeToString(bytes.Repeat([]byte{0x44}, 32))
	relay := url.QueryEscape("wss://relay.damus.io")

	good := []string{
		fmt.Sprintf("nostr+walletconnect://%s?relay=%s&secret=%s", pk, relay, secret),
		fmt.Sprintf("nostr+walletauth://%s?relay=%s&secret=%s&required_commands=pay_invoice", pk, relay, secret),
		fmt.Sprintf("nostr+walletauth://%s?relay=%s&relay=%s", pk, relay, url.QueryEscape("wss://nos.lol")),
	}
	for _, in := range good {
		p, err := Parse(in)
		if err != nil {
			t.Fatalf("%q: parse error: %v", in, err)
		}
		if p.NostrWalletAuth != in || p.Network != nil {
			t.Fatalf("%q: wrong params %+v", in, p)
		}
	}
	bad := []string{
		fmt.Sprintf("nostr+walletconnect://%s?relay=%s", pk, relay),
		fmt.Sprintf("nostr+walletconnect://%s?secret=%s", pk, secret),
		fmt.Sprintf("nostr+walletauth://%s?relay=%s", pk[:62], relay),
		fmt.Sprintf("nostr+walletauth://%s?relay=%s", strings.Repeat("f", 64), relay),
		fmt.Sprintf("nostr+walletauth://%s?relay=%s", pk, url.QueryEscape("https://relay.damus.io")),
	}
	for _, in := range bad {
		if _, err := Parse(in); !errors.Is(err, ErrInvalidNostrURI) {
			t.Fatalf("%q: wrong error %v", in, err)
		}
	}
}

func TestParseFedimintInvite(t *testing.T) {
	payload := to5(t, bytes.Repeat([]byte{0x5a, 0x01, 0xfe}, 60))
	code, err := bech32.EncodeM(fedimintHRP, payload)
	if err != nil {
		t.Fatalf("EncodeM error: %v", err)
	}
	for _, in := range []string{code, strings.ToUpper(code)} {
		p, err := Parse(in)
		if err != nil {
			t.Fatalf("parse error: %v", err)
		}
		if p.FedimintInvite != code || p.Network != nil {
			t.Fatalf("wrong params %+v", p)
		}
	}

	// Same payload with the bech32 checksum constant.
	wrongChecksum, _ := bech32.Encode(fedimintHRP, payload)
	if _, err := Parse(wrongChecksum); !errors.Is(err, ErrInvalidFedimint) {
		t.Fatalf("wrong error for bech32 checksum: %v", err)
	}
	if _, err := Parse(code[:len(code)-2]); !errors.Is(err, ErrInvalidFedimint) {
		t.Fatalf("wrong error for truncated code: %v", err)
	}
}

func TestParseNode(t *testing.T) {
	tests := []struct {
		in      string
		host    string
		wantErr bool
	}{
		{in: tPayeeHex},
		{in: strings.ToUpper(tPayeeHex)},
		{in: tPayeeHex + "@127.0.0.1:9735", host: "127.0.0.1:9735"},
		{in: tPayeeHex + "@[::1]:9735", host: "[::1]:9735"},
		{in: tPayeeHex + "@node.example.com:9735", host: "node.example.com:9735"},
		{in: tPayeeHex + "@node.example.com", wantErr: true},
		{in: tPayeeHex + "@:9735", wantErr: true},
		{in: tPayeeHex + "@host:0", wantErr: true},
		{in: "04" + tPayeeHex[2:], wantErr: true},
	}
	for _, tt := range tests {
		p, err := Parse(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidNode) {
				t.Fatalf("%q: wrong error %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: parse error: %v", tt.in, err)
		}
		if p.NodePubkey != tPayeeHex || p.NodeHost != tt.host || p.Network != nil {
			t.Fatalf("%q: wrong params %+v", tt.in, p)
		}
	}
}

func TestParseOnchainAddress(t *testing.T) {
	tests := []struct {
		addr string
		net  wallet.Network
	}{
		{address(t, &chaincfg.MainNetParams), wallet.Mainnet},
		{address(t, &chaincfg.TestNet3Params), wallet.Testnet},
		{address(t, &chaincfg.SigNetParams), wallet.Testnet},
		{address(t, &chaincfg.RegressionNetParams), wallet.Regtest},
	}
	for _, tt := range tests {
		p, err := Parse(tt.addr)
		if err != nil {
			t.Fatalf("%s: parse error: %v", tt.addr, err)
		}
		if p.Network == nil || *p.Network != tt.net || p.Address != tt.addr {
			t.Fatalf("%s: wrong params %+v", tt.addr, p)
		}
		if p.Invoice != nil || p.AmountSats != nil {
			t.Fatalf("%s: unexpected fields set", tt.addr)
		}
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse(" \t\n"); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("wrong error for empty input: %v", err)
	}
	for _, in := range []string{
		"hello", "lightning:", "lightning:hello", "bitcoin", "12345", "ftp://example.com",
		"nostr+walletconnect://", "fed1", "lnurl1", "ln", "lnbc1", "\x00\x01", "bitcoin:?",
		"bitcoin:%zz", "https://%zz", strings.Repeat("1", 1000), "lightning:lightning:lnbc1",
	} {
		p, err := Parse(in)
		if err == nil {
			t.Fatalf("%q: no error, got %+v", in, p)
		}
	}
}

func TestParserType(t *testing.T) {
	var parser interface{ Parse(string) (*Params, error) } = Parser{}
	p, err := parser.Parse(tPayeeHex)
	if err != nil || p.NodePubkey != tPayeeHex {
		t.Fatalf("Parser.Parse failed: %v", err)
	}
}
