// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package btc holds the bitcoin chain parameters used to recognize addresses
// and Lightning invoices for each wallet.Network.
package btc

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"paywaila.org/waila/wallet"
)

// Params returns the chain parameters for the network.
func Params(net wallet.Network) (*chaincfg.Params, error) {
	switch net {
	case wallet.Mainnet:
		return &chaincfg.MainNetParams, nil
	case wallet.Testnet:
		return &chaincfg.TestNet3Params, nil
	case wallet.Signet:
		return &chaincfg.SigNetParams, nil
	case wallet.Regtest:
		return &chaincfg.RegressionNetParams, nil
	}
	return nil, fmt.Errorf("unknown network %s", net)
}

// addressNetworks is the order in which address decoding is attempted.
// Signet shares its address encodings with testnet, so a signet address
// always decodes as testnet first and signet is not tried.
var addressNetworks = []wallet.Network{wallet.Mainnet, wallet.Testnet, wallet.Regtest}

// DecodeAddress decodes an on-chain address, returning the address and the
// network it belongs to.
func DecodeAddress(addr string) (btcutil.Address, wallet.Network, error) {
	// Bech32 addresses are often upper-cased in QR codes.
	if strings.ToUpper(addr) == addr {
		addr = strings.ToLower(addr)
	}
	for _, net := range addressNetworks {
		params, _ := Params(net)
		a, err := btcutil.DecodeAddress(addr, params)
		if err != nil {
			continue
		}
		// Raw public keys decode as pay-to-pubkey "addresses". Those are not
		// payment addresses.
		if _, isPK := a.(*btcutil.AddressPubKey); isPK {
			break
		}
		if !a.IsForNet(params) {
			continue
		}
		return a, net, nil
	}
	return nil, 0, fmt.Errorf("%q is not an address for any known network", addr)
}

// BOLT11 currency prefixes.
const (
	mainnetInvoicePrefix = "bc"
	testnetInvoicePrefix = "tb"
	signetInvoicePrefix  = "tbs"
	regtestInvoicePrefix = "bcrt"
)

// InvoicePrefix is the BOLT11 currency prefix for the network, i.e. the part of
// the invoice's human-readable part following "ln".
func InvoicePrefix(net wallet.Network) (string, error) {
	switch net {
	case wallet.Mainnet:
		return mainnetInvoicePrefix, nil
	case wallet.Testnet:
		return testnetInvoicePrefix, nil
	case wallet.Signet:
		return signetInvoicePrefix, nil
	case wallet.Regtest:
		return regtestInvoicePrefix, nil
	}
	return "", fmt.Errorf("unknown network %s", net)
}

// invoicePrefixes is ordered so that longer prefixes are matched before
// the shorter prefixes they start with.
var invoicePrefixes = []struct {
	prefix string
	net    wallet.Network
}{
	{regtestInvoicePrefix, wallet.Regtest},
	{signetInvoicePrefix, wallet.Signet},
	{mainnetInvoicePrefix, wallet.Mainnet},
	{testnetInvoicePrefix, wallet.Testnet},
}

// SplitInvoiceHRP splits the human-readable part of a BOLT11 invoice into its
// network and the amount string that follows the currency prefix.
func SplitInvoiceHRP(hrp string) (net wallet.Network, amt string, err error) {
	if !strings.HasPrefix(hrp, "ln") {
		return 0, "", fmt.Errorf("invoice human-readable part %q does not start with ln", hrp)
	}
	rest := hrp[2:]
	for _, p := range invoicePrefixes {
		if !strings.HasPrefix(rest, p.prefix) {
			continue
		}
		amt = rest[len(p.prefix):]
		// An amount always starts with a digit. Anything else means a
		// longer, unknown prefix, e.g. "lntbx".
		if amt != "" && (amt[0] < '0' || amt[0] > '9') {
			continue
		}
		return p.net, amt, nil
	}
	return 0, "", fmt.Errorf("unknown invoice currency prefix in %q", hrp)
}
