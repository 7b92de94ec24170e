// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package waila

import (
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"paywaila.org/waila/wallet"
)

const (
	nostrWalletAuthScheme    = "nostr+walletauth"
	nostrWalletConnectScheme = "nostr+walletconnect"
)

// parseNostrWalletURI parses a Nostr Wallet Connect connection URI or a
// wallet auth request. Both name a nostr pubkey as the host and the relays to
// reach it on.
func parseNostrWalletURI(s string) (*Params, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, wallet.NewErrorf(ErrInvalidNostrURI, "%v", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if err := checkNostrPubkey(u.Host); err != nil {
		return nil, err
	}
	q := u.Query()
	relays := q["relay"]
	if len(relays) == 0 {
		return nil, wallet.NewError(ErrInvalidNostrURI, "no relay")
	}
	for _, r := range relays {
		ru, err := url.Parse(r)
		if err != nil || ru.Host == "" || (ru.Scheme != "wss" && ru.Scheme != "ws") {
			return nil, wallet.NewErrorf(ErrInvalidNostrURI, "invalid relay %q", r)
		}
	}
	if scheme == nostrWalletConnectScheme {
		secret := q.Get("secret")
		if b, err := hex.DecodeString(secret); err != nil || len(b) != 32 {
			return nil, wallet.NewError(ErrInvalidNostrURI, "secret must be 32 bytes of hex")
		}
	}
	return &Params{
		Original:        s,
		NostrWalletAuth: s,
	}, nil
}

// checkNostrPubkey checks that the string is a hex x-only public key.
func checkNostrPubkey(pk string) error {
	b, err := hex.DecodeString(pk)
	if err != nil || len(b) != schnorr.PubKeyBytesLen {
		return wallet.NewErrorf(ErrInvalidNostrURI, "pubkey %q is not %d bytes of hex", pk, schnorr.PubKeyBytesLen)
	}
	if _, err := schnorr.ParsePubKey(b); err != nil {
		return wallet.NewErrorf(ErrInvalidNostrURI, "pubkey: %v", err)
	}
	return nil
}
