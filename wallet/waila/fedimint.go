// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package waila

import (
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"paywaila.org/waila/wallet"
)

const fedimintHRP = "fed"

// parseFedimintInvite checks a federation invite code. The payload is an
// opaque bech32m blob, so only the encoding is checked.
func parseFedimintInvite(s string) (*Params, error) {
	code := s
	if strings.ToUpper(code) == code {
		code = strings.ToLower(code)
	}
	// DecodeNoLimit accepts either checksum constant. Re-encoding tells them
	// apart.
	hrp, data, err := bech32.DecodeNoLimit(code)
	if err != nil {
		return nil, wallet.NewErrorf(ErrInvalidFedimint, "bech32 decode: %v", err)
	}
	if hrp != fedimintHRP {
		return nil, wallet.NewErrorf(ErrInvalidFedimint, "wrong human-readable part %q", hrp)
	}
	if len(data) == 0 {
		return nil, wallet.NewError(ErrInvalidFedimint, "empty invite code")
	}
	reenc, err := bech32.EncodeM(hrp, data)
	if err != nil || reenc != strings.ToLower(code) {
		return nil, wallet.NewError(ErrInvalidFedimint, "not a bech32m string")
	}
	return &Params{
		Original:       s,
		FedimintInvite: code,
	}, nil
}
