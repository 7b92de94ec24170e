// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package waila

import (
	"paywaila.org/waila/wallet/networks/btc"
)

func parseOnchainAddress(s string) (*Params, error) {
	addr, net, err := btc.DecodeAddress(s)
	if err != nil {
		return nil, err
	}
	return &Params{
		Original: s,
		Network:  netPtr(net),
		Address:  addr.EncodeAddress(),
	}, nil
}
