// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package wallet

import (
	"fmt"
	"strings"
)

// Network identifies the bitcoin network a wallet or a payment request is
// bound to.
type Network uint8

const (
	Mainnet Network = iota
	Testnet
	Signet
	Regtest
)

// Networks lists every known network in order.
var Networks = []Network{Mainnet, Testnet, Signet, Regtest}

// String returns the string representation of a Network.
func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	case Signet:
		return "signet"
	case Regtest:
		return "regtest"
	}
	return fmt.Sprintf("unknown(%d)", uint8(n))
}

// Valid is true for the known networks.
func (n Network) Valid() bool {
	return n <= Regtest
}

// NetFromString returns the Network for the given network name. "bitcoin" is
// accepted for mainnet since the wallet engine reports mainnet that way.
func NetFromString(net string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(net)) {
	case "mainnet", "bitcoin":
		return Mainnet, nil
	case "testnet", "testnet3":
		return Testnet, nil
	case "signet":
		return Signet, nil
	case "regtest", "regnet", "simnet":
		return Regtest, nil
	}
	return 255, fmt.Errorf("unknown network %q", net)
}

// MarshalText satisfies encoding.TextMarshaler.
func (n Network) MarshalText() ([]byte, error) {
	if !n.Valid() {
		return nil, fmt.Errorf("cannot marshal unknown network %d", uint8(n))
	}
	return []byte(n.String()), nil
}

// UnmarshalText satisfies encoding.TextUnmarshaler.
func (n *Network) UnmarshalText(b []byte) error {
	net, err := NetFromString(string(b))
	if err != nil {
		return err
	}
	*n = net
	return nil
}
