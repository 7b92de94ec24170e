// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package waila

import (
	"encoding/hex"
	"net"
	"strconv"

	"github.com/btcsuite/btcd/btcec/v2"
	"paywaila.org/waila/wallet"
)

const nodePubkeyHexLen = 2 * btcec.PubKeyBytesLenCompressed

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

// looksLikeNode is true for a 66-character hex string, optionally followed
// by @ and anything.
func looksLikeNode(s string) bool {
	if len(s) < nodePubkeyHexLen || !isHex(s[:nodePubkeyHexLen]) {
		return false
	}
	return len(s) == nodePubkeyHexLen || s[nodePubkeyHexLen] == '@'
}

// parseNode parses a node connection string, pubkey[@host:port].
func parseNode(s string) (*Params, error) {
	pkHex := s[:nodePubkeyHexLen]
	b, err := hex.DecodeString(pkHex)
	if err != nil {
		return nil, wallet.NewErrorf(ErrInvalidNode, "pubkey: %v", err)
	}
	pk, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, wallet.NewErrorf(ErrInvalidNode, "pubkey: %v", err)
	}
	p := &Params{
		Original:   s,
		NodePubkey: hex.EncodeToString(pk.SerializeCompressed()),
	}
	if len(s) == nodePubkeyHexLen {
		return p, nil
	}
	hostPort := s[nodePubkeyHexLen+1:]
	host, port, err := net.SplitHostPort(hostPort)
	if err != nil {
		return nil, wallet.NewErrorf(ErrInvalidNode, "address %q: %v", hostPort, err)
	}
	if host == "" {
		return nil, wallet.NewErrorf(ErrInvalidNode, "address %q has no host", hostPort)
	}
	if n, err := strconv.ParseUint(port, 10, 16); err != nil || n == 0 {
		return nil, wallet.NewErrorf(ErrInvalidNode, "invalid port %q", port)
	}
	p.NodeHost = hostPort
	return p, nil
}
