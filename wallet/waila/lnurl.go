// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package waila

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"paywaila.org/waila/wallet"
)

const lnurlHRP = "lnurl"

// LUD-17 schemes.
const (
	lnurlPayScheme      = "lnurlp"
	lnurlWithdrawScheme = "lnurlw"
	lnurlChannelScheme  = "lnurlc"
	keyAuthScheme       = "keyauth"
)

var lud17Schemes = []string{lnurlPayScheme, lnurlWithdrawScheme, lnurlChannelScheme, keyAuthScheme}

// lightningAddressRegexp matches LUD-16 internet identifiers. The username
// character set is a-z0-9-_.+ and the domain needs a TLD.
var lightningAddressRegexp = regexp.MustCompile(`^[a-z0-9\-_.+]+@[a-z0-9\-]+(\.[a-z0-9\-]+)*\.[a-z]{2,}(:[0-9]{1,5})?$`)

func isLUD17(s string) bool {
	for _, scheme := range lud17Schemes {
		if hasPrefixFold(s, scheme+"://") {
			return true
		}
	}
	return false
}

func isOnion(host string) bool {
	return strings.HasSuffix(strings.ToLower(host), ".onion")
}

// checkServiceURL checks that a decoded LNURL service URL is https, or http
// for an onion service.
func checkServiceURL(u *url.URL) error {
	if u.Host == "" {
		return wallet.NewError(ErrInvalidLNURL, "no host")
	}
	switch u.Scheme {
	case "https":
	case "http":
		if !isOnion(u.Hostname()) {
			return wallet.NewError(ErrInvalidLNURL, "clearnet LNURL service must use https")
		}
	default:
		return wallet.NewErrorf(ErrInvalidLNURL, "unsupported scheme %q", u.Scheme)
	}
	return nil
}

func isAuthURL(u *url.URL) bool {
	return u.Query().Get("tag") == "login"
}

// parseLUD17 parses an LNURL with one of the LUD-17 schemes, which stand in
// for https (or http for onion services).
func parseLUD17(s string) (*Params, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, wallet.NewErrorf(ErrInvalidLNURL, "%v", err)
	}
	if u.Host == "" {
		return nil, wallet.NewError(ErrInvalidLNURL, "no host")
	}
	scheme := strings.ToLower(u.Scheme)
	endpoint := *u
	endpoint.Scheme = "https"
	if isOnion(u.Hostname()) {
		endpoint.Scheme = "http"
	}
	return &Params{
		Original:      s,
		LNURL:         s,
		LNURLEndpoint: endpoint.String(),
		IsLNURLAuth:   scheme == keyAuthScheme || isAuthURL(u),
	}, nil
}

// parseBech32LNURL parses a bech32-encoded LNURL, "lnurl1...".
func parseBech32LNURL(s string) (*Params, error) {
	lnurl := s
	if strings.ToUpper(lnurl) == lnurl {
		lnurl = strings.ToLower(lnurl)
	}
	hrp, data, err := bech32.DecodeNoLimit(lnurl)
	if err != nil {
		return nil, wallet.NewErrorf(ErrInvalidLNURL, "bech32 decode: %v", err)
	}
	if hrp != lnurlHRP {
		return nil, wallet.NewErrorf(ErrInvalidLNURL, "wrong human-readable part %q", hrp)
	}
	b, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, wallet.NewErrorf(ErrInvalidLNURL, "%v", err)
	}
	u, err := url.Parse(string(b))
	if err != nil {
		return nil, wallet.NewErrorf(ErrInvalidLNURL, "decoded URL: %v", err)
	}
	if err := checkServiceURL(u); err != nil {
		return nil, err
	}
	return &Params{
		Original:      s,
		LNURL:         lnurl,
		LNURLEndpoint: u.String(),
		IsLNURLAuth:   isAuthURL(u),
	}, nil
}

// parseLNURLFallback parses a web URL carrying an LNURL in its lightning
// query parameter, as LNURL QR codes may do so that non-wallet scanners land
// on a web page.
func parseLNURLFallback(s string) (*Params, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, ErrUnrecognized
	}
	ln := u.Query().Get("lightning")
	if ln == "" {
		return nil, ErrUnrecognized
	}
	p, err := parseLightning(ln)
	if err != nil {
		return nil, err
	}
	p.Original = s
	return p, nil
}

// parseLightningAddress parses a LUD-16 Lightning address. ErrUnrecognized is
// returned for anything that doesn't look like one.
func parseLightningAddress(s string) (*Params, error) {
	addr := strings.ToLower(s)
	if !lightningAddressRegexp.MatchString(addr) {
		return nil, ErrUnrecognized
	}
	user, domain, _ := strings.Cut(addr, "@")
	scheme := "https"
	if isOnion(strings.Split(domain, ":")[0]) {
		scheme = "http"
	}
	endpoint := url.URL{
		Scheme: scheme,
		Host:   domain,
		Path:   "/.well-known/lnurlp/" + user,
	}
	return &Params{
		Original:         s,
		LightningAddress: addr,
		LNURLEndpoint:    endpoint.String(),
	}, nil
}
