// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package waila

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"paywaila.org/waila/wallet"
	"paywaila.org/waila/wallet/networks/btc"
)

const (
	// timestampGroups is the number of 5-bit groups encoding the invoice
	// timestamp.
	timestampGroups = 7
	// signatureGroups is the number of 5-bit groups encoding the 65-byte
	// recoverable signature.
	signatureGroups = 104

	// DefaultInvoiceExpiry applies when an invoice has no x field.
	DefaultInvoiceExpiry = time.Hour

	msatPerBTC = 100_000_000_000
)

// Tagged field types.
const (
	fieldPaymentHash     = 1
	fieldDescription     = 13
	fieldPayee           = 19
	fieldDescriptionHash = 23
	fieldExpiry          = 6
	fieldMinFinalCLTV    = 24
	fieldPaymentSecret   = 16
)

// Invoice is a decoded BOLT11 payment request. Only the fields the wallet
// shell displays or checks are kept.
type Invoice struct {
	// Encoded is the lower-case invoice string.
	Encoded    string
	Network    wallet.Network
	AmountMsat *uint64
	Timestamp  time.Time
	Expiry     time.Duration
	// PaymentHash is 32 bytes.
	PaymentHash     []byte
	PaymentSecret   []byte
	Description     string
	DescriptionHash []byte
	MinFinalCLTV    uint64
	// Payee is taken from the n field, or recovered from the signature.
	Payee *btcec.PublicKey
}

// PayeeHex is the hex-encoded compressed payee pubkey.
func (inv *Invoice) PayeeHex() string {
	if inv.Payee == nil {
		return ""
	}
	return hex.EncodeToString(inv.Payee.SerializeCompressed())
}

// ExpiresAt is the time after which the invoice can't be paid.
func (inv *Invoice) ExpiresAt() time.Time {
	return inv.Timestamp.Add(inv.Expiry)
}

// Expired is true if the invoice expired before now.
func (inv *Invoice) Expired(now time.Time) bool {
	return now.After(inv.ExpiresAt())
}

// DecodeInvoice decodes and verifies a BOLT11 invoice. The signature must
// match the n field if present, and the payee is recovered from the signature
// otherwise.
func DecodeInvoice(s string) (*Invoice, error) {
	// Invoices in QR codes are commonly upper case. Mixed case is rejected by
	// the bech32 decoder.
	if strings.ToUpper(s) == s {
		s = strings.ToLower(s)
	}
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return nil, wallet.NewErrorf(ErrInvalidInvoice, "bech32 decode: %v", err)
	}
	net, amtStr, err := btc.SplitInvoiceHRP(hrp)
	if err != nil {
		return nil, wallet.NewError(ErrInvalidInvoice, err.Error())
	}
	inv := &Invoice{
		Encoded: s,
		Network: net,
		Expiry:  DefaultInvoiceExpiry,
	}
	if amtStr != "" {
		msat, err := parseInvoiceAmount(amtStr)
		if err != nil {
			return nil, wallet.NewError(ErrInvalidInvoice, err.Error())
		}
		inv.AmountMsat = &msat
	}

	if len(data) < timestampGroups+signatureGroups {
		return nil, wallet.NewErrorf(ErrInvalidInvoice, "data too short: %d groups", len(data))
	}
	inv.Timestamp = time.Unix(int64(base32ToUint64(data[:timestampGroups])), 0)
	sigGroups := data[len(data)-signatureGroups:]
	signed := data[:len(data)-signatureGroups]

	var payee *btcec.PublicKey
	if err := parseTaggedFields(inv, signed[timestampGroups:], &payee); err != nil {
		return nil, wallet.NewError(ErrInvalidInvoice, err.Error())
	}

	recovered, err := recoverPayee(hrp, signed, sigGroups)
	if err != nil {
		return nil, wallet.NewError(ErrInvalidInvoice, err.Error())
	}
	if payee != nil && !payee.IsEqual(recovered) {
		return nil, wallet.NewError(ErrInvalidInvoice, "signature does not match payee")
	}
	inv.Payee = recovered
	if inv.PaymentHash == nil {
		return nil, wallet.NewError(ErrInvalidInvoice, "no payment hash")
	}
	return inv, nil
}

// parseInvoiceAmount parses the amount in the human-readable part into
// millisatoshis.
func parseInvoiceAmount(amt string) (uint64, error) {
	var perUnit uint64 // msat per unit, or 0 for pico-bitcoin
	numStr := amt[:len(amt)-1]
	switch amt[len(amt)-1] {
	case 'm':
		perUnit = msatPerBTC / 1_000
	case 'u':
		perUnit = msatPerBTC / 1_000_000
	case 'n':
		perUnit = msatPerBTC / 1_000_000_000
	case 'p':
	default:
		numStr = amt
		perUnit = msatPerBTC
	}
	if numStr == "" || (len(numStr) > 1 && numStr[0] == '0') {
		return 0, fmt.Errorf("invalid amount %q", amt)
	}
	n, err := strconv.ParseUint(numStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %v", amt, err)
	}
	if perUnit == 0 {
		// 1 pico-bitcoin is a tenth of a millisatoshi.
		if n%10 != 0 {
			return 0, fmt.Errorf("amount %q is not a whole number of millisatoshis", amt)
		}
		return n / 10, nil
	}
	if n > math.MaxUint64/perUnit {
		return 0, fmt.Errorf("amount %q overflows", amt)
	}
	return n * perUnit, nil
}

func base32ToUint64(groups []byte) uint64 {
	var v uint64
	for _, g := range groups {
		v = v<<5 | uint64(g)
	}
	return v
}

func parseTaggedFields(inv *Invoice, fields []byte, payee **btcec.PublicKey) error {
	for len(fields) > 0 {
		if len(fields) < 3 {
			return fmt.Errorf("truncated tagged field")
		}
		typ := fields[0]
		l := int(fields[1])<<5 | int(fields[2])
		if len(fields) < 3+l {
			return fmt.Errorf("tagged field %d length %d exceeds remaining data", typ, l)
		}
		val := fields[3 : 3+l]
		fields = fields[3+l:]

		// Fields of an unexpected length are skipped, not rejected, so that
		// future versions can redefine them.
		switch typ {
		case fieldPaymentHash:
			if l != 52 || inv.PaymentHash != nil {
				continue
			}
			b, err := bech32.ConvertBits(val, 5, 8, false)
			if err != nil {
				return fmt.Errorf("payment hash: %v", err)
			}
			inv.PaymentHash = b
		case fieldPaymentSecret:
			if l != 52 || inv.PaymentSecret != nil {
				continue
			}
			b, err := bech32.ConvertBits(val, 5, 8, false)
			if err != nil {
				return fmt.Errorf("payment secret: %v", err)
			}
			inv.PaymentSecret = b
		case fieldDescription:
			b, err := bech32.ConvertBits(val, 5, 8, false)
			if err != nil {
				return fmt.Errorf("description: %v", err)
			}
			inv.Description = string(b)
		case fieldDescriptionHash:
			if l != 52 {
				continue
			}
			b, err := bech32.ConvertBits(val, 5, 8, false)
			if err != nil {
				return fmt.Errorf("description hash: %v", err)
			}
			inv.DescriptionHash = b
		case fieldPayee:
			if l != 53 || *payee != nil {
				continue
			}
			b, err := bech32.ConvertBits(val, 5, 8, false)
			if err != nil {
				return fmt.Errorf("payee: %v", err)
			}
			pk, err := btcec.ParsePubKey(b)
			if err != nil {
				return fmt.Errorf("payee pubkey: %v", err)
			}
			*payee = pk
		case fieldExpiry:
			if l > 12 {
				return fmt.Errorf("expiry field too long")
			}
			inv.Expiry = time.Duration(base32ToUint64(val)) * time.Second
		case fieldMinFinalCLTV:
			if l > 12 {
				return fmt.Errorf("min_final_cltv_expiry field too long")
			}
			inv.MinFinalCLTV = base32ToUint64(val)
		}
	}
	return nil
}

// invoiceSigHash is the hash the payee signs: the human-readable part as
// UTF-8 followed by the data part, padded to whole bytes.
func invoiceSigHash(hrp string, signed []byte) ([]byte, error) {
	b, err := bech32.ConvertBits(signed, 5, 8, true)
	if err != nil {
		return nil, err
	}
	h := sha256.Sum256(append([]byte(hrp), b...))
	return h[:], nil
}

func recoverPayee(hrp string, signed, sigGroups []byte) (*btcec.PublicKey, error) {
	sig, err := bech32.ConvertBits(sigGroups, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("signature: %v", err)
	}
	if len(sig) != 65 {
		return nil, fmt.Errorf("signature length %d", len(sig))
	}
	recID := sig[64]
	if recID > 3 {
		return nil, fmt.Errorf("invalid recovery id %d", recID)
	}
	hash, err := invoiceSigHash(hrp, signed)
	if err != nil {
		return nil, err
	}
	// The compact format leads with the recovery code, 27 + recID, plus 4
	// for a compressed key.
	compact := bytes.Join([][]byte{{27 + 4 + recID}, sig[:64]}, nil)
	pk, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, fmt.Errorf("signature recovery: %v", err)
	}
	return pk, nil
}
