// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package payreq turns user-supplied payment strings into payment descriptors
// for the wallet's network.
package payreq

import (
	"errors"
	"fmt"
	"time"

	"paywaila.org/waila/client/metrics"
	"paywaila.org/waila/wallet"
	"paywaila.org/waila/wallet/waila"
)

const (
	// ErrInvalidPaymentRequest is returned for anything the parser rejects.
	ErrInvalidPaymentRequest = wallet.ErrorKind("Invalid payment request")
	// ErrNetworkMismatch is matched by *NetworkMismatchError.
	ErrNetworkMismatch = wallet.ErrorKind("network mismatch")
)

// Metric names.
const (
	resolveEvent   = "resolve"
	resolveLatency = "resolve"

	resultOK       = "ok"
	resultInvalid  = "invalid"
	resultMismatch = "network_mismatch"
)

// NetworkMismatchError is returned when a payment request is for a network
// other than the wallet's.
type NetworkMismatchError struct {
	// Expected is the wallet's network.
	Expected wallet.Network
	// Got is the payment request's network.
	Got wallet.Network
}

func (e *NetworkMismatchError) Error() string {
	return fmt.Sprintf("Payment request is for %s but this wallet is on %s", e.Got, e.Expected)
}

// Is makes errors.Is(err, ErrNetworkMismatch) true.
func (e *NetworkMismatchError) Is(target error) bool {
	return target == ErrNetworkMismatch
}

// parseError carries the parser's reason for rejecting a payment string. The
// message shown is always ErrInvalidPaymentRequest's.
type parseError struct {
	err error
}

func (e *parseError) Error() string {
	return ErrInvalidPaymentRequest.Error()
}

func (e *parseError) Unwrap() error {
	return e.err
}

func (e *parseError) Is(target error) bool {
	return target == ErrInvalidPaymentRequest
}

// Parser recognizes payment strings. waila.Parser is the production
// implementation.
type Parser interface {
	Parse(string) (*waila.Params, error)
}

// Resolver resolves payment strings against the wallet network.
type Resolver struct {
	parser Parser
	log    wallet.Logger
	rec    metrics.Recorder
}

// NewResolver is the constructor for a Resolver. A nil logger or recorder
// disables logging or metrics.
func NewResolver(parser Parser, log wallet.Logger, rec metrics.Recorder) *Resolver {
	if log == nil {
		log = wallet.Disabled
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Resolver{
		parser: parser,
		log:    log,
		rec:    rec,
	}
}

// Resolve parses raw and reconciles its network with the local wallet network.
// Errors are ErrInvalidPaymentRequest for anything the parser rejects, or a
// *NetworkMismatchError.
func (r *Resolver) Resolve(raw string, local wallet.Network) (*Descriptor, error) {
	if !local.Valid() {
		return nil, fmt.Errorf("invalid local network %s", local)
	}
	start := time.Now()
	defer func() {
		r.rec.ObserveLatency(resolveLatency, time.Since(start), map[string]string{metrics.LabelNetwork: local.String()})
	}()

	params, err := r.parse(raw)
	if err != nil {
		r.log.Debugf("Payment request rejected: %v", err)
		r.count(local, resultInvalid)
		return nil, &parseError{err}
	}

	net, err := reconcileNetwork(params.Network, local)
	if err != nil {
		r.log.Debugf("Payment request rejected: %v", err)
		r.count(local, resultMismatch)
		return nil, err
	}

	target, err := newTarget(params)
	if err != nil {
		r.log.Errorf("Parser returned an unusable result for a %s payment request: %v", net, err)
		r.count(local, resultInvalid)
		return nil, &parseError{err}
	}

	r.count(local, resultOK)
	return &Descriptor{
		Original: params.Original,
		Network:  net,
		Target:   target,
	}, nil
}

// ResolveString is Resolve for a network given by name. An unknown network
// name is a configuration error, not an ErrInvalidPaymentRequest.
func (r *Resolver) ResolveString(raw, localNet string) (*Descriptor, error) {
	net, err := wallet.NetFromString(localNet)
	if err != nil {
		return nil, err
	}
	return r.Resolve(raw, net)
}

func (r *Resolver) count(net wallet.Network, result string) {
	r.rec.IncCounter(resolveEvent, map[string]string{
		metrics.LabelNetwork: net.String(),
		metrics.LabelResult:  result,
	})
}

// parse calls the parser, converting a panic to an error.
func (r *Resolver) parse(raw string) (params *waila.Params, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Errorf("Payment string parser panicked: %v", p)
			params, err = nil, fmt.Errorf("parser panic: %v", p)
		}
	}()
	params, err = r.parser.Parse(raw)
	if err == nil && params == nil {
		err = errors.New("parser returned no result")
	}
	return params, err
}

// reconcileNetwork picks the descriptor network. A payment request without a
// network gets the local network. Signet is sometimes labeled testnet, so a
// testnet request is accepted by a signet wallet.
func reconcileNetwork(parsed *wallet.Network, local wallet.Network) (wallet.Network, error) {
	switch {
	case parsed == nil, *parsed == local:
		return local, nil
	case *parsed == wallet.Testnet && local == wallet.Signet:
		return wallet.Signet, nil
	}
	return 0, &NetworkMismatchError{Expected: local, Got: *parsed}
}
