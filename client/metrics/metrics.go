// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package metrics records resolver and in-flight checker events.
package metrics

import "time"

// Label keys understood by the recorders.
const (
	LabelNetwork = "network"
	LabelResult  = "result"
)

// Recorder records events and operation latencies.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
