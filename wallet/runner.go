// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package wallet

import (
	"context"
	"sync"
)

// Runner is satisfied by types that run until their context is canceled.
type Runner interface {
	Run(ctx context.Context)
}

// Connector is satisfied by types that start goroutines on Connect and
// signal their completion through the returned WaitGroup after the context
// is canceled.
type Connector interface {
	Connect(ctx context.Context) (*sync.WaitGroup, error)
}
