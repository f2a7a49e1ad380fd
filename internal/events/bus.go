// Package events carries domain events between modules inside the process.
// Delivery is synchronous: publishing returns after every subscriber ran, so
// a tenant termination and the resulting unit vacancy commit in one request.
package events

import (
	"context"
	"sync"
	"time"
)

// TenantTerminated is emitted when a tenant's lease is terminated.
type TenantTerminated struct {
	TenantID int64
	UnitID   int64
	At       time.Time
}

// TenantTerminatedHandler consumes TenantTerminated events.
type TenantTerminatedHandler func(ctx context.Context, evt TenantTerminated) error

// Bus is a synchronous in-process event bus.
type Bus struct {
	mu               sync.RWMutex
	tenantTerminated []TenantTerminatedHandler
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// SubscribeTenantTerminated registers a handler for tenant terminations.
func (b *Bus) SubscribeTenantTerminated(fn TenantTerminatedHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tenantTerminated = append(b.tenantTerminated, fn)
}

// PublishTenantTerminated delivers the event to all subscribers in order.
// The first handler error aborts delivery and is returned to the publisher.
func (b *Bus) PublishTenantTerminated(ctx context.Context, evt TenantTerminated) error {
	b.mu.RLock()
	handlers := make([]TenantTerminatedHandler, len(b.tenantTerminated))
	copy(handlers, b.tenantTerminated)
	b.mu.RUnlock()

	for _, fn := range handlers {
		if err := fn(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}
