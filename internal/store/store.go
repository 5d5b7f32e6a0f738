// Package store provides the replicated game state contract: a
// key-addressed store with atomic multi-field updates per write and
// eventually-consistent propagation to other holders.
package store

import (
	"github.com/aspagon17/piano-app/internal/game"
)

type Store interface {
	// Snapshot returns the most recently observed state.
	Snapshot() game.State

	// Update applies fn as a single atomic write. Partial application
	// is never observable by other participants.
	Update(fn func(*game.State))

	// Subscribe registers a callback for state changes, including the
	// store's own writes. The returned func cancels the subscription.
	Subscribe(fn func(game.State)) (cancel func())
}
