// Package storage declares the persistence capability the index loop
// depends on. Per spec §4.10/§9, durable storage of decoded events and
// checkpoints is an external collaborator: this package only names the
// interface, never provides an implementation. It depends only on the
// leaf pkg/chainindex/checkpoint package, not on pkg/chainindex itself,
// so that package can in turn depend on this one without an import cycle.
package storage

import (
	"context"

	"github.com/chainkit/chainkit/pkg/chaincodec/evm"
	"github.com/chainkit/chainkit/pkg/chainindex/checkpoint"
)

// EventStore persists decoded events produced by the index loop.
type EventStore interface {
	PutEvents(ctx context.Context, events []*evm.DecodedEvent) error
}

// CheckpointStore persists and loads indexer checkpoints, idempotently:
// writing the same checkpoint twice must be safe.
type CheckpointStore interface {
	SaveCheckpoint(ctx context.Context, cp checkpoint.Checkpoint) error
	LoadCheckpoint(ctx context.Context, indexerId string) (checkpoint.Checkpoint, bool, error)
}

// Store is the full persistence capability the Loop requires.
type Store interface {
	EventStore
	CheckpointStore
}
