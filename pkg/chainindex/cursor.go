package chainindex

import "github.com/chainkit/chainkit/pkg/chainindex/checkpoint"

// Cursor and Checkpoint are aliases onto the leaf pkg/chainindex/checkpoint
// package, which both this package and pkg/chainindex/storage import
// directly — keeping the dependency one-directional avoids the import
// cycle a Cursor/Checkpoint defined here would otherwise create with
// storage.Store.
type Cursor = checkpoint.Cursor
type Checkpoint = checkpoint.Checkpoint

// NewCheckpoint builds a Checkpoint for indexerId at cursor, stamped at ts.
var NewCheckpoint = checkpoint.New
