// Package fill implements the resumable batch copy engine.
//
// Rows move from a source table to a destination table in ascending key
// order, one batch per transaction, so an interruption between batches
// loses nothing: the next invocation recomputes its starting cursor
// from the destination's current maximum key. ON CONFLICT DO NOTHING is
// the sole defense against double insertion from overlapping resumed
// ranges, which makes re-running a failed command the entire recovery
// procedure.
//
// # Termination
//
// A run ends when a batch inserts zero rows. This is deliberate: a
// batch can insert zero new rows via conflict-skipping while keys
// remain below the known maximum, so a position comparison and the
// zero-row rule are not equivalent, and the zero-row rule is the one
// that also handles a fully pre-populated destination.
package fill
