// Package syncer implements the batch reconciliation engine.
//
// The source table is processed in ascending-key windows. For each
// window the engine fetches the matching key range from the target,
// diffs the two, and applies per-row INSERT, UPDATE, and DELETE inside
// one transaction. A target row is only ever deleted when its key falls
// inside the fetched window, so a pass never scans or mutates the
// target beyond the slice of the source it has actually observed.
//
// The engine is domain-agnostic over ordered keys: ordering happens in
// the database, and in-process the rows of one window are matched by a
// canonical textual form of the key.
//
// Dry-run mode performs all the counting and none of the mutations.
package syncer
