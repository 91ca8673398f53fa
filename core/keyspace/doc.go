// Package keyspace abstracts the two primary key domains the batch
// engines support: auto-incrementing integers and lexicographically
// sortable ULID strings.
//
// The asymmetry between the domains is concentrated here so every other
// component can treat "batch of N rows starting after K" uniformly. The
// integer domain can bound a batch and predict the next cursor by
// arithmetic; the ULID domain has neither subtraction nor addition, so
// its predicates are open-ended (paired with ORDER BY ... LIMIT at the
// call site) and advancing the cursor costs one extra round trip.
//
// A Key is opaque and bound to the keyspace that produced it. Mixing
// domains in one operation panics: it is a programming error, not a
// runtime data condition.
package keyspace
