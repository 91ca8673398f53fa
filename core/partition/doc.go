// Package partition manages the partitioning metadata of a table: the
// settings record carried in its comment, creation of child partitions
// from calendar ranges, and the time filter derived from the partitions
// that already exist.
//
// The time filter is what keeps a fill or sync honest: rows outside the
// span covered by the destination's partitions would be rejected by the
// database, so the engines never select them in the first place.
package partition
