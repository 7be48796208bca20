// Package persist provides a JSONL-backed [txn.Store].
//
// # File Format
//
// One JSON object per line, appended on every commit. Each row holds the body
// ID, its type name, the zstd-compressed snapshot, the uncompressed size and a
// BLAKE2b-256 checksum of the snapshot. When the file is loaded the last row
// for an ID wins; [Store.Compact] rewrites the file keeping only those rows.
//
// # Concurrency
//
// All rows are cached in memory. Reads take a shared lock; Put and Compact
// hold the exclusive lock for the whole write.
package persist
