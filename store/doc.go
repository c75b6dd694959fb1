// Package store implements the concurrent keyed front end of the feature
// store: a sharded map from (instrument, feature) series keys to bounded
// buffers, plus a write-ahead pending list for batched ingestion.
//
// Data flows one way:
//
//	┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	│  Producers  │────▶│  Pending    │────▶│  Bounded    │
//	│  (insights) │     │  (WAL)      │     │  Buffers    │
//	└─────────────┘     └─────────────┘     └─────────────┘
//	                       Commit()               │
//	                                              ▼
//	                                      Last / Lag / Interval / Window
//
// Direct inserts bypass the pending list and merge immediately. Batch and
// commit merges partition insights by series key, then fan out per key to
// sort, merge and TTL-evict in parallel; each key is handled by exactly one
// task per merge.
package store
