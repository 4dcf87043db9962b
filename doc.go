/*
Package memdb implements an in-memory document collection store: the
current version of every document plus secondary indexes over it.

We implement:

1. Bulk writes with pluggable conflict detection (Categorizer), reporting
per-document errors without aborting the batch.

2. Range queries over any declared index, with an in-memory filter, sort and
skip/limit window.

3. A change feed ordered by last-write time, resumable from a checkpoint.

4. Cleanup of old tombstones.

5. Shared, reference-counted collection states with per-handle change streams.

# Technical Details

**Documents.**
A document is a map with a string primary key and the reserved fields
_deleted, _meta.lwt and _rev. Deleting is writing a tombstone (_deleted=true);
tombstones stay until Cleanup purges them. Documents are deep-copied through
msgpack on write, so stored state never aliases caller maps.

**Index set.**
Every collection maintains, in this order: each schema index prefixed with
_deleted, [_deleted, pk], [_deleted, _meta.lwt, pk] for cleanup, and
[_meta.lwt, pk] for the change feed. The latter is not tombstone-prefixed so
deletions show up in the feed. Queries always scan the _deleted=false part of
an index.

**Keys.**
Index keys are tuples encoded with an order-preserving IndexEncoding (package
keyenc by default), so range scans are plain string comparisons. Entries live
in a B-tree ordered by (key, write sequence); equal keys keep insertion order.
The document map records each document's keys and sequence, which makes the
stale entry of an update directly addressable.

**Concurrency.**
A collection state has one RWMutex: writes and cleanup are exclusive, reads
are shared. Change batches are published while the write lock is held, so
subscribers see them in application order.
*/
package memdb
