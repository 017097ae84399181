// Package catalog implements the embedded track catalog on BadgerDB.
//
// The store is partitioned into four key namespaces:
//
//	detail:<track_id>           track metadata (JSON)
//	audio:<track_id>            audio feature vector (JSON) or the null marker
//	label:<feature>:<track_id>  single-byte rating
//	feature:<name>              feature directory entry
//
// The feature directory makes the set of declared label dimensions an
// explicit record rather than something recovered by enumerating key
// prefixes. Labels are only accepted for declared features.
//
// Writes are atomic per key. Batch operations (population) are not
// transactional across keys; they are idempotent instead, so an
// interrupted batch is repaired by running it again.
package catalog
