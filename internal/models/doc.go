// Package models holds the plain data types shared across the catalog,
// services, and labeling layers: the track record, the audio feature
// vector, and the canonical dataset column order.
//
// Records are serialized to JSON before being written to the catalog; the
// struct tags here are the storage schema. Changing a tag is a breaking
// change for existing catalogs.
package models
