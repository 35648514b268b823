// Package badger implements storage.RecordRepository on an embedded BadgerDB store.
//
// Records live under "rec:<id>" as JSON values. Records without an embedding are
// also indexed under "recmiss:<id>"; the index is kept in step with every write so
// FindMissingEmbeddings reads only eligible ids. Numeric ids are encoded big-endian
// so keys sort in numeric order.
package badger
