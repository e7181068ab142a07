// Package redaction defines the data model shared by the redaction core:
// users and their per-data-type privacy settings, location samples, event
// records, redaction intervals and the store interfaces the core reads from
// and deletes through.
//
// # Privacy Modes
//
// Every data type of a user is in one of four modes:
//
//   - on: records are visible
//   - off: records are hidden from reads
//   - time: records inside a daily wall-clock window are redacted
//   - location: records captured while the user dwelt inside a geofence
//     are redacted
//
// The stored user document keeps the mode and the policy parameters in
// separate maps. User.Policy resolves one data type into a typed Policy
// (Visible, Hidden, *TimePolicy or *LocationPolicy), returning a
// *MissingPolicyError or *PolicyParseError instead of a half-filled value.
//
// # Intervals
//
// An Interval is a range of epoch-millisecond timestamps. Both consumers
// treat it as open: a record is covered iff StartTS < timestamp < EndTS.
// Intervals are computed on demand and never persisted.
//
// # Stores
//
// The core never opens connections. Callers inject a UserStore, a
// LocationStore and an EventStore; see the storage package for the Mongo,
// SQLite, policy-file and in-memory implementations.
package redaction
