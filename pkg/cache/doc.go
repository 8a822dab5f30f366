// Package cache provides a small generic TTL cache with in-memory and
// Redis backends. The dispatcher keeps its send marks here so a record
// that was already handed to the transport is not sent twice after a
// crash between the send and the status update.
//
// TTL semantics for Set: a positive duration expires the entry after that
// duration, zero uses the configured default and a negative value never
// expires.
package cache
