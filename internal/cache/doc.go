// Package cache provides a keyed, TTL-bound value store used to skip
// redundant polling calls.
//
// Entries are never evicted. An entry whose expiry has passed reads as a miss
// and is overwritten by the next [Store.Set]; concurrent writers to the same
// key resolve last-writer-wins.
//
// [Memory] keeps entries in process memory. [Redis] stores msgpack-encoded
// values with a PX expiry so separate CLI invocations can share results.
package cache
