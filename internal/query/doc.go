// Package query is a keyed cache of server data with fetch deduplication and invalidation.
//
// # Reads
//
// [Cache.Read] never blocks. Fresh data is returned as is; otherwise a fetch starts, or an already
// running fetch for the key is joined, and the caller gets [StatusPending] with the last good data.
// [Cache.Fetch] does the same and waits. Fetch failures are kept on the entry as [*FetchError] next to
// the last good data instead of being thrown away.
//
// # Epochs
//
// Each entry has an epoch that advances whenever a fetch starts or the entry is invalidated. A fetch
// remembers the epoch it started under and its result is committed only if that is still the entry's
// epoch when it returns. An invalidation therefore orphans whatever is in flight, and a slow response
// can never overwrite data written after it.
//
// # Mutations
//
// [Cache.Mutate] runs one write and, if it succeeds, invalidates every entry under the given key
// prefixes. Entries that have subscribers are refetched immediately.
//
// # Eviction
//
// Entries without subscribers or running fetches are removed once they have not been read for
// [Opts.GCTime]. The clock is injectable ([clockwork.Clock]) so tests can drive it.
package query
