// Package store implements the sync orchestrator: the single owner of
// the in-memory collection state and the only writer to the local
// durable cache.
//
// # Read Path
//
// Startup is stale-while-revalidate. Open paints whatever the cache
// holds, synchronously and without touching the network, and reports
// the initial-loading flag as finished when both activities and
// hotspots were cached (an operator never stares at a spinner when
// there is something to show). Revalidate then fans out concurrent
// fetches for all four collections, replaces state with the
// authoritative result, and re-persists the cache. A fetch failure with
// cached data on screen degrades to a transient "showing cached data"
// status; a fetch failure with an empty cache is the one hard error
// (ErrNoLocalData) and the caller decides how to block.
//
// # Write Path
//
// Every mutation is optimistic: the collection is updated in memory
// first, then the remote call runs. Success keeps the optimistic value
// (no confirming re-read) and re-persists the collection to the cache.
// Failure rolls back: removal by id for creates, re-insertion of the
// captured record for deletes, a recovery refetch of the whole
// collection for updates (falling back to the captured pre-image if
// the refetch also fails), restoration of the previous document for
// settings, and removal of the exact attempted id set for batches.
// State is always consistent by the time a mutation returns; the
// returned error reports what happened but requires no cleanup from
// the caller.
//
// Mutations for one record id are serialized: a second call while the
// first is in flight is rejected with ErrMutationInFlight so racing
// rollbacks cannot corrupt state.
//
// # Status
//
// Operations drive a small indicator machine, idle -> syncing ->
// {success, error} -> idle, where the closing transition is an
// auto-timeout (success after 2s, error after 5s, both configurable).
// A timer from an older operation never clears a newer status.
// Consumers observe state changes through Subscribe.
package store
