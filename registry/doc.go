// Package registry tracks how many scripting-side references exist for each
// host object and whether that object is still alive.
//
// The host and the scripting engine run on independent timelines: the host
// destroys objects whenever it likes, the engine reclaims wrapper values
// whenever its collector runs. The Registry reconciles the two with a
// two-phase rule:
//
//	Acquire(id)     refs++            (new wrapper handed to the engine)
//	Release(id)     refs--            (engine reclaimed a wrapper)
//	Invalidate(id)  valid = false     (host destroyed the object)
//
// A handle is purged only when it is both invalid and unreferenced. A valid
// handle with zero references stays in place so the object can be wrapped
// again. Invalidate applies the purge rule immediately, so an object that is
// destroyed while nothing references it does not linger.
//
// # Usage Errors
//
// Null or unknown identities and releases without a matching acquire are
// logged and ignored. The Registry never fails the host because of scripting
// side misuse.
//
// # Teardown
//
// Close reports every handle that still has references as a leak, then
// clears the table. Calls made after Close (for example a late finalizer)
// are no-ops.
//
// # Thread Safety
//
// Registry is NOT thread-safe. It is owned by the host's main thread, which
// also drives the scripting engine.
package registry
