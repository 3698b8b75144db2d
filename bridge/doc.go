// Package bridge is the context object that sits between a compositor and an
// embedded scripting engine.
//
// A Bridge owns one reference registry and one event bus and reads host state
// through the Host interface:
//
//	b := bridge.New(host, bridge.DefaultOptions())
//	defer b.Close()
//
//	ref, err := b.Wrap(clientID)  // engine now holds a reference
//	defer ref.Release()           // called by the engine's finalizer
//
//	title, err := b.Client(ref.ID())
//
// # Destruction Protocol
//
// When the host destroys an object it calls NotifyDestroyed before freeing
// it. Subscribers of object-unmapped run while the identity is still valid
// and can read its final state; the identity is invalidated afterwards, and
// every accessor then returns a stale_access error instead of reaching the
// host.
//
// # Multiple Instances
//
// Nothing in this package is global. Each Bridge has its own registry, bus
// and session id, so tests can build as many as they need.
package bridge
