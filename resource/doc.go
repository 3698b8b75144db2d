// Package resource provides generational identities for host objects.
//
// Every compositor entity that the scripting side can observe (clients,
// monitors) lives in an Arena slot and is named by a Handle. A Handle packs
// the slot index with the slot's generation:
//
//	arena := resource.NewArena()
//
//	h, err := arena.Create(resource.TypeClient, client)
//	value, ok := arena.Get(h)
//
//	arena.Drop(h)
//	_, ok = arena.Get(h) // false, even after the slot is reused
//
// # Identity Reuse
//
// A raw address can be recycled by an unrelated object once the first one is
// freed. Dropping a slot increments its generation, so the new occupant gets
// a Handle that differs from every Handle issued before. Code keyed by Handle
// (the reference registry, subscriber payloads) therefore never confuses an
// old object with its successor.
//
// # Null Identity
//
// Handle 0 (Null) is reserved. Index 0 is never allocated, so any Handle with
// a zero index is null regardless of its generation bits.
package resource
