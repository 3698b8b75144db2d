// Package script embeds a Lua interpreter (gopher-lua) and exposes the
// bridge to it as the global "wm" module.
//
// Host objects reach Lua as userdata of type wm.client or wm.monitor. Each
// userdata owns one bridge.Ref. When the Go collector reclaims a userdata a
// cleanup queues its Ref, and Engine.Collect releases queued Refs on the
// caller's goroutine, so registry accounting never runs concurrently with
// the host loop. Engine.Close releases everything that is still live.
//
// Callbacks registered with wm.connect run synchronously inside the event
// bus and receive (subject, payload). A subject whose wrap fails arrives as
// nil.
package script
