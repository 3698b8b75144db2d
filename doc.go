// Package wmbridge connects a window manager's object graph to an embedded
// Lua interpreter without letting scripts touch destroyed objects.
//
// The host compositor owns clients and monitors. Scripts receive wrapped
// references to them and subscribe to lifecycle events. A reference
// registry tracks how many wrappers exist per object and whether the
// object is still alive, so a script that keeps a window past its
// destruction reads nil instead of freed memory.
//
// # Architecture Overview
//
//	wmbridge/            Runtime: compositor + bridge + engine wired together
//	├── resource/        Generational handles and the arena that issues them
//	├── registry/        Reference counts and validity per handle
//	├── events/          Event kinds and the bounded, ordered subscriber bus
//	├── bridge/          Context object: wrap/unwrap, destruction protocol, accessors
//	├── script/          gopher-lua binding: the wm module and userdata wrappers
//	├── host/            In-memory compositor model used by the CLI and tests
//	├── config/          viper settings and zap logger construction
//	├── errors/          Structured error types
//	└── cmd/wmbridge/    check and sim commands
//
// # Quick Start
//
//	model := host.New(host.Options{})
//	rt, err := wmbridge.New(model, wmbridge.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	if err := rt.LoadRC("rc.lua"); err != nil {
//	    log.Fatal(err)
//	}
//
//	mon, _ := model.AddMonitor("eDP-1", bridge.Box{Width: 1920, Height: 1080})
//	model.MapClient("foot", "terminal", mon) // rc callbacks run here
//
// # Destruction Protocol
//
// A host destroying an object calls Bridge.NotifyDestroyed before freeing
// it. Subscribers see object-unmapped while the object is still valid;
// afterwards the handle is invalid and every accessor returns a
// stale_access error. The handle is purged once the last script wrapper is
// released.
//
// # Thread Safety
//
// Nothing here is safe for concurrent use. The compositor loop owns the
// runtime and calls into it from one goroutine. The only cross-goroutine
// step is the collector cleanup that queues reclaimed wrappers; the queue is
// drained by Engine.Collect on the loop goroutine.
//
// # Reclaiming References
//
// Wrappers are released when the Go collector reclaims their userdata and
// the loop next calls Engine.Collect, and at the latest when the engine is
// closed. Tests should not assume immediate reclamation.
package wmbridge
