// Package host is an in-memory compositor model used to drive the bridge
// without a display server.
//
// It keeps monitors, clients in mapping order and the focused client, issues
// generational identities from a resource.Arena, and reports every change to
// an attached Notifier:
//
//	m := host.New(host.Options{})
//	b := bridge.NewWithDefaults(m)
//	m.Attach(b)
//
//	mon, _ := m.AddMonitor("eDP-1", bridge.Box{Width: 1920, Height: 1080})
//	c, _ := m.MapClient("foot", "~", mon)  // object-mapped, focus-gained
//	m.UnmapClient(c)                       // focus-lost, object-unmapped
//
// Destruction always goes through Notifier.NotifyDestroyed before the arena
// slot is dropped.
package host
