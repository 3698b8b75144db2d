package host

import (
	"github.com/wippyai/wmbridge/bridge"
	"github.com/wippyai/wmbridge/errors"
	"github.com/wippyai/wmbridge/events"
	"github.com/wippyai/wmbridge/resource"
)

// Exists reports whether id names a live object.
func (m *Model) Exists(id resource.Handle) bool {
	return m.arena.Contains(id)
}

// Type returns the entity type of id.
func (m *Model) Type(id resource.Handle) (resource.Type, bool) {
	return m.arena.Type(id)
}

// Client returns a snapshot of a client.
func (m *Model) Client(id resource.Handle) (bridge.ClientState, bool) {
	c, ok := m.client(id)
	if !ok {
		return bridge.ClientState{}, false
	}
	return c.state, true
}

// Monitor returns a snapshot of a monitor.
func (m *Model) Monitor(id resource.Handle) (bridge.MonitorState, bool) {
	mm, ok := m.monitor(id)
	if !ok {
		return bridge.MonitorState{}, false
	}
	return mm.state, true
}

// Clients returns client ids in mapping order.
func (m *Model) Clients() []resource.Handle {
	return append([]resource.Handle(nil), m.clients...)
}

// Monitors returns monitor ids in creation order.
func (m *Model) Monitors() []resource.Handle {
	return append([]resource.Handle(nil), m.monitors...)
}

// Focused returns the focused client, or Null.
func (m *Model) Focused() resource.Handle {
	return m.focused
}

// SetTags moves a client to a tag mask.
func (m *Model) SetTags(id resource.Handle, tags uint32) error {
	c, ok := m.client(id)
	if !ok {
		return errors.NotFound(errors.PhaseHost, id.String(), "client")
	}
	c.state.Tags = tags
	return nil
}

// SetFloating toggles floating and emits floating-changed when it changes.
func (m *Model) SetFloating(id resource.Handle, floating bool) error {
	c, ok := m.client(id)
	if !ok {
		return errors.NotFound(errors.PhaseHost, id.String(), "client")
	}
	if c.state.Floating == floating {
		return nil
	}
	c.state.Floating = floating
	m.notifier.Notify(events.FloatingChanged, id, floating)
	return nil
}

// SetFullscreen toggles fullscreen. Entering fullscreen covers the monitor;
// leaving it restores the previous geometry.
func (m *Model) SetFullscreen(id resource.Handle, fullscreen bool) error {
	c, ok := m.client(id)
	if !ok {
		return errors.NotFound(errors.PhaseHost, id.String(), "client")
	}
	if c.state.Fullscreen == fullscreen {
		return nil
	}
	c.state.Fullscreen = fullscreen
	if fullscreen {
		c.restore = c.state.Geometry
		if mon, ok := m.monitor(c.state.Monitor); ok {
			c.state.Geometry = mon.state.Geometry
		}
	} else {
		c.state.Geometry = c.restore
	}
	m.notifier.Notify(events.FullscreenChanged, id, fullscreen)
	return nil
}

// Focus gives focus to a client.
func (m *Model) Focus(id resource.Handle) error {
	if _, ok := m.client(id); !ok {
		return errors.NotFound(errors.PhaseHost, id.String(), "client")
	}
	m.setFocus(id)
	return nil
}

// Kill closes a client. Simulated clients exit immediately. Killing a
// client that is already being destroyed does nothing.
func (m *Model) Kill(id resource.Handle) error {
	return m.UnmapClient(id)
}
