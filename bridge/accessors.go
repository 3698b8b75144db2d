package bridge

import (
	"github.com/wippyai/wmbridge/errors"
	"github.com/wippyai/wmbridge/resource"
)

// Client returns a snapshot of a client. Invalidated identities yield the
// zero value and a stale_access error without consulting the host.
func (b *Bridge) Client(id resource.Handle) (ClientState, error) {
	if !b.registry.IsValid(id) {
		return ClientState{}, b.stale(id, "client")
	}
	c, ok := b.host.Client(id)
	if !ok {
		return ClientState{}, errors.NotFound(errors.PhaseBridge, id.String(), "client")
	}
	return c, nil
}

// Monitor returns a snapshot of a monitor.
func (b *Bridge) Monitor(id resource.Handle) (MonitorState, error) {
	if !b.registry.IsValid(id) {
		return MonitorState{}, b.stale(id, "monitor")
	}
	m, ok := b.host.Monitor(id)
	if !ok {
		return MonitorState{}, errors.NotFound(errors.PhaseBridge, id.String(), "monitor")
	}
	return m, nil
}

// SetTags moves a client to the given tag mask.
func (b *Bridge) SetTags(id resource.Handle, tags uint32) error {
	if !b.registry.IsValid(id) {
		return b.stale(id, "set_tags")
	}
	if tags == 0 {
		return errors.InvalidInput(errors.PhaseBridge, "empty tag mask")
	}
	return b.host.SetTags(id, tags)
}

// SetFloating toggles floating for a client.
func (b *Bridge) SetFloating(id resource.Handle, floating bool) error {
	if !b.registry.IsValid(id) {
		return b.stale(id, "set_floating")
	}
	return b.host.SetFloating(id, floating)
}

// SetFullscreen toggles fullscreen for a client.
func (b *Bridge) SetFullscreen(id resource.Handle, fullscreen bool) error {
	if !b.registry.IsValid(id) {
		return b.stale(id, "set_fullscreen")
	}
	return b.host.SetFullscreen(id, fullscreen)
}

// Focus gives keyboard focus to a client.
func (b *Bridge) Focus(id resource.Handle) error {
	if !b.registry.IsValid(id) {
		return b.stale(id, "focus")
	}
	return b.host.Focus(id)
}

// Kill asks a client to close.
func (b *Bridge) Kill(id resource.Handle) error {
	if !b.registry.IsValid(id) {
		return b.stale(id, "kill")
	}
	return b.host.Kill(id)
}
