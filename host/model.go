package host

import (
	"go.uber.org/zap"

	"github.com/wippyai/wmbridge/bridge"
	"github.com/wippyai/wmbridge/errors"
	"github.com/wippyai/wmbridge/events"
	"github.com/wippyai/wmbridge/resource"
)

// Notifier receives lifecycle notifications. *bridge.Bridge implements it.
type Notifier interface {
	NotifyMapped(id resource.Handle)
	NotifyDestroyed(id resource.Handle)
	NotifyFocus(prev, next resource.Handle)
	Notify(kind events.Kind, subject resource.Handle, payload any)
}

type nopNotifier struct{}

func (nopNotifier) NotifyMapped(resource.Handle)                 {}
func (nopNotifier) NotifyDestroyed(resource.Handle)              {}
func (nopNotifier) NotifyFocus(resource.Handle, resource.Handle) {}
func (nopNotifier) Notify(events.Kind, resource.Handle, any)     {}

// DefaultLayout is the layout symbol given to new monitors.
const DefaultLayout = "[]="

// Options configures a Model.
type Options struct {
	Logger *zap.Logger
}

type client struct {
	state   bridge.ClientState
	restore bridge.Box
	// dying is set once destruction starts. Nested destroy and focus
	// requests for the client are ignored from then on.
	dying bool
}

type monitor struct {
	state bridge.MonitorState
	dying bool
}

// Model is an in-memory compositor: monitors, clients in mapping order and
// a single focused client. It implements bridge.Host.
type Model struct {
	arena    *resource.Arena
	notifier Notifier
	log      *zap.Logger
	clients  []resource.Handle
	monitors []resource.Handle
	focused  resource.Handle
}

var _ bridge.Host = (*Model)(nil)

// New creates an empty model.
func New(opts Options) *Model {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Model{
		arena:    resource.NewArena(),
		notifier: nopNotifier{},
		log:      log.Named("host"),
	}
}

// Attach routes notifications to n. A nil n disables notifications.
func (m *Model) Attach(n Notifier) {
	if n == nil {
		m.notifier = nopNotifier{}
		return
	}
	m.notifier = n
}

// AddMonitor creates an output showing tag 1.
func (m *Model) AddMonitor(name string, geometry bridge.Box) (resource.Handle, error) {
	mon := &monitor{state: bridge.MonitorState{
		Name:     name,
		Layout:   DefaultLayout,
		Geometry: geometry,
		Tags:     1,
	}}
	id, err := m.arena.Create(resource.TypeMonitor, mon)
	if err != nil {
		return resource.Null, errors.Wrap(errors.PhaseHost, errors.KindClosed, err, "add monitor")
	}
	m.monitors = append(m.monitors, id)
	m.log.Debug("monitor added", zap.Stringer("id", id), zap.String("name", name))
	m.notifier.NotifyMapped(id)
	return id, nil
}

// RemoveMonitor destroys an output. Its clients move to the first remaining
// monitor.
func (m *Model) RemoveMonitor(id resource.Handle) error {
	mon, ok := m.monitor(id)
	if !ok {
		return errors.NotFound(errors.PhaseHost, id.String(), "monitor")
	}
	if mon.dying {
		return nil
	}
	mon.dying = true

	m.monitors = remove(m.monitors, id)
	fallback := resource.Null
	if len(m.monitors) > 0 {
		fallback = m.monitors[0]
	}
	for _, cid := range m.clients {
		if c, ok := m.client(cid); ok && c.state.Monitor == id {
			c.state.Monitor = fallback
		}
	}

	m.notifier.NotifyDestroyed(id)
	m.arena.Drop(id)
	m.log.Debug("monitor removed", zap.Stringer("id", id))
	return nil
}

// MapClient creates a client on mon, sized to the monitor, and focuses it.
func (m *Model) MapClient(appID, title string, mon resource.Handle) (resource.Handle, error) {
	c := &client{state: bridge.ClientState{
		AppID:   appID,
		Title:   title,
		Monitor: mon,
		Tags:    1,
	}}
	if mm, ok := m.monitor(mon); ok {
		c.state.Geometry = mm.state.Geometry
		c.state.Tags = mm.state.Tags
	} else if !mon.IsNull() {
		return resource.Null, errors.NotFound(errors.PhaseHost, mon.String(), "monitor")
	}

	id, err := m.arena.Create(resource.TypeClient, c)
	if err != nil {
		return resource.Null, errors.Wrap(errors.PhaseHost, errors.KindClosed, err, "map client")
	}
	m.clients = append(m.clients, id)
	m.log.Debug("client mapped", zap.Stringer("id", id), zap.String("app_id", appID))

	m.notifier.NotifyMapped(id)
	if m.arena.Contains(id) {
		m.setFocus(id)
	}
	return id, nil
}

// UnmapClient destroys a client. A focused client loses focus first; focus
// then moves to the most recently mapped remaining client.
func (m *Model) UnmapClient(id resource.Handle) error {
	c, ok := m.client(id)
	if !ok {
		return errors.NotFound(errors.PhaseHost, id.String(), "client")
	}
	if c.dying {
		return nil
	}
	c.dying = true

	wasFocused := m.focused == id
	if wasFocused {
		m.setFocus(resource.Null)
	}

	m.notifier.NotifyDestroyed(id)
	m.clients = remove(m.clients, id)
	m.arena.Drop(id)
	m.log.Debug("client unmapped", zap.Stringer("id", id))

	if wasFocused && m.focused.IsNull() {
		if next, ok := m.lastLiving(); ok {
			m.setFocus(next)
		}
	}
	return nil
}

// lastLiving returns the most recently mapped client not being destroyed.
func (m *Model) lastLiving() (resource.Handle, bool) {
	for i := len(m.clients) - 1; i >= 0; i-- {
		if c, ok := m.client(m.clients[i]); ok && !c.dying {
			return m.clients[i], true
		}
	}
	return resource.Null, false
}

// SetTitle changes a client's title as the application would.
func (m *Model) SetTitle(id resource.Handle, title string) error {
	c, ok := m.client(id)
	if !ok {
		return errors.NotFound(errors.PhaseHost, id.String(), "client")
	}
	if c.state.Title == title {
		return nil
	}
	c.state.Title = title
	m.notifier.Notify(events.TitleChanged, id, title)
	return nil
}

// Close destroys every client and monitor through the normal protocol and
// releases the object table.
func (m *Model) Close() error {
	for _, id := range append([]resource.Handle(nil), m.clients...) {
		if err := m.UnmapClient(id); err != nil {
			m.log.Debug("client already gone at close", zap.Stringer("id", id), zap.Error(err))
		}
	}
	for _, id := range append([]resource.Handle(nil), m.monitors...) {
		if err := m.RemoveMonitor(id); err != nil {
			m.log.Debug("monitor already gone at close", zap.Stringer("id", id), zap.Error(err))
		}
	}
	return m.arena.Close()
}

func (m *Model) setFocus(id resource.Handle) {
	prev := m.focused
	if prev == id {
		return
	}
	next, ok := m.client(id)
	if ok && next.dying {
		return
	}
	if c, ok := m.client(prev); ok {
		c.state.Focused = false
	}
	if ok {
		next.state.Focused = true
	}
	m.focused = id
	m.notifier.NotifyFocus(prev, id)
}

func (m *Model) client(id resource.Handle) (*client, bool) {
	v, ok := m.arena.GetTyped(id, resource.TypeClient)
	if !ok {
		return nil, false
	}
	return v.(*client), true
}

func (m *Model) monitor(id resource.Handle) (*monitor, bool) {
	v, ok := m.arena.GetTyped(id, resource.TypeMonitor)
	if !ok {
		return nil, false
	}
	return v.(*monitor), true
}

func remove(list []resource.Handle, id resource.Handle) []resource.Handle {
	for i, h := range list {
		if h == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
