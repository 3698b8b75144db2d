package testbed

import (
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/wmbridge/bridge"
	"github.com/wippyai/wmbridge/events"
	"github.com/wippyai/wmbridge/host"
	"github.com/wippyai/wmbridge/resource"
	"github.com/wippyai/wmbridge/script"
)

// stack is a compositor model, a bridge and a script engine wired the way
// a compositor main loop wires them.
type stack struct {
	model  *host.Model
	bridge *bridge.Bridge
	engine *script.Engine
	mon    resource.Handle
	logs   *observer.ObservedLogs
}

func newStack(t *testing.T, rc string) *stack {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	m := host.New(host.Options{Logger: log})
	b := bridge.New(m, bridge.Options{Logger: log})
	m.Attach(b)
	mon, err := m.AddMonitor("eDP-1", bridge.Box{Width: 2560, Height: 1440})
	if err != nil {
		t.Fatalf("add monitor: %v", err)
	}
	e, err := script.New(b, script.Options{})
	if err != nil {
		t.Fatalf("create engine: %v", err)
	}
	if rc != "" {
		if err := e.LoadString(rc); err != nil {
			t.Fatalf("load rc: %v", err)
		}
	}
	s := &stack{model: m, bridge: b, engine: e, mon: mon, logs: logs}
	t.Cleanup(func() { s.shutdown() })
	return s
}

func (s *stack) shutdown() int {
	s.engine.Close()
	s.model.Close()
	return len(s.bridge.Close())
}

func (s *stack) lua(t *testing.T, src string) {
	t.Helper()
	if err := s.engine.LoadString(src); err != nil {
		t.Fatalf("lua: %v", err)
	}
}

func (s *stack) global(name string) lua.LValue {
	return s.engine.L.GetGlobal(name)
}

func (s *stack) mapClient(t *testing.T, appID string) resource.Handle {
	t.Helper()
	id, err := s.model.MapClient(appID, appID, s.mon)
	if err != nil {
		t.Fatalf("map %s: %v", appID, err)
	}
	return id
}

func TestScenario_DestroyObservedWhileValid(t *testing.T) {
	s := newStack(t, `
		inside = nil
		wm.connect("object-unmapped", function(c)
			inside = c:valid() and c:title()
		end)
	`)
	id := s.mapClient(t, "foot")
	s.lua(t, `kept = wm.focused()`)

	if err := s.model.UnmapClient(id); err != nil {
		t.Fatalf("unmap: %v", err)
	}

	if got := lua.LVAsString(s.global("inside")); got != "foot" {
		t.Fatalf("callback saw %q, want a valid snapshot titled foot", got)
	}
	if s.bridge.IsValid(id) {
		t.Fatal("identity still valid after destruction")
	}
	s.lua(t, `after = kept:valid()`)
	if s.global("after") != lua.LFalse {
		t.Fatal("script reference still reports valid")
	}

	// kept plus the callback's subject are still outstanding.
	e, ok := s.bridge.Registry().Lookup(id)
	if !ok || e.Valid || e.Refs != 2 {
		t.Fatalf("entry = %+v, %v", e, ok)
	}

	s.engine.Close()
	if _, ok := s.bridge.Registry().Lookup(id); ok {
		t.Fatal("invalid handle not purged once the engine let go")
	}
}

func TestScenario_CapacityOnUnmapped(t *testing.T) {
	s := newStack(t, `
		tokens = {}
		for i = 1, 32 do
			tokens[i] = wm.connect("object-unmapped", function() end)
		end
		over, err = wm.connect("object-unmapped", function() end)
		removed = wm.disconnect("object-unmapped", tokens[17])
		again = wm.connect("object-unmapped", function() end)
	`)

	if s.global("over") != lua.LNil || !strings.Contains(lua.LVAsString(s.global("err")), "capacity") {
		t.Fatalf("33rd connect = %v, %v", s.global("over"), s.global("err"))
	}
	if s.global("removed") != lua.LTrue {
		t.Fatal("disconnect failed")
	}
	if _, ok := s.global("again").(lua.LNumber); !ok {
		t.Fatalf("connect after disconnect = %v", s.global("again"))
	}
	if n := s.bridge.Bus().Len(events.ObjectUnmapped); n != 32 {
		t.Fatalf("subscribers = %d, want 32", n)
	}
}

func TestScenario_SlotReuseIsNotAliased(t *testing.T) {
	s := newStack(t, "")
	first := s.mapClient(t, "foot")
	s.lua(t, `old = wm.focused()`)
	s.model.UnmapClient(first)

	second := s.mapClient(t, "firefox")
	if second.Index() != first.Index() {
		t.Skipf("slot not reused: %s then %s", first, second)
	}
	if second == first {
		t.Fatal("reused slot produced the same identity")
	}

	s.lua(t, `
		new = wm.focused()
		old_valid = old:valid()
		old_title = old:title()
		new_title = new:title()
		same = old == new
	`)
	if s.global("old_valid") != lua.LFalse || s.global("old_title") != lua.LNil {
		t.Fatal("stale reference resolved to the new occupant")
	}
	if lua.LVAsString(s.global("new_title")) != "firefox" {
		t.Fatalf("new_title = %v", s.global("new_title"))
	}
	if s.global("same") != lua.LFalse {
		t.Fatal("old and new references compare equal")
	}
}

func TestScenario_ReentrantSubscriptionChanges(t *testing.T) {
	s := newStack(t, `
		calls = {}
		local self_token
		self_token = wm.connect("title-changed", function(c, title)
			table.insert(calls, "first:" .. title)
			wm.disconnect("title-changed", self_token)
			wm.connect("title-changed", function(c, title)
				table.insert(calls, "late:" .. title)
			end)
		end)
		wm.connect("title-changed", function(c, title)
			table.insert(calls, "second:" .. title)
		end)
	`)
	id := s.mapClient(t, "foot")

	s.model.SetTitle(id, "a")
	s.model.SetTitle(id, "b")

	tbl := s.global("calls").(*lua.LTable)
	var got []string
	for i := 1; i <= tbl.Len(); i++ {
		got = append(got, lua.LVAsString(tbl.RawGetInt(i)))
	}
	want := []string{"first:a", "second:a", "second:b", "late:b"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", got, want)
	}
}

func TestScenario_KillFromFocusCallback(t *testing.T) {
	s := newStack(t, `
		killed = {}
		wm.connect("focus-gained", function(c)
			if c:app_id() == "popup" then
				c:kill()
			end
		end)
		wm.connect("object-unmapped", function(c)
			table.insert(killed, c:app_id())
		end)
	`)
	keep := s.mapClient(t, "foot")
	popup := s.mapClient(t, "popup")

	if s.model.Exists(popup) {
		t.Fatal("popup survived its focus callback")
	}
	if s.model.Focused() != keep {
		t.Fatalf("focus = %s, want %s", s.model.Focused(), keep)
	}
	tbl := s.global("killed").(*lua.LTable)
	if tbl.Len() != 1 || lua.LVAsString(tbl.RawGetInt(1)) != "popup" {
		t.Fatalf("killed = %v", tbl)
	}
}

func TestScenario_KillDuringFocusLossUnmapsOnce(t *testing.T) {
	s := newStack(t, `
		unmapped = {}
		wm.connect("focus-lost", function(c)
			if c and c:app_id() == "popup" then
				c:kill()
			end
		end)
		wm.connect("object-unmapped", function(c)
			table.insert(unmapped, c and c:app_id() or "nil")
		end)
	`)
	keep := s.mapClient(t, "foot")
	popup := s.mapClient(t, "popup")

	if err := s.model.UnmapClient(popup); err != nil {
		t.Fatalf("unmap popup: %v", err)
	}
	tbl := s.global("unmapped").(*lua.LTable)
	if tbl.Len() != 1 || lua.LVAsString(tbl.RawGetInt(1)) != "popup" {
		t.Fatalf("object-unmapped deliveries = %d, first %q; want one for popup",
			tbl.Len(), lua.LVAsString(tbl.RawGetInt(1)))
	}
	if s.model.Focused() != keep {
		t.Fatalf("focus = %s, want %s", s.model.Focused(), keep)
	}
}

func TestScenario_KillFromUnmappedCallback(t *testing.T) {
	s := newStack(t, `
		n = 0
		wm.connect("object-unmapped", function(c)
			n = n + 1
			c:kill()
		end)
	`)
	id := s.mapClient(t, "foot")
	if err := s.model.UnmapClient(id); err != nil {
		t.Fatalf("unmap: %v", err)
	}
	if n := lua.LVAsNumber(s.global("n")); n != 1 {
		t.Fatalf("callback ran %v times, want 1", n)
	}
	if s.bridge.Registry().IsValid(id) {
		t.Error("identity still valid after destruction")
	}
}

func TestScenario_FailingCallbackIsLogged(t *testing.T) {
	s := newStack(t, `
		after = false
		wm.connect("floating-changed", function() error("bad handler") end)
		wm.connect("floating-changed", function(c, on) after = on end)
	`)
	s.mapClient(t, "mpv")
	s.lua(t, `wm.focused():set_floating(true)`)

	if s.global("after") != lua.LTrue {
		t.Fatal("second subscriber skipped")
	}
	failures := s.logs.FilterMessage("subscriber failed").All()
	if len(failures) != 1 {
		t.Fatalf("subscriber failures logged = %d, want 1", len(failures))
	}
	fields := failures[0].ContextMap()
	if fields["kind"] != "floating-changed" {
		t.Errorf("kind field = %v", fields["kind"])
	}
	if _, ok := fields["token"]; !ok {
		t.Error("token field missing")
	}
}

func TestScenario_ShutdownWithoutLeaks(t *testing.T) {
	s := newStack(t, `
		held = {}
		wm.connect("object-mapped", function(c) table.insert(held, c) end)
	`)
	for _, app := range []string{"foot", "firefox", "mpv"} {
		s.mapClient(t, app)
	}
	if s.engine.Live() == 0 {
		t.Fatal("script holds nothing")
	}

	if leaks := s.shutdown(); leaks != 0 {
		t.Fatalf("leaks = %d", leaks)
	}
	if len(s.logs.FilterMessage("leaked reference").All()) != 0 {
		t.Error("leak logged on clean shutdown")
	}
}

func TestScenario_BridgeClosedBeforeEngine(t *testing.T) {
	s := newStack(t, "")
	s.mapClient(t, "foot")
	s.lua(t, `kept = wm.focused()`)

	leaks := s.bridge.Close()
	if len(leaks) != 1 {
		t.Fatalf("leaks = %d, want 1", len(leaks))
	}
	if len(s.logs.FilterMessage("leaked reference").All()) != 1 {
		t.Error("leak not logged")
	}

	// Late releases against a cleared registry are no-ops.
	s.engine.Collect()
	if err := s.engine.Close(); err != nil {
		t.Fatalf("engine close: %v", err)
	}
	if s.bridge.Registry().Len() != 0 {
		t.Fatal("registry repopulated after close")
	}
}

func TestScenario_IndependentInstances(t *testing.T) {
	a := newStack(t, `n = 0; wm.connect("object-mapped", function() n = n + 1 end)`)
	b := newStack(t, `n = 0`)

	a.mapClient(t, "foot")
	b.mapClient(t, "foot")

	if lua.LVAsNumber(a.global("n")) != 1 || lua.LVAsNumber(b.global("n")) != 0 {
		t.Fatalf("a.n = %v, b.n = %v", a.global("n"), b.global("n"))
	}
	if a.bridge.Session() == b.bridge.Session() {
		t.Fatal("sessions share an id")
	}
}
