package script

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/wippyai/wmbridge/errors"
	"github.com/wippyai/wmbridge/events"
	"github.com/wippyai/wmbridge/resource"
)

// subscription adapts a Lua function to events.Handler.
type subscription struct {
	engine *Engine
	kind   events.Kind
	token  events.Token
	fn     *lua.LFunction
}

func (s *subscription) HandleEvent(ev events.Event) error {
	e := s.engine
	if e.closed {
		return errors.Closed(errors.PhaseScript, "engine")
	}
	subject := e.push(ev.Subject)
	payload := e.toLua(ev.Payload)
	return e.L.CallByParam(lua.P{Fn: s.fn, NRet: 0, Protect: true}, subject, payload)
}

// Release drops the engine's hold on the Lua function when the bus tears
// the subscription down.
func (s *subscription) Release() {
	if s.engine.subs != nil {
		delete(s.engine.subs, s.token)
	}
}

func (e *Engine) registerModule() {
	mod := e.L.SetFuncs(e.L.NewTable(), map[string]lua.LGFunction{
		"connect":    e.luaConnect,
		"disconnect": e.luaDisconnect,
		"kinds":      e.luaKinds,
		"clients":    e.luaClients,
		"monitors":   e.luaMonitors,
		"focused":    e.luaFocused,
		"stats":      e.luaStats,
		"log":        e.luaLog,
	})
	e.L.SetField(mod, "session", lua.LString(e.bridge.Session()))
	e.L.SetGlobal(moduleName, mod)
}

// wm.connect(kind, fn) -> token | nil, err
func (e *Engine) luaConnect(L *lua.LState) int {
	kind := e.checkKind(L, 1)
	fn := L.CheckFunction(2)

	e.nextToken++
	tok := e.nextToken
	sub := &subscription{engine: e, kind: kind, token: tok, fn: fn}
	pos, err := e.bridge.Bus().Connect(kind, tok, sub)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	e.subs[tok] = sub
	e.log.Debug("connected", zap.Stringer("kind", kind), zap.Uint64("token", uint64(tok)), zap.Int("position", pos))
	L.Push(lua.LNumber(tok))
	return 1
}

// wm.disconnect(kind, token) -> bool
func (e *Engine) luaDisconnect(L *lua.LState) int {
	kind := e.checkKind(L, 1)
	n := L.CheckInt64(2)
	if n <= 0 {
		L.Push(lua.LFalse)
		return 1
	}
	tok := events.Token(n)
	sub, ok := e.subs[tok]
	if !ok || sub.kind != kind {
		L.Push(lua.LFalse)
		return 1
	}
	removed := e.bridge.Bus().Disconnect(kind, tok)
	if removed {
		delete(e.subs, tok)
	}
	L.Push(lua.LBool(removed))
	return 1
}

func (e *Engine) checkKind(L *lua.LState, n int) events.Kind {
	kind, err := events.ParseKind(L.CheckString(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return kind
}

// wm.kinds() -> {name, ...}
func (e *Engine) luaKinds(L *lua.LState) int {
	tbl := L.NewTable()
	for _, k := range events.Kinds() {
		tbl.Append(lua.LString(k.String()))
	}
	L.Push(tbl)
	return 1
}

// wm.clients() -> {client, ...}
func (e *Engine) luaClients(L *lua.LState) int {
	L.Push(e.list(e.bridge.Host().Clients()))
	return 1
}

// wm.monitors() -> {monitor, ...}
func (e *Engine) luaMonitors(L *lua.LState) int {
	L.Push(e.list(e.bridge.Host().Monitors()))
	return 1
}

func (e *Engine) list(ids []resource.Handle) *lua.LTable {
	tbl := e.L.CreateTable(len(ids), 0)
	for _, id := range ids {
		if v := e.push(id); v != lua.LNil {
			tbl.Append(v)
		}
	}
	return tbl
}

// wm.focused() -> client | nil
func (e *Engine) luaFocused(L *lua.LState) int {
	L.Push(e.push(e.bridge.Host().Focused()))
	return 1
}

// wm.stats() -> {handles, refs, live, subscribers = {kind = n}}
func (e *Engine) luaStats(L *lua.LState) int {
	st := e.bridge.Stats()
	tbl := L.NewTable()
	tbl.RawSetString("handles", lua.LNumber(st.Handles))
	tbl.RawSetString("refs", lua.LNumber(st.Refs))
	tbl.RawSetString("live", lua.LNumber(len(e.live)))
	subs := L.NewTable()
	for kind, n := range st.Subscribers {
		subs.RawSetString(kind.String(), lua.LNumber(n))
	}
	tbl.RawSetString("subscribers", subs)
	L.Push(tbl)
	return 1
}

// wm.log(msg)
func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info(L.CheckString(1))
	return 0
}
