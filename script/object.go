package script

import (
	stderrors "errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/wippyai/wmbridge/bridge"
	"github.com/wippyai/wmbridge/errors"
	"github.com/wippyai/wmbridge/resource"
)

func (e *Engine) registerTypes() {
	client := e.L.NewTypeMetatable(clientType)
	e.L.SetField(client, "__index", e.L.SetFuncs(e.L.NewTable(), map[string]lua.LGFunction{
		"id":             e.objID,
		"type":           e.objType,
		"valid":          e.objValid,
		"app_id":         e.clientAppID,
		"title":          e.clientTitle,
		"geometry":       e.clientGeometry,
		"tags":           e.clientTags,
		"floating":       e.clientFloating,
		"fullscreen":     e.clientFullscreen,
		"focused":        e.clientFocused,
		"monitor":        e.clientMonitor,
		"set_tags":       e.clientSetTags,
		"set_floating":   e.clientSetFloating,
		"set_fullscreen": e.clientSetFullscreen,
		"focus":          e.clientFocus,
		"kill":           e.clientKill,
	}))
	e.L.SetField(client, "__tostring", e.L.NewFunction(e.objString))
	e.L.SetField(client, "__eq", e.L.NewFunction(e.objEqual))

	monitor := e.L.NewTypeMetatable(monitorType)
	e.L.SetField(monitor, "__index", e.L.SetFuncs(e.L.NewTable(), map[string]lua.LGFunction{
		"id":       e.objID,
		"type":     e.objType,
		"valid":    e.objValid,
		"name":     e.monitorName,
		"geometry": e.monitorGeometry,
		"tags":     e.monitorTags,
		"layout":   e.monitorLayout,
	}))
	e.L.SetField(monitor, "__tostring", e.L.NewFunction(e.objString))
	e.L.SetField(monitor, "__eq", e.L.NewFunction(e.objEqual))
}

func checkRef(L *lua.LState, n int, typ resource.Type) *bridge.Ref {
	ud := L.CheckUserData(n)
	ref, ok := ud.Value.(*bridge.Ref)
	if !ok || (typ != resource.TypeNone && ref.Type() != typ) {
		L.ArgError(n, typ.String()+" expected")
		return nil
	}
	return ref
}

func (e *Engine) objID(L *lua.LState) int {
	ref := checkRef(L, 1, resource.TypeNone)
	L.Push(lua.LString(ref.ID().String()))
	return 1
}

func (e *Engine) objType(L *lua.LState) int {
	ref := checkRef(L, 1, resource.TypeNone)
	L.Push(lua.LString(ref.Type().String()))
	return 1
}

func (e *Engine) objValid(L *lua.LState) int {
	ref := checkRef(L, 1, resource.TypeNone)
	L.Push(lua.LBool(ref.Valid()))
	return 1
}

func (e *Engine) objString(L *lua.LState) int {
	ref := checkRef(L, 1, resource.TypeNone)
	s := fmt.Sprintf("%s(%s)", ref.Type(), ref.ID())
	if !ref.Valid() {
		s = fmt.Sprintf("%s(%s, stale)", ref.Type(), ref.ID())
	}
	L.Push(lua.LString(s))
	return 1
}

func (e *Engine) objEqual(L *lua.LState) int {
	a := checkRef(L, 1, resource.TypeNone)
	b := checkRef(L, 2, resource.TypeNone)
	L.Push(lua.LBool(a.ID() == b.ID()))
	return 1
}

// clientRead resolves the client at argument 1. A stale or missing client
// pushes nil and returns false.
func (e *Engine) clientRead(L *lua.LState) (bridge.ClientState, bool) {
	ref := checkRef(L, 1, resource.TypeClient)
	c, err := e.bridge.Client(ref.ID())
	if err != nil {
		L.Push(lua.LNil)
		return bridge.ClientState{}, false
	}
	return c, true
}

func (e *Engine) clientAppID(L *lua.LState) int {
	if c, ok := e.clientRead(L); ok {
		L.Push(lua.LString(c.AppID))
	}
	return 1
}

func (e *Engine) clientTitle(L *lua.LState) int {
	if c, ok := e.clientRead(L); ok {
		L.Push(lua.LString(c.Title))
	}
	return 1
}

func (e *Engine) clientGeometry(L *lua.LState) int {
	if c, ok := e.clientRead(L); ok {
		L.Push(e.box(c.Geometry))
	}
	return 1
}

func (e *Engine) clientTags(L *lua.LState) int {
	if c, ok := e.clientRead(L); ok {
		L.Push(lua.LNumber(c.Tags))
	}
	return 1
}

func (e *Engine) clientFloating(L *lua.LState) int {
	if c, ok := e.clientRead(L); ok {
		L.Push(lua.LBool(c.Floating))
	}
	return 1
}

func (e *Engine) clientFullscreen(L *lua.LState) int {
	if c, ok := e.clientRead(L); ok {
		L.Push(lua.LBool(c.Fullscreen))
	}
	return 1
}

func (e *Engine) clientFocused(L *lua.LState) int {
	if c, ok := e.clientRead(L); ok {
		L.Push(lua.LBool(c.Focused))
	}
	return 1
}

func (e *Engine) clientMonitor(L *lua.LState) int {
	if c, ok := e.clientRead(L); ok {
		L.Push(e.push(c.Monitor))
	}
	return 1
}

func (e *Engine) clientSetTags(L *lua.LState) int {
	ref := checkRef(L, 1, resource.TypeClient)
	mask := L.CheckInt64(2)
	if mask < 0 || mask > int64(^uint32(0)) {
		L.ArgError(2, "tag mask out of range")
		return 0
	}
	return result(L, e.bridge.SetTags(ref.ID(), uint32(mask)))
}

func (e *Engine) clientSetFloating(L *lua.LState) int {
	ref := checkRef(L, 1, resource.TypeClient)
	return result(L, e.bridge.SetFloating(ref.ID(), L.CheckBool(2)))
}

func (e *Engine) clientSetFullscreen(L *lua.LState) int {
	ref := checkRef(L, 1, resource.TypeClient)
	return result(L, e.bridge.SetFullscreen(ref.ID(), L.CheckBool(2)))
}

func (e *Engine) clientFocus(L *lua.LState) int {
	ref := checkRef(L, 1, resource.TypeClient)
	return result(L, e.bridge.Focus(ref.ID()))
}

func (e *Engine) clientKill(L *lua.LState) int {
	ref := checkRef(L, 1, resource.TypeClient)
	return result(L, e.bridge.Kill(ref.ID()))
}

func (e *Engine) monitorRead(L *lua.LState) (bridge.MonitorState, bool) {
	ref := checkRef(L, 1, resource.TypeMonitor)
	m, err := e.bridge.Monitor(ref.ID())
	if err != nil {
		L.Push(lua.LNil)
		return bridge.MonitorState{}, false
	}
	return m, true
}

func (e *Engine) monitorName(L *lua.LState) int {
	if m, ok := e.monitorRead(L); ok {
		L.Push(lua.LString(m.Name))
	}
	return 1
}

func (e *Engine) monitorGeometry(L *lua.LState) int {
	if m, ok := e.monitorRead(L); ok {
		L.Push(e.box(m.Geometry))
	}
	return 1
}

func (e *Engine) monitorTags(L *lua.LState) int {
	if m, ok := e.monitorRead(L); ok {
		L.Push(lua.LNumber(m.Tags))
	}
	return 1
}

func (e *Engine) monitorLayout(L *lua.LState) int {
	if m, ok := e.monitorRead(L); ok {
		L.Push(lua.LString(m.Layout))
	}
	return 1
}

// result pushes true on success and nil plus a message on failure.
func result(L *lua.LState, err error) int {
	if err == nil {
		L.Push(lua.LTrue)
		return 1
	}
	L.Push(lua.LNil)
	if stderrors.Is(err, errors.ErrStaleAccess) {
		L.Push(lua.LString(staleMessage))
	} else {
		L.Push(lua.LString(err.Error()))
	}
	return 2
}
