package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/wippyai/wmbridge/bridge"
	"github.com/wippyai/wmbridge/resource"
)

// toLua converts an event payload. Identities are wrapped like subjects;
// unknown types are passed as their string form.
func (e *Engine) toLua(v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return v
	case bool:
		return lua.LBool(v)
	case string:
		return lua.LString(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case uint32:
		return lua.LNumber(v)
	case uint64:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case resource.Handle:
		return e.push(v)
	case bridge.Box:
		return e.box(v)
	case fmt.Stringer:
		return lua.LString(v.String())
	default:
		return lua.LString(fmt.Sprint(v))
	}
}

func (e *Engine) box(b bridge.Box) *lua.LTable {
	tbl := e.L.CreateTable(0, 4)
	tbl.RawSetString("x", lua.LNumber(b.X))
	tbl.RawSetString("y", lua.LNumber(b.Y))
	tbl.RawSetString("width", lua.LNumber(b.Width))
	tbl.RawSetString("height", lua.LNumber(b.Height))
	return tbl
}
