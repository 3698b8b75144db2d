package script

import (
	"runtime"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/wippyai/wmbridge/bridge"
	"github.com/wippyai/wmbridge/errors"
	"github.com/wippyai/wmbridge/events"
	"github.com/wippyai/wmbridge/resource"
)

const (
	moduleName  = "wm"
	clientType  = "wm.client"
	monitorType = "wm.monitor"
	configTable = "config"

	staleMessage = "stale reference"
)

// Options configures an Engine.
type Options struct {
	// Logger receives script output and binding diagnostics. Nil uses the
	// bridge logger.
	Logger *zap.Logger
}

// DefaultOptions returns options with all defaults.
func DefaultOptions() Options {
	return Options{}
}

// Engine is one Lua state bound to a bridge. It is not safe for concurrent
// use; every method must be called from the host loop.
type Engine struct {
	L      *lua.LState
	bridge *bridge.Bridge
	log    *zap.Logger

	live   map[uint64]*bridge.Ref
	serial uint64

	subs      map[events.Token]*subscription
	nextToken events.Token
	closed    bool

	// Written by collector cleanups on the runtime's cleanup goroutine.
	pendingMu     sync.Mutex
	pending       []uint64
	pendingClosed bool
}

// New creates an engine with the base, table, string and math libraries
// and the wm module installed.
func New(b *bridge.Bridge, opts Options) (*Engine, error) {
	if b == nil {
		return nil, errors.InvalidInput(errors.PhaseScript, "nil bridge")
	}
	log := opts.Logger
	if log == nil {
		log = b.Logger()
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	e := &Engine{
		L:      L,
		bridge: b,
		log:    log.Named("script"),
		live:   make(map[uint64]*bridge.Ref),
		subs:   make(map[events.Token]*subscription),
	}
	e.registerTypes()
	e.registerModule()
	return e, nil
}

// NewWithDefaults creates an engine with default options.
func NewWithDefaults(b *bridge.Bridge) (*Engine, error) {
	return New(b, DefaultOptions())
}

// Bridge returns the bridge the engine is bound to.
func (e *Engine) Bridge() *bridge.Bridge { return e.bridge }

// LoadString runs a chunk of Lua source.
func (e *Engine) LoadString(src string) error {
	if e.closed {
		return errors.Closed(errors.PhaseScript, "engine")
	}
	if err := e.L.DoString(src); err != nil {
		return errors.Load(errors.PhaseScript, "chunk", err)
	}
	return nil
}

// LoadFile runs the Lua file at path, typically rc.lua.
func (e *Engine) LoadFile(path string) error {
	if e.closed {
		return errors.Closed(errors.PhaseScript, "engine")
	}
	if err := e.L.DoFile(path); err != nil {
		return errors.Load(errors.PhaseScript, path, err)
	}
	e.log.Info("loaded script", zap.String("path", path))
	return nil
}

// ConfigBool returns config.<key> when the script set it to a boolean and
// def otherwise.
func (e *Engine) ConfigBool(key string, def bool) bool {
	if e.closed {
		return def
	}
	tbl, ok := e.L.GetGlobal(configTable).(*lua.LTable)
	if !ok {
		return def
	}
	v, ok := tbl.RawGetString(key).(lua.LBool)
	if !ok {
		return def
	}
	return bool(v)
}

// Live returns the number of wrapped references the engine still owns.
func (e *Engine) Live() int {
	return len(e.live)
}

// Subscriptions returns the number of callbacks connected through wm.connect.
func (e *Engine) Subscriptions() int {
	return len(e.subs)
}

// Collect runs the Go collector and releases every reference whose userdata
// has been reclaimed. Cleanups run asynchronously, so a reference reclaimed
// by this cycle may only be released by a later call. Returns the number of
// references released.
func (e *Engine) Collect() int {
	if e.closed {
		return 0
	}
	runtime.GC()
	return e.drain()
}

func (e *Engine) drain() int {
	e.pendingMu.Lock()
	queued := e.pending
	e.pending = nil
	e.pendingMu.Unlock()

	n := 0
	for _, serial := range queued {
		ref, ok := e.live[serial]
		if !ok {
			continue
		}
		delete(e.live, serial)
		ref.Release()
		n++
	}
	if n > 0 {
		e.log.Debug("collected references", zap.Int("released", n), zap.Int("live", len(e.live)))
	}
	return n
}

// reclaim is the collector cleanup for a wrapped userdata.
func (e *Engine) reclaim(serial uint64) {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	if e.pendingClosed {
		return
	}
	e.pending = append(e.pending, serial)
}

// Close disconnects every callback, releases every live reference and shuts
// the Lua state down. Later calls are no-ops.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	e.pendingMu.Lock()
	e.pendingClosed = true
	e.pending = nil
	e.pendingMu.Unlock()

	bus := e.bridge.Bus()
	for _, tok := range sortedTokens(e.subs) {
		s := e.subs[tok]
		bus.Disconnect(s.kind, tok)
	}
	e.subs = nil

	serials := make([]uint64, 0, len(e.live))
	for serial := range e.live {
		serials = append(serials, serial)
	}
	sort.Slice(serials, func(i, j int) bool { return serials[i] < serials[j] })
	for _, serial := range serials {
		e.live[serial].Release()
	}
	released := len(serials)
	e.live = nil

	e.L.Close()
	e.log.Debug("engine closed", zap.Int("released", released))
	return nil
}

// push converts id to a Lua value. Null identities, identities the host no
// longer owns and a closed engine all yield nil.
func (e *Engine) push(id resource.Handle) lua.LValue {
	if e.closed || id.IsNull() {
		return lua.LNil
	}
	ref, err := e.bridge.Wrap(id)
	if err != nil {
		e.log.Debug("wrap failed", zap.Stringer("id", id), zap.Error(err))
		return lua.LNil
	}

	ud := e.L.NewUserData()
	ud.Value = ref
	switch ref.Type() {
	case resource.TypeMonitor:
		e.L.SetMetatable(ud, e.L.GetTypeMetatable(monitorType))
	default:
		e.L.SetMetatable(ud, e.L.GetTypeMetatable(clientType))
	}

	e.serial++
	serial := e.serial
	e.live[serial] = ref
	runtime.AddCleanup(ud, e.reclaim, serial)
	return ud
}

func sortedTokens(m map[events.Token]*subscription) []events.Token {
	out := make([]events.Token, 0, len(m))
	for tok := range m {
		out = append(out, tok)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
