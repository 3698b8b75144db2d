package wmbridge

import (
	stderrors "errors"
	"io"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/wmbridge/bridge"
	"github.com/wippyai/wmbridge/config"
	"github.com/wippyai/wmbridge/errors"
	"github.com/wippyai/wmbridge/host"
	"github.com/wippyai/wmbridge/registry"
	"github.com/wippyai/wmbridge/script"
)

// Compositor is a host object table that reports lifecycle changes to a
// notifier. host.Model implements it. A Compositor that also implements
// io.Closer is closed between engine and bridge shutdown.
type Compositor interface {
	bridge.Host
	Attach(n host.Notifier)
}

// Options configures a Runtime.
type Options struct {
	// Logger is shared by every component. Nil disables logging.
	Logger *zap.Logger
	// Capacity bounds subscribers per event kind. Zero means the default.
	Capacity int
}

// OptionsFromConfig maps loaded settings to runtime options.
func OptionsFromConfig(cfg config.Config, log *zap.Logger) Options {
	return Options{Logger: log, Capacity: cfg.Events.Capacity}
}

// Runtime is a compositor with a bridge and a script engine attached.
type Runtime struct {
	comp   Compositor
	bridge *bridge.Bridge
	engine *script.Engine
	log    *zap.Logger
	closed bool
}

// New attaches a bridge and a Lua engine to c.
func New(c Compositor, opts Options) (*Runtime, error) {
	if c == nil {
		return nil, errors.InvalidInput(errors.PhaseBridge, "nil compositor")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	b := bridge.New(c, bridge.Options{Logger: log, Capacity: opts.Capacity})
	c.Attach(b)

	engine, err := script.New(b, script.Options{})
	if err != nil {
		b.Close()
		return nil, err
	}
	return &Runtime{comp: c, bridge: b, engine: engine, log: log}, nil
}

// Bridge returns the bridge.
func (r *Runtime) Bridge() *bridge.Bridge { return r.bridge }

// Engine returns the script engine.
func (r *Runtime) Engine() *script.Engine { return r.engine }

// LoadRC runs the rc script at path. A missing file is logged and skipped;
// a script error is returned.
func (r *Runtime) LoadRC(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); stderrors.Is(err, fs.ErrNotExist) {
		r.log.Info("no rc file, continuing without script", zap.String("path", path))
		return nil
	}
	return r.engine.LoadFile(path)
}

// Close stops the engine so its references are returned, closes the
// compositor if it can be closed, then tears the bridge down. It returns
// the references still held at that point. Later calls return nil.
func (r *Runtime) Close() []registry.Entry {
	if r.closed {
		return nil
	}
	r.closed = true
	r.engine.Close()
	if c, ok := r.comp.(io.Closer); ok {
		if err := c.Close(); err != nil {
			r.log.Warn("compositor close", zap.Error(err))
		}
	}
	return r.bridge.Close()
}
