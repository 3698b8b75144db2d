package bridge

import "github.com/wippyai/wmbridge/resource"

// Box is a rectangle in layout coordinates.
type Box struct {
	X, Y          int
	Width, Height int
}

// ClientState is a snapshot of one client window.
type ClientState struct {
	AppID      string
	Title      string
	Geometry   Box
	Monitor    resource.Handle
	Tags       uint32
	Floating   bool
	Fullscreen bool
	Focused    bool
}

// MonitorState is a snapshot of one output.
type MonitorState struct {
	Name     string
	Layout   string
	Geometry Box
	Tags     uint32
}

// Host is the compositor surface the bridge reads and writes through.
// Implementations resolve identities against their own object table and
// return false or an error for anything they no longer own.
type Host interface {
	Exists(id resource.Handle) bool
	Type(id resource.Handle) (resource.Type, bool)

	Client(id resource.Handle) (ClientState, bool)
	Monitor(id resource.Handle) (MonitorState, bool)
	Clients() []resource.Handle
	Monitors() []resource.Handle
	Focused() resource.Handle

	SetTags(id resource.Handle, tags uint32) error
	SetFloating(id resource.Handle, floating bool) error
	SetFullscreen(id resource.Handle, fullscreen bool) error
	Focus(id resource.Handle) error
	Kill(id resource.Handle) error
}
