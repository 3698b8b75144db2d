package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/wmbridge"
	"github.com/wippyai/wmbridge/bridge"
	"github.com/wippyai/wmbridge/config"
	"github.com/wippyai/wmbridge/errors"
	"github.com/wippyai/wmbridge/events"
	"github.com/wippyai/wmbridge/host"
	"github.com/wippyai/wmbridge/registry"
	"github.com/wippyai/wmbridge/resource"
	"github.com/wippyai/wmbridge/script"
)

// observerToken marks the session's own event feed subscriptions. Script
// tokens count up from 1 and never reach this range.
const observerToken events.Token = 1 << 63

var defaultOutput = bridge.Box{Width: 1920, Height: 1080}

// session is one simulated compositor with a script engine attached.
type session struct {
	log    *zap.Logger
	model  *host.Model
	rt     *wmbridge.Runtime
	bridge *bridge.Bridge
	engine *script.Engine
	feed   []string
	closed bool
}

func newSession(cfg config.Config, log *zap.Logger) (*session, error) {
	model := host.New(host.Options{Logger: log})
	rt, err := wmbridge.New(model, wmbridge.OptionsFromConfig(cfg, log))
	if err != nil {
		return nil, err
	}
	s := &session{log: log, model: model, rt: rt, bridge: rt.Bridge(), engine: rt.Engine()}

	if _, err := model.AddMonitor("eDP-1", defaultOutput); err != nil {
		s.close()
		return nil, err
	}
	if err := rt.LoadRC(cfg.Script.RC); err != nil {
		s.close()
		return nil, err
	}
	if s.engine.ConfigBool("trace_events", true) {
		s.observe()
	}
	return s, nil
}

// observe subscribes the session feed to every event kind.
func (s *session) observe() {
	for _, kind := range events.Kinds() {
		h := events.HandlerFunc(func(ev events.Event) error {
			line := fmt.Sprintf("event %s %s", ev.Kind, ev.Subject)
			if ev.Payload != nil {
				line += fmt.Sprintf(" %v", ev.Payload)
			}
			s.feed = append(s.feed, line)
			return nil
		})
		if _, err := s.bridge.Bus().Connect(kind, observerToken+events.Token(kind), h); err != nil {
			s.log.Warn("event feed not attached", zap.Stringer("kind", kind), zap.Error(err))
		}
	}
}

// exec runs one command line and returns its output, including any events
// it caused.
func (s *session) exec(line string) (string, error) {
	if s.closed {
		return "", errors.Closed(errors.PhaseHost, "session")
	}
	s.feed = s.feed[:0]
	out, err := s.dispatch(strings.TrimSpace(line))
	lines := append([]string(nil), s.feed...)
	if out != "" {
		lines = append(lines, out)
	}
	return strings.Join(lines, "\n"), err
}

func (s *session) dispatch(line string) (string, error) {
	if line == "" || strings.HasPrefix(line, "#") {
		return "", nil
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch cmd {
	case "help":
		return helpText, nil

	case "map":
		if len(args) == 0 {
			return "", usage("map <app-id> [title]")
		}
		title := strings.TrimSpace(strings.TrimPrefix(rest, args[0]))
		if title == "" {
			title = args[0]
		}
		id, err := s.model.MapClient(args[0], title, s.primary())
		if err != nil {
			return "", err
		}
		return "mapped " + id.String(), nil

	case "unmap", "kill":
		id, err := s.client(args)
		if err != nil {
			return "", err
		}
		return "", s.model.UnmapClient(id)

	case "focus":
		id, err := s.client(args)
		if err != nil {
			return "", err
		}
		return "", s.model.Focus(id)

	case "title":
		id, err := s.client(args)
		if err != nil {
			return "", err
		}
		if len(args) < 2 {
			return "", usage("title <n> <text>")
		}
		return "", s.model.SetTitle(id, strings.TrimSpace(strings.TrimPrefix(rest, args[0])))

	case "float", "fullscreen":
		id, err := s.client(args)
		if err != nil {
			return "", err
		}
		c, _ := s.model.Client(id)
		if cmd == "float" {
			return "", s.model.SetFloating(id, !c.Floating)
		}
		return "", s.model.SetFullscreen(id, !c.Fullscreen)

	case "tags":
		id, err := s.client(args)
		if err != nil {
			return "", err
		}
		if len(args) < 2 {
			return "", usage("tags <n> <mask>")
		}
		mask, err := strconv.ParseUint(args[1], 0, 32)
		if err != nil || mask == 0 {
			return "", errors.InvalidInput(errors.PhaseHost, "tag mask must be a non-zero 32-bit value")
		}
		return "", s.model.SetTags(id, uint32(mask))

	case "monitor":
		if len(args) != 1 {
			return "", usage("monitor <name>")
		}
		id, err := s.model.AddMonitor(args[0], defaultOutput)
		if err != nil {
			return "", err
		}
		return "monitor " + id.String(), nil

	case "unplug":
		if len(args) != 1 {
			return "", usage("unplug <name>")
		}
		for _, id := range s.model.Monitors() {
			if m, ok := s.model.Monitor(id); ok && m.Name == args[0] {
				return "", s.model.RemoveMonitor(id)
			}
		}
		return "", errors.NotFound(errors.PhaseHost, args[0], "monitor")

	case "lua":
		if rest == "" {
			return "", usage("lua <code>")
		}
		return "", s.engine.LoadString(rest)

	case "gc":
		return fmt.Sprintf("released %d, live %d", s.engine.Collect(), s.engine.Live()), nil

	case "list":
		return s.list(), nil

	case "stats":
		return s.stats(), nil

	case "dump":
		return s.bridge.Registry().Dump(), nil

	default:
		return "", errors.New(errors.PhaseHost, errors.KindInvalidInput).
			Subject(cmd).
			Detail("unknown command, try help").
			Build()
	}
}

func (s *session) primary() resource.Handle {
	if mons := s.model.Monitors(); len(mons) > 0 {
		return mons[0]
	}
	return resource.Null
}

// client resolves a 1-based position in the client list.
func (s *session) client(args []string) (resource.Handle, error) {
	if len(args) == 0 {
		return resource.Null, usage("client number required")
	}
	n, err := strconv.Atoi(args[0])
	clients := s.model.Clients()
	if err != nil || n < 1 || n > len(clients) {
		return resource.Null, errors.NotFound(errors.PhaseHost, args[0], "client")
	}
	return clients[n-1], nil
}

func (s *session) list() string {
	var b strings.Builder
	focused := s.model.Focused()
	for i, id := range s.model.Clients() {
		c, ok := s.model.Client(id)
		if !ok {
			continue
		}
		mark := " "
		if id == focused {
			mark = "*"
		}
		var flags []string
		if c.Floating {
			flags = append(flags, "floating")
		}
		if c.Fullscreen {
			flags = append(flags, "fullscreen")
		}
		fmt.Fprintf(&b, "%s%d %-6s %-12s %-20q tags=%#x %s\n", mark, i+1, id, c.AppID, c.Title, c.Tags, strings.Join(flags, ","))
	}
	if b.Len() == 0 {
		return "no clients"
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *session) stats() string {
	st := s.bridge.Stats()
	kinds := make([]string, 0, len(st.Subscribers))
	for k, n := range st.Subscribers {
		if n > 0 {
			kinds = append(kinds, fmt.Sprintf("%s=%d", k, n))
		}
	}
	sort.Strings(kinds)
	return fmt.Sprintf("handles=%d refs=%d live=%d subscribers[%s]",
		st.Handles, st.Refs, s.engine.Live(), strings.Join(kinds, " "))
}

// close shuts the runtime down and reports whatever is still held.
func (s *session) close() []registry.Entry {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.rt.Close()
}

func usage(msg string) error {
	return errors.New(errors.PhaseHost, errors.KindUsage).Detail("usage: %s", msg).Build()
}

const helpText = `commands:
  map <app-id> [title]     map a client on the first monitor
  unmap|kill <n>           destroy client n
  focus <n>                focus client n
  title <n> <text>         change the title of client n
  float <n>                toggle floating
  fullscreen <n>           toggle fullscreen
  tags <n> <mask>          move client n to a tag mask
  monitor <name>           add an output
  unplug <name>            remove an output
  lua <code>               run Lua in the script engine
  gc                       collect unreachable script references
  list | stats | dump      inspect state`
