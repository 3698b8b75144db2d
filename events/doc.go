// Package events dispatches host lifecycle events to scripting-side
// subscribers.
//
// Each Kind owns an ordered list of subscribers with a fixed capacity:
//
//	bus := events.New(events.DefaultOptions())
//
//	pos, err := bus.Connect(events.FocusGained, token, handler)
//	if errors.Is(err, werrors.ErrCapacity) {
//	    // list full, surface to the script
//	}
//
//	bus.Emit(events.FocusGained, clientID, nil)
//	bus.Disconnect(events.FocusGained, token)
//
// # Ordering
//
// Subscribers run in registration order. Disconnect removes the first entry
// with a matching token and keeps the rest in order, so a default handler
// installed first keeps running before later overrides.
//
// # Failures and Reentrancy
//
// A handler error or panic is logged with the kind, token and position and
// the emission moves on to the next subscriber; Emit never propagates it.
// Handlers may call Connect, Disconnect or Emit. Emit dispatches over a copy
// of the list taken when it starts.
package events
