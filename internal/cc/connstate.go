package cc

import "go.uber.org/zap"

// ConnState mirrors the four session states spec.md §4.1 requires CC to
// deliver: CONNECTED, SUSPENDED, LOST, RECONNECTED.
type ConnState int

const (
	StateConnected ConnState = iota
	StateSuspended
	StateLost
	StateReconnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "CONNECTED"
	case StateSuspended:
		return "SUSPENDED"
	case StateLost:
		return "LOST"
	case StateReconnected:
		return "RECONNECTED"
	default:
		return "UNKNOWN"
	}
}

// SubscribeConnectionState registers cb to receive connection-state
// transitions. cb is invoked serially from the session-watch goroutine;
// it must not block.
func (c *Client) SubscribeConnectionState(cb func(ConnState)) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.stateSubs = append(c.stateSubs, cb)
}

func (c *Client) publishState(s ConnState) {
	c.stateMu.RLock()
	subs := append([]func(ConnState){}, c.stateSubs...)
	c.stateMu.RUnlock()

	c.log.Info("connection state", zap.String("state", s.String()))
	for _, cb := range subs {
		cb(s)
	}
}
