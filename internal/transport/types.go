package transport

// OutboundText is the send frame for a plain text reply.
type OutboundText struct {
	Type string `json:"type"`
	Chat string `json:"chat"`
	Text string `json:"text"`
}

type State string

const (
	StateConnecting   State = "CONNECTING"
	StateConnected    State = "CONNECTED"
	StateDisconnected State = "DISCONNECTED"
	StateReconnecting State = "RECONNECTING"
	StateFailed       State = "FAILED"
)

func (s State) String() string {
	return string(s)
}
