package client

// State is the connection lifecycle position of a Client.
type State int

const (
	Disconnected State = iota
	Connected
	AwaitingResponse
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case AwaitingResponse:
		return "awaiting_response"
	default:
		return "unknown"
	}
}
