package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello     = "HELLO"
	TypeWelcome   = "WELCOME"
	TypeCommand   = "COMMAND"
	TypeResult    = "RESULT"
	TypeChat      = "CHAT"
	TypeMove      = "MOVE"
	TypeBroadcast = "BROADCAST"
	TypeError     = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// Event is one controller or world event as written to the event log.
type Event map[string]interface{}
