package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Name            string      `json:"name"`
	Token           string      `json:"token,omitempty"`
	Pos             *[3]float64 `json:"pos,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerID        string `json:"player_id"`
	Name            string `json:"name"`
	Operator        bool   `json:"operator"`
	Agent           string `json:"agent"`
	TickRateHz      int    `json:"tick_rate_hz"`
	Tick            uint64 `json:"tick"`
}

// COMMAND (client -> server): one command line, e.g. "nuncle goto 10 64 10".
type CommandMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Line            string `json:"line"`
}

// RESULT (server -> client) answers a COMMAND with the same id.
type ResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Code            string `json:"code"`
	Text            string `json:"text"`
	Tick            uint64 `json:"tick"`
}

// CHAT (client -> server). From is ignored on input.
type ChatMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Text            string `json:"text"`
}

// MOVE (client -> server) moves the sender's player.
type MoveMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Pos             [3]float64 `json:"pos"`
}

// BROADCAST (server -> client): chat and announcements visible to everyone.
type BroadcastMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Kind            string `json:"kind"`
	From            string `json:"from"`
	Text            string `json:"text"`
	Tick            uint64 `json:"tick"`
}

// ERROR (server -> client) reports a rejected message.
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}
