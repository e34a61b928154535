package protocol

// OBS (server -> client): one message per committed tick, covering every
// slot the session controls. Windows are base64 of the raw uint8 buffer
// shaped [layers][win][win].
type ObsMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Tick            uint64     `json:"tick"`
	Done            bool       `json:"done"`
	Digest          string     `json:"digest,omitempty"`
	Agents          []AgentObs `json:"agents"`
}

type AgentObs struct {
	Slot      int     `json:"slot"`
	Alive     bool    `json:"alive"`
	Pos       [2]int  `json:"pos"`
	Dir       int     `json:"dir"`
	HP        int     `json:"hp"`
	Reward    float64 `json:"reward"`
	Terminal  bool    `json:"terminal"`
	Truncated bool    `json:"truncated"`
	Window    string  `json:"window,omitempty"` // base64, empty when dead
	Outcomes  []int   `json:"outcomes"`         // per-outcome counters, this tick
}

// ACT (client -> server): packed action codes for the session's slots.
// A missing slot acts as a no-op; codes outside the action space count
// as invalid inside the sim rather than failing the message.
type ActMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Tick            uint64       `json:"tick"`
	Actions         []SlotAction `json:"actions"`
}

type SlotAction struct {
	Slot int   `json:"slot"`
	Code uint8 `json:"code"`
}
