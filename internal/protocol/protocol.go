package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeObs     = "OBS"
	TypeAct     = "ACT"
	TypeError   = "ERROR"
)

// Action-space constants shared with every controller. One byte per agent
// per tick: code = verb*NumArgs + arg.
const (
	NumVerbs        = 10
	NumArgs         = 25
	ActionSpaceSize = NumVerbs * NumArgs
)

// VerbNames in code order.
var VerbNames = [NumVerbs]string{
	"move", "orient", "attack", "use", "swap", "put",
	"plant_beacon", "plant_resource", "build", "set_rally",
}

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
