package world

// One packed byte per agent per tick: code = verb*NumArgs + arg.
// Codes at or above ActionSpaceSize are invalid and count as such.
const (
	NumVerbs        = 10
	NumArgs         = 25
	ActionSpaceSize = NumVerbs * NumArgs
)

type Verb uint8

const (
	VerbMove Verb = iota
	VerbOrient
	VerbAttack
	VerbUse
	VerbSwap
	VerbPut
	VerbPlantBeacon
	VerbPlantResource
	VerbBuild
	VerbSetRally
)

// DecodeAction splits a packed code; ok is false for out-of-range codes.
func DecodeAction(code uint8) (Verb, uint8, bool) {
	if int(code) >= ActionSpaceSize {
		return 0, 0, false
	}
	return Verb(code / NumArgs), code % NumArgs, true
}

// EncodeAction packs a verb and argument into one byte.
func EncodeAction(v Verb, arg uint8) uint8 { return uint8(v)*NumArgs + arg }

// Outcome is the per-agent action telemetry bucket. These counters are the
// only supported telemetry surface for external auditors.
type Outcome uint8

const (
	OutcomeMove Outcome = iota
	OutcomeOrient
	OutcomeAttack
	OutcomeUse
	OutcomeSwap
	OutcomePut
	OutcomePlant
	OutcomeBuild
	OutcomeInvalid
	NumOutcomes
)

var outcomeNames = [NumOutcomes]string{
	"move", "orient", "attack", "use", "swap", "put", "plant", "build", "invalid",
}

func (o Outcome) String() string { return outcomeNames[o] }

type OutcomeCounts [NumOutcomes]uint16

// The argument value meaning "own cell" for set_rally.
const rallySelfArg = 8
