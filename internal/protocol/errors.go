package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Session/slot routing.
	ErrTeamFull    = "E_TEAM_FULL"
	ErrSlotTaken   = "E_SLOT_TAKEN"
	ErrBadTick     = "E_BAD_TICK"
	ErrEpisodeOver = "E_EPISODE_OVER"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrTeamFull:        {},
	ErrSlotTaken:       {},
	ErrBadTick:         {},
	ErrEpisodeOver:     {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
