package ws

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"tribalgrid.ai/internal/protocol"
	"tribalgrid.ai/internal/sim/world"
)

// Hub owns the world and its tick loop. Sessions deposit action bytes
// between ticks; only the hub goroutine ever calls Step, so the sim stays
// single-threaded no matter how many controllers connect.
type Hub struct {
	w      *world.World
	logger *log.Logger

	tickRate int

	mu       sync.Mutex
	sessions map[*session]struct{}
	teamSess []*session // one controller per team
	pending  []byte
	hasAct   []bool

	// ResetFunc regenerates the world when an episode finishes; nil stops
	// the loop at the first done tick instead.
	ResetFunc func(*world.World) error

	// OnEpisodeEnd is told about finished episodes (index bookkeeping).
	OnEpisodeEnd func(endTick uint64, digest string)

	// ScriptFunc fills default actions for teams with no connected
	// controller. It runs on the hub goroutine between ticks, so it may
	// read world state freely. Nil idles uncontrolled slots in place.
	ScriptFunc func(tick uint64, acts []byte)
}

type session struct {
	team  int
	slots []int
	out   chan []byte
	done  chan struct{}
	once  sync.Once
}

func (s *session) close() { s.once.Do(func() { close(s.done) }) }

func NewHub(w *world.World, logger *log.Logger) *Hub {
	return &Hub{
		w:        w,
		logger:   logger,
		tickRate: w.Tuning().TickRateHz,
		sessions: make(map[*session]struct{}),
		teamSess: make([]*session, w.NumTeams()),
		pending:  make([]byte, w.NumAgents()),
		hasAct:   make([]bool, w.NumAgents()),
	}
}

// Run drives the tick loop until the context ends or the episode
// finishes with no ResetFunc installed.
func (h *Hub) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(h.tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			done, err := h.tick()
			if err != nil {
				return err
			}
			if done {
				if h.ResetFunc == nil {
					return nil
				}
				if err := h.ResetFunc(h.w); err != nil {
					return fmt.Errorf("episode reset: %w", err)
				}
			}
		}
	}
}

func (h *Hub) tick() (bool, error) {
	var scripted []byte
	if h.ScriptFunc != nil {
		scripted = make([]byte, len(h.pending))
		h.ScriptFunc(h.w.CurrentTick(), scripted)
	}

	per := h.w.Tuning().AgentsPerTeam
	h.mu.Lock()
	acts := make([]byte, len(h.pending))
	for slot := range h.pending {
		if h.hasAct[slot] {
			acts[slot] = h.pending[slot]
			h.hasAct[slot] = false
			continue
		}
		if scripted != nil && h.teamSess[slot/per] == nil {
			acts[slot] = scripted[slot]
			continue
		}
		// Idle slots re-assert their facing: a true no-op that still
		// counts as a real action rather than polluting invalid counts.
		dir := uint8(0)
		if t := h.w.Agent(slot); t != nil {
			dir = uint8(t.Dir)
		}
		acts[slot] = world.EncodeAction(world.VerbOrient, dir)
	}
	h.mu.Unlock()

	res, err := h.w.Step(acts)
	if err != nil {
		return false, err
	}
	h.broadcast(res)
	if res.Done && h.OnEpisodeEnd != nil {
		h.OnEpisodeEnd(res.Tick, h.w.StateDigest())
	}
	return res.Done, nil
}

func (h *Hub) broadcast(res world.StepResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sess := range h.sessions {
		msg := h.obsFor(sess, res)
		raw, err := json.Marshal(msg)
		if err != nil {
			h.logger.Printf("[ws] marshal obs: %v", err)
			continue
		}
		select {
		case sess.out <- raw:
		default:
			// A slow consumer loses ticks, never stalls the loop.
		}
	}
}

func (h *Hub) obsFor(sess *session, res world.StepResult) protocol.ObsMsg {
	msg := protocol.ObsMsg{
		Type:            protocol.TypeObs,
		ProtocolVersion: protocol.Version,
		Tick:            res.Tick,
		Done:            res.Done,
		Agents:          make([]protocol.AgentObs, 0, len(sess.slots)),
	}
	for _, slot := range sess.slots {
		t := h.w.Agent(slot)
		ao := protocol.AgentObs{
			Slot:      slot,
			Reward:    float64(res.Rewards[slot]),
			Terminal:  res.Terminals[slot],
			Truncated: res.Truncations[slot],
			Outcomes:  make([]int, world.NumOutcomes),
		}
		if t != nil {
			ao.Alive = t.Agent.Alive
			ao.Pos = [2]int{t.Pos.X, t.Pos.Y}
			ao.Dir = int(t.Dir)
			ao.HP = int(t.HP)
			for i, c := range t.Agent.Counters {
				ao.Outcomes[i] = int(c)
			}
			if t.Agent.Alive {
				ao.Window = base64.StdEncoding.EncodeToString(h.w.AgentWindow(slot))
			}
		}
		msg.Agents = append(msg.Agents, ao)
	}
	return msg
}

// joinError pairs a join failure with its wire error code so the
// handshake can surface the distinction to the client.
type joinError struct {
	code string
	msg  string
}

func (e *joinError) Error() string { return e.msg }

func joinCode(err error) string {
	var je *joinError
	if errors.As(err, &je) {
		return je.code
	}
	return protocol.ErrInternal
}

// join claims a team for a session. team -1 takes the first free one.
func (h *Hub) join(team int) (*session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if team < 0 {
		for i, s := range h.teamSess {
			if s == nil {
				team = i
				break
			}
		}
		if team < 0 {
			return nil, &joinError{code: protocol.ErrTeamFull, msg: "all teams controlled"}
		}
	}
	if team >= len(h.teamSess) {
		return nil, &joinError{code: protocol.ErrProtoBadRequest, msg: fmt.Sprintf("team %d out of range", team)}
	}
	if h.teamSess[team] != nil {
		return nil, &joinError{code: protocol.ErrSlotTaken, msg: fmt.Sprintf("team %d already controlled", team)}
	}

	per := h.w.Tuning().AgentsPerTeam
	slots := make([]int, per)
	for i := range slots {
		slots[i] = team*per + i
	}
	sess := &session{
		team:  team,
		slots: slots,
		out:   make(chan []byte, 16),
		done:  make(chan struct{}),
	}
	h.teamSess[team] = sess
	h.sessions[sess] = struct{}{}
	return sess, nil
}

func (h *Hub) leave(sess *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[sess]; !ok {
		return
	}
	delete(h.sessions, sess)
	h.teamSess[sess.team] = nil
	for _, slot := range sess.slots {
		h.hasAct[slot] = false
	}
	sess.close()
}

// setActions records a session's action bytes for the next tick. Slots
// outside the session's range are ignored.
func (h *Hub) setActions(sess *session, acts []protocol.SlotAction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	lo := sess.slots[0]
	hi := sess.slots[len(sess.slots)-1]
	for _, a := range acts {
		if a.Slot < lo || a.Slot > hi {
			continue
		}
		h.pending[a.Slot] = a.Code
		h.hasAct[a.Slot] = true
	}
}

func (h *Hub) welcome(sess *session) protocol.WelcomeMsg {
	tune := h.w.Tuning()
	cats := h.w.Catalogs()
	layers := make([]string, world.NumLayers)
	copy(layers, world.LayerNames[:])
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       fmt.Sprintf("S-%d", sess.team),
		Team:            sess.team,
		Slots:           sess.slots,
		WorldParams: protocol.WorldParams{
			TickRateHz:    tune.TickRateHz,
			MaxSteps:      tune.MaxSteps,
			MapWidth:      tune.MapWidth,
			MapHeight:     tune.MapHeight,
			NumTeams:      tune.NumTeams,
			AgentsPerTeam: tune.AgentsPerTeam,
			ObsRadius:     tune.ObsRadius,
			Seed:          h.w.Seed(),
			NumVerbs:      protocol.NumVerbs,
			NumArgs:       protocol.NumArgs,
			Layers:        layers,
		},
		Catalogs: protocol.CatalogDigests{
			TerrainPalette: protocol.DigestRef{
				Digest: cats.Terrain.PaletteDigest,
				Count:  len(cats.Terrain.Palette),
			},
			ItemPalette: protocol.DigestRef{
				Digest: cats.Items.PaletteDigest,
				Count:  len(cats.Items.Palette),
			},
			BuildingPalette: protocol.DigestRef{
				Digest: cats.Buildings.Digest,
				Count:  len(cats.Buildings.Palette),
			},
			RecipesDigest: cats.Recipes.Digest,
		},
	}
}
