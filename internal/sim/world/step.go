package world

import (
	"fmt"
	"math/rand/v2"
)

// tickRNG builds the tick's only random source. Re-seeding from
// (seed, tick) every tick makes any single tick reproducible in isolation,
// which is what replay verification leans on.
func tickRNG(seed int64, tick uint64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), tick))
}

// Step advances exactly one tick. It takes one packed action byte per
// agent slot and returns only after every phase has committed; no state
// is shared across the call boundary. The returned slices are reused
// between calls and must be copied by callers that keep them.
func (w *World) Step(actions []byte) (StepResult, error) {
	if len(actions) != len(w.agents) {
		return StepResult{}, fmt.Errorf("world: got %d actions, want %d", len(actions), len(w.agents))
	}
	if w.done {
		return StepResult{}, fmt.Errorf("world: episode is over, reset first")
	}

	rng := tickRNG(w.cfg.Seed, w.tick)

	for slot := range w.agents {
		w.terminals[slot] = false
		w.truncations[slot] = false
		if t := w.agentThing(slot); t != nil {
			t.Agent.Reward = 0
			t.Agent.Counters = OutcomeCounts{}
		}
	}
	w.ledger.resetDeltas()

	w.decayTransient()
	w.enforceDeaths()
	w.applyActions(actions)
	w.tickBuildings()
	w.processCreep(rng)
	w.processPopulation()

	alive := 0
	for slot := range w.agents {
		t := w.agentThing(slot)
		if t == nil {
			continue
		}
		a := t.Agent
		if a.Alive {
			a.Reward += float32(w.tune.Rewards.SurvivalPenalty)
		}
	}
	w.enforceDeaths()
	for slot := range w.agents {
		if t := w.agentThing(slot); t != nil && t.Agent.Alive {
			alive++
		}
	}

	w.tick++
	if alive == 0 {
		w.done = true
	}
	if int(w.tick) >= w.tune.MaxSteps && !w.done {
		w.done = true
		for slot := range w.agents {
			if t := w.agentThing(slot); t != nil && t.Agent.Alive {
				w.truncations[slot] = true
			}
		}
	}

	for slot := range w.agents {
		w.rewards[slot] = 0
		w.outcomes[slot] = OutcomeCounts{}
		if t := w.agentThing(slot); t != nil {
			a := t.Agent
			w.rewards[slot] = a.Reward
			a.Cumulative += float64(a.Reward)
			w.outcomes[slot] = a.Counters
		}
	}

	w.stats.Rotate(w.tick)

	if len(w.observers) > 0 {
		rec := TickRecord{
			Tick:            w.tick,
			Actions:         actions,
			Outcomes:        w.outcomes,
			StockpileDeltas: w.ledger.TickDeltas(),
			Digest:          w.StateDigest(),
		}
		for _, o := range w.observers {
			o.ObserveTick(rec)
		}
	}

	return StepResult{
		Tick:        w.tick,
		Rewards:     w.rewards,
		Terminals:   w.terminals,
		Truncations: w.truncations,
		Done:        w.done,
	}, nil
}

// tickBuildings decrements production cooldowns.
func (w *World) tickBuildings() {
	w.things.Range(func(t *Thing) {
		if t.Kind != KindBuilding || t.Building.Cooldown == 0 {
			return
		}
		t.Building.Cooldown--
		w.obsBuildingStats(t)
	})
}
