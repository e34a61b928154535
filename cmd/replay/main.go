package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	persistlog "tribalgrid.ai/internal/persistence/log"
	"tribalgrid.ai/internal/sim/catalogs"
	"tribalgrid.ai/internal/sim/tuning"
	"tribalgrid.ai/internal/sim/world"
	"tribalgrid.ai/internal/sim/worldgen"
)

// replay rebuilds a world from an episode's tick log and verifies the
// recorded per-tick digests. Any divergence is a determinism bug (or a
// config drift between record and replay).
func main() {
	var (
		episodeDir = flag.String("episode", "", "episode directory containing ticks/")
		seed       = flag.Int64("seed", 1337, "seed the episode was generated with")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		fromTick   = flag.Uint64("from_tick", 0, "start verifying from tick (inclusive, optional)")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *episodeDir == "" {
		fmt.Fprintln(os.Stderr, "missing -episode")
		os.Exit(2)
	}

	entries, err := persistlog.ReadTickEntries(*episodeDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read ticks:", err)
		os.Exit(1)
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	tp := *tuningPath
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tune = tuning.Defaults()
	}

	w, err := world.New(world.Config{Seed: *seed, Tune: tune, Cats: cats})
	if err != nil {
		fmt.Fprintln(os.Stderr, "world:", err)
		os.Exit(1)
	}
	if err := w.Reset(worldgen.NewVillage(*seed)); err != nil {
		fmt.Fprintln(os.Stderr, "generate:", err)
		os.Exit(1)
	}

	acts := make([]byte, w.NumAgents())
	var checked uint64
	for _, e := range entries {
		if *toTick != 0 && e.Tick > *toTick {
			break
		}
		if len(e.Actions) != len(acts) {
			fmt.Fprintf(os.Stderr, "tick %d: %d actions, world has %d agents\n", e.Tick, len(e.Actions), len(acts))
			os.Exit(1)
		}
		for i, a := range e.Actions {
			acts[i] = byte(a)
		}
		res, err := w.Step(acts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tick %d: step: %v\n", e.Tick, err)
			os.Exit(1)
		}
		if res.Tick != e.Tick {
			fmt.Fprintf(os.Stderr, "tick mismatch: stepped=%d entry=%d\n", res.Tick, e.Tick)
			os.Exit(1)
		}
		if e.Tick < *fromTick {
			continue
		}
		checked++
		if got := w.StateDigest(); got != e.Digest {
			fmt.Fprintf(os.Stderr, "digest mismatch at tick %d: got=%s want=%s\n", e.Tick, got, e.Digest)
			os.Exit(1)
		}
	}
	fmt.Printf("replay ok: checked=%d of %d ticks (seed=%d)\n", checked, len(entries), *seed)
}
