package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"tribalgrid.ai/internal/persistence/indexdb"
	persistlog "tribalgrid.ai/internal/persistence/log"
	"tribalgrid.ai/internal/sim/catalogs"
	"tribalgrid.ai/internal/sim/scripted"
	"tribalgrid.ai/internal/sim/tuning"
	"tribalgrid.ai/internal/sim/world"
	"tribalgrid.ai/internal/sim/worldgen"
	"tribalgrid.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		seed       = flag.Int64("seed", 1337, "world seed")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		bots       = flag.Bool("bots", false, "drive uncontrolled teams with scripted role heuristics")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite episode index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := *tuningPath
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	w, err := world.New(world.Config{Seed: *seed, Tune: tune, Cats: cats})
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	if err := w.Reset(worldgen.NewVillage(*seed)); err != nil {
		logger.Fatalf("generate: %v", err)
	}

	episodesDir := filepath.Join(*dataDir, "episodes")
	_ = os.MkdirAll(episodesDir, 0o755)

	// Optional read-model index. The JSONL logs stay the source of truth.
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
	}

	eps := newEpisodeSink(episodesDir, *seed, idx, logger)
	if err := eps.begin(); err != nil {
		logger.Fatalf("episode log: %v", err)
	}
	defer eps.close()
	w.AddObserver(eps)

	hub := ws.NewHub(w, logger)
	hub.OnEpisodeEnd = func(endTick uint64, digest string) {
		eps.finish(endTick, digest)
	}
	hub.ResetFunc = func(w *world.World) error {
		if err := w.Reset(worldgen.NewVillage(*seed)); err != nil {
			return err
		}
		return eps.begin()
	}
	if *bots {
		ctrls := make([]*scripted.Controller, w.NumTeams())
		for team := range ctrls {
			ctrls[team] = scripted.NewController(w, team)
		}
		hub.ScriptFunc = func(tick uint64, acts []byte) {
			for _, c := range ctrls {
				c.Act(tick, acts)
			}
		}
		logger.Printf("scripted bots enabled for uncontrolled teams")
	}

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := hub.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("hub stopped: %v", err)
		}
		cancel()
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		alive := 0
		for slot := 0; slot < w.NumAgents(); slot++ {
			if t := w.Agent(slot); t != nil && t.Agent.Alive {
				alive++
			}
		}

		fmt.Fprintf(rw, "# HELP tribalgrid_tick Current episode tick.\n")
		fmt.Fprintf(rw, "# TYPE tribalgrid_tick gauge\n")
		fmt.Fprintf(rw, "tribalgrid_tick %d\n", w.CurrentTick())

		fmt.Fprintf(rw, "# HELP tribalgrid_agents_alive Living agents.\n")
		fmt.Fprintf(rw, "# TYPE tribalgrid_agents_alive gauge\n")
		fmt.Fprintf(rw, "tribalgrid_agents_alive %d\n", alive)

		fmt.Fprintf(rw, "# HELP tribalgrid_episode Episodes completed since start.\n")
		fmt.Fprintf(rw, "# TYPE tribalgrid_episode counter\n")
		fmt.Fprintf(rw, "tribalgrid_episode %d\n", eps.count())
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(hub, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (seed=%d teams=%d agents=%d)", *addr, *seed, w.NumTeams(), w.NumAgents())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

// episodeSink rotates the tick/audit recorder per episode and keeps the
// sqlite index in step. Each episode gets its own directory so the replay
// tool can verify it in isolation.
type episodeSink struct {
	root   string
	seed   int64
	idx    *indexdb.SQLiteIndex
	logger *log.Logger

	mu  sync.Mutex
	n   int
	id  string
	rec *persistlog.Recorder
}

func newEpisodeSink(root string, seed int64, idx *indexdb.SQLiteIndex, logger *log.Logger) *episodeSink {
	return &episodeSink{root: root, seed: seed, idx: idx, logger: logger}
}

func (e *episodeSink) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rec != nil {
		_ = e.rec.Close()
	}
	e.n++
	e.id = fmt.Sprintf("ep-%d-%04d", e.seed, e.n)
	dir := filepath.Join(e.root, e.id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	e.rec = persistlog.NewRecorder(dir, e.logger)
	if e.idx != nil {
		if err := e.idx.StartEpisode(e.id, e.seed); err != nil {
			e.logger.Printf("[index] start episode: %v", err)
		}
	}
	e.logger.Printf("episode %s started", e.id)
	return nil
}

func (e *episodeSink) finish(endTick uint64, digest string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.idx != nil {
		e.idx.Flush()
		if err := e.idx.FinishEpisode(e.id, endTick, digest); err != nil {
			e.logger.Printf("[index] finish episode: %v", err)
		}
	}
	e.logger.Printf("episode %s finished at tick %d", e.id, endTick)
}

func (e *episodeSink) ObserveTick(rec world.TickRecord) {
	e.mu.Lock()
	r, id := e.rec, e.id
	e.mu.Unlock()
	if r == nil {
		return
	}
	r.ObserveTick(rec)
	if e.idx != nil {
		te := persistlog.TickEntry{
			Tick:    rec.Tick,
			Actions: make([]int, len(rec.Actions)),
			Digest:  rec.Digest,
		}
		for i, a := range rec.Actions {
			te.Actions[i] = int(a)
		}
		e.idx.WriteTick(id, te)
		deltas := make([][]int32, len(rec.StockpileDeltas))
		for i, d := range rec.StockpileDeltas {
			row := make([]int32, len(d))
			copy(row, d)
			deltas[i] = row
		}
		e.idx.WriteStockpileDeltas(id, rec.Tick, deltas)
	}
}

func (e *episodeSink) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.n
}

func (e *episodeSink) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rec != nil {
		_ = e.rec.Close()
		e.rec = nil
	}
}
