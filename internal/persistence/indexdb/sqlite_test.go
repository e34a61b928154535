package indexdb

import (
	"path/filepath"
	"testing"

	"tribalgrid.ai/internal/persistence/log"
)

func TestSQLiteIndex_TicksAndStockpiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer idx.Close()

	if err := idx.StartEpisode("ep1", 42); err != nil {
		t.Fatalf("start episode: %v", err)
	}
	for tick := uint64(1); tick <= 5; tick++ {
		idx.WriteTick("ep1", log.TickEntry{Tick: tick, Digest: "d"})
	}
	idx.WriteStockpileDeltas("ep1", 3, [][]int32{{2, 0}, {0, -1}})
	idx.WriteStockpileDeltas("ep1", 4, [][]int32{{1, 0}, {0, 0}})
	idx.Flush()

	n, err := idx.TickCount("ep1")
	if err != nil {
		t.Fatalf("tick count: %v", err)
	}
	if n != 5 {
		t.Fatalf("ticks = %d, want 5", n)
	}

	d, err := idx.TickDigest("ep1", 3)
	if err != nil {
		t.Fatalf("tick digest: %v", err)
	}
	if d != "d" {
		t.Fatalf("digest = %q", d)
	}

	total, err := idx.StockpileTotal("ep1", 0, 0)
	if err != nil {
		t.Fatalf("stockpile total: %v", err)
	}
	if total != 3 {
		t.Fatalf("team 0 item 0 total = %d, want 3", total)
	}

	if err := idx.FinishEpisode("ep1", 5, "final"); err != nil {
		t.Fatalf("finish: %v", err)
	}
}
