package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"
)

// ReadTickEntries loads every tick entry under an episode dir, across all
// rotated segments, sorted by tick. The replay tool feeds these back into
// a fresh world.
func ReadTickEntries(episodeDir string) ([]TickEntry, error) {
	pattern := filepath.Join(episodeDir, "ticks", "ticks-*.jsonl.zst")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no tick segments match %s", pattern)
	}
	sort.Strings(files)

	var out []TickEntry
	for _, path := range files {
		if err := readSegment(path, &out); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tick < out[j].Tick })
	return out, nil
}

func readSegment(path string, out *[]TickEntry) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e TickEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return err
		}
		*out = append(*out, e)
	}
	return sc.Err()
}
