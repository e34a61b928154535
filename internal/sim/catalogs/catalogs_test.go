package catalogs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_RealConfigs(t *testing.T) {
	c, err := Load("../../../configs")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if c.Terrain.Palette[0] != "GRASS" {
		t.Fatalf("terrain palette[0] = %s, want GRASS", c.Terrain.Palette[0])
	}
	if c.Terrain.PaletteDigest == "" || c.Items.PaletteDigest == "" ||
		c.Buildings.Digest == "" || c.Recipes.Digest == "" {
		t.Fatal("missing catalog digest")
	}

	for id, idx := range c.Items.Index {
		if c.Items.Palette[idx] != id {
			t.Fatalf("items index/palette disagree for %s", id)
		}
	}

	// Per-station recipe order is the crafting priority and must be stable.
	for st, rs := range c.Recipes.ByStation {
		for i := 1; i < len(rs); i++ {
			if rs[i-1].RecipeID >= rs[i].RecipeID {
				t.Fatalf("station %s recipes out of order: %s >= %s", st, rs[i-1].RecipeID, rs[i].RecipeID)
			}
		}
	}

	for _, id := range []string{"TOWN_HALL", "HOUSE", "TEMPLE", "GRANARY", "TUMOR_SPAWNER"} {
		if _, ok := c.Buildings.Defs[id]; !ok {
			t.Fatalf("missing building %s", id)
		}
	}
}

func TestLoad_RejectsUnknownRecipeItem(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("terrain.json", `[{"id":"GRASS","walkable":true,"buildable":true}]`)
	write("items.json", `[{"id":"WOOD","kind":"RESOURCE"}]`)
	write("buildings.json", `[{"id":"HUT","hp":10,"buildable":true}]`)
	write("recipes.json", `[{"recipe_id":"R1","station":"HUT","inputs":[{"item":"NOPE","count":1}],"outputs":[{"item":"WOOD","count":1}]}]`)

	if _, err := Load(dir); err == nil {
		t.Fatal("recipe referencing an unknown item must fail to load")
	}
}

func TestLoad_RejectsUnknownStation(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("terrain.json", `[{"id":"GRASS","walkable":true,"buildable":true}]`)
	write("items.json", `[{"id":"WOOD","kind":"RESOURCE"}]`)
	write("buildings.json", `[{"id":"HUT","hp":10,"buildable":true}]`)
	write("recipes.json", `[{"recipe_id":"R1","station":"GHOST","inputs":[],"outputs":[{"item":"WOOD","count":1}]}]`)

	if _, err := Load(dir); err == nil {
		t.Fatal("recipe referencing an unknown station must fail to load")
	}
}
