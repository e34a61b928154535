package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type Catalogs struct {
	Terrain   TerrainCatalog
	Items     ItemCatalog
	Buildings BuildingCatalog
	Recipes   RecipeCatalog
}

type TerrainCatalog struct {
	Palette       []string
	Index         map[string]uint8
	Defs          map[string]TerrainDef
	PaletteDigest string
	DefsDigest    string
}

type TerrainDef struct {
	ID        string `json:"id"`
	Walkable  bool   `json:"walkable"`
	Buildable bool   `json:"buildable"`
	Fast      bool   `json:"fast,omitempty"`
}

type ItemCatalog struct {
	Palette       []string
	Index         map[string]uint8
	Defs          map[string]ItemDef
	PaletteDigest string
	DefsDigest    string
}

type ItemDef struct {
	ID   string `json:"id"`
	Kind string `json:"kind"` // "RESOURCE","TOOL","GOOD"
}

type BuildingCatalog struct {
	Palette []string
	Index   map[string]uint8
	Defs    map[string]BuildingDef
	Digest  string
}

type BuildingDef struct {
	ID              string      `json:"id"`
	HP              int         `json:"hp"`
	PopCapacity     int         `json:"pop_capacity,omitempty"`
	StorageCapacity int         `json:"storage_capacity,omitempty"`
	CooldownTicks   int         `json:"cooldown_ticks,omitempty"`
	Cost            []ItemCount `json:"cost,omitempty"`
	Buildable       bool        `json:"buildable"`
	Home            bool        `json:"home,omitempty"`
	Fertility       bool        `json:"fertility,omitempty"`
}

type RecipeCatalog struct {
	ByID      map[string]RecipeDef
	ByStation map[string][]RecipeDef
	Digest    string
}

type RecipeDef struct {
	RecipeID string      `json:"recipe_id"`
	Station  string      `json:"station"`
	Inputs   []ItemCount `json:"inputs"`
	Outputs  []ItemCount `json:"outputs"`
}

type ItemCount struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadTerrain(filepath.Join(configDir, "terrain.json"), &c.Terrain); err != nil {
		return nil, err
	}
	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	if err := loadBuildings(filepath.Join(configDir, "buildings.json"), &c.Buildings); err != nil {
		return nil, err
	}
	if err := loadRecipes(filepath.Join(configDir, "recipes.json"), &c.Recipes); err != nil {
		return nil, err
	}

	// Recipes must reference known stations and items.
	for _, r := range c.Recipes.ByID {
		if _, ok := c.Buildings.Defs[r.Station]; !ok {
			return nil, fmt.Errorf("recipes.json: %s: unknown station %s", r.RecipeID, r.Station)
		}
		for _, ic := range append(append([]ItemCount{}, r.Inputs...), r.Outputs...) {
			if _, ok := c.Items.Defs[ic.Item]; !ok {
				return nil, fmt.Errorf("recipes.json: %s: unknown item %s", r.RecipeID, ic.Item)
			}
		}
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadTerrain(path string, out *TerrainCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []TerrainDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("terrain.json: %w", err)
	}
	out.Defs = map[string]TerrainDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("terrain.json: empty id")
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// GRASS is the fill terrain and must be palette id 0.
	if _, ok := out.Defs["GRASS"]; !ok {
		return fmt.Errorf("terrain.json: missing GRASS")
	}
	ids = append([]string{"GRASS"}, filterOut(ids, "GRASS")...)

	out.Palette = ids
	out.Index = make(map[string]uint8, len(ids))
	for i, id := range ids {
		out.Index[id] = uint8(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = map[string]ItemDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("items.json: empty id")
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Palette = ids
	out.Index = make(map[string]uint8, len(ids))
	for i, id := range ids {
		out.Index[id] = uint8(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func loadBuildings(path string, out *BuildingCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []BuildingDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("buildings.json: %w", err)
	}
	out.Defs = map[string]BuildingDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("buildings.json: empty id")
		}
		if d.HP <= 0 {
			return fmt.Errorf("buildings.json: %s: hp must be positive", d.ID)
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Palette = ids
	out.Index = make(map[string]uint8, len(ids))
	for i, id := range ids {
		out.Index[id] = uint8(i)
	}
	return nil
}

func loadRecipes(path string, out *RecipeCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []RecipeDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("recipes.json: %w", err)
	}
	out.ByID = map[string]RecipeDef{}
	out.ByStation = map[string][]RecipeDef{}
	for _, r := range defs {
		if r.RecipeID == "" {
			return fmt.Errorf("recipes.json: empty recipe_id")
		}
		if len(r.Outputs) == 0 {
			return fmt.Errorf("recipes.json: %s: no outputs", r.RecipeID)
		}
		out.ByID[r.RecipeID] = r
		out.ByStation[r.Station] = append(out.ByStation[r.Station], r)
	}
	for st := range out.ByStation {
		rs := out.ByStation[st]
		sort.Slice(rs, func(i, j int) bool { return rs[i].RecipeID < rs[j].RecipeID })
		out.ByStation[st] = rs
	}
	return nil
}

func filterOut(ids []string, drop string) []string {
	outIDs := ids[:0]
	for _, id := range ids {
		if id != drop {
			outIDs = append(outIDs, id)
		}
	}
	return outIDs
}
