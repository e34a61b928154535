package protocol

// HELLO (client -> server): request control of agent slots.
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	Team            int    `json:"team"`            // -1 = any
	Slots           int    `json:"slots,omitempty"` // how many; 0 = whole team
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	Team            int            `json:"team"`
	Slots           []int          `json:"slots"`
	WorldParams     WorldParams    `json:"world_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type WorldParams struct {
	TickRateHz    int      `json:"tick_rate_hz"`
	MaxSteps      int      `json:"max_steps"`
	MapWidth      int      `json:"map_width"`
	MapHeight     int      `json:"map_height"`
	NumTeams      int      `json:"num_teams"`
	AgentsPerTeam int      `json:"agents_per_team"`
	ObsRadius     int      `json:"obs_radius"`
	Seed          int64    `json:"seed"`
	NumVerbs      int      `json:"num_verbs"`
	NumArgs       int      `json:"num_args"`
	Layers        []string `json:"layers"`
}

type CatalogDigests struct {
	TerrainPalette  DigestRef `json:"terrain_palette"`
	ItemPalette     DigestRef `json:"item_palette"`
	BuildingPalette DigestRef `json:"building_palette"`
	RecipesDigest   string    `json:"recipes_digest"`
}

type DigestRef struct {
	Digest string `json:"digest"` // sha256 hex
	Count  int    `json:"count"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}
