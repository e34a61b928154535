package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz int `yaml:"tick_rate_hz"`
	MaxSteps   int `yaml:"max_steps"`

	MapWidth      int `yaml:"map_width"`
	MapHeight     int `yaml:"map_height"`
	NumTeams      int `yaml:"num_teams"`
	AgentsPerTeam int `yaml:"agents_per_team"`
	ObsRadius     int `yaml:"obs_radius"`

	CarryCapacity int `yaml:"carry_capacity"`
	ToolCapacity  int `yaml:"tool_capacity"`

	Combat Combat `yaml:"combat"`
	Creep  Creep  `yaml:"creep"`
	Spawn  Spawn  `yaml:"spawn"`

	Rewards Rewards `yaml:"rewards"`
}

type Combat struct {
	AttackDamage int `yaml:"attack_damage"`
	SpearBonus   int `yaml:"spear_bonus"`
	FrozenTicks  int `yaml:"frozen_ticks"`
	ShieldTicks  int `yaml:"shield_ticks"`
	TintTicks    int `yaml:"tint_ticks"`
	AgentHP      int `yaml:"agent_hp"`
	TumorHP      int `yaml:"tumor_hp"`
	PredatorHP   int `yaml:"predator_hp"`
}

type Creep struct {
	BranchMinAge       int `yaml:"branch_min_age"`
	BranchProbPermille int `yaml:"branch_prob_permille"`
	BranchRadius       int `yaml:"branch_radius"`
	StaggerWindow      int `yaml:"stagger_window"`
	GlobalCap          int `yaml:"global_cap"`
	LethalProbPermille int `yaml:"lethal_prob_permille"`
	SpawnEveryTicks    int `yaml:"spawn_every_ticks"`
}

type Spawn struct {
	RespawnCostFood int `yaml:"respawn_cost_food"`
	BirthCostFood   int `yaml:"birth_cost_food"`
	BirthCostWater  int `yaml:"birth_cost_water"`
	RingSearchMax   int `yaml:"ring_search_max"`
}

// Rewards mirrors the reward table of the original environment config.
type Rewards struct {
	Heart           float64 `yaml:"heart"`
	Ore             float64 `yaml:"ore"`
	Bar             float64 `yaml:"bar"`
	Wood            float64 `yaml:"wood"`
	Water           float64 `yaml:"water"`
	Wheat           float64 `yaml:"wheat"`
	Spear           float64 `yaml:"spear"`
	Armor           float64 `yaml:"armor"`
	Food            float64 `yaml:"food"`
	Cloth           float64 `yaml:"cloth"`
	TumorKill       float64 `yaml:"tumor_kill"`
	SurvivalPenalty float64 `yaml:"survival_penalty"`
	DeathPenalty    float64 `yaml:"death_penalty"`
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: "1.0",

		TickRateHz: 10,
		MaxSteps:   10000,

		MapWidth:      96,
		MapHeight:     96,
		NumTeams:      2,
		AgentsPerTeam: 8,
		ObsRadius:     5,

		CarryCapacity: 8,
		ToolCapacity:  2,

		Combat: Combat{
			AttackDamage: 2,
			SpearBonus:   2,
			FrozenTicks:  5,
			ShieldTicks:  4,
			TintTicks:    3,
			AgentHP:      10,
			TumorHP:      4,
			PredatorHP:   8,
		},
		Creep: Creep{
			BranchMinAge:       20,
			BranchProbPermille: 60,
			BranchRadius:       2,
			StaggerWindow:      4,
			GlobalCap:          256,
			LethalProbPermille: 150,
			SpawnEveryTicks:    200,
		},
		Spawn: Spawn{
			RespawnCostFood: 1,
			BirthCostFood:   2,
			BirthCostWater:  1,
			RingSearchMax:   4,
		},
		Rewards: Rewards{
			Heart:           1.0,
			Ore:             0.1,
			Bar:             0.25,
			Wood:            0.1,
			Water:           0.05,
			Wheat:           0.1,
			Spear:           0.5,
			Armor:           0.5,
			Food:            0.25,
			Cloth:           0.25,
			TumorKill:       1.0,
			SurvivalPenalty: -0.001,
			DeathPenalty:    -1.0,
		},
	}
}
