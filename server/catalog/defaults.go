package catalog

import "questline/shared/game/types"

func f(v float64) *float64 { return &v }

var defaultBosses = []types.Boss{
	{
		ID:            "procrastination_imp",
		Name:          "Procrastination Imp",
		Title:         "Whisperer of Later",
		Description:   "Feeds on every task pushed to tomorrow.",
		Difficulty:    types.DifficultyNormal,
		TotalHealth:   100,
		UnlockLevel:   1,
		CooldownHours: 24,
		Phases: []types.BossPhase{
			{
				Name:      "Distraction",
				Health:    100,
				Mechanics: []types.Mechanic{{Type: types.MechanicTimeLimit, Value: f(30)}},
				Rewards:   types.RewardBundle{XP: 50, Gold: 20},
			},
			{
				Name:      "Excuses",
				Health:    50,
				Mechanics: []types.Mechanic{{Type: types.MechanicNoBreaks}},
				Rewards:   types.RewardBundle{XP: 75, Gold: 30, Items: []string{"focus_potion"}},
			},
		},
		Weaknesses: []string{"deadline"},
	},
	{
		ID:            "chaos_hydra",
		Name:          "Chaos Hydra",
		Title:         "Many-Headed Inbox",
		Description:   "Every task struck down spawns two more.",
		Difficulty:    types.DifficultyHard,
		TotalHealth:   300,
		UnlockLevel:   5,
		CooldownHours: 48,
		Phases: []types.BossPhase{
			{
				Name:      "Clutter",
				Health:    300,
				Mechanics: []types.Mechanic{{Type: types.MechanicStreakRequirement, Value: f(3)}},
				Rewards:   types.RewardBundle{XP: 100, Gold: 40},
			},
			{
				Name:      "Overload",
				Health:    200,
				Mechanics: []types.Mechanic{{Type: types.MechanicTimeLimit, Value: f(25)}, {Type: types.MechanicNoBreaks, Value: f(10)}},
				Rewards:   types.RewardBundle{XP: 150, Gold: 60},
			},
			{
				Name:      "Regrowth",
				Health:    80,
				Mechanics: []types.Mechanic{{Type: types.MechanicPerfectAccuracy}},
				Rewards:   types.RewardBundle{XP: 200, Gold: 80, Items: []string{"hydra_scale"}},
			},
		},
		Weaknesses:  []string{"batching"},
		Resistances: []string{"multitasking"},
	},
	{
		ID:            "burnout_lich",
		Name:          "Burnout Lich",
		Title:         "Eater of Weekends",
		Description:   "Grows stronger with every skipped rest.",
		Difficulty:    types.DifficultyLegendary,
		TotalHealth:   600,
		UnlockLevel:   10,
		CooldownHours: 72,
		Phases: []types.BossPhase{
			{
				Name:      "Fatigue",
				Health:    600,
				Mechanics: []types.Mechanic{{Type: types.MechanicStreakRequirement, Value: f(5)}},
				Rewards:   types.RewardBundle{XP: 250, Gold: 100},
			},
			{
				Name:      "Apathy",
				Health:    350,
				Mechanics: []types.Mechanic{{Type: types.MechanicSpeedRun, Value: f(60)}},
				Rewards:   types.RewardBundle{XP: 300, Gold: 120, Achievements: []string{"apathy_breaker"}},
			},
			{
				Name:      "Collapse",
				Health:    150,
				Mechanics: []types.Mechanic{{Type: types.MechanicNoBreaks, Value: f(3)}, {Type: types.MechanicPerfectAccuracy}},
				Rewards:   types.RewardBundle{XP: 400, Gold: 150, Items: []string{"phylactery_shard"}},
			},
		},
		Resistances: []string{"caffeine"},
	},
	{
		ID:            "entropy_titan",
		Name:          "Entropy Titan",
		Title:         "The Unfinished",
		Description:   "Every abandoned project, risen at once.",
		Difficulty:    types.DifficultyMythic,
		TotalHealth:   1200,
		UnlockLevel:   18,
		CooldownHours: 168,
		Phases: []types.BossPhase{
			{
				Name:      "Drift",
				Health:    1200,
				Mechanics: []types.Mechanic{{Type: types.MechanicTimeLimit, Value: f(45)}},
				Rewards:   types.RewardBundle{XP: 500, Gold: 200},
			},
			{
				Name:      "Decay",
				Health:    800,
				Mechanics: []types.Mechanic{{Type: types.MechanicStreakRequirement, Value: f(7)}},
				Rewards:   types.RewardBundle{XP: 600, Gold: 250},
			},
			{
				Name:      "Unraveling",
				Health:    400,
				Mechanics: []types.Mechanic{{Type: types.MechanicNoBreaks, Value: f(2)}, {Type: types.MechanicPerfectAccuracy}},
				Rewards:   types.RewardBundle{XP: 800, Gold: 350, Items: []string{"titan_core"}, Achievements: []string{"order_restored"}},
			},
		},
	},
}

var defaultTrees = []types.SkillTree{
	{
		ID:          "focus",
		Name:        "Focus",
		Description: "Deep work and attention.",
		Color:       "#4f7cff",
		Nodes: []types.SkillNode{
			{
				ID:       "deep_work",
				Name:     "Deep Work",
				MaxLevel: 5,
				Cost:     types.UnlockCost{Points: 1, RequiredLevel: 1},
				Effects:  []types.SkillEffect{{Type: "xp_boost", Base: 5, PerLevel: f(5)}},
			},
			{
				ID:            "flow_state",
				Name:          "Flow State",
				MaxLevel:      3,
				Cost:          types.UnlockCost{Points: 2, RequiredLevel: 5},
				Effects:       []types.SkillEffect{{Type: "boss_damage", Base: 10}},
				Prerequisites: []types.Prerequisite{{NodeID: "deep_work", MinLevel: 2}},
			},
			{
				ID:            "laser_mind",
				Name:          "Laser Mind",
				MaxLevel:      1,
				Cost:          types.UnlockCost{Points: 5, RequiredLevel: 12},
				Effects:       []types.SkillEffect{{Type: "boss_damage", Base: 25}, {Type: "xp_boost", Base: 10}},
				Prerequisites: []types.Prerequisite{{NodeID: "flow_state", MinLevel: 3}},
			},
		},
	},
	{
		ID:          "discipline",
		Name:        "Discipline",
		Description: "Habits, streaks and consistency.",
		Color:       "#e0574f",
		Nodes: []types.SkillNode{
			{
				ID:       "early_riser",
				Name:     "Early Riser",
				MaxLevel: 3,
				Cost:     types.UnlockCost{Points: 1, RequiredLevel: 1},
				Effects:  []types.SkillEffect{{Type: "gold_boost", Base: 5}},
			},
			{
				ID:            "iron_streak",
				Name:          "Iron Streak",
				MaxLevel:      3,
				Cost:          types.UnlockCost{Points: 2, RequiredLevel: 4},
				Effects:       []types.SkillEffect{{Type: "streak_protection", Base: 1}},
				Prerequisites: []types.Prerequisite{{NodeID: "early_riser", MinLevel: 1}},
			},
			{
				ID:            "unbreakable",
				Name:          "Unbreakable",
				MaxLevel:      2,
				Cost:          types.UnlockCost{Points: 4, RequiredLevel: 10},
				Effects:       []types.SkillEffect{{Type: "gold_boost", Base: 10, PerLevel: f(10)}, {Type: "streak_protection", Base: 1}},
				Prerequisites: []types.Prerequisite{{NodeID: "iron_streak", MinLevel: 2}, {NodeID: "early_riser", MinLevel: 3}},
			},
		},
	},
	{
		ID:          "wisdom",
		Name:        "Wisdom",
		Description: "Planning and reflection.",
		Color:       "#3fb37f",
		Nodes: []types.SkillNode{
			{
				ID:       "planner",
				Name:     "Planner",
				MaxLevel: 5,
				Cost:     types.UnlockCost{Points: 1, RequiredLevel: 2},
				Effects:  []types.SkillEffect{{Type: "task_insight", Base: 2}},
			},
			{
				ID:            "strategist",
				Name:          "Strategist",
				MaxLevel:      3,
				Cost:          types.UnlockCost{Points: 3, RequiredLevel: 8},
				Effects:       []types.SkillEffect{{Type: "xp_boost", Base: 3, PerLevel: f(2)}},
				Prerequisites: []types.Prerequisite{{NodeID: "planner", MinLevel: 3}},
			},
		},
	},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(defaultBosses, defaultTrees)
	if err != nil {
		panic(err)
	}
	return c
}
