// Package metrics exposes the server's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BattlesStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "questline_battles_started_total",
		Help: "Boss battles started, by boss.",
	}, []string{"boss"})

	BattleVictories = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "questline_battle_victories_total",
		Help: "Boss battles won, by boss and whether it was the first defeat.",
	}, []string{"boss", "first"})

	BattleForfeits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "questline_battle_forfeits_total",
		Help: "Boss battles forfeited, by boss.",
	}, []string{"boss"})

	DamageDealt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "questline_damage_dealt_total",
		Help: "Damage dealt to bosses after modifiers.",
	})

	MechanicViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "questline_mechanic_violations_total",
		Help: "Phase mechanic violations reported, by mechanic type.",
	}, []string{"mechanic"})

	SkillUnlocks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "questline_skill_unlocks_total",
		Help: "Skill node level-ups, by tree.",
	}, []string{"tree"})

	TreeResets = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "questline_tree_resets_total",
		Help: "Skill tree resets, by tree.",
	}, []string{"tree"})

	SnapshotFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "questline_snapshot_fallbacks_total",
		Help: "Corrupt snapshots replaced by defaults on load.",
	})

	SnapshotSaveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "questline_snapshot_save_failures_total",
		Help: "Snapshot saves that failed after a successful mutation.",
	})

	HubRateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "questline_hub_rate_limited_total",
		Help: "Websocket messages refused by the per-connection rate limit, by type.",
	}, []string{"type"})

	CatalogReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "questline_catalog_reloads_total",
		Help: "Catalog hot reloads, by result.",
	}, []string{"result"})
)
