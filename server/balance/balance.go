package balance

const (
	// Damage multipliers, applied in this order.
	CompletedInTimeMultiplier  = 1.2
	MaintainedStreakMultiplier = 1.5
	PerfectAccuracyMultiplier  = 2.0

	// First victory against a boss doubles xp and gold.
	FirstDefeatMultiplier        = 2
	FirstDefeatAchievementPrefix = "first_defeat_"

	// Minutes of break tolerated by a no_breaks mechanic that declares no value.
	DefaultNoBreaksMinutes = 5

	// Share of spent points returned by a tree reset.
	ResetRefundRatio = 0.8

	// Largest base damage a single task may deal before modifiers.
	MaxBaseDamage = 1_000_000

	SkillPointsPerLevel = 1
	StartingGold        = 100
)

// Effect types the account layer applies to gameplay. Values are percentages.
const (
	EffectXPBoost    = "xp_boost"
	EffectGoldBoost  = "gold_boost"
	EffectBossDamage = "boss_damage"
)

// Websocket request budget per connection.
const (
	HubMessageRateHz = 10.0
	HubMessageBurst  = 20.0
)
