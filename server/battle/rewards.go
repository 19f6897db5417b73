package battle

import (
	"math"

	"questline/server/balance"
	"questline/shared/game/types"
)

// Rewards sums every phase's bundle, scales it by the boss difficulty and
// doubles xp and gold on a first defeat.
func Rewards(b *types.Boss, firstDefeat bool) types.RewardBundle {
	var total types.RewardBundle
	for _, p := range b.Phases {
		total = total.Add(p.Rewards)
	}
	mult := b.Difficulty.RewardMultiplier()
	total.XP = int(math.Floor(float64(total.XP) * mult))
	total.Gold = int(math.Floor(float64(total.Gold) * mult))

	if firstDefeat {
		total.XP *= balance.FirstDefeatMultiplier
		total.Gold *= balance.FirstDefeatMultiplier
		total.Achievements = append(total.Achievements, balance.FirstDefeatAchievementPrefix+b.ID)
	}
	return total
}
