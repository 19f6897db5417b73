package account

import (
	"fmt"
	"log"
	"math"

	"questline/shared/game/types"
)

// WalletError reports a rejected grant.
type WalletError struct {
	Code    string
	Message string
}

func (e *WalletError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type GrantResult struct {
	Applied      bool
	LevelsGained int
}

// Grant applies a reward bundle once per claim key. Replayed keys are ignored.
func (a *Account) Grant(claimKey string, r types.RewardBundle) (GrantResult, error) {
	if r.XP < 0 || r.Gold < 0 {
		return GrantResult{}, &WalletError{Code: "INVALID_AMOUNT", Message: "reward amounts must be >= 0"}
	}
	if claimKey != "" {
		if a.ClaimedRewards[claimKey] {
			log.Printf("ACCOUNT: Duplicate reward claim %s for %s ignored", claimKey, a.ID)
			return GrantResult{}, nil
		}
		a.ClaimedRewards[claimKey] = true
	}

	before := a.Level()
	a.XP += r.XP
	a.Gold += int64(r.Gold)
	a.Items = append(a.Items, r.Items...)
	a.Achievements = append(a.Achievements, r.Achievements...)

	return GrantResult{Applied: true, LevelsGained: a.Level() - before}, nil
}

// Boost scales xp and gold of a bundle by percentage bonuses.
func Boost(r types.RewardBundle, xpPct, goldPct float64) types.RewardBundle {
	r.XP = int(math.Floor(float64(r.XP) * (1 + xpPct/100)))
	r.Gold = int(math.Floor(float64(r.Gold) * (1 + goldPct/100)))
	return r
}
