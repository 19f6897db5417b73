package types

type Difficulty string

const (
	DifficultyNormal    Difficulty = "normal"
	DifficultyHard      Difficulty = "hard"
	DifficultyLegendary Difficulty = "legendary"
	DifficultyMythic    Difficulty = "mythic"
)

// RewardMultiplier scales the summed phase rewards of a boss on victory.
func (d Difficulty) RewardMultiplier() float64 {
	switch d {
	case DifficultyNormal:
		return 1
	case DifficultyHard:
		return 1.5
	case DifficultyLegendary:
		return 2
	case DifficultyMythic:
		return 3
	default:
		return 1
	}
}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyNormal, DifficultyHard, DifficultyLegendary, DifficultyMythic:
		return true
	}
	return false
}
