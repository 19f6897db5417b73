package battle

import "time"

type Status string

const (
	StatusPreparing Status = "preparing"
	StatusFighting  Status = "fighting"
	StatusVictory   Status = "victory"
	StatusDefeat    Status = "defeat"
)

// Live reports whether the status occupies the single active battle slot.
func (s Status) Live() bool {
	return s == StatusPreparing || s == StatusFighting
}

// State is one battle against a boss. CurrentHealth may go negative on the
// killing blow.
type State struct {
	BossID         string    `json:"bossId"`
	CurrentHealth  int       `json:"currentHealth"`
	CurrentPhase   int       `json:"currentPhase"`
	StartedAt      time.Time `json:"startedAt"`
	TasksCompleted int       `json:"tasksCompleted"`
	DamageDealt    int       `json:"damageDealt"`
	ComboCount     int       `json:"comboCount"`
	Status         Status    `json:"status"`
	Attempts       int       `json:"attempts"`
}

type DefeatRecord struct {
	BossID     string    `json:"bossId"`
	DefeatedAt time.Time `json:"defeatedAt"`
}

// Modifiers describe how the task behind a hit was completed.
type Modifiers struct {
	CompletedInTime  bool `json:"completedInTime"`
	MaintainedStreak bool `json:"maintainedStreak"`
	PerfectAccuracy  bool `json:"perfectAccuracy"`
}
