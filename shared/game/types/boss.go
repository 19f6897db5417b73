package types

import "time"

type MechanicType string

const (
	MechanicTimeLimit         MechanicType = "time_limit"
	MechanicStreakRequirement MechanicType = "streak_requirement"
	MechanicNoBreaks          MechanicType = "no_breaks"
	MechanicPerfectAccuracy   MechanicType = "perfect_accuracy"
	MechanicSpeedRun          MechanicType = "speed_run"
)

// Mechanic is a constraint the player must respect during a phase.
// Value is the threshold the observation is compared against; nil means
// the mechanic declares none.
type Mechanic struct {
	Type        MechanicType `json:"type" yaml:"type"`
	Value       *float64     `json:"value,omitempty" yaml:"value,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
}

// Threshold returns the declared value or def when none is declared.
func (m Mechanic) Threshold(def float64) float64 {
	if m.Value == nil {
		return def
	}
	return *m.Value
}

type RewardBundle struct {
	XP           int      `json:"xp" yaml:"xp"`
	Gold         int      `json:"gold" yaml:"gold"`
	Items        []string `json:"items,omitempty" yaml:"items,omitempty"`
	Achievements []string `json:"achievements,omitempty" yaml:"achievements,omitempty"`
}

// Add concatenates item and achievement lists without deduplication.
func (r RewardBundle) Add(o RewardBundle) RewardBundle {
	out := RewardBundle{
		XP:   r.XP + o.XP,
		Gold: r.Gold + o.Gold,
	}
	out.Items = append(append(out.Items, r.Items...), o.Items...)
	out.Achievements = append(append(out.Achievements, r.Achievements...), o.Achievements...)
	return out
}

// BossPhase begins once cumulative damage reaches TotalHealth - Health.
type BossPhase struct {
	Name      string       `json:"name" yaml:"name"`
	Health    int          `json:"health" yaml:"health"`
	Mechanics []Mechanic   `json:"mechanics,omitempty" yaml:"mechanics,omitempty"`
	Rewards   RewardBundle `json:"rewards" yaml:"rewards"`
}

// Mechanic returns the first mechanic of the given type declared on the phase.
func (p BossPhase) Mechanic(t MechanicType) (Mechanic, bool) {
	for _, m := range p.Mechanics {
		if m.Type == t {
			return m, true
		}
	}
	return Mechanic{}, false
}

type Boss struct {
	ID            string      `json:"id" yaml:"id"`
	Name          string      `json:"name" yaml:"name"`
	Title         string      `json:"title,omitempty" yaml:"title,omitempty"`
	Description   string      `json:"description,omitempty" yaml:"description,omitempty"`
	Difficulty    Difficulty  `json:"difficulty" yaml:"difficulty"`
	TotalHealth   int         `json:"totalHealth" yaml:"total_health"`
	UnlockLevel   int         `json:"unlockLevel" yaml:"unlock_level"`
	CooldownHours float64     `json:"cooldownHours" yaml:"cooldown_hours"`
	Phases        []BossPhase `json:"phases" yaml:"phases"`
	Weaknesses    []string    `json:"weaknesses,omitempty" yaml:"weaknesses,omitempty"`
	Resistances   []string    `json:"resistances,omitempty" yaml:"resistances,omitempty"`
}

func (b *Boss) Cooldown() time.Duration {
	return time.Duration(b.CooldownHours * float64(time.Hour))
}

// PhaseThreshold is the cumulative damage at which phase i begins.
func (b *Boss) PhaseThreshold(i int) int {
	return b.TotalHealth - b.Phases[i].Health
}
