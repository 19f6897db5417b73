// Package battle runs the boss battle state machine:
// preparing -> fighting -> victory | defeat.
package battle

import (
	"errors"
	"fmt"
	"math"
	"time"

	"questline/server/balance"
	"questline/server/catalog"
	"questline/shared/game/types"
)

var (
	ErrNoActiveBattle = errors.New("no battle in progress")
	ErrNotPreparing   = errors.New("battle is not preparing")
	ErrUnknownBoss    = errors.New("boss no longer in catalog")

	// ErrDamageOutOfRange is for callers that reject base damage above
	// balance.MaxBaseDamage instead of letting it saturate.
	ErrDamageOutOfRange = errors.New("base damage out of range")
)

// Manager owns one player's battle slot and defeat history. It is not safe
// for concurrent use.
type Manager struct {
	catalog *catalog.Catalog
	now     func() time.Time

	// current is the most recent battle, kept after it ends so a restart
	// against the same boss can carry the attempt count.
	current *State
	defeats []DefeatRecord
}

func NewManager(c *catalog.Catalog, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{catalog: c, now: now}
}

type DamageResult struct {
	DamageDealt   int                 `json:"damageDealt"`
	PhaseComplete bool                `json:"phaseComplete"`
	BattleWon     bool                `json:"battleWon"`
	FirstDefeat   bool                `json:"firstDefeat,omitempty"`
	Rewards       *types.RewardBundle `json:"rewards,omitempty"`
	State         State               `json:"state"`
}

// CanChallenge checks, in order: the boss exists, the user level meets the
// unlock level, the boss is off cooldown and no other battle is live.
func (m *Manager) CanChallenge(bossID string, userLevel int) types.Eligibility {
	b, ok := m.catalog.Boss(bossID)
	if !ok {
		return types.Ineligible(types.ReasonNotFound)
	}
	if userLevel < b.UnlockLevel {
		return types.Ineligible(types.ReasonLevelTooLow)
	}
	if last, ok := m.LastDefeat(bossID); ok && m.now().Before(last.Add(b.Cooldown())) {
		return types.Ineligible(types.ReasonOnCooldown)
	}
	if m.current != nil && m.current.Status.Live() {
		return types.Ineligible(types.ReasonBattleInProgress)
	}
	return types.Eligible()
}

// StartBattle opens a new battle in the preparing state. The attempt count
// carries over only when the previous battle was lost against the same boss.
func (m *Manager) StartBattle(bossID string, userLevel int) (State, error) {
	if err := m.CanChallenge(bossID, userLevel).Err(bossID); err != nil {
		return State{}, err
	}
	b, _ := m.catalog.Boss(bossID)

	attempts := 1
	if prev := m.current; prev != nil && prev.BossID == bossID && prev.Status == StatusDefeat {
		attempts = prev.Attempts + 1
	}
	m.current = &State{
		BossID:        bossID,
		CurrentHealth: b.TotalHealth,
		StartedAt:     m.now(),
		Status:        StatusPreparing,
		Attempts:      attempts,
	}
	return *m.current, nil
}

// Engage moves a preparing battle into the fighting state.
func (m *Manager) Engage() error {
	if m.current == nil || !m.current.Status.Live() {
		return ErrNoActiveBattle
	}
	if m.current.Status != StatusPreparing {
		return ErrNotPreparing
	}
	m.current.Status = StatusFighting
	return nil
}

// DealDamage applies one completed task to the fighting battle. At most one
// phase is entered per call, however large the hit.
func (m *Manager) DealDamage(base int, mods Modifiers) (DamageResult, error) {
	s := m.current
	if s == nil || s.Status != StatusFighting {
		return DamageResult{}, ErrNoActiveBattle
	}
	b, ok := m.catalog.Boss(s.BossID)
	if !ok {
		return DamageResult{}, fmt.Errorf("%w: %s", ErrUnknownBoss, s.BossID)
	}

	dmg := ApplyModifiers(base, mods)
	s.DamageDealt = saturatingAdd(s.DamageDealt, dmg)
	s.CurrentHealth = saturatingAdd(s.CurrentHealth, -dmg)
	s.CurrentPhase = clampPhase(s.CurrentPhase, len(b.Phases))
	s.TasksCompleted++
	if mods.MaintainedStreak {
		s.ComboCount++
	} else {
		s.ComboCount = 0
	}

	res := DamageResult{DamageDealt: dmg}
	if next := s.CurrentPhase + 1; next < len(b.Phases) && s.DamageDealt >= b.PhaseThreshold(next) {
		s.CurrentPhase = next
		res.PhaseComplete = true
	}

	if s.CurrentHealth <= 0 {
		_, defeatedBefore := m.LastDefeat(b.ID)
		rewards := Rewards(b, !defeatedBefore)
		m.recordDefeat(b.ID, m.now())
		s.Status = StatusVictory
		res.BattleWon = true
		res.FirstDefeat = !defeatedBefore
		res.Rewards = &rewards
	}
	res.State = *s
	return res, nil
}

// ApplyModifiers multiplies base damage by every earned bonus in a fixed
// order. Negative damage is treated as zero and base damage saturates at
// balance.MaxBaseDamage.
func ApplyModifiers(base int, mods Modifiers) int {
	if base <= 0 {
		return 0
	}
	base = min(base, balance.MaxBaseDamage)
	d := float64(base)
	if mods.CompletedInTime {
		d *= balance.CompletedInTimeMultiplier
	}
	if mods.MaintainedStreak {
		d *= balance.MaintainedStreakMultiplier
	}
	if mods.PerfectAccuracy {
		d *= balance.PerfectAccuracyMultiplier
	}
	return int(math.Round(d))
}

// ForfeitBattle ends the live battle as a defeat. Forfeits do not start the
// boss cooldown. It reports whether a battle was forfeited.
func (m *Manager) ForfeitBattle() bool {
	if m.current == nil || !m.current.Status.Live() {
		return false
	}
	m.current.Status = StatusDefeat
	return true
}

// Current returns the most recent battle, live or finished.
func (m *Manager) Current() (State, bool) {
	if m.current == nil {
		return State{}, false
	}
	return *m.current, true
}

// Active returns the live battle, if any.
func (m *Manager) Active() (State, bool) {
	if m.current == nil || !m.current.Status.Live() {
		return State{}, false
	}
	return *m.current, true
}

func (m *Manager) LastDefeat(bossID string) (time.Time, bool) {
	for _, d := range m.defeats {
		if d.BossID == bossID {
			return d.DefeatedAt, true
		}
	}
	return time.Time{}, false
}

// Defeats returns the defeat records in order of first victory.
func (m *Manager) Defeats() []DefeatRecord {
	out := make([]DefeatRecord, len(m.defeats))
	copy(out, m.defeats)
	return out
}

func (m *Manager) recordDefeat(bossID string, at time.Time) {
	for i := range m.defeats {
		if m.defeats[i].BossID == bossID {
			m.defeats[i].DefeatedAt = at
			return
		}
	}
	m.defeats = append(m.defeats, DefeatRecord{BossID: bossID, DefeatedAt: at})
}

// Restore replaces the manager's state with a previously saved one. The
// phase index is clamped to the boss's current phase list.
func (m *Manager) Restore(current *State, defeats []DefeatRecord) {
	m.current = nil
	if current != nil {
		c := *current
		if b, ok := m.catalog.Boss(c.BossID); ok {
			c.CurrentPhase = clampPhase(c.CurrentPhase, len(b.Phases))
		}
		m.current = &c
	}
	m.defeats = nil
	for _, d := range defeats {
		m.recordDefeat(d.BossID, d.DefeatedAt)
	}
}

func clampPhase(phase, phases int) int {
	return max(0, min(phase, phases-1))
}

// saturatingAdd adds without wrapping past the int range.
func saturatingAdd(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	}
	return a + b
}
