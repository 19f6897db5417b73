package battle

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questline/server/balance"
	"questline/server/catalog"
	"questline/shared/game/types"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func ptr(v float64) *float64 { return &v }

func testBosses() []types.Boss {
	return []types.Boss{
		{
			ID:            "gate_keeper",
			Name:          "Gate Keeper",
			Difficulty:    types.DifficultyNormal,
			TotalHealth:   100,
			UnlockLevel:   10,
			CooldownHours: 24,
			Phases: []types.BossPhase{
				{
					Health:    100,
					Mechanics: []types.Mechanic{{Type: types.MechanicTimeLimit, Value: ptr(30)}, {Type: types.MechanicNoBreaks}},
					Rewards:   types.RewardBundle{XP: 10, Gold: 5, Items: []string{"key"}},
				},
				{
					Health:    50,
					Mechanics: []types.Mechanic{{Type: types.MechanicPerfectAccuracy}, {Type: types.MechanicNoBreaks, Value: ptr(10)}, {Type: types.MechanicSpeedRun, Value: ptr(1)}},
					Rewards:   types.RewardBundle{XP: 20, Gold: 10, Items: []string{"key"}},
				},
			},
		},
		{
			ID:          "tri_phase",
			Difficulty:  types.DifficultyHard,
			TotalHealth: 300,
			UnlockLevel: 1,
			Phases: []types.BossPhase{
				{Health: 300, Mechanics: []types.Mechanic{{Type: types.MechanicStreakRequirement, Value: ptr(3)}}},
				{Health: 200},
				{Health: 80},
			},
		},
	}
}

func newTestManager(t *testing.T) (*Manager, *fakeClock) {
	t.Helper()
	c, err := catalog.New(testBosses(), nil)
	require.NoError(t, err)
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewManager(c, clock.now), clock
}

func startFighting(t *testing.T, m *Manager, bossID string, level int) State {
	t.Helper()
	s, err := m.StartBattle(bossID, level)
	require.NoError(t, err)
	require.NoError(t, m.Engage())
	return s
}

func TestTwoPhaseBattleToVictory(t *testing.T) {
	m, _ := newTestManager(t)
	s := startFighting(t, m, "gate_keeper", 10)
	assert.Equal(t, StatusPreparing, s.Status)
	assert.Equal(t, 100, s.CurrentHealth)
	assert.Equal(t, 1, s.Attempts)

	res, err := m.DealDamage(60, Modifiers{})
	require.NoError(t, err)
	assert.True(t, res.PhaseComplete)
	assert.False(t, res.BattleWon)
	assert.Equal(t, 40, res.State.CurrentHealth)
	assert.Equal(t, 1, res.State.CurrentPhase)

	res, err = m.DealDamage(50, Modifiers{})
	require.NoError(t, err)
	assert.True(t, res.BattleWon)
	assert.Equal(t, -10, res.State.CurrentHealth)
	assert.Equal(t, StatusVictory, res.State.Status)
	assert.Equal(t, 2, res.State.TasksCompleted)
	require.NotNil(t, res.Rewards)

	_, ok := m.Active()
	assert.False(t, ok)
	_, ok = m.LastDefeat("gate_keeper")
	assert.True(t, ok)
}

func TestDamageModifiersStackMultiplicatively(t *testing.T) {
	assert.Equal(t, 36, ApplyModifiers(10, Modifiers{CompletedInTime: true, MaintainedStreak: true, PerfectAccuracy: true}))
	assert.Equal(t, 12, ApplyModifiers(10, Modifiers{CompletedInTime: true}))
	assert.Equal(t, 15, ApplyModifiers(10, Modifiers{MaintainedStreak: true}))
	assert.Equal(t, 20, ApplyModifiers(10, Modifiers{PerfectAccuracy: true}))
	assert.Equal(t, 0, ApplyModifiers(-5, Modifiers{PerfectAccuracy: true}))

	m, _ := newTestManager(t)
	startFighting(t, m, "gate_keeper", 10)
	res, err := m.DealDamage(10, Modifiers{CompletedInTime: true, MaintainedStreak: true, PerfectAccuracy: true})
	require.NoError(t, err)
	assert.Equal(t, 36, res.DamageDealt)
	assert.Equal(t, 1, res.State.ComboCount)
}

func TestCanChallengeReasons(t *testing.T) {
	m, _ := newTestManager(t)

	assert.Equal(t, types.Ineligible(types.ReasonNotFound), m.CanChallenge("unknownBoss", 50))
	assert.Equal(t, types.Ineligible(types.ReasonLevelTooLow), m.CanChallenge("gate_keeper", 5))
	assert.Equal(t, types.Eligible(), m.CanChallenge("gate_keeper", 10))

	_, err := m.StartBattle("tri_phase", 1)
	require.NoError(t, err)
	assert.Equal(t, types.Ineligible(types.ReasonBattleInProgress), m.CanChallenge("gate_keeper", 10))

	_, err = m.StartBattle("gate_keeper", 10)
	var inel *types.IneligibleError
	require.True(t, errors.As(err, &inel))
	assert.Equal(t, types.ReasonBattleInProgress, inel.Reason)
}

func TestCooldownIsStrictlyTimeBased(t *testing.T) {
	m, clock := newTestManager(t)
	startFighting(t, m, "gate_keeper", 10)
	_, err := m.DealDamage(200, Modifiers{})
	require.NoError(t, err)

	clock.advance(24*time.Hour - time.Second)
	assert.Equal(t, types.Ineligible(types.ReasonOnCooldown), m.CanChallenge("gate_keeper", 10))

	clock.advance(2 * time.Second)
	assert.True(t, m.CanChallenge("gate_keeper", 10).Eligible)
}

func TestFirstDefeatDoublesRewards(t *testing.T) {
	for _, d := range []types.Difficulty{types.DifficultyNormal, types.DifficultyHard, types.DifficultyLegendary, types.DifficultyMythic} {
		t.Run(string(d), func(t *testing.T) {
			b := testBosses()[0]
			b.Difficulty = d
			first := Rewards(&b, true)
			repeat := Rewards(&b, false)
			assert.Equal(t, 2*repeat.XP, first.XP)
			assert.Equal(t, 2*repeat.Gold, first.Gold)
			assert.Contains(t, first.Achievements, "first_defeat_gate_keeper")
			assert.NotContains(t, repeat.Achievements, "first_defeat_gate_keeper")
		})
	}
}

func TestRewardsSumAllPhasesAndScale(t *testing.T) {
	b := testBosses()[0]
	r := Rewards(&b, false)
	assert.Equal(t, 30, r.XP)
	assert.Equal(t, 15, r.Gold)
	assert.Equal(t, []string{"key", "key"}, r.Items, "items are concatenated, not deduplicated")

	b.Difficulty = types.DifficultyHard
	r = Rewards(&b, false)
	assert.Equal(t, 45, r.XP)
	assert.Equal(t, 22, r.Gold)
}

func TestVictoryUsesPreVictoryDefeatRecord(t *testing.T) {
	m, clock := newTestManager(t)

	startFighting(t, m, "gate_keeper", 10)
	res, err := m.DealDamage(100, Modifiers{})
	require.NoError(t, err)
	require.True(t, res.BattleWon)
	assert.True(t, res.FirstDefeat)
	assert.Equal(t, 60, res.Rewards.XP)

	clock.advance(25 * time.Hour)
	startFighting(t, m, "gate_keeper", 10)
	res, err = m.DealDamage(100, Modifiers{})
	require.NoError(t, err)
	assert.False(t, res.FirstDefeat)
	assert.Equal(t, 30, res.Rewards.XP)

	last, _ := m.LastDefeat("gate_keeper")
	assert.Equal(t, clock.t, last)
	assert.Len(t, m.Defeats(), 1)
}

func TestAttemptsCarryOnlyForSameBossAfterDefeat(t *testing.T) {
	m, _ := newTestManager(t)

	startFighting(t, m, "gate_keeper", 10)
	assert.True(t, m.ForfeitBattle())
	assert.False(t, m.ForfeitBattle(), "second forfeit is a no-op")
	_, defeated := m.LastDefeat("gate_keeper")
	assert.False(t, defeated, "forfeit does not start the cooldown")

	s, err := m.StartBattle("gate_keeper", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Attempts)

	m.ForfeitBattle()
	s, err = m.StartBattle("tri_phase", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Attempts)
}

func TestOnePhasePerHit(t *testing.T) {
	m, _ := newTestManager(t)
	startFighting(t, m, "tri_phase", 1)

	res, err := m.DealDamage(250, Modifiers{})
	require.NoError(t, err)
	assert.True(t, res.PhaseComplete)
	assert.Equal(t, 1, res.State.CurrentPhase, "only one phase is entered per hit")

	res, err = m.DealDamage(1, Modifiers{})
	require.NoError(t, err)
	assert.True(t, res.PhaseComplete)
	assert.Equal(t, 2, res.State.CurrentPhase)
}

func TestDamageSequenceInvariants(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for run := 0; run < 50; run++ {
		m, _ := newTestManager(t)
		startFighting(t, m, "tri_phase", 1)
		prev, _ := m.Active()
		for {
			mods := Modifiers{CompletedInTime: r.Intn(2) == 0, MaintainedStreak: r.Intn(2) == 0, PerfectAccuracy: r.Intn(2) == 0}
			res, err := m.DealDamage(r.Intn(60), mods)
			require.NoError(t, err)
			cur := res.State
			assert.LessOrEqual(t, cur.CurrentHealth, prev.CurrentHealth)
			assert.GreaterOrEqual(t, cur.DamageDealt, prev.DamageDealt)
			assert.GreaterOrEqual(t, cur.CurrentPhase, prev.CurrentPhase)
			assert.LessOrEqual(t, cur.CurrentPhase, 2)
			prev = cur
			if res.BattleWon {
				break
			}
		}
	}
}

func TestHugeDamageSaturates(t *testing.T) {
	all := Modifiers{CompletedInTime: true, MaintainedStreak: true, PerfectAccuracy: true}
	assert.Equal(t, ApplyModifiers(balance.MaxBaseDamage, all), ApplyModifiers(3e18, all))
	assert.Positive(t, ApplyModifiers(math.MaxInt, all))

	m, _ := newTestManager(t)
	startFighting(t, m, "tri_phase", 1)
	res, err := m.DealDamage(100, Modifiers{})
	require.NoError(t, err)
	prev := res.State

	res, err = m.DealDamage(math.MaxInt-50, Modifiers{PerfectAccuracy: true})
	require.NoError(t, err)
	assert.Positive(t, res.DamageDealt)
	assert.GreaterOrEqual(t, res.State.DamageDealt, prev.DamageDealt)
	assert.LessOrEqual(t, res.State.CurrentHealth, prev.CurrentHealth)
	assert.True(t, res.BattleWon)
}

func TestSaturatingAdd(t *testing.T) {
	assert.Equal(t, math.MaxInt, saturatingAdd(math.MaxInt-1, 5))
	assert.Equal(t, math.MinInt, saturatingAdd(math.MinInt+1, -5))
	assert.Equal(t, 7, saturatingAdd(10, -3))
}

func TestRestoreClampsPhaseToShrunkCatalog(t *testing.T) {
	m, _ := newTestManager(t)
	m.Restore(&State{BossID: "tri_phase", CurrentHealth: 50, DamageDealt: 250, CurrentPhase: 7, Status: StatusFighting, Attempts: 1}, nil)

	st, ok := m.Active()
	require.True(t, ok)
	assert.Equal(t, 2, st.CurrentPhase)

	res, err := m.DealDamage(1, Modifiers{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.State.CurrentPhase)
	assert.False(t, res.PhaseComplete)
}

func TestDealDamageRequiresFightingBattle(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.DealDamage(10, Modifiers{})
	assert.ErrorIs(t, err, ErrNoActiveBattle)

	_, err = m.StartBattle("gate_keeper", 10)
	require.NoError(t, err)
	res, err := m.DealDamage(10, Modifiers{})
	assert.ErrorIs(t, err, ErrNoActiveBattle)
	assert.Zero(t, res.DamageDealt)

	require.NoError(t, m.Engage())
	assert.ErrorIs(t, m.Engage(), ErrNotPreparing)
}

func TestCheckMechanicViolation(t *testing.T) {
	m, _ := newTestManager(t)
	assert.False(t, m.CheckMechanicViolation(types.MechanicTimeLimit, 999), "no battle")

	startFighting(t, m, "gate_keeper", 10)
	assert.True(t, m.CheckMechanicViolation(types.MechanicTimeLimit, 31))
	assert.False(t, m.CheckMechanicViolation(types.MechanicTimeLimit, 30))
	assert.True(t, m.CheckMechanicViolation(types.MechanicNoBreaks, 6), "undeclared no_breaks defaults to 5")
	assert.False(t, m.CheckMechanicViolation(types.MechanicNoBreaks, 5))
	assert.False(t, m.CheckMechanicViolation(types.MechanicPerfectAccuracy, 0), "not declared on this phase")
	assert.False(t, m.CheckMechanicViolation("juggling", 1))

	_, err := m.DealDamage(50, Modifiers{})
	require.NoError(t, err)
	assert.True(t, m.CheckMechanicViolation(types.MechanicPerfectAccuracy, 0))
	assert.False(t, m.CheckMechanicViolation(types.MechanicPerfectAccuracy, 1))
	assert.False(t, m.CheckMechanicViolation(types.MechanicNoBreaks, 8), "declared threshold is honoured")
	assert.True(t, m.CheckMechanicViolation(types.MechanicNoBreaks, 11))
	assert.False(t, m.CheckMechanicViolation(types.MechanicSpeedRun, 1000))
	assert.False(t, m.CheckMechanicViolation(types.MechanicTimeLimit, 999), "time limit belongs to the first phase")

	m2, _ := newTestManager(t)
	startFighting(t, m2, "tri_phase", 1)
	assert.True(t, m2.CheckMechanicViolation(types.MechanicStreakRequirement, 2))
	assert.False(t, m2.CheckMechanicViolation(types.MechanicStreakRequirement, 3))
}

func TestRestoreRoundTrip(t *testing.T) {
	m, clock := newTestManager(t)
	startFighting(t, m, "gate_keeper", 10)
	_, err := m.DealDamage(100, Modifiers{})
	require.NoError(t, err)
	clock.advance(48 * time.Hour)
	startFighting(t, m, "tri_phase", 1)

	cur, ok := m.Current()
	require.True(t, ok)
	other, _ := newTestManager(t)
	other.Restore(&cur, m.Defeats())

	got, ok := other.Active()
	require.True(t, ok)
	assert.Equal(t, cur, got)
	assert.Equal(t, m.Defeats(), other.Defeats())
}
