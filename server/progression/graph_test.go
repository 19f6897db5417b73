package progression

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questline/server/catalog"
	"questline/shared/game/types"
)

func ptr(v float64) *float64 { return &v }

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	trees := []types.SkillTree{
		{
			ID: "might",
			Nodes: []types.SkillNode{
				{
					ID:       "strike",
					MaxLevel: 5,
					Cost:     types.UnlockCost{Points: 100, RequiredLevel: 1},
					Effects:  []types.SkillEffect{{Type: "boss_damage", Base: 5, PerLevel: ptr(5)}},
				},
				{
					ID:            "cleave",
					MaxLevel:      2,
					Cost:          types.UnlockCost{Points: 50, RequiredLevel: 8},
					Effects:       []types.SkillEffect{{Type: "boss_damage", Base: 3}, {Type: "xp_boost", Base: 2}},
					Prerequisites: []types.Prerequisite{{NodeID: "strike", MinLevel: 2}},
				},
			},
		},
		{
			ID: "mind",
			Nodes: []types.SkillNode{
				{ID: "strike", MaxLevel: 1, Cost: types.UnlockCost{Points: 10}, Effects: []types.SkillEffect{{Type: "xp_boost", Base: 1}}},
			},
		},
	}
	c, err := catalog.New(nil, trees)
	require.NoError(t, err)
	return NewGraph(c)
}

func TestCanUnlockReasonsInOrder(t *testing.T) {
	g := newTestGraph(t)

	assert.Equal(t, types.ReasonNotFound, g.CanUnlock("strike", "nope", 99).Reason)
	assert.Equal(t, types.ReasonNotFound, g.CanUnlock("nope", "might", 99).Reason)
	assert.Equal(t, types.ReasonInsufficientPoints, g.CanUnlock("strike", "might", 99).Reason)

	g.GrantPoints(1000)
	assert.Equal(t, types.ReasonLevelTooLow, g.CanUnlock("cleave", "might", 7).Reason)
	assert.Equal(t, types.ReasonPrerequisiteUnmet, g.CanUnlock("cleave", "might", 8).Reason)

	_, err := g.UnlockSkill("strike", "might", 1)
	require.NoError(t, err)
	assert.Equal(t, types.ReasonPrerequisiteUnmet, g.CanUnlock("cleave", "might", 8).Reason, "prerequisite needs level 2")

	_, err = g.UnlockSkill("strike", "might", 1)
	require.NoError(t, err)
	assert.True(t, g.CanUnlock("cleave", "might", 8).Eligible)
}

func TestUnlockChargesCostAndStopsAtMaxLevel(t *testing.T) {
	g := newTestGraph(t)
	g.GrantPoints(1000)

	for want := 1; want <= 5; want++ {
		lvl, err := g.UnlockSkill("strike", "might", 1)
		require.NoError(t, err)
		assert.Equal(t, want, lvl)
	}
	assert.Equal(t, 500, g.Points())
	assert.Equal(t, types.Ineligible(types.ReasonMaxLevelReached), g.CanUnlock("strike", "might", 1))

	lvl, err := g.UnlockSkill("strike", "might", 1)
	var inel *types.IneligibleError
	require.True(t, errors.As(err, &inel))
	assert.Equal(t, types.ReasonMaxLevelReached, inel.Reason)
	assert.Equal(t, 5, lvl)
	assert.Equal(t, 500, g.Points(), "rejected unlock does not charge")
}

func TestUnlockNeverOverdraws(t *testing.T) {
	g := newTestGraph(t)
	g.GrantPoints(99)

	_, err := g.UnlockSkill("strike", "might", 1)
	require.Error(t, err)
	assert.Equal(t, 99, g.Points())
	assert.Equal(t, 0, g.Level("strike", "might"))
}

func TestNodesWithSameIDInDifferentTreesAreIndependent(t *testing.T) {
	g := newTestGraph(t)
	g.GrantPoints(10)

	_, err := g.UnlockSkill("strike", "mind", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Level("strike", "mind"))
	assert.Equal(t, 0, g.Level("strike", "might"))
}

func TestResetTreeRefundsEightyPercent(t *testing.T) {
	g := newTestGraph(t)
	g.Restore([]Entry{{Key: Key{TreeID: "might", NodeID: "strike"}, Level: 4}}, 600)

	refund := g.ResetTree("might")
	assert.Equal(t, 320, refund)
	assert.Equal(t, 920, g.Points())
	assert.Equal(t, 0, g.Level("strike", "might"))
}

func TestResetTreeAcrossNodes(t *testing.T) {
	g := newTestGraph(t)
	g.GrantPoints(10000)
	for i := 0; i < 3; i++ {
		_, err := g.UnlockSkill("strike", "might", 10)
		require.NoError(t, err)
	}
	_, err := g.UnlockSkill("cleave", "might", 10)
	require.NoError(t, err)
	_, err = g.UnlockSkill("strike", "mind", 10)
	require.NoError(t, err)
	before := g.Points()

	refund := g.ResetTree("might")
	assert.Equal(t, 280, refund, "floor(0.8 * (100*3 + 50*1))")
	assert.Equal(t, before+refund, g.Points())
	for _, n := range []string{"strike", "cleave"} {
		assert.Equal(t, 0, g.Level(n, "might"))
	}
	assert.Equal(t, 1, g.Level("strike", "mind"), "other trees untouched")
	assert.Equal(t, 0, g.ResetTree("unknown"))
}

func TestTreeProgressUsesLevelSums(t *testing.T) {
	g := newTestGraph(t)
	g.GrantPoints(1000)
	for i := 0; i < 2; i++ {
		_, err := g.UnlockSkill("strike", "might", 1)
		require.NoError(t, err)
	}

	p, ok := g.TreeProgress("might")
	require.True(t, ok)
	assert.Equal(t, 1, p.UnlockedNodeCount)
	assert.Equal(t, 2, p.TotalNodeCount)
	assert.Equal(t, 29, p.Percentage, "round(100 * 2/7)")

	_, ok = g.TreeProgress("nope")
	assert.False(t, ok)
}

func TestActiveEffects(t *testing.T) {
	g := newTestGraph(t)
	assert.Empty(t, g.ActiveEffects())

	g.GrantPoints(1000)
	for i := 0; i < 2; i++ {
		_, err := g.UnlockSkill("strike", "might", 10)
		require.NoError(t, err)
	}
	assert.Equal(t, 10.0, g.ActiveEffects()["boss_damage"], "5 + 5*(2-1)")

	for i := 0; i < 2; i++ {
		_, err := g.UnlockSkill("cleave", "might", 10)
		require.NoError(t, err)
	}
	_, err := g.UnlockSkill("strike", "mind", 10)
	require.NoError(t, err)

	effects := g.ActiveEffects()
	assert.Equal(t, 16.0, effects["boss_damage"], "10 + 3*2")
	assert.Equal(t, 5.0, effects["xp_boost"], "2*2 + 1")
}

func TestRestoreClampsToMaxLevel(t *testing.T) {
	g := newTestGraph(t)
	g.Restore([]Entry{
		{Key: Key{TreeID: "might", NodeID: "cleave"}, Level: 9},
		{Key: Key{TreeID: "might", NodeID: "strike"}, Level: 0},
	}, -4)

	assert.Equal(t, 2, g.Level("cleave", "might"))
	assert.Equal(t, 0, g.Points())
	assert.Equal(t, []Entry{{Key: Key{TreeID: "might", NodeID: "cleave"}, Level: 2}}, g.Entries())
}
