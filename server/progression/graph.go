// Package progression tracks unlocked skill node levels and the spendable
// skill point balance shared by every tree.
package progression

import (
	"math"
	"sort"

	"questline/server/balance"
	"questline/server/catalog"
	"questline/shared/game/types"
)

type Key struct {
	TreeID string
	NodeID string
}

// Graph is one player's skill progression. It is not safe for concurrent use.
type Graph struct {
	catalog *catalog.Catalog
	levels  map[Key]int
	points  int
}

func NewGraph(c *catalog.Catalog) *Graph {
	return &Graph{catalog: c, levels: make(map[Key]int)}
}

type TreeProgress struct {
	TreeID            string `json:"treeId"`
	UnlockedNodeCount int    `json:"unlockedNodeCount"`
	TotalNodeCount    int    `json:"totalNodeCount"`
	Percentage        int    `json:"percentage"`
}

func (g *Graph) Points() int { return g.points }

// GrantPoints adds earned skill points to the balance. Non-positive grants
// are ignored.
func (g *Graph) GrantPoints(n int) {
	if n > 0 {
		g.points += n
	}
}

// Level returns the current level of a node, 0 when locked or unknown.
func (g *Graph) Level(nodeID, treeID string) int {
	return g.levels[Key{TreeID: treeID, NodeID: nodeID}]
}

// CanUnlock checks, in order: the tree and node exist, the node is below its
// max level, the balance covers the cost, the user level is high enough and
// every prerequisite in the same tree is at its minimum level.
func (g *Graph) CanUnlock(nodeID, treeID string, userLevel int) types.Eligibility {
	t, ok := g.catalog.Tree(treeID)
	if !ok {
		return types.Ineligible(types.ReasonNotFound)
	}
	n, ok := t.Node(nodeID)
	if !ok {
		return types.Ineligible(types.ReasonNotFound)
	}
	if g.Level(nodeID, treeID) >= n.MaxLevel {
		return types.Ineligible(types.ReasonMaxLevelReached)
	}
	if g.points < n.Cost.Points {
		return types.Ineligible(types.ReasonInsufficientPoints)
	}
	if userLevel < n.Cost.RequiredLevel {
		return types.Ineligible(types.ReasonLevelTooLow)
	}
	for _, p := range n.Prerequisites {
		if g.Level(p.NodeID, treeID) < p.MinLevel {
			return types.Ineligible(types.ReasonPrerequisiteUnmet)
		}
	}
	return types.Eligible()
}

// UnlockSkill raises a node by one level and charges its cost. It returns the
// new level, or an *types.IneligibleError leaving the graph untouched.
func (g *Graph) UnlockSkill(nodeID, treeID string, userLevel int) (int, error) {
	if err := g.CanUnlock(nodeID, treeID, userLevel).Err(treeID + "/" + nodeID); err != nil {
		return g.Level(nodeID, treeID), err
	}
	n, _ := g.catalog.Node(treeID, nodeID)
	g.points -= n.Cost.Points
	k := Key{TreeID: treeID, NodeID: nodeID}
	g.levels[k]++
	return g.levels[k], nil
}

// TreeProgress scores completion by summed levels rather than node count, so
// deep investment in one node counts.
func (g *Graph) TreeProgress(treeID string) (TreeProgress, bool) {
	t, ok := g.catalog.Tree(treeID)
	if !ok {
		return TreeProgress{}, false
	}
	p := TreeProgress{TreeID: treeID, TotalNodeCount: len(t.Nodes)}
	var sum, total int
	for _, n := range t.Nodes {
		lvl := g.Level(n.ID, treeID)
		if lvl > 0 {
			p.UnlockedNodeCount++
		}
		sum += lvl
		total += n.MaxLevel
	}
	if total > 0 {
		p.Percentage = int(math.Round(100 * float64(sum) / float64(total)))
	}
	return p, true
}

// ResetTree clears every node of the tree and refunds 80% (floored) of the
// points spent on them. The refund is credited and returned.
func (g *Graph) ResetTree(treeID string) int {
	t, ok := g.catalog.Tree(treeID)
	if !ok {
		return 0
	}
	raw := 0
	for _, n := range t.Nodes {
		k := Key{TreeID: treeID, NodeID: n.ID}
		if lvl := g.levels[k]; lvl > 0 {
			raw += n.Cost.Points * lvl
		}
		delete(g.levels, k)
	}
	refund := int(math.Floor(float64(raw) * balance.ResetRefundRatio))
	g.points += refund
	return refund
}

type Entry struct {
	Key   Key
	Level int
}

// Entries lists every unlocked node sorted by tree then node.
func (g *Graph) Entries() []Entry {
	out := make([]Entry, 0, len(g.levels))
	for k, lvl := range g.levels {
		if lvl > 0 {
			out = append(out, Entry{Key: k, Level: lvl})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.TreeID != out[j].Key.TreeID {
			return out[i].Key.TreeID < out[j].Key.TreeID
		}
		return out[i].Key.NodeID < out[j].Key.NodeID
	})
	return out
}

// Restore replaces the graph's state with a saved one. Levels above a node's
// current max level are clamped so a shrunk catalog cannot break the
// max level invariant.
func (g *Graph) Restore(entries []Entry, points int) {
	g.levels = make(map[Key]int, len(entries))
	for _, e := range entries {
		if e.Level <= 0 {
			continue
		}
		lvl := e.Level
		if n, ok := g.catalog.Node(e.Key.TreeID, e.Key.NodeID); ok && lvl > n.MaxLevel {
			lvl = n.MaxLevel
		}
		g.levels[e.Key] = lvl
	}
	g.points = max(points, 0)
}
