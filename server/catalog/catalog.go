// Package catalog holds the read-only boss and skill tree definitions the
// progression engine resolves identifiers against.
package catalog

import (
	"errors"
	"fmt"
	"sync/atomic"

	"questline/shared/game/types"
)

type Catalog struct {
	bosses    []types.Boss
	bossIndex map[string]int
	trees     []types.SkillTree
	treeIndex map[string]int
}

// New validates the definitions and builds a catalog over them.
func New(bosses []types.Boss, trees []types.SkillTree) (*Catalog, error) {
	c := &Catalog{
		bosses:    bosses,
		bossIndex: make(map[string]int, len(bosses)),
		trees:     trees,
		treeIndex: make(map[string]int, len(trees)),
	}
	var errs []error
	for i := range bosses {
		b := &bosses[i]
		if _, dup := c.bossIndex[b.ID]; dup {
			errs = append(errs, fmt.Errorf("boss %q: duplicate id", b.ID))
			continue
		}
		c.bossIndex[b.ID] = i
		errs = append(errs, validateBoss(b)...)
	}
	for i := range trees {
		t := &trees[i]
		if _, dup := c.treeIndex[t.ID]; dup {
			errs = append(errs, fmt.Errorf("tree %q: duplicate id", t.ID))
			continue
		}
		c.treeIndex[t.ID] = i
		errs = append(errs, validateTree(t)...)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return c, nil
}

func validateBoss(b *types.Boss) []error {
	var errs []error
	if b.ID == "" {
		errs = append(errs, errors.New("boss with empty id"))
	}
	if !b.Difficulty.Valid() {
		errs = append(errs, fmt.Errorf("boss %q: unknown difficulty %q", b.ID, b.Difficulty))
	}
	if b.TotalHealth <= 0 {
		errs = append(errs, fmt.Errorf("boss %q: total health must be positive", b.ID))
	}
	if b.CooldownHours < 0 {
		errs = append(errs, fmt.Errorf("boss %q: negative cooldown", b.ID))
	}
	if len(b.Phases) == 0 {
		return append(errs, fmt.Errorf("boss %q: no phases", b.ID))
	}
	if b.Phases[0].Health != b.TotalHealth {
		errs = append(errs, fmt.Errorf("boss %q: first phase must start at total health", b.ID))
	}
	for i := 1; i < len(b.Phases); i++ {
		if b.Phases[i].Health >= b.Phases[i-1].Health {
			errs = append(errs, fmt.Errorf("boss %q: phase %d health must be below phase %d", b.ID, i, i-1))
		}
		if b.Phases[i].Health <= 0 {
			errs = append(errs, fmt.Errorf("boss %q: phase %d health must be positive", b.ID, i))
		}
	}
	return errs
}

func validateTree(t *types.SkillTree) []error {
	var errs []error
	if t.ID == "" {
		errs = append(errs, errors.New("tree with empty id"))
	}
	seen := make(map[string]bool, len(t.Nodes))
	for _, n := range t.Nodes {
		if seen[n.ID] {
			errs = append(errs, fmt.Errorf("tree %q: duplicate node %q", t.ID, n.ID))
		}
		seen[n.ID] = true
		if n.MaxLevel < 1 {
			errs = append(errs, fmt.Errorf("tree %q node %q: max level must be at least 1", t.ID, n.ID))
		}
		if n.Cost.Points < 0 {
			errs = append(errs, fmt.Errorf("tree %q node %q: negative cost", t.ID, n.ID))
		}
	}
	for _, n := range t.Nodes {
		for _, p := range n.Prerequisites {
			if p.NodeID == n.ID {
				errs = append(errs, fmt.Errorf("tree %q node %q: requires itself", t.ID, n.ID))
				continue
			}
			if !seen[p.NodeID] {
				errs = append(errs, fmt.Errorf("tree %q node %q: unknown prerequisite %q", t.ID, n.ID, p.NodeID))
			}
		}
	}
	return errs
}

func (c *Catalog) Boss(id string) (*types.Boss, bool) {
	i, ok := c.bossIndex[id]
	if !ok {
		return nil, false
	}
	return &c.bosses[i], true
}

func (c *Catalog) Bosses() []types.Boss { return c.bosses }

func (c *Catalog) Tree(id string) (*types.SkillTree, bool) {
	i, ok := c.treeIndex[id]
	if !ok {
		return nil, false
	}
	return &c.trees[i], true
}

func (c *Catalog) Trees() []types.SkillTree { return c.trees }

func (c *Catalog) Node(treeID, nodeID string) (*types.SkillNode, bool) {
	t, ok := c.Tree(treeID)
	if !ok {
		return nil, false
	}
	return t.Node(nodeID)
}

// Source hands out the current catalog and lets a reloader swap it.
type Source struct {
	cur atomic.Pointer[Catalog]
}

func NewSource(c *Catalog) *Source {
	s := &Source{}
	s.cur.Store(c)
	return s
}

func (s *Source) Current() *Catalog { return s.cur.Load() }

func (s *Source) Swap(c *Catalog) { s.cur.Store(c) }
