package progression

import "questline/server/catalog"

// ActiveEffects sums the passive bonuses granted by every unlocked node
// across all trees. It is recomputed on every call.
func (g *Graph) ActiveEffects() map[string]float64 {
	return Aggregate(g.catalog, g.levels)
}

// Aggregate projects node levels onto effect totals. Nodes missing from the
// catalog contribute nothing.
func Aggregate(c *catalog.Catalog, levels map[Key]int) map[string]float64 {
	out := make(map[string]float64)
	for k, lvl := range levels {
		if lvl < 1 {
			continue
		}
		n, ok := c.Node(k.TreeID, k.NodeID)
		if !ok {
			continue
		}
		for _, e := range n.Effects {
			out[e.Type] += e.ValueAt(lvl)
		}
	}
	return out
}
