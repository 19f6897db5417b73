package types

// SkillEffect contributes to one effect type while its node is unlocked.
// PerLevel, when declared, is added for every level above the first;
// otherwise Base is multiplied by the node level.
type SkillEffect struct {
	Type     string   `json:"type" yaml:"type"`
	Base     float64  `json:"base" yaml:"base"`
	PerLevel *float64 `json:"perLevel,omitempty" yaml:"per_level,omitempty"`
}

// ValueAt returns the contribution of the effect at the given node level.
func (e SkillEffect) ValueAt(level int) float64 {
	if level <= 0 {
		return 0
	}
	if e.PerLevel != nil {
		return e.Base + *e.PerLevel*float64(level-1)
	}
	return e.Base * float64(level)
}

type UnlockCost struct {
	Points        int `json:"points" yaml:"points"`
	RequiredLevel int `json:"requiredLevel" yaml:"required_level"`
}

type Prerequisite struct {
	NodeID   string `json:"nodeId" yaml:"node_id"`
	MinLevel int    `json:"minLevel" yaml:"min_level"`
}

type SkillNode struct {
	ID            string         `json:"id" yaml:"id"`
	Name          string         `json:"name" yaml:"name"`
	Description   string         `json:"description,omitempty" yaml:"description,omitempty"`
	Icon          string         `json:"icon,omitempty" yaml:"icon,omitempty"`
	MaxLevel      int            `json:"maxLevel" yaml:"max_level"`
	Cost          UnlockCost     `json:"cost" yaml:"cost"`
	Effects       []SkillEffect  `json:"effects,omitempty" yaml:"effects,omitempty"`
	Prerequisites []Prerequisite `json:"prerequisites,omitempty" yaml:"prerequisites,omitempty"`
}

type SkillTree struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Color       string      `json:"color,omitempty" yaml:"color,omitempty"`
	Nodes       []SkillNode `json:"nodes" yaml:"nodes"`
}

func (t *SkillTree) Node(id string) (*SkillNode, bool) {
	for i := range t.Nodes {
		if t.Nodes[i].ID == id {
			return &t.Nodes[i], true
		}
	}
	return nil, false
}
