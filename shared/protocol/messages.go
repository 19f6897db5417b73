package protocol

// Message types carried in MsgEnvelope.Type.
const (
	TypeError   = "Error"
	TypeWelcome = "Welcome"

	TypeGetProfile = "GetProfile"
	TypeProfile    = "Profile"

	TypeListBosses    = "ListBosses"
	TypeBosses        = "Bosses"
	TypeGetBattle     = "GetBattle"
	TypeChallengeBoss = "ChallengeBoss"
	TypeEngageBattle  = "EngageBattle"
	TypeBattle        = "Battle"
	TypeCompleteTask  = "CompleteTask"
	TypeTaskResult    = "TaskResult"
	TypeForfeitBattle = "ForfeitBattle"
	TypeForfeited     = "Forfeited"
	TypeCheckMechanic = "CheckMechanic"
	TypeMechanic      = "MechanicResult"

	TypeListSkills    = "ListSkills"
	TypeSkills        = "Skills"
	TypeUnlockSkill   = "UnlockSkill"
	TypeSkillUnlocked = "SkillUnlocked"
	TypeResetTree     = "ResetTree"
	TypeTreeReset     = "TreeReset"
	TypeGetEffects    = "GetEffects"
	TypeEffects       = "Effects"
)

// ================= C -> S =================

type GetProfile struct{}

type ListBosses struct{}

type GetBattle struct{}

type ChallengeBoss struct {
	BossID string `json:"bossId"`
}

type EngageBattle struct{}

// CompleteTask reports a finished task as a hit on the current boss.
type CompleteTask struct {
	BaseDamage       int  `json:"baseDamage"`
	CompletedInTime  bool `json:"completedInTime"`
	MaintainedStreak bool `json:"maintainedStreak"`
	PerfectAccuracy  bool `json:"perfectAccuracy"`
}

type ForfeitBattle struct{}

type CheckMechanic struct {
	Type     string  `json:"type"`
	Observed float64 `json:"observed"`
}

type ListSkills struct{}

type UnlockSkill struct {
	TreeID string `json:"treeId"`
	NodeID string `json:"nodeId"`
}

type ResetTree struct {
	TreeID string `json:"treeId"`
}

type GetEffects struct{}

// ================= S -> C =================

type Welcome struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	Name      string `json:"name"`
}

type Forfeited struct {
	OK bool `json:"ok"`
}

type MechanicResult struct {
	Type     string `json:"type"`
	Violated bool   `json:"violated"`
}

type Effects struct {
	Effects map[string]float64 `json:"effects"`
}
