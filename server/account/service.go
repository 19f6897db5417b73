package account

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"questline/server/balance"
	"questline/server/battle"
	"questline/server/catalog"
	"questline/server/engine"
	"questline/server/metrics"
	"questline/server/progression"
	"questline/server/snapshot"
	"questline/shared/game/types"
)

// Service applies progression operations for one user at a time. Every call
// holds the user's lock across load, mutation and save.
type Service struct {
	accounts *Repo
	store    snapshot.Store
	catalogs *catalog.Source
	now      func() time.Time
}

func NewService(accounts *Repo, store snapshot.Store, catalogs *catalog.Source, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{accounts: accounts, store: store, catalogs: catalogs, now: now}
}

// Player is the loaded state an operation works on.
type Player struct {
	Account *Account
	Engine  *engine.State
	Catalog *catalog.Catalog
}

func (s *Service) load(ctx context.Context, userID string) (*Player, error) {
	acc, err := s.accounts.Load(userID, "")
	if err != nil {
		return nil, err
	}
	c := s.catalogs.Current()
	st, err := engine.Load(ctx, s.store, userID, c, s.now)
	if err != nil {
		if !errors.Is(err, snapshot.ErrCorruptSnapshot) {
			return nil, err
		}
		log.Printf("SNAPSHOT: corrupt state for %s, falling back to defaults: %v", userID, err)
		metrics.SnapshotFallbacks.Inc()
	}
	return &Player{Account: acc, Engine: st, Catalog: c}, nil
}

// Do runs fn against the user's state and saves it when fn succeeds. Save
// failures are logged, not returned: the operation already happened.
func (s *Service) Do(ctx context.Context, userID string, fn func(*Player) error) error {
	unlock := s.accounts.Lock(userID)
	defer unlock()

	p, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if err := fn(p); err != nil {
		return err
	}
	if err := engine.Save(ctx, s.store, userID, p.Engine); err != nil {
		log.Printf("SNAPSHOT: failed to save state for %s: %v", userID, err)
		metrics.SnapshotSaveFailures.Inc()
	}
	if err := s.accounts.Save(p.Account); err != nil {
		log.Printf("ACCOUNT: failed to save account %s: %v", userID, err)
	}
	return nil
}

// View runs fn against the user's state without saving.
func (s *Service) View(ctx context.Context, userID string, fn func(*Player) error) error {
	unlock := s.accounts.Lock(userID)
	defer unlock()

	p, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	return fn(p)
}

// Register creates the account for a new user id.
func (s *Service) Register(userID, name string) (*Account, error) {
	unlock := s.accounts.Lock(userID)
	defer unlock()

	acc, err := s.accounts.Load(userID, name)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Save(acc); err != nil {
		return nil, fmt.Errorf("save account: %w", err)
	}
	return acc, nil
}

type Profile struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Level        int      `json:"level"`
	XP           int      `json:"xp"`
	XPIntoLevel  int      `json:"xpIntoLevel"`
	XPForNext    int      `json:"xpForNext"`
	Gold         int64    `json:"gold"`
	Items        []string `json:"items"`
	Achievements []string `json:"achievements"`
	SkillPoints  int      `json:"skillPoints"`
}

func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	var out Profile
	err := s.View(ctx, userID, func(p *Player) error {
		a := p.Account
		lvl, into, next := ComputeLevel(a.XP)
		out = Profile{
			ID:           a.ID,
			Name:         a.Name,
			Level:        lvl,
			XP:           a.XP,
			XPIntoLevel:  into,
			XPForNext:    next,
			Gold:         a.Gold,
			Items:        a.Items,
			Achievements: a.Achievements,
			SkillPoints:  p.Engine.Skills.Points(),
		}
		return nil
	})
	return out, err
}

type BossStatus struct {
	*types.Boss
	Eligibility types.Eligibility `json:"eligibility"`
	LastDefeat  *time.Time        `json:"lastDefeat,omitempty"`
}

// Bosses lists the catalog with the user's challenge eligibility per boss.
func (s *Service) Bosses(ctx context.Context, userID string) ([]BossStatus, error) {
	var out []BossStatus
	err := s.View(ctx, userID, func(p *Player) error {
		lvl := p.Account.Level()
		bosses := p.Catalog.Bosses()
		for i := range bosses {
			b := &bosses[i]
			st := BossStatus{Boss: b, Eligibility: p.Engine.Battles.CanChallenge(b.ID, lvl)}
			if t, ok := p.Engine.Battles.LastDefeat(b.ID); ok {
				st.LastDefeat = &t
			}
			out = append(out, st)
		}
		return nil
	})
	return out, err
}

// Battle returns the most recent battle, live or finished.
func (s *Service) Battle(ctx context.Context, userID string) (battle.State, bool, error) {
	var (
		st battle.State
		ok bool
	)
	err := s.View(ctx, userID, func(p *Player) error {
		st, ok = p.Engine.Battles.Current()
		return nil
	})
	return st, ok, err
}

func (s *Service) Challenge(ctx context.Context, userID, bossID string) (battle.State, error) {
	var st battle.State
	err := s.Do(ctx, userID, func(p *Player) error {
		var err error
		st, err = p.Engine.Battles.StartBattle(bossID, p.Account.Level())
		if err != nil {
			return err
		}
		metrics.BattlesStarted.WithLabelValues(bossID).Inc()
		log.Printf("BATTLE: %s challenged %s (attempt %d)", userID, bossID, st.Attempts)
		return nil
	})
	return st, err
}

func (s *Service) Engage(ctx context.Context, userID string) (battle.State, error) {
	var st battle.State
	err := s.Do(ctx, userID, func(p *Player) error {
		if err := p.Engine.Battles.Engage(); err != nil {
			return err
		}
		st, _ = p.Engine.Battles.Current()
		return nil
	})
	return st, err
}

// TaskOutcome is a damage result plus what the account received from it.
type TaskOutcome struct {
	battle.DamageResult
	Applied            *types.RewardBundle `json:"applied,omitempty"`
	LevelsGained       int                 `json:"levelsGained,omitempty"`
	SkillPointsGranted int                 `json:"skillPointsGranted,omitempty"`
}

// CompleteTask deals damage for one finished task. Skill effects boost the
// base damage and the victory rewards; rewards are applied to the account at
// most once per battle.
func (s *Service) CompleteTask(ctx context.Context, userID string, base int, mods battle.Modifiers) (TaskOutcome, error) {
	var out TaskOutcome
	if base > balance.MaxBaseDamage {
		return out, fmt.Errorf("%w: %d > %d", battle.ErrDamageOutOfRange, base, balance.MaxBaseDamage)
	}
	err := s.Do(ctx, userID, func(p *Player) error {
		effects := p.Engine.Skills.ActiveEffects()
		boosted := int(math.Round(float64(base) * (1 + effects[balance.EffectBossDamage]/100)))

		res, err := p.Engine.Battles.DealDamage(boosted, mods)
		if err != nil {
			return err
		}
		out.DamageResult = res
		metrics.DamageDealt.Add(float64(res.DamageDealt))
		if !res.BattleWon {
			return nil
		}

		metrics.BattleVictories.WithLabelValues(res.State.BossID, strconv.FormatBool(res.FirstDefeat)).Inc()
		applied := Boost(*res.Rewards, effects[balance.EffectXPBoost], effects[balance.EffectGoldBoost])
		g, err := p.Account.Grant(ClaimKey(res.State), applied)
		if err != nil {
			return err
		}
		if g.Applied {
			out.Applied = &applied
			out.LevelsGained = g.LevelsGained
			out.SkillPointsGranted = g.LevelsGained * balance.SkillPointsPerLevel
			p.Engine.Skills.GrantPoints(out.SkillPointsGranted)
		}
		log.Printf("BATTLE: %s defeated %s (first=%v, +%d xp, +%d gold)", userID, res.State.BossID, res.FirstDefeat, applied.XP, applied.Gold)
		return nil
	})
	return out, err
}

// ClaimKey identifies the victory rewards of one battle.
func ClaimKey(st battle.State) string {
	return st.BossID + "@" + st.StartedAt.UTC().Format(time.RFC3339Nano)
}

func (s *Service) Forfeit(ctx context.Context, userID string) (bool, error) {
	var ok bool
	err := s.Do(ctx, userID, func(p *Player) error {
		st, live := p.Engine.Battles.Active()
		ok = p.Engine.Battles.ForfeitBattle()
		if live && ok {
			metrics.BattleForfeits.WithLabelValues(st.BossID).Inc()
		}
		return nil
	})
	return ok, err
}

// CheckMechanic reports whether an observed value breaks a rule of the
// current phase.
func (s *Service) CheckMechanic(ctx context.Context, userID string, t types.MechanicType, observed float64) (bool, error) {
	var violated bool
	err := s.View(ctx, userID, func(p *Player) error {
		violated = p.Engine.Battles.CheckMechanicViolation(t, observed)
		return nil
	})
	if violated {
		metrics.MechanicViolations.WithLabelValues(string(t)).Inc()
	}
	return violated, err
}

type NodeView struct {
	*types.SkillNode
	Level       int               `json:"level"`
	Eligibility types.Eligibility `json:"eligibility"`
}

type TreeView struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Color       string                   `json:"color,omitempty"`
	Progress    progression.TreeProgress `json:"progress"`
	Nodes       []NodeView               `json:"nodes"`
}

type SkillsView struct {
	Points int        `json:"points"`
	Trees  []TreeView `json:"trees"`
}

// Skills lists every tree with the user's node levels and unlock eligibility.
func (s *Service) Skills(ctx context.Context, userID string) (SkillsView, error) {
	var out SkillsView
	err := s.View(ctx, userID, func(p *Player) error {
		g := p.Engine.Skills
		lvl := p.Account.Level()
		out.Points = g.Points()
		for _, t := range p.Catalog.Trees() {
			prog, _ := g.TreeProgress(t.ID)
			tv := TreeView{ID: t.ID, Name: t.Name, Description: t.Description, Color: t.Color, Progress: prog}
			for i := range t.Nodes {
				n := &t.Nodes[i]
				tv.Nodes = append(tv.Nodes, NodeView{
					SkillNode:   n,
					Level:       g.Level(n.ID, t.ID),
					Eligibility: g.CanUnlock(n.ID, t.ID, lvl),
				})
			}
			out.Trees = append(out.Trees, tv)
		}
		return nil
	})
	return out, err
}

type UnlockOutcome struct {
	Level  int `json:"level"`
	Points int `json:"points"`
}

func (s *Service) Unlock(ctx context.Context, userID, treeID, nodeID string) (UnlockOutcome, error) {
	var out UnlockOutcome
	err := s.Do(ctx, userID, func(p *Player) error {
		lvl, err := p.Engine.Skills.UnlockSkill(nodeID, treeID, p.Account.Level())
		if err != nil {
			return err
		}
		metrics.SkillUnlocks.WithLabelValues(treeID).Inc()
		out = UnlockOutcome{Level: lvl, Points: p.Engine.Skills.Points()}
		return nil
	})
	return out, err
}

type ResetOutcome struct {
	Refund int `json:"refund"`
	Points int `json:"points"`
}

func (s *Service) ResetTree(ctx context.Context, userID, treeID string) (ResetOutcome, error) {
	var out ResetOutcome
	err := s.Do(ctx, userID, func(p *Player) error {
		if _, ok := p.Catalog.Tree(treeID); !ok {
			return types.Ineligible(types.ReasonNotFound).Err(treeID)
		}
		out.Refund = p.Engine.Skills.ResetTree(treeID)
		out.Points = p.Engine.Skills.Points()
		metrics.TreeResets.WithLabelValues(treeID).Inc()
		return nil
	})
	return out, err
}

func (s *Service) Effects(ctx context.Context, userID string) (map[string]float64, error) {
	var out map[string]float64
	err := s.View(ctx, userID, func(p *Player) error {
		out = p.Engine.Skills.ActiveEffects()
		return nil
	})
	return out, err
}
