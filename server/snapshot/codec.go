package snapshot

import (
	"encoding/json"
	"fmt"

	"questline/server/battle"
	"questline/server/progression"
)

// SkillEntry encodes as [["treeId","nodeId"],level].
type SkillEntry progression.Entry

func (e SkillEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{[2]string{e.Key.TreeID, e.Key.NodeID}, e.Level})
}

func (e *SkillEntry) UnmarshalJSON(b []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var key [2]string
	if err := json.Unmarshal(raw[0], &key); err != nil {
		return fmt.Errorf("skill key: %w", err)
	}
	if err := json.Unmarshal(raw[1], &e.Level); err != nil {
		return fmt.Errorf("skill level: %w", err)
	}
	e.Key = progression.Key{TreeID: key[0], NodeID: key[1]}
	return nil
}

type ProgressionRecord struct {
	Skills []SkillEntry `json:"skills"`
	Points int          `json:"points"`
}

func corrupt(kind Kind, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, kind, err)
}

func EncodeBattle(s battle.State) ([]byte, error) {
	return json.Marshal(s)
}

// DecodeBattle parses a battle record. Any malformed payload yields an error
// matching ErrCorruptSnapshot.
func DecodeBattle(b []byte) (*battle.State, error) {
	var s battle.State
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, corrupt(KindBattle, err)
	}
	switch {
	case s.BossID == "":
		return nil, corrupt(KindBattle, fmt.Errorf("missing boss id"))
	case s.Attempts < 1:
		return nil, corrupt(KindBattle, fmt.Errorf("attempts %d", s.Attempts))
	case s.CurrentPhase < 0:
		return nil, corrupt(KindBattle, fmt.Errorf("phase %d", s.CurrentPhase))
	}
	switch s.Status {
	case battle.StatusPreparing, battle.StatusFighting, battle.StatusVictory, battle.StatusDefeat:
	default:
		return nil, corrupt(KindBattle, fmt.Errorf("unknown status %q", s.Status))
	}
	return &s, nil
}

func EncodeDefeats(d []battle.DefeatRecord) ([]byte, error) {
	if d == nil {
		d = []battle.DefeatRecord{}
	}
	return json.Marshal(d)
}

func DecodeDefeats(b []byte) ([]battle.DefeatRecord, error) {
	var d []battle.DefeatRecord
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, corrupt(KindDefeats, err)
	}
	for _, r := range d {
		if r.BossID == "" || r.DefeatedAt.IsZero() {
			return nil, corrupt(KindDefeats, fmt.Errorf("incomplete record %+v", r))
		}
	}
	return d, nil
}

func EncodeProgression(entries []progression.Entry, points int) ([]byte, error) {
	rec := ProgressionRecord{Skills: make([]SkillEntry, len(entries)), Points: points}
	for i, e := range entries {
		rec.Skills[i] = SkillEntry(e)
	}
	return json.Marshal(rec)
}

func DecodeProgression(b []byte) ([]progression.Entry, int, error) {
	var rec ProgressionRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, 0, corrupt(KindProgression, err)
	}
	if rec.Points < 0 {
		return nil, 0, corrupt(KindProgression, fmt.Errorf("negative points %d", rec.Points))
	}
	entries := make([]progression.Entry, len(rec.Skills))
	for i, s := range rec.Skills {
		if s.Key.TreeID == "" || s.Key.NodeID == "" || s.Level < 0 {
			return nil, 0, corrupt(KindProgression, fmt.Errorf("invalid skill entry %+v", s))
		}
		entries[i] = progression.Entry(s)
	}
	return entries, rec.Points, nil
}
