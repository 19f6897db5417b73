// Package engine bundles one player's battle and skill state into a single
// caller-owned value and moves it to and from a snapshot store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"questline/server/battle"
	"questline/server/catalog"
	"questline/server/progression"
	"questline/server/snapshot"
)

// State is the complete progression state of one player. Operations on it
// must be serialized by the caller.
type State struct {
	Battles *battle.Manager
	Skills  *progression.Graph
}

func New(c *catalog.Catalog, now func() time.Time) *State {
	return &State{
		Battles: battle.NewManager(c, now),
		Skills:  progression.NewGraph(c),
	}
}

// Load rebuilds a player's state from store. Missing records start empty.
// A corrupt record also starts empty; Load then returns the usable state
// together with an error matching snapshot.ErrCorruptSnapshot so the caller
// can decide to log and continue. Any other error returns a nil state.
func Load(ctx context.Context, store snapshot.Store, userID string, c *catalog.Catalog, now func() time.Time) (*State, error) {
	s := New(c, now)
	var corrupt []error

	var current *battle.State
	b, err := store.Load(ctx, userID, snapshot.KindBattle)
	switch {
	case err == nil:
		if current, err = snapshot.DecodeBattle(b); err != nil {
			corrupt = append(corrupt, err)
		}
	case !errors.Is(err, snapshot.ErrNotFound):
		return nil, fmt.Errorf("load battle: %w", err)
	}

	var defeats []battle.DefeatRecord
	b, err = store.Load(ctx, userID, snapshot.KindDefeats)
	switch {
	case err == nil:
		if defeats, err = snapshot.DecodeDefeats(b); err != nil {
			corrupt = append(corrupt, err)
		}
	case !errors.Is(err, snapshot.ErrNotFound):
		return nil, fmt.Errorf("load defeats: %w", err)
	}
	s.Battles.Restore(current, defeats)

	b, err = store.Load(ctx, userID, snapshot.KindProgression)
	switch {
	case err == nil:
		entries, points, err := snapshot.DecodeProgression(b)
		if err != nil {
			corrupt = append(corrupt, err)
			break
		}
		s.Skills.Restore(entries, points)
	case !errors.Is(err, snapshot.ErrNotFound):
		return nil, fmt.Errorf("load progression: %w", err)
	}

	return s, errors.Join(corrupt...)
}

// Save writes all three records. The battle record is deleted when the
// player has never started a battle.
func Save(ctx context.Context, store snapshot.Store, userID string, s *State) error {
	if cur, ok := s.Battles.Current(); ok {
		b, err := snapshot.EncodeBattle(cur)
		if err != nil {
			return fmt.Errorf("encode battle: %w", err)
		}
		if err := store.Save(ctx, userID, snapshot.KindBattle, b); err != nil {
			return err
		}
	} else if err := store.Delete(ctx, userID, snapshot.KindBattle); err != nil {
		return err
	}

	b, err := snapshot.EncodeDefeats(s.Battles.Defeats())
	if err != nil {
		return fmt.Errorf("encode defeats: %w", err)
	}
	if err := store.Save(ctx, userID, snapshot.KindDefeats, b); err != nil {
		return err
	}

	b, err = snapshot.EncodeProgression(s.Skills.Entries(), s.Skills.Points())
	if err != nil {
		return fmt.Errorf("encode progression: %w", err)
	}
	return store.Save(ctx, userID, snapshot.KindProgression, b)
}
