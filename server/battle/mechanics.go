package battle

import (
	"questline/server/balance"
	"questline/shared/game/types"
)

// CheckMechanicViolation reports whether observed breaks the mechanic of
// type t declared on the current phase of the active battle. Mechanics
// absent from the current phase are never violated. speed_run is enforced
// by the caller and always reports false here.
func (m *Manager) CheckMechanicViolation(t types.MechanicType, observed float64) bool {
	s := m.current
	if s == nil || !s.Status.Live() {
		return false
	}
	b, ok := m.catalog.Boss(s.BossID)
	if !ok || s.CurrentPhase >= len(b.Phases) {
		return false
	}
	mech, ok := b.Phases[s.CurrentPhase].Mechanic(t)
	if !ok {
		return false
	}

	switch t {
	case types.MechanicTimeLimit:
		return mech.Value != nil && observed > *mech.Value
	case types.MechanicStreakRequirement:
		return mech.Value != nil && observed < *mech.Value
	case types.MechanicNoBreaks:
		return observed > mech.Threshold(balance.DefaultNoBreaksMinutes)
	case types.MechanicPerfectAccuracy:
		return observed == 0
	case types.MechanicSpeedRun:
		return false
	default:
		return false
	}
}
