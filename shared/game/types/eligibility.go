package types

import "fmt"

// Reason is a stable token shown to the acting user when an action is refused.
type Reason string

const (
	ReasonNotFound           Reason = "NotFound"
	ReasonLevelTooLow        Reason = "LevelTooLow"
	ReasonOnCooldown         Reason = "OnCooldown"
	ReasonBattleInProgress   Reason = "BattleInProgress"
	ReasonInsufficientPoints Reason = "InsufficientPoints"
	ReasonPrerequisiteUnmet  Reason = "PrerequisiteUnmet"
	ReasonMaxLevelReached    Reason = "MaxLevelReached"
)

type Eligibility struct {
	Eligible bool   `json:"eligible"`
	Reason   Reason `json:"reason,omitempty"`
}

func Eligible() Eligibility { return Eligibility{Eligible: true} }

func Ineligible(r Reason) Eligibility { return Eligibility{Reason: r} }

// Err returns nil when eligible and an *IneligibleError otherwise.
func (e Eligibility) Err(subject string) error {
	if e.Eligible {
		return nil
	}
	return &IneligibleError{Reason: e.Reason, Subject: subject}
}

// IneligibleError is returned by mutators whose eligibility check failed.
type IneligibleError struct {
	Reason  Reason
	Subject string
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Subject)
}
