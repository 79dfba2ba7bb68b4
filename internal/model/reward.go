package model

import "fmt"

// Reward is a closed set of grants dispatched to the reward ledger.
// The unexported method keeps the set closed to this package.
type Reward interface {
	rewardKind() string
	String() string
}

// CreditsReward grants platform credits
type CreditsReward struct {
	Amount int64
	Reason string
}

// BadgeReward grants a badge
type BadgeReward struct {
	BadgeID string
}

// PremiumTimeReward extends premium membership
type PremiumTimeReward struct {
	Days int
}

// SpecializationUnlockReward unlocks a specialization track
type SpecializationUnlockReward struct {
	Track string
}

func (CreditsReward) rewardKind() string { return "credits" }
func (BadgeReward) rewardKind() string { return "badge" }
func (PremiumTimeReward) rewardKind() string { return "premium_time" }
func (SpecializationUnlockReward) rewardKind() string { return "specialization_unlock" }

func (r CreditsReward) String() string { return fmt.Sprintf("credits(%d)", r.Amount) }
func (r BadgeReward) String() string { return "badge(" + r.BadgeID + ")" }
func (r PremiumTimeReward) String() string { return fmt.Sprintf("premium_time(%dd)", r.Days) }
func (r SpecializationUnlockReward) String() string {
	return "specialization_unlock(" + r.Track + ")"
}

// RewardKind returns the stable string tag of a reward, used for metrics labels
func RewardKind(r Reward) string {
	return r.rewardKind()
}
