package service

import (
	"errors"
	"fmt"
)

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Progression Errors =====
var (
	ErrInvalidAward        = errors.New("invalid xp award")
	ErrCorruptMultiplier   = errors.New("corrupt multiplier data")
	ErrVersionConflict     = errors.New("progress was modified concurrently")
	ErrUserIDRequired      = errors.New("user id is required")
	ErrInvalidXPWindow     = errors.New("unknown xp window")
	ErrInvalidFreezeGrant  = errors.New("freeze token grant must be positive")
	ErrInvalidStreakAction = errors.New("unknown streak action")
	ErrInvalidStreakType   = errors.New("streak type is required")
)

// ===== Specialization Errors =====
var (
	ErrUnknownSpecialization = errors.New("unknown specialization track")
	ErrSpecializationLocked  = errors.New("specialization is not unlocked")
)

// ===== Leaderboard Errors =====
var (
	ErrLeaderboardNotFound = errors.New("leaderboard not found")
	ErrLeaderboardInactive = errors.New("leaderboard is not active")
	ErrUnknownCategory     = errors.New("unknown leaderboard category")
	ErrUnknownTimeframe    = errors.New("unknown leaderboard timeframe")
	ErrRecomputeAborted    = errors.New("leaderboard recomputation aborted")
)

// ===== Reward Errors =====
var (
	ErrRewardDispatch = errors.New("reward dispatch failed")
)

// ===== Activity Errors =====
var (
	ErrInvalidActivity    = errors.New("invalid activity event")
	ErrInvalidAchievement = errors.New("invalid achievement")
)

// InvalidAwardError rejects an XP award before any state is touched
type InvalidAwardError struct {
	Amount float64
	Reason string
}

func (e *InvalidAwardError) Error() string {
	return fmt.Sprintf("invalid xp award %v: %s", e.Amount, e.Reason)
}

func (e *InvalidAwardError) Unwrap() error { return ErrInvalidAward }

// RewardDispatchError reports a failed grant. It never rolls back the progression change.
type RewardDispatchError struct {
	UserID string
	Reward string
	Err    error
}

func (e *RewardDispatchError) Error() string {
	return fmt.Sprintf("dispatch %s to %s: %v", e.Reward, e.UserID, e.Err)
}

func (e *RewardDispatchError) Unwrap() []error { return []error{ErrRewardDispatch, e.Err} }

// RecomputeAbortedError reports a recomputation that was discarded before the snapshot swap
type RecomputeAbortedError struct {
	LeaderboardID string
	Stage         string
	Err           error
}

func (e *RecomputeAbortedError) Error() string {
	return fmt.Sprintf("recompute %s aborted during %s: %v", e.LeaderboardID, e.Stage, e.Err)
}

func (e *RecomputeAbortedError) Unwrap() []error { return []error{ErrRecomputeAborted, e.Err} }
