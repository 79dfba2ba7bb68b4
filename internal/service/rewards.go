package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mewayz/progression/internal/metrics"
	"github.com/mewayz/progression/internal/model"
)

// RewardLedger is the external collaborator that settles grants.
// Implementations must not be relied on for progression correctness.
type RewardLedger interface {
	GrantCredits(ctx context.Context, userID string, amount int64, reason string) error
	GrantBadge(ctx context.Context, userID, badgeID string) error
	ExtendPremium(ctx context.Context, userID string, days int) error
	RecordSpecializationUnlock(ctx context.Context, userID, track string) error
}

// rewardGrantTimeout bounds a single ledger call
const rewardGrantTimeout = 5 * time.Second

// NopRewardLedger accepts and discards every grant
type NopRewardLedger struct{}

func (NopRewardLedger) GrantCredits(context.Context, string, int64, string) error { return nil }
func (NopRewardLedger) GrantBadge(context.Context, string, string) error { return nil }
func (NopRewardLedger) ExtendPremium(context.Context, string, int) error { return nil }
func (NopRewardLedger) RecordSpecializationUnlock(context.Context, string, string) error { return nil }

// RewardDispatcher hands rewards to the ledger one by one.
// Failures are logged, counted and published, never returned to the caller's transaction.
type RewardDispatcher struct {
	ledger RewardLedger
	events *EventHub
	logger *slog.Logger
	clock  Clock
}

// NewRewardDispatcher creates a dispatcher; a nil ledger discards grants
func NewRewardDispatcher(ledger RewardLedger, events *EventHub, logger *slog.Logger, clock Clock) *RewardDispatcher {
	if ledger == nil {
		ledger = NopRewardLedger{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &RewardDispatcher{ledger: ledger, events: events, logger: logger, clock: clock}
}

// Dispatch grants every reward and returns the failures
func (d *RewardDispatcher) Dispatch(ctx context.Context, userID string, rewards []model.Reward) []*RewardDispatchError {
	var failures []*RewardDispatchError
	for _, r := range rewards {
		err := d.grant(ctx, userID, r)
		kind := model.RewardKind(r)
		if err == nil {
			metrics.RewardsDispatched.WithLabelValues(kind, "ok").Inc()
			continue
		}

		failure := &RewardDispatchError{UserID: userID, Reward: r.String(), Err: err}
		failures = append(failures, failure)
		metrics.RewardsDispatched.WithLabelValues(kind, "error").Inc()
		d.logger.Warn("reward dispatch failed",
			slog.String("user_id", userID),
			slog.String("reward", r.String()),
			slog.String("error", err.Error()),
		)
		d.events.Publish(NewEvent(EventRewardDispatchFailed, userID, d.clock.Now(), RewardFailureData{
			Reward: r.String(),
			Error:  err.Error(),
		}))
	}
	return failures
}

func (d *RewardDispatcher) grant(ctx context.Context, userID string, r model.Reward) error {
	ctx, cancel := context.WithTimeout(ctx, rewardGrantTimeout)
	defer cancel()

	switch v := r.(type) {
	case model.CreditsReward:
		return d.ledger.GrantCredits(ctx, userID, v.Amount, v.Reason)
	case model.BadgeReward:
		return d.ledger.GrantBadge(ctx, userID, v.BadgeID)
	case model.PremiumTimeReward:
		return d.ledger.ExtendPremium(ctx, userID, v.Days)
	case model.SpecializationUnlockReward:
		return d.ledger.RecordSpecializationUnlock(ctx, userID, v.Track)
	default:
		return fmt.Errorf("unsupported reward %T", r)
	}
}
