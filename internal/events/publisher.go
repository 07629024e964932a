// internal/events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ChannelLedgerEvents carries every committed ledger change.
const ChannelLedgerEvents = "ledger_events"

// Event types.
const (
	TypePlanPurchased       = "plan.purchased"
	TypeWithdrawalRequested = "withdrawal.requested"
	TypeWithdrawalApproved  = "withdrawal.approved"
	TypeWithdrawalRejected  = "withdrawal.rejected"
	TypeCheckinBonus        = "checkin.bonus"
	TypeAdminCredit         = "wallet.admin_credit"
	TypeRechargeRequested   = "recharge.requested"
	TypeRechargeApproved    = "recharge.approved"
	TypeRechargeRejected    = "recharge.rejected"
	TypeAccrualRunFinished  = "accrual.run_finished"
)

// LedgerEvent is published after a ledger operation commits.
type LedgerEvent struct {
	EventType     string    `json:"event_type"`
	UserID        int64     `json:"user_id,omitempty"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	ReferenceID   int64     `json:"reference_id,omitempty"` // Position or withdrawal request
	RunID         string    `json:"run_id,omitempty"`
	Amount        string    `json:"amount,omitempty"`
	Balance       string    `json:"balance,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher fans committed ledger events out to other services.
// Publishing is best effort: the ledger change is already durable.
type Publisher interface {
	Publish(ctx context.Context, event *LedgerEvent) error
}

// RedisPublisher publishes events as JSON on a Redis channel.
type RedisPublisher struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedisPublisher creates a publisher over an existing Redis client.
func NewRedisPublisher(rdb *redis.Client, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		rdb:    rdb,
		logger: logger,
	}
}

// Publish sends the event on ChannelLedgerEvents.
func (p *RedisPublisher) Publish(ctx context.Context, event *LedgerEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.EventType, err)
	}

	if err := p.rdb.Publish(ctx, ChannelLedgerEvents, payload).Err(); err != nil {
		p.logger.Warn("failed to publish ledger event",
			zap.String("event_type", event.EventType),
			zap.Int64("user_id", event.UserID),
			zap.Error(err))
		return fmt.Errorf("failed to publish %s event: %w", event.EventType, err)
	}

	p.logger.Debug("ledger event published",
		zap.String("event_type", event.EventType),
		zap.Int64("user_id", event.UserID))
	return nil
}

// LogPublisher only logs events. Used when no Redis is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event at debug level.
func (p *LogPublisher) Publish(_ context.Context, event *LedgerEvent) error {
	p.logger.Debug("ledger event",
		zap.String("event_type", event.EventType),
		zap.Int64("user_id", event.UserID),
		zap.Int64("transaction_id", event.TransactionID),
		zap.String("amount", event.Amount))
	return nil
}
