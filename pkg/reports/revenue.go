package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/caresuite/platform/pkg/common/logger"
	"github.com/caresuite/platform/pkg/common/models"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const revenueKeyTTL = 90 * 24 * time.Hour

// RevenueAggregator tails the billing event stream and keeps per-day running
// totals in Redis. Amounts are stored as integer cents, floats would drift.
type RevenueAggregator struct {
	cache *redis.Client
}

func NewRevenueAggregator(cache *redis.Client) *RevenueAggregator {
	return &RevenueAggregator{cache: cache}
}

// HandleEvent is plugged into the Kafka consumer loop.
func (a *RevenueAggregator) HandleEvent(ctx context.Context, event models.Event) error {
	switch event.Type {
	case models.EventPaymentRecorded:
		return a.recordAmount(ctx, event)
	case models.EventPaymentSettled:
		return a.recordSettlement(ctx, event)
	default:
		return nil
	}
}

func (a *RevenueAggregator) recordAmount(ctx context.Context, event models.Event) error {
	raw, _ := event.Data["amount"].(string)
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		// Malformed producer payload, retrying will not fix it.
		logger.Log.WithField("event_id", event.ID).Warn("payment event carries no parsable amount")
		return nil
	}

	day := event.Timestamp.UTC().Format("2006-01-02")
	key := recordedKey(day)
	cents := amount.Mul(decimal.NewFromInt(100)).IntPart()

	pipe := a.cache.TxPipeline()
	pipe.IncrBy(ctx, key, cents)
	pipe.Expire(ctx, key, revenueKeyTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (a *RevenueAggregator) recordSettlement(ctx context.Context, event models.Event) error {
	day := event.Timestamp.UTC().Format("2006-01-02")
	key := settledKey(day)

	pipe := a.cache.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, revenueKeyTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// RevenueFor returns the running totals for one day. Missing keys read as
// zero, the day simply had no payments.
func (a *RevenueAggregator) RevenueFor(ctx context.Context, day string) (models.RevenueReport, error) {
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return models.RevenueReport{}, fmt.Errorf("invalid day %q", day)
	}

	cents, err := a.cache.Get(ctx, recordedKey(day)).Int64()
	if err != nil && err != redis.Nil {
		return models.RevenueReport{}, err
	}
	settled, err := a.cache.Get(ctx, settledKey(day)).Int64()
	if err != nil && err != redis.Nil {
		return models.RevenueReport{}, err
	}

	return models.RevenueReport{
		Day:       day,
		Recorded:  decimal.New(cents, -2),
		Settled:   settled,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func recordedKey(day string) string {
	return "reports:revenue:" + day + ":recorded_cents"
}

func settledKey(day string) string {
	return "reports:revenue:" + day + ":settled"
}
