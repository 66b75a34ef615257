// Package quota tracks per-requester question usage against tier limits
// over monthly or yearly billing windows.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/luminastro/lumina/internal/sqlc"
)

// Billing periods.
const (
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// Built-in tier names.
const (
	TierFree      = "free"
	TierPremium   = "premium"
	TierUnlimited = "unlimited"
)

// ErrUnknownTier is returned when a requester carries a tier the limit
// configuration does not know about.
var ErrUnknownTier = errors.New("unknown subscription tier")

// Limit describes one tier's question allowance. A nil Questions means
// unlimited, in which case Period is ignored.
type Limit struct {
	Questions *int
	Period    string
}

// Unlimited reports whether the tier has no question cap.
func (l Limit) Unlimited() bool { return l.Questions == nil }

func intPtr(v int) *int { return &v }

// DefaultLimits is the stock tier configuration.
func DefaultLimits() map[string]Limit {
	return map[string]Limit{
		TierFree:      {Questions: intPtr(5), Period: PeriodMonthly},
		TierPremium:   {Questions: intPtr(50), Period: PeriodMonthly},
		TierUnlimited: {},
	}
}

// Status is the outcome of a quota check. Admission requires
// questions_used + extra_questions < limit: extras recorded on the usage row
// count toward the period limit rather than extending it. Remaining is -1
// for unlimited tiers.
type Status struct {
	HasQuota       bool
	QuestionsUsed  int
	QuestionsLimit int
	ExtraQuestions int
	CanPurchase    bool
	Remaining      int
}

// Querier defines the database operations Tracker needs.
type Querier interface {
	GetUsageRecord(ctx context.Context, arg sqlc.GetUsageRecordParams) (sqlc.UsageRecord, error)
	IncrementUsage(ctx context.Context, arg sqlc.IncrementUsageParams) (sqlc.UsageRecord, error)
	GrantExtraQuestions(ctx context.Context, arg sqlc.GrantExtraQuestionsParams) (sqlc.UsageRecord, error)
}

// Tracker answers "may this requester ask another question" and records
// consumption. Check and Increment are deliberately independent operations,
// not one transaction: two near-simultaneous questions from the same
// requester can both pass the check before either increments. The storage
// upsert keyed on (requester_id, report_id, period_start) keeps concurrent
// increments safe; the small over-admission window is accepted.
type Tracker struct {
	querier Querier
	limits  map[string]Limit
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLimits replaces the default tier configuration.
func WithLimits(limits map[string]Limit) Option {
	return func(t *Tracker) {
		if limits != nil {
			t.limits = limits
		}
	}
}

// WithClock replaces the time source, for tests exercising period rollover.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// New creates a Tracker with the default tier limits.
func New(querier Querier, logger *slog.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		querier: querier,
		limits:  DefaultLimits(),
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Check computes the active period window and reports whether the requester
// may ask another question about the report.
func (t *Tracker) Check(ctx context.Context, requesterID, reportID, tier string) (Status, error) {
	limit, ok := t.limits[tier]
	if !ok {
		return Status{}, fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}

	if limit.Unlimited() {
		return Status{
			HasQuota:       true,
			QuestionsLimit: -1,
			CanPurchase:    false,
			Remaining:      -1,
		}, nil
	}

	start, _ := periodWindow(t.now(), limit.Period)
	record, err := t.querier.GetUsageRecord(ctx, sqlc.GetUsageRecordParams{
		RequesterID: requesterID,
		ReportID:    reportID,
		PeriodStart: toTimestamptz(start),
	})
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// No usage yet this period.
	case err != nil:
		return Status{}, fmt.Errorf("failed to read usage record: %w", err)
	}

	used := int(record.QuestionsUsed)
	extra := int(record.ExtraQuestions)
	consumed := used + extra
	remaining := *limit.Questions - consumed
	if remaining < 0 {
		remaining = 0
	}

	return Status{
		HasQuota:       consumed < *limit.Questions,
		QuestionsUsed:  used,
		QuestionsLimit: *limit.Questions,
		ExtraQuestions: extra,
		CanPurchase:    true,
		Remaining:      remaining,
	}, nil
}

// Increment records one consumed question in the active period. The upsert's
// conflict target (requester_id, report_id, period_start) makes concurrent
// increments safe at the storage layer.
func (t *Tracker) Increment(ctx context.Context, requesterID, reportID, tier string) error {
	limit, ok := t.limits[tier]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}
	if limit.Unlimited() {
		return nil
	}

	start, end := periodWindow(t.now(), limit.Period)
	record, err := t.querier.IncrementUsage(ctx, sqlc.IncrementUsageParams{
		RequesterID: requesterID,
		ReportID:    reportID,
		Tier:        tier,
		PeriodStart: toTimestamptz(start),
		PeriodEnd:   toTimestamptz(end),
	})
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}

	t.logger.Debug("incremented usage",
		"requester_id", requesterID,
		"report_id", reportID,
		"questions_used", record.QuestionsUsed)
	return nil
}

// GrantExtra records questions consumed outside the regular ask flow on the
// requester's active period row. Like questions_used, extras count toward
// the period limit.
func (t *Tracker) GrantExtra(ctx context.Context, requesterID, reportID, tier string, amount int) error {
	limit, ok := t.limits[tier]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}
	if limit.Unlimited() {
		return nil
	}
	if amount <= 0 {
		return fmt.Errorf("grant amount must be positive, got %d", amount)
	}

	start, end := periodWindow(t.now(), limit.Period)
	_, err := t.querier.GrantExtraQuestions(ctx, sqlc.GrantExtraQuestionsParams{
		RequesterID: requesterID,
		ReportID:    reportID,
		Tier:        tier,
		PeriodStart: toTimestamptz(start),
		PeriodEnd:   toTimestamptz(end),
		Amount:      int32(amount),
	})
	if err != nil {
		return fmt.Errorf("failed to grant extra questions: %w", err)
	}

	t.logger.Debug("granted extra questions",
		"requester_id", requesterID,
		"report_id", reportID,
		"amount", amount)
	return nil
}

// periodWindow returns the [start, end) billing window containing now.
// Windows are aligned to calendar boundaries in UTC.
func periodWindow(now time.Time, period string) (time.Time, time.Time) {
	now = now.UTC()
	switch period {
	case PeriodYearly:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, 0)
	default:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
}

func toTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
