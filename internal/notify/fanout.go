package notify

import (
	"context"
	"log/slog"
	"sync"

	"go.uber.org/multierr"

	"report_bot/internal/match"
	"report_bot/internal/model"
)

// SubscriptionStore is the persistence capability set for subscriptions.
type SubscriptionStore interface {
	ListSubscriptions(ctx context.Context) ([]model.Subscription, error)
	ListGuildSubscriptions(ctx context.Context, guildID string) ([]model.Subscription, error)
}

// ReportIndex looks up existing reports for a user.
type ReportIndex interface {
	ReportsFor(ctx context.Context, userID string) ([]model.Report, error)
}

// Fanout distributes report events across subscriptions.
type Fanout struct {
	subs        SubscriptionStore
	rec         *Reconciler
	index       ReportIndex
	homeGuildID string
	log         *slog.Logger
}

// NewFanout creates a Fanout. Events for homeGuildID's member joins are
// ignored.
func NewFanout(subs SubscriptionStore, rec *Reconciler, index ReportIndex, homeGuildID string, log *slog.Logger) *Fanout {
	return &Fanout{
		subs:        subs,
		rec:         rec,
		index:       index,
		homeGuildID: homeGuildID,
		log:         log,
	}
}

// Broadcast applies the action to every subscription concurrently, one
// task per subscription, and waits for all of them. Failures are
// combined and returned, but completed side effects are never rolled
// back: a partial broadcast stays applied.
func (f *Fanout) Broadcast(ctx context.Context, action model.Action, report model.Report) error {
	subs, err := f.subs.ListSubscriptions(ctx)
	if err != nil {
		return err
	}

	errs := make([]error, len(subs))
	var wg sync.WaitGroup
	for i, sub := range subs {
		wg.Add(1)
		go func(i int, sub model.Subscription) {
			defer wg.Done()
			errs[i] = f.rec.Process(ctx, action, report, sub)
		}(i, sub)
	}
	wg.Wait()

	if err := multierr.Combine(errs...); err != nil {
		f.log.Error("broadcast finished with failures", "action", action, "report_id", report.ID, "error", err)
		return err
	}
	return nil
}

// HandleMemberJoin reacts to a user joining a guild by surfacing the
// first existing report that matches one of the guild's subscriptions.
// First match wins: iteration is subscription store order, then report
// index order, and exactly one edit reconciliation fires.
func (f *Fanout) HandleMemberJoin(ctx context.Context, guildID, userID string) error {
	if guildID == f.homeGuildID {
		return nil
	}

	reports, err := f.index.ReportsFor(ctx, userID)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		return nil
	}

	subs, err := f.subs.ListGuildSubscriptions(ctx, guildID)
	if err != nil {
		return err
	}

	for _, sub := range subs {
		for _, report := range reports {
			if match.Match(report, sub.Tags) {
				f.log.Info("reported user joined", "guild_id", guildID, "user_id", userID, "report_id", report.ID)
				return f.rec.Process(ctx, model.ActionEdit, report, sub)
			}
		}
	}
	return nil
}
