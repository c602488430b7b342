// Package alerts implements the scheduled budget alert sweep.
package alerts

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"saldo/internal/core"
	"saldo/internal/notify"
	"saldo/internal/services"
	"saldo/internal/storage"
)

// Publisher hands an alert off to the message queue for the notify worker.
// *amqp.Client satisfies it.
type Publisher interface {
	PublishBudgetAlert(ctx context.Context, budgetID, ownerID, level string) error
}

// Summary tallies one sweep. Reruns resend: the sweep keeps no memory of
// what it already alerted on.
type Summary struct {
	BudgetsChecked int   `json:"budgetsChecked"`
	AlertsSent     int64 `json:"alertsSent"`
	AlertsSkipped  int64 `json:"alertsSkipped"`
}

// Sweeper walks every active budget across all owners and dispatches alerts
// for the ones above threshold. With a Publisher configured, dispatch means
// queueing a message; otherwise the alert is rendered and delivered straight
// to the sink.
type Sweeper struct {
	storage   *storage.SQLiteRepository
	budgets   *services.BudgetService
	publisher Publisher
	sink      notify.Sink
	currency  string
	workers   int
}

func NewSweeper(repo *storage.SQLiteRepository, budgets *services.BudgetService, publisher Publisher, sink notify.Sink, currency string, workers int) *Sweeper {
	if workers < 1 {
		workers = 1
	}
	if sink == nil {
		sink = notify.NoopSink{}
	}
	return &Sweeper{
		storage:   repo,
		budgets:   budgets,
		publisher: publisher,
		sink:      sink,
		currency:  currency,
		workers:   workers,
	}
}

// Run executes one sweep at the given instant. Per-budget failures are
// logged and leave the rest of the sweep untouched; only listing the budgets
// can fail the sweep as a whole.
func (s *Sweeper) Run(ctx context.Context, now time.Time) (Summary, error) {
	budgets, err := s.storage.ListActiveBudgetsAllOwners(ctx)
	if err != nil {
		return Summary{}, err
	}

	slog.InfoContext(ctx, "Budget alert sweep started", "budgets", len(budgets))

	var sent, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, budget := range budgets {
		budget := budget
		g.Go(func() error {
			switch outcome := s.process(gctx, budget, now); outcome {
			case outcomeSent:
				sent.Add(1)
			case outcomeSkipped:
				skipped.Add(1)
			}
			// errors are isolated per budget, never returned
			return nil
		})
	}
	g.Wait()

	summary := Summary{
		BudgetsChecked: len(budgets),
		AlertsSent:     sent.Load(),
		AlertsSkipped:  skipped.Load(),
	}
	slog.InfoContext(ctx, "Budget alert sweep finished",
		"budgets_checked", summary.BudgetsChecked,
		"alerts_sent", summary.AlertsSent,
		"alerts_skipped", summary.AlertsSkipped)
	return summary, nil
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeSent
	outcomeSkipped
)

func (s *Sweeper) process(ctx context.Context, budget storage.ActiveBudget, now time.Time) outcome {
	if budget.OwnerEmail == "" {
		slog.DebugContext(ctx, "Skipping budget, owner has no email",
			"budget_id", budget.ID, "budget", budget.Name)
		return outcomeSkipped
	}

	alert, err := s.budgets.Evaluate(ctx, budget, now)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to evaluate budget",
			"budget_id", budget.ID, "budget", budget.Name, "error", err)
		return outcomeFailed
	}

	if alert.Level == core.AlertSafe {
		slog.DebugContext(ctx, "Budget is within limits",
			"budget_id", budget.ID, "percentage", alert.Percentage)
		return outcomeSkipped
	}

	if err := s.dispatch(ctx, budget, alert); err != nil {
		slog.ErrorContext(ctx, "Failed to dispatch budget alert",
			"budget_id", budget.ID, "level", alert.Level, "error", err)
		return outcomeFailed
	}

	slog.InfoContext(ctx, "Budget alert dispatched",
		"budget_id", budget.ID,
		"level", alert.Level,
		"percentage", alert.Percentage)
	return outcomeSent
}

func (s *Sweeper) dispatch(ctx context.Context, budget storage.ActiveBudget, alert core.BudgetAlert) error {
	if s.publisher != nil {
		return s.publisher.PublishBudgetAlert(ctx, budget.ID, budget.OwnerID, string(alert.Level))
	}
	msg := notify.Render(alert, "", s.currency)
	return s.sink.Send(ctx, budget.OwnerEmail, msg.Subject, msg.HTML, msg.Text)
}

// Deliver resolves one queued alert message, re-evaluates the budget and
// sends the email. The notify worker calls this per consumed message.
func (s *Sweeper) Deliver(ctx context.Context, budgetID, ownerID string, now time.Time) error {
	budgets, err := s.storage.ListActiveBudgets(ctx, ownerID)
	if err != nil {
		return err
	}
	owner, err := s.storage.GetUser(ctx, ownerID)
	if errors.Is(err, core.ErrNotFound) {
		// Requeueing would loop forever; an owner without a profile has
		// nowhere to receive the alert anyway.
		slog.WarnContext(ctx, "Owner profile missing, dropping alert", "budget_id", budgetID, "owner_id", ownerID)
		return nil
	}
	if err != nil {
		return err
	}

	for _, budget := range budgets {
		if budget.ID != budgetID {
			continue
		}
		alert, err := s.budgets.Evaluate(ctx, budget, now)
		if err != nil {
			return err
		}
		if alert.Level == core.AlertSafe {
			// spending changed between sweep and delivery
			slog.InfoContext(ctx, "Queued alert no longer applies", "budget_id", budgetID)
			return nil
		}
		if owner.Email == "" {
			slog.WarnContext(ctx, "Owner has no email, dropping alert", "budget_id", budgetID)
			return nil
		}
		msg := notify.Render(alert, owner.Name, s.currency)
		return s.sink.Send(ctx, owner.Email, msg.Subject, msg.HTML, msg.Text)
	}

	// budget deleted or deactivated since the sweep
	slog.InfoContext(ctx, "Queued alert for unknown budget, dropping", "budget_id", budgetID)
	return nil
}
