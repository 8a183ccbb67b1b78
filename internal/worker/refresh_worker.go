// Package worker rebuilds the stored payment projections. It reacts to
// refresh messages published by the API server and also runs on a cron
// schedule so the projection table never drifts more than a day.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/Ferchu2021/Finanzas/internal/amqp"
	"github.com/Ferchu2021/Finanzas/internal/core"
	"github.com/Ferchu2021/Finanzas/internal/log"
	"github.com/Ferchu2021/Finanzas/internal/projection"
)

// Store is the persistence the refresh worker needs.
type Store interface {
	CreditCards(ctx context.Context) ([]core.CreditCard, error)
	Loans(ctx context.Context) ([]core.Loan, error)
	ReplaceGeneratedProjections(ctx context.Context, rows []core.Projection) error
}

// RefreshWorker regenerates the proyecciones_pago table from the current
// cards and loans.
type RefreshWorker struct {
	store  Store
	months int
	logger *log.Logger
	now    func() time.Time
}

func NewRefreshWorker(store Store, months int, logger *log.Logger) *RefreshWorker {
	return &RefreshWorker{
		store:  store,
		months: months,
		logger: logger.WithComponent(log.ComponentWorker),
		now:    time.Now,
	}
}

// HandleRefresh processes one refresh message from AMQP.
func (w *RefreshWorker) HandleRefresh(ctx context.Context, msg *amqp.RefreshMessage) error {
	w.logger.InfoContext(ctx, "Processing refresh message",
		"reason", msg.Reason,
		"kind", msg.Kind,
		log.FieldEntityID, msg.EntityID)
	return w.Rebuild(ctx)
}

// Rebuild recomputes every card and loan projection over the configured
// horizon and swaps them into the projection table. Manually entered and
// already-paid rows are untouched.
func (w *RefreshWorker) Rebuild(ctx context.Context) error {
	today := w.now().UTC().Truncate(24 * time.Hour)

	cards, err := w.store.CreditCards(ctx)
	if err != nil {
		return fmt.Errorf("load cards: %w", err)
	}
	loans, err := w.store.Loans(ctx)
	if err != nil {
		return fmt.Errorf("load loans: %w", err)
	}

	entries := append(
		projection.CardEntries(cards, today, w.months),
		projection.LoanEntries(loans, today, w.months)...,
	)

	rows := make([]core.Projection, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, core.Projection{
			Kind:        e.Kind,
			EntityID:    e.InstrumentID,
			DueDate:     e.DueDate,
			Amount:      e.Amount,
			Currency:    e.Currency,
			Description: e.Name,
		})
	}

	if err := w.store.ReplaceGeneratedProjections(ctx, rows); err != nil {
		return fmt.Errorf("replace projections: %w", err)
	}

	w.logger.InfoContext(ctx, "Projections rebuilt",
		"cards", len(cards),
		"loans", len(loans),
		log.FieldProjectionRow, len(rows),
		log.FieldMonths, w.months)
	return nil
}
