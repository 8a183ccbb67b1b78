package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ferchu2021/Finanzas/internal/amqp"
	"github.com/Ferchu2021/Finanzas/internal/core"
	"github.com/Ferchu2021/Finanzas/internal/log"
)

type fakeStore struct {
	cards []core.CreditCard
	loans []core.Loan

	failCards bool
	replaced  [][]core.Projection
}

func (s *fakeStore) CreditCards(ctx context.Context) ([]core.CreditCard, error) {
	if s.failCards {
		return nil, errors.New("db down")
	}
	return s.cards, nil
}

func (s *fakeStore) Loans(ctx context.Context) ([]core.Loan, error) {
	return s.loans, nil
}

func (s *fakeStore) ReplaceGeneratedProjections(ctx context.Context, rows []core.Projection) error {
	s.replaced = append(s.replaced, rows)
	return nil
}

func testLogger() *log.Logger {
	return log.New(log.DefaultConfig())
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func testWorker(store *fakeStore, months int) *RefreshWorker {
	w := NewRefreshWorker(store, months, testLogger())
	w.now = func() time.Time {
		return time.Date(2025, time.March, 25, 10, 0, 0, 0, time.UTC)
	}
	return w
}

func TestRefreshWorker_Rebuild(t *testing.T) {
	store := &fakeStore{
		cards: []core.CreditCard{
			{
				ID:         1,
				Name:       "Visa Gold",
				Balance:    d("100000"),
				Currency:   core.ARS,
				ClosingDay: 20,
				DueDay:     10,
				AnnualRate: d("60"),
				VATRate:    d("21"),
			},
		},
		loans: []core.Loan{
			{
				ID:                 3,
				Name:               "Personal",
				Total:              d("500000"),
				Paid:               d("450000"),
				MonthlyInstallment: d("25000"),
				Currency:           core.ARS,
				StartDate:          core.NewDate(2024, int(time.June), 15),
				AnnualRate:         d("45"),
				Active:             true,
			},
		},
	}

	w := testWorker(store, 3)
	if err := w.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	if len(store.replaced) != 1 {
		t.Fatalf("ReplaceGeneratedProjections called %d times, want 1", len(store.replaced))
	}
	rows := store.replaced[0]
	if len(rows) == 0 {
		t.Fatal("Rebuild() produced no projection rows")
	}

	var cards, loans int
	for _, r := range rows {
		switch r.Kind {
		case "tarjeta":
			cards++
			if r.EntityID != 1 {
				t.Errorf("card row EntityID = %d, want 1", r.EntityID)
			}
			if r.Description != "Visa Gold" {
				t.Errorf("card row Description = %q, want Visa Gold", r.Description)
			}
		case "prestamo":
			loans++
			if r.EntityID != 3 {
				t.Errorf("loan row EntityID = %d, want 3", r.EntityID)
			}
		default:
			t.Errorf("unexpected row kind %q", r.Kind)
		}
		if r.Amount.Sign() <= 0 {
			t.Errorf("row amount = %s, want positive", r.Amount)
		}
		if r.Currency != core.ARS {
			t.Errorf("row currency = %s, want ARS", r.Currency)
		}
		if err := r.Validate(); err != nil {
			t.Errorf("row Validate() error = %v", err)
		}
	}
	if cards == 0 || loans == 0 {
		t.Errorf("rows = %d cards, %d loans; want both present", cards, loans)
	}
}

func TestRefreshWorker_Rebuild_NoInstruments(t *testing.T) {
	store := &fakeStore{}
	w := testWorker(store, 6)

	if err := w.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if len(store.replaced) != 1 {
		t.Fatalf("ReplaceGeneratedProjections called %d times, want 1", len(store.replaced))
	}
	if got := len(store.replaced[0]); got != 0 {
		t.Errorf("rows = %d, want 0", got)
	}
}

func TestRefreshWorker_Rebuild_StoreError(t *testing.T) {
	store := &fakeStore{failCards: true}
	w := testWorker(store, 6)

	if err := w.Rebuild(context.Background()); err == nil {
		t.Error("Rebuild() should fail when cards cannot be loaded")
	}
	if len(store.replaced) != 0 {
		t.Error("projections should not be replaced after a load failure")
	}
}

func TestRefreshWorker_HandleRefresh(t *testing.T) {
	store := &fakeStore{}
	w := testWorker(store, 6)

	msg := amqp.NewRefreshMessage("card_updated", "tarjeta", 7)
	if err := w.HandleRefresh(context.Background(), msg); err != nil {
		t.Fatalf("HandleRefresh() error = %v", err)
	}
	if len(store.replaced) != 1 {
		t.Errorf("ReplaceGeneratedProjections called %d times, want 1", len(store.replaced))
	}
}
