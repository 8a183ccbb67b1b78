// Package reports assembles the monthly money-flow summaries: total
// outflows (expenses plus card and loan payments), positive balances by
// income source, and the combined month summary the dashboard shows.
// Every total is kept per currency so pesos and dollars never mix.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ferchu2021/Finanzas/internal/core"
)

// Store is the slice of persistence the report builders read from.
type Store interface {
	IncomesBetween(ctx context.Context, from, to time.Time) ([]core.Income, error)
	ExpensesBetween(ctx context.Context, from, to time.Time) ([]core.Expense, error)
	CardPaymentsBetween(ctx context.Context, from, to time.Time) ([]core.Payment, error)
	LoanPaymentsBetween(ctx context.Context, from, to time.Time) ([]core.Payment, error)
	ProjectionsDueBetween(ctx context.Context, from, to time.Time) ([]core.Projection, error)
}

type Totals map[core.Currency]decimal.Decimal

func (t Totals) add(c core.Currency, v decimal.Decimal) {
	t[c] = t[c].Add(v)
}

// Outflows breaks down everything that left the accounts in one month.
type Outflows struct {
	Month        string                             `json:"mes"`
	Expenses     Totals                             `json:"total_gastos"`
	CardPayments Totals                             `json:"total_pagos_tarjetas"`
	LoanPayments Totals                             `json:"total_pagos_prestamos"`
	Total        Totals                             `json:"total_egresos"`
	ByKind       map[core.ExpenseKind]decimal.Decimal `json:"gastos_por_tipo"`
}

// Balance summarizes income against outflows for one month.
type Balance struct {
	Month    string             `json:"mes"`
	Incomes  Totals             `json:"total_ingresos"`
	BySource map[string]decimal.Decimal `json:"ingresos_por_tipo"`
	Outflows Totals             `json:"total_egresos"`
	Net      Totals             `json:"saldo"`
}

// Summary is the full month view: balance, outflows and what is still
// projected to come due within the month.
type Summary struct {
	Month            string   `json:"mes"`
	Balance          *Balance `json:"saldos"`
	Outflows         *Outflows `json:"egresos"`
	ProjectedCount   int      `json:"proyecciones_pendientes"`
	ProjectedAmounts Totals   `json:"total_proyectado"`
}

type Builder struct {
	store Store
}

func NewBuilder(store Store) *Builder {
	return &Builder{store: store}
}

func monthBounds(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0).AddDate(0, 0, -1)
}

// MonthlyOutflows sums expenses and instrument payments for the month.
func (b *Builder) MonthlyOutflows(ctx context.Context, year int, month time.Month) (*Outflows, error) {
	from, to := monthBounds(year, month)

	expenses, err := b.store.ExpensesBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("expenses: %w", err)
	}
	cardPayments, err := b.store.CardPaymentsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("card payments: %w", err)
	}
	loanPayments, err := b.store.LoanPaymentsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("loan payments: %w", err)
	}

	out := &Outflows{
		Month:        from.Format("2006-01"),
		Expenses:     Totals{},
		CardPayments: Totals{},
		LoanPayments: Totals{},
		Total:        Totals{},
		ByKind:       map[core.ExpenseKind]decimal.Decimal{},
	}
	for _, e := range expenses {
		out.Expenses.add(e.Currency, e.Amount)
		out.Total.add(e.Currency, e.Amount)
		out.ByKind[e.Kind] = out.ByKind[e.Kind].Add(e.Amount)
	}
	// Instrument payments carry no currency of their own: cards and
	// loans settle in pesos.
	for _, p := range cardPayments {
		out.CardPayments.add(core.ARS, p.Amount)
		out.Total.add(core.ARS, p.Amount)
	}
	for _, p := range loanPayments {
		out.LoanPayments.add(core.ARS, p.Amount)
		out.Total.add(core.ARS, p.Amount)
	}
	return out, nil
}

// MonthlyBalance sums incomes by source and nets them against outflows.
func (b *Builder) MonthlyBalance(ctx context.Context, year int, month time.Month) (*Balance, error) {
	from, to := monthBounds(year, month)

	incomes, err := b.store.IncomesBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("incomes: %w", err)
	}
	outflows, err := b.MonthlyOutflows(ctx, year, month)
	if err != nil {
		return nil, err
	}

	bal := &Balance{
		Month:    from.Format("2006-01"),
		Incomes:  Totals{},
		BySource: map[string]decimal.Decimal{},
		Outflows: outflows.Total,
		Net:      Totals{},
	}
	for _, i := range incomes {
		bal.Incomes.add(i.Currency, i.Amount)
		bal.BySource[i.Source] = bal.BySource[i.Source].Add(i.Amount)
	}
	for c, v := range bal.Incomes {
		bal.Net[c] = v.Sub(outflows.Total[c])
	}
	for c, v := range outflows.Total {
		if _, ok := bal.Incomes[c]; !ok {
			bal.Net[c] = v.Neg()
		}
	}
	return bal, nil
}

// MonthlySummary combines balance, outflows and pending projections.
func (b *Builder) MonthlySummary(ctx context.Context, year int, month time.Month) (*Summary, error) {
	from, to := monthBounds(year, month)

	balance, err := b.MonthlyBalance(ctx, year, month)
	if err != nil {
		return nil, err
	}
	outflows, err := b.MonthlyOutflows(ctx, year, month)
	if err != nil {
		return nil, err
	}
	projections, err := b.store.ProjectionsDueBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("projections: %w", err)
	}

	s := &Summary{
		Month:            from.Format("2006-01"),
		Balance:          balance,
		Outflows:         outflows,
		ProjectedAmounts: Totals{},
	}
	for _, p := range projections {
		if p.Paid {
			continue
		}
		s.ProjectedCount++
		s.ProjectedAmounts.add(p.Currency, p.Amount)
	}
	return s, nil
}
