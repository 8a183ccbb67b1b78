package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ferchu2021/Finanzas/internal/core"
)

// TrendPoint is one month of the income/expense history.
type TrendPoint struct {
	Month    string          `json:"mes"`
	Incomes  decimal.Decimal `json:"ingresos"`
	Expenses decimal.Decimal `json:"gastos"`
	Balance  decimal.Decimal `json:"saldo"`
}

// Trends is the six-month series the dashboard charts, with the overall
// percentage change between the oldest and the newest month.
type Trends struct {
	Months         []TrendPoint     `json:"meses"`
	IncomeChange   *decimal.Decimal `json:"cambio_ingresos,omitempty"`
	ExpenseChange  *decimal.Decimal `json:"cambio_gastos,omitempty"`
	AverageBalance decimal.Decimal  `json:"saldo_promedio"`
}

const trendMonths = 6

// Trends builds the monthly series for the six months ending in `today`.
func (e *Engine) Trends(ctx context.Context, today time.Time) (*Trends, error) {
	points := make([]TrendPoint, 0, trendMonths)
	var balanceSum decimal.Decimal

	for i := trendMonths - 1; i >= 0; i-- {
		anchor := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		start, end := monthBounds(anchor)

		incomes, err := e.store.IncomesBetween(ctx, start, end)
		if err != nil {
			return nil, fmt.Errorf("incomes for %s: %w", anchor.Format("2006-01"), err)
		}
		expenses, err := e.store.ExpensesBetween(ctx, start, end)
		if err != nil {
			return nil, fmt.Errorf("expenses for %s: %w", anchor.Format("2006-01"), err)
		}

		p := TrendPoint{
			Month:    anchor.Format("2006-01"),
			Incomes:  sumIncomes(incomes),
			Expenses: sumExpenses(expenses),
		}
		p.Balance = p.Incomes.Sub(p.Expenses)
		balanceSum = balanceSum.Add(p.Balance)
		points = append(points, p)
	}

	t := &Trends{
		Months:         points,
		AverageBalance: core.RoundCents(balanceSum.Div(decimal.NewFromInt(trendMonths))),
	}
	first, last := points[0], points[len(points)-1]
	if change, ok := pctChange(first.Incomes, last.Incomes); ok {
		t.IncomeChange = &change
	}
	if change, ok := pctChange(first.Expenses, last.Expenses); ok {
		t.ExpenseChange = &change
	}
	return t, nil
}
