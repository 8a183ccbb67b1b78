// Package alerts evaluates warning rules over the tracked finances:
// month-over-month spending jumps, credit card utilization, loans and
// stored projections coming due, and a negative monthly balance.
//
// Rule sections run concurrently and independently: a section that fails
// is logged and dropped so the remaining alerts still reach the caller.
package alerts

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Ferchu2021/Finanzas/internal/core"
	"github.com/Ferchu2021/Finanzas/internal/log"
)

type Severity string

const (
	High   Severity = "alta"
	Medium Severity = "media"
	Low    Severity = "baja"
)

type Alert struct {
	Type     string   `json:"tipo"`
	Severity Severity `json:"severidad"`
	Title    string   `json:"titulo"`
	Message  string   `json:"mensaje"`
	Detail   any      `json:"detalle,omitempty"`
}

// Store is the slice of persistence the rule engine reads from.
type Store interface {
	IncomesBetween(ctx context.Context, from, to time.Time) ([]core.Income, error)
	ExpensesBetween(ctx context.Context, from, to time.Time) ([]core.Expense, error)
	CreditCards(ctx context.Context) ([]core.CreditCard, error)
	Loans(ctx context.Context) ([]core.Loan, error)
	ProjectionsDueBetween(ctx context.Context, from, to time.Time) ([]core.Projection, error)
}

type Engine struct {
	store  Store
	logger *log.Logger
}

func NewEngine(store Store, logger *log.Logger) *Engine {
	return &Engine{store: store, logger: logger.WithComponent(log.ComponentAlerts)}
}

// Thresholds, in percent.
var (
	spendingWarn  = decimal.NewFromInt(20)
	spendingHigh  = decimal.NewFromInt(50)
	kindWarn      = decimal.NewFromInt(30)
	utilWarn      = decimal.NewFromInt(80)
	utilHigh      = decimal.NewFromInt(90)
	loanDueWindow = 30 * 24 * time.Hour
	projWindow    = 7 * 24 * time.Hour
)

// Evaluate runs every rule section for the month containing `today` and
// returns the union of their alerts, most severe first.
func (e *Engine) Evaluate(ctx context.Context, today time.Time) ([]Alert, error) {
	sections := []func(context.Context, time.Time) ([]Alert, error){
		e.spendingShift,
		e.cardUtilization,
		e.loansDueSoon,
		e.upcomingProjections,
		e.negativeBalance,
	}

	results := make([][]Alert, len(sections))
	g, gctx := errgroup.WithContext(ctx)
	for i, section := range sections {
		i, section := i, section
		g.Go(func() error {
			alerts, err := section(gctx, today)
			if err != nil {
				// One broken section must not take down the rest.
				e.logger.Error("alert section failed", "section", i, "error", err)
				return nil
			}
			results[i] = alerts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Alert
	for _, r := range results {
		all = append(all, r...)
	}
	rank := map[Severity]int{High: 0, Medium: 1, Low: 2}
	sort.SliceStable(all, func(i, j int) bool {
		return rank[all[i].Severity] < rank[all[j].Severity]
	})
	return all, nil
}

func monthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0).AddDate(0, 0, -1)
}

func sumExpenses(expenses []core.Expense) decimal.Decimal {
	var total decimal.Decimal
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

func sumIncomes(incomes []core.Income) decimal.Decimal {
	var total decimal.Decimal
	for _, i := range incomes {
		total = total.Add(i.Amount)
	}
	return total
}

func sumByKind(expenses []core.Expense) map[core.ExpenseKind]decimal.Decimal {
	totals := make(map[core.ExpenseKind]decimal.Decimal)
	for _, e := range expenses {
		totals[e.Kind] = totals[e.Kind].Add(e.Amount)
	}
	return totals
}

func pctChange(prev, curr decimal.Decimal) (decimal.Decimal, bool) {
	if prev.Sign() <= 0 {
		return decimal.Zero, false
	}
	return core.RoundCents(curr.Sub(prev).Mul(decimal.NewFromInt(100)).Div(prev)), true
}

// spendingShift compares this month's spending with the previous month,
// overall and per expense kind.
func (e *Engine) spendingShift(ctx context.Context, today time.Time) ([]Alert, error) {
	currStart, currEnd := monthBounds(today)
	prevStart, prevEnd := monthBounds(currStart.AddDate(0, 0, -1))

	curr, err := e.store.ExpensesBetween(ctx, currStart, currEnd)
	if err != nil {
		return nil, fmt.Errorf("current month expenses: %w", err)
	}
	prev, err := e.store.ExpensesBetween(ctx, prevStart, prevEnd)
	if err != nil {
		return nil, fmt.Errorf("previous month expenses: %w", err)
	}

	var alerts []Alert
	if change, ok := pctChange(sumExpenses(prev), sumExpenses(curr)); ok && change.GreaterThan(spendingWarn) {
		sev := Medium
		if change.GreaterThan(spendingHigh) {
			sev = High
		}
		alerts = append(alerts, Alert{
			Type:     "aumento_gastos",
			Severity: sev,
			Title:    "Aumento de gastos",
			Message:  fmt.Sprintf("Los gastos del mes aumentaron %s%% respecto al mes anterior", change),
			Detail:   map[string]string{"cambio_porcentual": change.String()},
		})
	}

	prevByKind := sumByKind(prev)
	currByKind := sumByKind(curr)
	for _, kind := range []core.ExpenseKind{core.Fixed, core.Ordinary, core.Extraordinary} {
		if change, ok := pctChange(prevByKind[kind], currByKind[kind]); ok && change.GreaterThan(kindWarn) {
			alerts = append(alerts, Alert{
				Type:     "aumento_gastos_tipo",
				Severity: Medium,
				Title:    fmt.Sprintf("Aumento en gastos %s", kind),
				Message:  fmt.Sprintf("Los gastos de tipo %s aumentaron %s%%", kind, change),
				Detail:   map[string]string{"tipo_gasto": string(kind), "cambio_porcentual": change.String()},
			})
		}
	}
	return alerts, nil
}

func (e *Engine) cardUtilization(ctx context.Context, _ time.Time) ([]Alert, error) {
	cards, err := e.store.CreditCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	var alerts []Alert
	for _, c := range cards {
		util := c.Utilization()
		if !util.GreaterThan(utilWarn) {
			continue
		}
		sev := Medium
		if util.GreaterThan(utilHigh) {
			sev = High
		}
		alerts = append(alerts, Alert{
			Type:     "uso_tarjeta",
			Severity: sev,
			Title:    fmt.Sprintf("Uso alto de %s", c.Name),
			Message:  fmt.Sprintf("La tarjeta %s usa el %s%% de su límite", c.Name, util),
			Detail:   map[string]string{"tarjeta": c.Name, "utilizacion": util.String()},
		})
	}
	return alerts, nil
}

func (e *Engine) loansDueSoon(ctx context.Context, today time.Time) ([]Alert, error) {
	loans, err := e.store.Loans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	deadline := today.Add(loanDueWindow)
	var alerts []Alert
	for _, l := range loans {
		if !l.Active || l.Pending().Sign() <= 0 || l.DueDate == nil {
			continue
		}
		if l.DueDate.Before(today) || l.DueDate.After(deadline) {
			continue
		}
		alerts = append(alerts, Alert{
			Type:     "prestamo_por_vencer",
			Severity: High,
			Title:    fmt.Sprintf("Préstamo %s por vencer", l.Name),
			Message: fmt.Sprintf("El préstamo %s vence el %s con %s %s pendientes",
				l.Name, l.DueDate, l.Pending().StringFixed(2), l.Currency),
			Detail: map[string]string{"prestamo": l.Name, "vencimiento": l.DueDate.String()},
		})
	}
	return alerts, nil
}

func (e *Engine) upcomingProjections(ctx context.Context, today time.Time) ([]Alert, error) {
	projections, err := e.store.ProjectionsDueBetween(ctx, today, today.Add(projWindow))
	if err != nil {
		return nil, fmt.Errorf("upcoming projections: %w", err)
	}
	totals := make(map[core.Currency]string)
	sums := make(map[core.Currency]decimal.Decimal)
	count := 0
	for _, p := range projections {
		if p.Paid {
			continue
		}
		count++
		sums[p.Currency] = sums[p.Currency].Add(p.Amount)
	}
	if count == 0 {
		return nil, nil
	}
	for c, v := range sums {
		totals[c] = v.StringFixed(2)
	}
	return []Alert{{
		Type:     "pagos_proximos",
		Severity: Medium,
		Title:    "Pagos próximos",
		Message:  fmt.Sprintf("Hay %d pagos proyectados en los próximos 7 días", count),
		Detail:   map[string]any{"cantidad": count, "totales": totals},
	}}, nil
}

func (e *Engine) negativeBalance(ctx context.Context, today time.Time) ([]Alert, error) {
	start, end := monthBounds(today)
	incomes, err := e.store.IncomesBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("month incomes: %w", err)
	}
	expenses, err := e.store.ExpensesBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("month expenses: %w", err)
	}
	balance := sumIncomes(incomes).Sub(sumExpenses(expenses))
	if balance.Sign() >= 0 {
		return nil, nil
	}
	return []Alert{{
		Type:     "saldo_negativo",
		Severity: High,
		Title:    "Saldo mensual negativo",
		Message:  fmt.Sprintf("Los gastos del mes superan a los ingresos por %s", balance.Abs().StringFixed(2)),
		Detail:   map[string]string{"saldo": balance.StringFixed(2)},
	}}, nil
}
