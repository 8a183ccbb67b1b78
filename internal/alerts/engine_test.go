package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ferchu2021/Finanzas/internal/core"
	"github.com/Ferchu2021/Finanzas/internal/log"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fakeStore serves canned data keyed by month for the engine tests.
type fakeStore struct {
	incomes     map[string][]core.Income
	expenses    map[string][]core.Expense
	cards       []core.CreditCard
	loans       []core.Loan
	projections []core.Projection

	failExpenses bool
}

func (f *fakeStore) IncomesBetween(_ context.Context, from, _ time.Time) ([]core.Income, error) {
	return f.incomes[from.Format("2006-01")], nil
}

func (f *fakeStore) ExpensesBetween(_ context.Context, from, _ time.Time) ([]core.Expense, error) {
	if f.failExpenses {
		return nil, errors.New("boom")
	}
	return f.expenses[from.Format("2006-01")], nil
}

func (f *fakeStore) CreditCards(context.Context) ([]core.CreditCard, error) { return f.cards, nil }
func (f *fakeStore) Loans(context.Context) ([]core.Loan, error)            { return f.loans, nil }

func (f *fakeStore) ProjectionsDueBetween(_ context.Context, from, to time.Time) ([]core.Projection, error) {
	var out []core.Projection
	for _, p := range f.projections {
		if !p.DueDate.Before(from) && !p.DueDate.After(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func testLogger() *log.Logger {
	return log.New(log.DefaultConfig())
}

func expense(month string, kind core.ExpenseKind, amount string) core.Expense {
	t, _ := time.Parse("2006-01", month)
	return core.Expense{Date: core.DateOf(t), Kind: kind, Amount: d(amount), Currency: core.ARS}
}

func income(month string, amount string) core.Income {
	t, _ := time.Parse("2006-01", month)
	return core.Income{Date: core.DateOf(t), Amount: d(amount), Currency: core.ARS, Source: "Sueldo"}
}

var march = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

func find(alerts []Alert, typ string) *Alert {
	for i := range alerts {
		if alerts[i].Type == typ {
			return &alerts[i]
		}
	}
	return nil
}

func TestSpendingShift(t *testing.T) {
	cases := []struct {
		name     string
		prev     string
		curr     string
		wantType bool
		wantSev  Severity
	}{
		{"no change", "1000", "1000", false, ""},
		{"moderate increase", "1000", "1300", true, Medium},
		{"steep increase", "1000", "1600", true, High},
		{"decrease", "1000", "700", false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{expenses: map[string][]core.Expense{
				"2025-02": {expense("2025-02", core.Ordinary, tc.prev)},
				"2025-03": {expense("2025-03", core.Ordinary, tc.curr)},
			}}
			alerts, err := NewEngine(store, testLogger()).Evaluate(context.Background(), march)
			if err != nil {
				t.Fatal(err)
			}
			a := find(alerts, "aumento_gastos")
			if !tc.wantType {
				if a != nil {
					t.Fatalf("unexpected alert: %+v", a)
				}
				return
			}
			if a == nil {
				t.Fatal("expected aumento_gastos alert")
			}
			if a.Severity != tc.wantSev {
				t.Fatalf("severity = %s, want %s", a.Severity, tc.wantSev)
			}
		})
	}
}

func TestSpendingShiftByKind(t *testing.T) {
	store := &fakeStore{expenses: map[string][]core.Expense{
		"2025-02": {expense("2025-02", core.Fixed, "1000"), expense("2025-02", core.Ordinary, "5000")},
		"2025-03": {expense("2025-03", core.Fixed, "1400"), expense("2025-03", core.Ordinary, "5000")},
	}}
	alerts, err := NewEngine(store, testLogger()).Evaluate(context.Background(), march)
	if err != nil {
		t.Fatal(err)
	}
	a := find(alerts, "aumento_gastos_tipo")
	if a == nil {
		t.Fatal("expected per-kind spending alert")
	}
}

func TestCardUtilizationAlert(t *testing.T) {
	store := &fakeStore{cards: []core.CreditCard{
		{ID: 1, Name: "Baja", Limit: d("100000"), Balance: d("50000"), Currency: core.ARS},
		{ID: 2, Name: "Media", Limit: d("100000"), Balance: d("85000"), Currency: core.ARS},
		{ID: 3, Name: "Alta", Limit: d("100000"), Balance: d("95000"), Currency: core.ARS},
	}}
	alerts, err := NewEngine(store, testLogger()).Evaluate(context.Background(), march)
	if err != nil {
		t.Fatal(err)
	}
	got := 0
	for _, a := range alerts {
		if a.Type != "uso_tarjeta" {
			continue
		}
		got++
		switch a.Detail.(map[string]string)["tarjeta"] {
		case "Media":
			if a.Severity != Medium {
				t.Fatalf("Media severity = %s", a.Severity)
			}
		case "Alta":
			if a.Severity != High {
				t.Fatalf("Alta severity = %s", a.Severity)
			}
		default:
			t.Fatalf("unexpected card alert: %+v", a)
		}
	}
	if got != 2 {
		t.Fatalf("got %d utilization alerts, want 2", got)
	}
}

func TestLoansDueSoon(t *testing.T) {
	soon := core.NewDate(2025, 4, 1)
	far := core.NewDate(2025, 8, 1)
	store := &fakeStore{loans: []core.Loan{
		{ID: 1, Name: "Pronto", Total: d("1000"), Currency: core.ARS, Active: true, DueDate: &soon, StartDate: core.NewDate(2024, 1, 1)},
		{ID: 2, Name: "Lejos", Total: d("1000"), Currency: core.ARS, Active: true, DueDate: &far, StartDate: core.NewDate(2024, 1, 1)},
		{ID: 3, Name: "Pagado", Total: d("1000"), Paid: d("1000"), Currency: core.ARS, Active: true, DueDate: &soon, StartDate: core.NewDate(2024, 1, 1)},
	}}
	alerts, err := NewEngine(store, testLogger()).Evaluate(context.Background(), march)
	if err != nil {
		t.Fatal(err)
	}
	a := find(alerts, "prestamo_por_vencer")
	if a == nil {
		t.Fatal("expected loan due alert")
	}
	if a.Severity != High {
		t.Fatalf("severity = %s, want alta", a.Severity)
	}
	count := 0
	for _, al := range alerts {
		if al.Type == "prestamo_por_vencer" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("got %d loan alerts, want 1", count)
	}
}

func TestUpcomingProjections(t *testing.T) {
	store := &fakeStore{projections: []core.Projection{
		{Kind: "tarjeta", DueDate: core.NewDate(2025, 3, 18), Amount: d("1000"), Currency: core.ARS},
		{Kind: "prestamo", DueDate: core.NewDate(2025, 3, 20), Amount: d("50"), Currency: core.USD},
		{Kind: "tarjeta", DueDate: core.NewDate(2025, 3, 19), Amount: d("999"), Currency: core.ARS, Paid: true},
		{Kind: "tarjeta", DueDate: core.NewDate(2025, 5, 1), Amount: d("777"), Currency: core.ARS},
	}}
	alerts, err := NewEngine(store, testLogger()).Evaluate(context.Background(), march)
	if err != nil {
		t.Fatal(err)
	}
	a := find(alerts, "pagos_proximos")
	if a == nil {
		t.Fatal("expected upcoming payments alert")
	}
	detail := a.Detail.(map[string]any)
	if detail["cantidad"].(int) != 2 {
		t.Fatalf("cantidad = %v, want 2", detail["cantidad"])
	}
}

func TestNegativeBalance(t *testing.T) {
	store := &fakeStore{
		incomes:  map[string][]core.Income{"2025-03": {income("2025-03", "1000")}},
		expenses: map[string][]core.Expense{"2025-03": {expense("2025-03", core.Ordinary, "1500")}},
	}
	alerts, err := NewEngine(store, testLogger()).Evaluate(context.Background(), march)
	if err != nil {
		t.Fatal(err)
	}
	if find(alerts, "saldo_negativo") == nil {
		t.Fatal("expected negative balance alert")
	}
}

// A failing section is dropped; the others still produce alerts.
func TestEvaluateIsolatesSectionFailure(t *testing.T) {
	store := &fakeStore{
		failExpenses: true,
		cards: []core.CreditCard{
			{ID: 1, Name: "Alta", Limit: d("100000"), Balance: d("95000"), Currency: core.ARS},
		},
	}
	alerts, err := NewEngine(store, testLogger()).Evaluate(context.Background(), march)
	if err != nil {
		t.Fatalf("section failure must not fail the evaluation: %v", err)
	}
	if find(alerts, "uso_tarjeta") == nil {
		t.Fatal("healthy section should still emit alerts")
	}
}

func TestEvaluateSortsBySeverity(t *testing.T) {
	store := &fakeStore{
		cards: []core.CreditCard{
			{ID: 1, Name: "Media", Limit: d("100000"), Balance: d("85000"), Currency: core.ARS},
		},
		incomes:  map[string][]core.Income{"2025-03": {income("2025-03", "100")}},
		expenses: map[string][]core.Expense{"2025-03": {expense("2025-03", core.Ordinary, "200")}},
	}
	alerts, err := NewEngine(store, testLogger()).Evaluate(context.Background(), march)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) < 2 {
		t.Fatalf("expected at least two alerts, got %d", len(alerts))
	}
	if alerts[0].Severity != High {
		t.Fatalf("first alert severity = %s, want alta", alerts[0].Severity)
	}
}

func TestTrends(t *testing.T) {
	store := &fakeStore{
		incomes: map[string][]core.Income{
			"2024-10": {income("2024-10", "1000")},
			"2025-03": {income("2025-03", "2000")},
		},
		expenses: map[string][]core.Expense{
			"2024-10": {expense("2024-10", core.Ordinary, "500")},
			"2025-03": {expense("2025-03", core.Ordinary, "1000")},
		},
	}
	trends, err := NewEngine(store, testLogger()).Trends(context.Background(), march)
	if err != nil {
		t.Fatal(err)
	}
	if len(trends.Months) != 6 {
		t.Fatalf("got %d months, want 6", len(trends.Months))
	}
	if trends.Months[0].Month != "2024-10" || trends.Months[5].Month != "2025-03" {
		t.Fatalf("month range = %s..%s", trends.Months[0].Month, trends.Months[5].Month)
	}
	if trends.ExpenseChange == nil || !trends.ExpenseChange.Equal(d("100")) {
		t.Fatalf("expense change = %v, want 100", trends.ExpenseChange)
	}
	if !trends.Months[5].Balance.Equal(d("1000")) {
		t.Fatalf("march balance = %s, want 1000", trends.Months[5].Balance)
	}
}
