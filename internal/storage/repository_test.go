package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ferchu2021/Finanzas/internal/core"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "finanzas.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestIncomeRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	created, err := repo.CreateIncome(ctx, core.Income{
		Date:        core.NewDate(2025, 3, 1),
		Amount:      d("500000.50"),
		Currency:    core.ARS,
		Source:      "Sueldo",
		Description: "marzo",
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == 0 {
		t.Fatal("created income has no id")
	}

	got, err := repo.GetIncome(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Amount.Equal(d("500000.50")) {
		t.Fatalf("amount = %s, want 500000.50", got.Amount)
	}
	if got.Date.String() != "2025-03-01" {
		t.Fatalf("date = %s", got.Date)
	}

	got.Amount = d("600000")
	if err := repo.UpdateIncome(ctx, got); err != nil {
		t.Fatal(err)
	}
	updated, err := repo.GetIncome(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !updated.Amount.Equal(d("600000")) {
		t.Fatalf("updated amount = %s", updated.Amount)
	}

	if err := repo.DeleteIncome(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetIncome(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExpensesBetween(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for _, e := range []core.Expense{
		{Date: core.NewDate(2025, 2, 28), Amount: d("100"), Currency: core.ARS, Kind: core.Fixed},
		{Date: core.NewDate(2025, 3, 1), Amount: d("200"), Currency: core.ARS, Kind: core.Ordinary},
		{Date: core.NewDate(2025, 3, 31), Amount: d("300"), Currency: core.ARS, Kind: core.Ordinary},
		{Date: core.NewDate(2025, 4, 1), Amount: d("400"), Currency: core.ARS, Kind: core.Extraordinary},
	} {
		if _, err := repo.CreateExpense(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	got, err := repo.ExpensesBetween(ctx, from, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d expenses, want 2", len(got))
	}
	if !got[0].Amount.Equal(d("200")) || !got[1].Amount.Equal(d("300")) {
		t.Fatalf("wrong rows: %s, %s", got[0].Amount, got[1].Amount)
	}
}

func TestCardPaymentAdjustsBalance(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	card, err := repo.CreateCard(ctx, core.CreditCard{
		Name: "Visa", Currency: core.ARS, ClosingDay: 20, DueDay: 10,
		Limit: d("500000"), Balance: d("100000"), AnnualRate: d("60"), VATRate: d("21"),
		MonthlyRate: decimal.Zero, IncomeTaxRate: decimal.Zero, AdminFee: decimal.Zero,
		StampTaxRate: decimal.Zero, Maintenance: decimal.Zero,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := repo.CreateCardPayment(ctx, core.Payment{
		InstrumentID: card.ID, Date: core.NewDate(2025, 3, 5), Amount: d("40000"),
	}); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetCard(ctx, card.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Balance.Equal(d("60000")) {
		t.Fatalf("balance = %s, want 60000", got.Balance)
	}

	// Overpayment floors the balance at zero.
	if _, err := repo.CreateCardPayment(ctx, core.Payment{
		InstrumentID: card.ID, Date: core.NewDate(2025, 3, 20), Amount: d("90000"),
	}); err != nil {
		t.Fatal(err)
	}
	got, err = repo.GetCard(ctx, card.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Balance.Sign() != 0 {
		t.Fatalf("balance = %s, want 0", got.Balance)
	}

	payments, err := repo.CardPayments(ctx, card.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(payments) != 2 {
		t.Fatalf("got %d payments, want 2", len(payments))
	}
	if payments[0].Date.After(payments[1].Date.Time) {
		t.Fatal("payments not in ascending date order")
	}
}

func TestCardPaymentUnknownCard(t *testing.T) {
	repo := testRepo(t)
	_, err := repo.CreateCardPayment(context.Background(), core.Payment{
		InstrumentID: 99, Date: core.NewDate(2025, 3, 5), Amount: d("1"),
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoanPaymentCapsAtTotal(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	loan, err := repo.CreateLoan(ctx, core.Loan{
		Name: "Personal", Currency: core.ARS, Total: d("100000"), Paid: d("90000"),
		AnnualRate: d("60"), StartDate: core.NewDate(2024, 6, 10),
		MonthlyInstallment: d("15000"), Active: true,
		VATRate: decimal.Zero, IncomeTaxRate: decimal.Zero, AdminFee: decimal.Zero,
		Insurance: decimal.Zero, StampTaxRate: decimal.Zero,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := repo.CreateLoanPayment(ctx, core.Payment{
		InstrumentID: loan.ID, Date: core.NewDate(2025, 3, 10), Amount: d("15000"),
	}); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetLoan(ctx, loan.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Paid.Equal(d("100000")) {
		t.Fatalf("paid = %s, want capped at 100000", got.Paid)
	}
	if got.Pending().Sign() != 0 {
		t.Fatalf("pending = %s, want 0", got.Pending())
	}
}

func TestLoanNullableDueDate(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	due := core.NewDate(2026, 6, 10)
	withDue, err := repo.CreateLoan(ctx, core.Loan{
		Name: "Con vencimiento", Currency: core.ARS, Total: d("1000"),
		StartDate: core.NewDate(2025, 1, 10), DueDate: &due, Active: true,
		Paid: decimal.Zero, AnnualRate: decimal.Zero, VATRate: decimal.Zero,
		IncomeTaxRate: decimal.Zero, AdminFee: decimal.Zero, Insurance: decimal.Zero,
		StampTaxRate: decimal.Zero, MonthlyInstallment: decimal.Zero,
	})
	if err != nil {
		t.Fatal(err)
	}
	withoutDue, err := repo.CreateLoan(ctx, core.Loan{
		Name: "Sin vencimiento", Currency: core.ARS, Total: d("1000"),
		StartDate: core.NewDate(2025, 1, 10), Active: true,
		Paid: decimal.Zero, AnnualRate: decimal.Zero, VATRate: decimal.Zero,
		IncomeTaxRate: decimal.Zero, AdminFee: decimal.Zero, Insurance: decimal.Zero,
		StampTaxRate: decimal.Zero, MonthlyInstallment: decimal.Zero,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetLoan(ctx, withDue.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.DueDate == nil || got.DueDate.String() != "2026-06-10" {
		t.Fatalf("due date = %v", got.DueDate)
	}
	got, err = repo.GetLoan(ctx, withoutDue.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.DueDate != nil {
		t.Fatalf("expected nil due date, got %s", got.DueDate)
	}
}

func TestReplaceGeneratedProjections(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	manual, err := repo.CreateProjection(ctx, core.Projection{
		Kind: "otro", DueDate: core.NewDate(2025, 4, 1), Amount: d("123"), Currency: core.ARS,
	})
	if err != nil {
		t.Fatal(err)
	}
	paid, err := repo.CreateProjection(ctx, core.Projection{
		Kind: "tarjeta", DueDate: core.NewDate(2025, 4, 2), Amount: d("456"), Currency: core.ARS, Paid: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateProjection(ctx, core.Projection{
		Kind: "tarjeta", DueDate: core.NewDate(2025, 4, 3), Amount: d("789"), Currency: core.ARS,
	}); err != nil {
		t.Fatal(err)
	}

	fresh := []core.Projection{
		{Kind: "tarjeta", EntityID: 1, DueDate: core.NewDate(2025, 5, 10), Amount: d("1000"), Currency: core.ARS},
		{Kind: "prestamo", EntityID: 2, DueDate: core.NewDate(2025, 5, 15), Amount: d("2000"), Currency: core.ARS},
	}
	if err := repo.ReplaceGeneratedProjections(ctx, fresh); err != nil {
		t.Fatal(err)
	}

	all, err := repo.Projections(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	// manual + paid survive, unpaid generated row replaced by two fresh ones
	if len(all) != 4 {
		t.Fatalf("got %d projections, want 4", len(all))
	}
	ids := map[int64]bool{}
	for _, p := range all {
		ids[p.ID] = true
	}
	if !ids[manual.ID] || !ids[paid.ID] {
		t.Fatal("manual or paid rows were not preserved")
	}

	unpaid, err := repo.Projections(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(unpaid) != 3 {
		t.Fatalf("got %d unpaid projections, want 3", len(unpaid))
	}
}

func TestProjectionsDueBetween(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for _, p := range []core.Projection{
		{Kind: "tarjeta", DueDate: core.NewDate(2025, 3, 10), Amount: d("1"), Currency: core.ARS},
		{Kind: "tarjeta", DueDate: core.NewDate(2025, 3, 20), Amount: d("2"), Currency: core.ARS},
		{Kind: "tarjeta", DueDate: core.NewDate(2025, 4, 10), Amount: d("3"), Currency: core.ARS},
	} {
		if _, err := repo.CreateProjection(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.ProjectionsDueBetween(ctx,
		time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[0].Amount.Equal(d("2")) {
		t.Fatalf("unexpected rows: %+v", got)
	}
}

func TestInvestmentRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	created, err := repo.CreateInvestment(ctx, core.Investment{
		Name: "Plazo fijo", Kind: "plazo_fijo", InitialAmount: d("100000"),
		CurrentAmount: d("105000"), Currency: core.ARS,
		StartDate: core.NewDate(2025, 1, 1), YieldRate: d("40"), Active: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetInvestment(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.CurrentAmount.Equal(d("105000")) || !got.Active {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.DueDate != nil {
		t.Fatal("expected nil due date")
	}
}
