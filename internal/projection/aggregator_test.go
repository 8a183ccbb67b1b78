package projection

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ferchu2021/Finanzas/internal/core"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testCard(id int64, balance string, currency core.Currency) core.CreditCard {
	return core.CreditCard{
		ID:         id,
		Name:       "Card",
		Currency:   currency,
		ClosingDay: 20,
		DueDay:     10,
		Balance:    d(balance),
		AnnualRate: d("60"),
		VATRate:    d("21"),
		Limit:      d("1000000"),
	}
}

func testLoan(id int64, total, paid, installment string) core.Loan {
	return core.Loan{
		ID:                 id,
		Name:               "Loan",
		Currency:           core.ARS,
		Total:              d(total),
		Paid:               d(paid),
		AnnualRate:         d("60"),
		StartDate:          core.NewDate(2025, 1, 15),
		MonthlyInstallment: d(installment),
		Active:             true,
	}
}

func TestValidateHorizon(t *testing.T) {
	for _, n := range []int{3, 6, 12} {
		if err := ValidateHorizon(n); err != nil {
			t.Fatalf("ValidateHorizon(%d): %v", n, err)
		}
	}
	for _, n := range []int{0, 1, 4, 24, -6} {
		if err := ValidateHorizon(n); err == nil {
			t.Fatalf("ValidateHorizon(%d) accepted", n)
		}
	}
}

func TestCardEntriesExcludesSettledCards(t *testing.T) {
	today := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	cards := []core.CreditCard{
		testCard(1, "100000", core.ARS),
		testCard(2, "0", core.ARS),
	}
	entries := CardEntries(cards, today, 3)
	for _, e := range entries {
		if e.InstrumentID == 2 {
			t.Fatal("card with zero balance must not appear in projections")
		}
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
}

func TestCardEntriesDates(t *testing.T) {
	today := time.Date(2025, 3, 25, 0, 0, 0, 0, time.UTC) // past the day-20 closing
	entries := CardEntries([]core.CreditCard{testCard(1, "50000", core.ARS)}, today, 3)
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	// Cycle rolled to April; due day 10 < closing day 20 rolls one more month.
	if got, want := entries[0].DueDate.String(), "2025-05-10"; got != want {
		t.Fatalf("first due date = %s, want %s", got, want)
	}
	if got, want := entries[0].ClosingDate.String(), "2025-04-20"; got != want {
		t.Fatalf("first closing = %s, want %s", got, want)
	}
	if got, want := entries[2].DueDate.String(), "2025-07-10"; got != want {
		t.Fatalf("third due date = %s, want %s", got, want)
	}
}

func TestLoanEntriesAmortize(t *testing.T) {
	today := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	entries := LoanEntries([]core.Loan{testLoan(1, "100000", "40000", "25000")}, today, 12)

	if len(entries) == 0 {
		t.Fatal("no entries for active loan")
	}
	if entries[0].InstallmentNumber != 3 {
		t.Fatalf("first installment number = %d, want 3", entries[0].InstallmentNumber)
	}
	if got, want := entries[0].DueDate.String(), "2025-03-15"; got != want {
		t.Fatalf("first due date = %s, want %s", got, want)
	}
	// 60,000 pending at 25,000 per month runs out in about three cycles,
	// well before the 12-month horizon.
	if len(entries) > 4 {
		t.Fatalf("projection did not stop at payoff: %d entries", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].InstallmentNumber != entries[i-1].InstallmentNumber+1 {
			t.Fatal("installment numbers must be sequential")
		}
	}
}

func TestLoanEntriesSkipInactive(t *testing.T) {
	today := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	paid := testLoan(1, "100000", "100000", "25000")
	inactive := testLoan(2, "100000", "0", "25000")
	inactive.Active = false
	if entries := LoanEntries([]core.Loan{paid, inactive}, today, 6); len(entries) != 0 {
		t.Fatalf("got %d entries for settled/inactive loans, want 0", len(entries))
	}
}

func TestGroupBucketsByDueMonth(t *testing.T) {
	today := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	entries := append(
		CardEntries([]core.CreditCard{testCard(1, "100000", core.ARS), testCard(2, "200", core.USD)}, today, 3),
		LoanEntries([]core.Loan{testLoan(3, "90000", "0", "30000")}, today, 3)...,
	)
	buckets := Group(entries)

	if len(buckets) == 0 {
		t.Fatal("no buckets")
	}
	for i, b := range buckets {
		if i > 0 && buckets[i-1].Month >= b.Month {
			t.Fatalf("buckets out of order: %s before %s", buckets[i-1].Month, b.Month)
		}
		if b.Count != len(b.Entries) {
			t.Fatalf("bucket %s count %d != %d entries", b.Month, b.Count, len(b.Entries))
		}
		seenLoan := false
		for _, e := range b.Entries {
			// Every entry's due month must match its bucket key.
			if e.DueDate.Format("2006-01") != b.Month {
				t.Fatalf("entry due %s landed in bucket %s", e.DueDate, b.Month)
			}
			if e.Kind == KindLoan {
				seenLoan = true
			} else if seenLoan {
				t.Fatal("cards must sort before loans inside a bucket")
			}
		}
		// Totals never mix currencies.
		var sumARS, sumUSD decimal.Decimal
		for _, e := range b.Entries {
			switch e.Currency {
			case core.ARS:
				sumARS = sumARS.Add(e.Amount)
			case core.USD:
				sumUSD = sumUSD.Add(e.Amount)
			}
		}
		if !b.Totals[core.ARS].Equal(sumARS) {
			t.Fatalf("bucket %s ARS total %s, want %s", b.Month, b.Totals[core.ARS], sumARS)
		}
		if !b.Totals[core.USD].Equal(sumUSD) {
			t.Fatalf("bucket %s USD total %s, want %s", b.Month, b.Totals[core.USD], sumUSD)
		}
	}
}
