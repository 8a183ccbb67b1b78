package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// PaymentRecord is a payment annotated with the balance it found, the
// balance it left, and whether it settled the statement in full.
type PaymentRecord struct {
	Payment
	BalanceBefore    decimal.Decimal `json:"saldo_antes_pago"`
	BalanceAfter     decimal.Decimal `json:"saldo_despues_pago"`
	PercentOfBalance decimal.Decimal `json:"porcentaje_del_saldo"`
	Partial          bool            `json:"es_parcial"`
}

// Reconcile replays payments against an opening balance in ascending date
// order. A payment is partial when it leaves more than one cent owing.
// The running balance never goes below zero; the final balance is
// returned alongside the annotated records.
func Reconcile(opening decimal.Decimal, payments []Payment) ([]PaymentRecord, decimal.Decimal) {
	ordered := make([]Payment, len(payments))
	copy(ordered, payments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date.Time)
	})

	records := make([]PaymentRecord, 0, len(ordered))
	balance := opening
	for _, p := range ordered {
		after := balance.Sub(p.Amount)
		if after.Sign() < 0 {
			after = decimal.Zero
		}
		rec := PaymentRecord{
			Payment:       p,
			BalanceBefore: RoundCents(balance),
			BalanceAfter:  RoundCents(after),
			Partial:       after.GreaterThan(CentTolerance),
		}
		if balance.Sign() > 0 {
			rec.PercentOfBalance = RoundCents(p.Amount.Mul(decimal.NewFromInt(100)).Div(balance))
		}
		records = append(records, rec)
		balance = after
	}
	return records, RoundCents(balance)
}

// PartialCount returns how many of the records were partial payments.
func PartialCount(records []PaymentRecord) int {
	n := 0
	for _, r := range records {
		if r.Partial {
			n++
		}
	}
	return n
}
