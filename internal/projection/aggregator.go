// Package projection builds the month-by-month payment forecast for
// credit cards and loans. Entries are computed per instrument and then
// grouped into calendar buckets keyed by due month, with totals kept per
// currency so pesos and dollars never mix.
package projection

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ferchu2021/Finanzas/internal/core"
)

// Horizons the API accepts for ?meses=N.
var ErrInvalidHorizon = errors.New("horizon must be 3, 6 or 12 months")

const DefaultHorizon = 6

func ValidateHorizon(months int) error {
	switch months {
	case 3, 6, 12:
		return nil
	}
	return ErrInvalidHorizon
}

const (
	KindCard = "tarjeta"
	KindLoan = "prestamo"
)

// Entry is one projected payment of one instrument in one month.
type Entry struct {
	Kind              string          `json:"tipo"`
	InstrumentID      int64           `json:"instrumento_id"`
	Name              string          `json:"nombre"`
	Issuer            string          `json:"entidad,omitempty"`
	ClosingDate       *core.Date      `json:"fecha_cierre,omitempty"`
	DueDate           core.Date       `json:"fecha_vencimiento"`
	InstallmentNumber int             `json:"numero_cuota,omitempty"`
	Amount            decimal.Decimal `json:"monto_estimado"`
	Currency          core.Currency   `json:"moneda"`
	Breakdown         core.Breakdown  `json:"desglose"`
}

// Bucket groups the entries due in one calendar month.
type Bucket struct {
	Month        string                            `json:"mes"`
	FirstDueDate core.Date                         `json:"fecha_vencimiento"`
	Count        int                               `json:"cantidad_cuotas"`
	Totals       map[core.Currency]decimal.Decimal `json:"totales"`
	Entries      []Entry                           `json:"detalle"`
}

func cardRates(c core.CreditCard) core.RateConfig {
	return core.RateConfig{
		MonthlyRate:   c.MonthlyRate,
		AnnualRate:    c.AnnualRate,
		VATRate:       c.VATRate,
		IncomeTaxRate: c.IncomeTaxRate,
		AdminFee:      c.AdminFee,
		StampTaxRate:  c.StampTaxRate,
		Maintenance:   c.Maintenance,
	}
}

func loanRates(l core.Loan) core.RateConfig {
	return core.RateConfig{
		AnnualRate:    l.AnnualRate,
		VATRate:       l.VATRate,
		IncomeTaxRate: l.IncomeTaxRate,
		AdminFee:      l.AdminFee,
		Insurance:     l.Insurance,
		StampTaxRate:  l.StampTaxRate,
	}
}

// CardEntries projects every card with a positive balance over the next
// `months` statement cycles. Cards with nothing owing are excluded.
func CardEntries(cards []core.CreditCard, today time.Time, months int) []Entry {
	var entries []Entry
	for _, c := range cards {
		if c.Balance.Sign() <= 0 {
			continue
		}
		b := core.RevolvingBreakdown(c.Balance, cardRates(c))
		for n := 0; n < months; n++ {
			closing := core.ClosingForOffset(today, c.ClosingDay, n)
			due := core.DueDateFor(closing, c.ClosingDay, c.DueDay)
			if due.Before(today) {
				continue
			}
			closingDate := core.DateOf(closing)
			entries = append(entries, Entry{
				Kind:         KindCard,
				InstrumentID: c.ID,
				Name:         c.Name,
				Issuer:       c.Bank,
				ClosingDate:  &closingDate,
				DueDate:      core.DateOf(due),
				Amount:       b.Total,
				Currency:     c.Currency,
				Breakdown:    b,
			})
		}
	}
	return entries
}

// LoanEntries projects the remaining installments of every active loan up
// to `months` ahead, numbering them from the loan's current installment
// index. The principal is amortized entry by entry, so the projection
// stops early when the loan would be paid off inside the horizon.
func LoanEntries(loans []core.Loan, today time.Time, months int) []Entry {
	var entries []Entry
	for _, l := range loans {
		if !l.Active || l.Pending().Sign() <= 0 {
			continue
		}
		installment := l.MonthlyInstallment
		if installment.Sign() <= 0 {
			// No fixed installment configured: assume a tenth of
			// the outstanding principal per month.
			installment = core.RoundCents(l.Pending().Div(decimal.NewFromInt(10)))
		}
		first, number := core.NextInstallment(l.StartDate.Time, today)
		pending := l.Pending()
		for n := 0; n < months && pending.Sign() > 0; n++ {
			due := core.InstallmentAfter(l.StartDate.Time, first, n)
			if l.DueDate != nil && due.After(l.DueDate.Time) {
				break
			}
			b := core.InstallmentBreakdown(pending, installment, loanRates(l))
			entries = append(entries, Entry{
				Kind:              KindLoan,
				InstrumentID:      l.ID,
				Name:              l.Name,
				Issuer:            l.Lender,
				DueDate:           core.DateOf(due),
				InstallmentNumber: number + n,
				Amount:            b.Total,
				Currency:          l.Currency,
				Breakdown:         b,
			})
			pending = pending.Sub(b.Capital)
		}
	}
	return entries
}

// Group partitions entries into monthly buckets ordered chronologically.
// Within a bucket cards come before loans, then by due date.
func Group(entries []Entry) []Bucket {
	byMonth := make(map[string][]Entry)
	for _, e := range entries {
		key := e.DueDate.Format("2006-01")
		byMonth[key] = append(byMonth[key], e)
	}

	keys := make([]string, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buckets := make([]Bucket, 0, len(keys))
	for _, key := range keys {
		group := byMonth[key]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].Kind != group[j].Kind {
				return group[i].Kind == KindCard
			}
			return group[i].DueDate.Before(group[j].DueDate.Time)
		})

		totals := make(map[core.Currency]decimal.Decimal)
		first := group[0].DueDate
		for _, e := range group {
			totals[e.Currency] = totals[e.Currency].Add(e.Amount)
			if e.DueDate.Before(first.Time) {
				first = e.DueDate
			}
		}
		buckets = append(buckets, Bucket{
			Month:        key,
			FirstDueDate: first,
			Count:        len(group),
			Totals:       totals,
			Entries:      group,
		})
	}
	return buckets
}
