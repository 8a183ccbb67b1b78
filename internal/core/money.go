// Package core holds the domain model of the finance tracker: monetary
// values, the persisted entities, and the installment/reconciliation math.
//
// All monetary arithmetic goes through shopspring/decimal. Amounts are
// rounded to cents only at the edges (wire output, charge components);
// intermediate math keeps full precision.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is the ISO-4217 code of a monetary amount. The tracker only
// deals in Argentine pesos and US dollars.
type Currency string

const (
	ARS Currency = "ARS"
	USD Currency = "USD"
)

// CentTolerance is the epsilon used when comparing monetary values:
// anything within one cent counts as equal.
var CentTolerance = decimal.New(1, -2)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCurrency = errors.New("invalid currency")
)

func (c Currency) Validate() error {
	switch c {
	case ARS, USD:
		return nil
	}
	return ErrInvalidCurrency
}

// Money pairs an amount with its currency. It is the unit the aggregators
// total by; persisted entities keep amount and currency as separate columns
// to match the wire format (monto / moneda).
type Money struct {
	Amount   decimal.Decimal `json:"monto"`
	Currency Currency        `json:"moneda"`
}

func NewMoney(amount decimal.Decimal, currency Currency) Money {
	return Money{Amount: amount, Currency: currency}
}

func (m Money) Validate() error {
	if m.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return m.Currency.Validate()
}

// ParseAmount parses a positive decimal amount from a string, accepting
// both dot (12.34) and comma (12,34) decimal separators.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.Sign() <= 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// RoundCents rounds half-up to two decimal places.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// PercentOf returns base * rate / 100 without rounding.
func PercentOf(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(decimal.NewFromInt(100))
}

// WithinTolerance reports whether two amounts differ by at most one cent.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(CentTolerance)
}
