package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseKind classifies an expense for reporting.
const (
	Fixed         ExpenseKind = "Fijo"
	Ordinary      ExpenseKind = "Ordinario"
	Extraordinary ExpenseKind = "Extraordinario"
)

type (
	ExpenseKind string

	// Date is a calendar day serialized as "2006-01-02" on the wire.
	Date struct {
		time.Time
	}

	Income struct {
		ID          int64           `json:"id"`
		Date        Date            `json:"fecha"`
		Amount      decimal.Decimal `json:"monto"`
		Currency    Currency        `json:"moneda"`
		Source      string          `json:"tipo"`
		Description string          `json:"descripcion,omitempty"`
	}

	Expense struct {
		ID          int64           `json:"id"`
		Date        Date            `json:"fecha"`
		Amount      decimal.Decimal `json:"monto"`
		Currency    Currency        `json:"moneda"`
		Kind        ExpenseKind     `json:"tipo"`
		Category    string          `json:"categoria,omitempty"`
		Description string          `json:"descripcion,omitempty"`
	}

	// CreditCard models a revolving card. ClosingDay and DueDay are
	// days of the month (1..31); rates are percentages.
	CreditCard struct {
		ID            int64           `json:"id"`
		Name          string          `json:"nombre"`
		Bank          string          `json:"banco,omitempty"`
		Limit         decimal.Decimal `json:"limite"`
		Currency      Currency        `json:"moneda"`
		ClosingDay    int             `json:"fecha_cierre"`
		DueDay        int             `json:"fecha_vencimiento"`
		Balance       decimal.Decimal `json:"saldo_actual"`
		MonthlyRate   decimal.Decimal `json:"tasa_interes_mensual"`
		AnnualRate    decimal.Decimal `json:"tasa_interes_anual"`
		VATRate       decimal.Decimal `json:"impuesto_iva"`
		IncomeTaxRate decimal.Decimal `json:"impuesto_ganancias"`
		AdminFee      decimal.Decimal `json:"gastos_administrativos"`
		StampTaxRate  decimal.Decimal `json:"impuesto_sellos"`
		Maintenance   decimal.Decimal `json:"cargo_mantenimiento"`
	}

	Loan struct {
		ID                 int64           `json:"id"`
		Name               string          `json:"nombre"`
		Lender             string          `json:"prestamista,omitempty"`
		Total              decimal.Decimal `json:"monto_total"`
		Paid               decimal.Decimal `json:"monto_pagado"`
		Currency           Currency        `json:"moneda"`
		AnnualRate         decimal.Decimal `json:"tasa_interes"`
		VATRate            decimal.Decimal `json:"impuesto_iva"`
		IncomeTaxRate      decimal.Decimal `json:"impuesto_ganancias"`
		AdminFee           decimal.Decimal `json:"gastos_administrativos"`
		Insurance          decimal.Decimal `json:"seguro"`
		StampTaxRate       decimal.Decimal `json:"impuesto_sellos"`
		StartDate          Date            `json:"fecha_inicio"`
		DueDate            *Date           `json:"fecha_vencimiento,omitempty"`
		MonthlyInstallment decimal.Decimal `json:"cuota_mensual"`
		Description        string          `json:"descripcion,omitempty"`
		Active             bool            `json:"activo"`
	}

	// Payment records money applied against a card balance or a loan.
	Payment struct {
		ID           int64           `json:"id"`
		InstrumentID int64           `json:"instrumento_id"`
		Date         Date            `json:"fecha_pago"`
		Amount       decimal.Decimal `json:"monto"`
		Description  string          `json:"descripcion,omitempty"`
	}

	Investment struct {
		ID            int64           `json:"id"`
		Name          string          `json:"nombre"`
		Kind          string          `json:"tipo"`
		InitialAmount decimal.Decimal `json:"monto_inicial"`
		CurrentAmount decimal.Decimal `json:"monto_actual"`
		Currency      Currency        `json:"moneda"`
		StartDate     Date            `json:"fecha_inicio"`
		DueDate       *Date           `json:"fecha_vencimiento,omitempty"`
		YieldRate     decimal.Decimal `json:"tasa_rendimiento"`
		Description   string          `json:"descripcion,omitempty"`
		Active        bool            `json:"activa"`
	}

	// Projection is a stored upcoming-payment row, either generated from
	// cards/loans by the refresh worker or entered manually.
	Projection struct {
		ID          int64           `json:"id"`
		Kind        string          `json:"tipo"` // tarjeta, prestamo, otro
		EntityID    int64           `json:"entidad_id,omitempty"`
		DueDate     Date            `json:"fecha_vencimiento"`
		Amount      decimal.Decimal `json:"monto_estimado"`
		Currency    Currency        `json:"moneda"`
		Description string          `json:"descripcion,omitempty"`
		Paid        bool            `json:"pagado"`
	}
)

var (
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidDay       = errors.New("day of month out of range")
	ErrInvalidRate      = errors.New("rate cannot be negative")
	ErrInvalidKind      = errors.New("invalid kind")
	ErrNotFound         = errors.New("not found")
)

const dateLayout = "2006-01-02"

func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its calendar day in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (k ExpenseKind) Validate() error {
	switch k {
	case Fixed, Ordinary, Extraordinary:
		return nil
	}
	return ErrInvalidKind
}

func validDayOfMonth(day int) error {
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	return nil
}

func nonNegative(rates ...decimal.Decimal) error {
	for _, r := range rates {
		if r.Sign() < 0 {
			return ErrInvalidRate
		}
	}
	return nil
}

func (i Income) Validate() error {
	if err := i.Date.Validate(); err != nil {
		return err
	}
	if err := NewMoney(i.Amount, i.Currency).Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(i.Source) == "" {
		return errors.New("empty income source")
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := NewMoney(e.Amount, e.Currency).Validate(); err != nil {
		return err
	}
	if err := e.Kind.Validate(); err != nil {
		return err
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (c CreditCard) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if err := c.Currency.Validate(); err != nil {
		return err
	}
	if err := validDayOfMonth(c.ClosingDay); err != nil {
		return err
	}
	if err := validDayOfMonth(c.DueDay); err != nil {
		return err
	}
	if c.Limit.Sign() < 0 || c.Balance.Sign() < 0 {
		return ErrInvalidAmount
	}
	return nonNegative(c.MonthlyRate, c.AnnualRate, c.VATRate, c.IncomeTaxRate, c.AdminFee, c.StampTaxRate, c.Maintenance)
}

func (l Loan) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrEmptyName
	}
	if err := l.Currency.Validate(); err != nil {
		return err
	}
	if err := l.StartDate.Validate(); err != nil {
		return err
	}
	if l.Total.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if l.Paid.Sign() < 0 || l.Paid.GreaterThan(l.Total) {
		return errors.New("paid amount out of range")
	}
	if l.MonthlyInstallment.Sign() < 0 {
		return ErrInvalidAmount
	}
	if l.DueDate != nil && l.DueDate.Before(l.StartDate.Time) {
		return errors.New("due date before start date")
	}
	return nonNegative(l.AnnualRate, l.VATRate, l.IncomeTaxRate, l.AdminFee, l.Insurance, l.StampTaxRate)
}

func (p Payment) Validate() error {
	if err := p.Date.Validate(); err != nil {
		return err
	}
	if p.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (v Investment) Validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return ErrEmptyName
	}
	if err := v.Currency.Validate(); err != nil {
		return err
	}
	if err := v.StartDate.Validate(); err != nil {
		return err
	}
	if v.InitialAmount.Sign() <= 0 || v.CurrentAmount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return nonNegative(v.YieldRate)
}

func (p Projection) Validate() error {
	switch p.Kind {
	case "tarjeta", "prestamo", "otro":
	default:
		return ErrInvalidKind
	}
	if err := p.DueDate.Validate(); err != nil {
		return err
	}
	if err := NewMoney(p.Amount, p.Currency).Validate(); err != nil {
		return err
	}
	return nil
}

// Pending returns the outstanding principal of the loan, never negative.
func (l Loan) Pending() decimal.Decimal {
	p := l.Total.Sub(l.Paid)
	if p.Sign() < 0 {
		return decimal.Zero
	}
	return p
}

// Utilization returns the card's balance as a percentage of its limit,
// or zero when no limit is set.
func (c CreditCard) Utilization() decimal.Decimal {
	if c.Limit.Sign() <= 0 {
		return decimal.Zero
	}
	return RoundCents(c.Balance.Mul(decimal.NewFromInt(100)).Div(c.Limit))
}
