package core

import "github.com/shopspring/decimal"

// RateConfig carries the interest and tax configuration of an instrument.
// Rates are percentages; AdminFee, Insurance and Maintenance are flat
// per-period charges in the instrument's currency.
type RateConfig struct {
	MonthlyRate   decimal.Decimal
	AnnualRate    decimal.Decimal // used only when MonthlyRate is zero
	VATRate       decimal.Decimal
	IncomeTaxRate decimal.Decimal
	AdminFee      decimal.Decimal
	Insurance     decimal.Decimal
	StampTaxRate  decimal.Decimal
	Maintenance   decimal.Decimal
}

// Breakdown decomposes one installment into capital and every charge.
// All components are rounded to cents; Total and TotalCharges are sums
// of the rounded components so the decomposition always adds up exactly.
type Breakdown struct {
	Total          decimal.Decimal `json:"monto_total"`
	Capital        decimal.Decimal `json:"capital"`
	Interest       decimal.Decimal `json:"intereses"`
	VATOnInterest  decimal.Decimal `json:"iva_intereses"`
	IncomeTax      decimal.Decimal `json:"impuesto_ganancias"`
	AdminFee       decimal.Decimal `json:"gastos_administrativos"`
	VATOnAdminFee  decimal.Decimal `json:"iva_gastos_admin"`
	Insurance      decimal.Decimal `json:"seguro"`
	VATOnInsurance decimal.Decimal `json:"iva_seguro"`
	OtherTaxes     decimal.Decimal `json:"otros_impuestos"`
	TotalTaxes     decimal.Decimal `json:"total_impuestos"`
	TotalCharges   decimal.Decimal `json:"total_cargos"`
}

func (rc RateConfig) monthlyRate() decimal.Decimal {
	if rc.MonthlyRate.Sign() > 0 {
		return rc.MonthlyRate
	}
	return rc.AnnualRate.Div(decimal.NewFromInt(12))
}

// charges computes every non-capital component of an installment.
// Interest accrues on the pending balance at the monthly rate; VAT and
// income tax apply to the interest; VAT applies to the admin fee and the
// insurance only when their base is non-zero; stamp tax applies to the
// financed amount.
func (rc RateConfig) charges(pending, stampBase decimal.Decimal) Breakdown {
	var b Breakdown

	b.Interest = RoundCents(PercentOf(pending, rc.monthlyRate()))
	b.VATOnInterest = RoundCents(PercentOf(b.Interest, rc.VATRate))
	b.IncomeTax = RoundCents(PercentOf(b.Interest, rc.IncomeTaxRate))

	b.AdminFee = RoundCents(rc.AdminFee)
	if b.AdminFee.Sign() > 0 {
		b.VATOnAdminFee = RoundCents(PercentOf(b.AdminFee, rc.VATRate))
	}
	b.Insurance = RoundCents(rc.Insurance)
	if b.Insurance.Sign() > 0 {
		b.VATOnInsurance = RoundCents(PercentOf(b.Insurance, rc.VATRate))
	}

	stamp := RoundCents(PercentOf(stampBase, rc.StampTaxRate))
	b.OtherTaxes = stamp.Add(RoundCents(rc.Maintenance))

	b.TotalTaxes = b.VATOnInterest.
		Add(b.IncomeTax).
		Add(b.VATOnAdminFee).
		Add(b.VATOnInsurance).
		Add(b.OtherTaxes)
	b.TotalCharges = b.Interest.
		Add(b.AdminFee).
		Add(b.Insurance).
		Add(b.TotalTaxes)
	return b
}

// RevolvingBreakdown computes the next statement of a revolving credit
// card: the capital is the full pending balance carried forward, and the
// total owed is that balance plus every charge accrued on it.
func RevolvingBreakdown(pending decimal.Decimal, rc RateConfig) Breakdown {
	if pending.Sign() <= 0 {
		return Breakdown{}
	}
	b := rc.charges(pending, pending)
	b.Capital = RoundCents(pending)
	b.Total = b.Capital.Add(b.TotalCharges)
	return b
}

// InstallmentBreakdown decomposes one fixed loan installment. The capital
// component is whatever the installment leaves after charges, capped at
// the remaining principal and never negative.
func InstallmentBreakdown(pending, installment decimal.Decimal, rc RateConfig) Breakdown {
	if pending.Sign() <= 0 {
		return Breakdown{}
	}
	b := rc.charges(pending, installment)
	capital := RoundCents(installment).Sub(b.TotalCharges)
	if capital.Sign() < 0 {
		capital = decimal.Zero
	}
	if capital.GreaterThan(pending) {
		capital = RoundCents(pending)
	}
	b.Capital = capital
	b.Total = b.Capital.Add(b.TotalCharges)
	return b
}
