package statement

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

const sampleStatement = `
BANCO EJEMPLO - VISA
Titular: PEREZ JUAN CARLOS
4517 ********** 1234
Liquidación del 15/03/2025
Fecha de cierre: 10/03/2025
Vencimiento: 25/03/2025

01/03/2025   SUPERMERCADO DIA        15.300,50
05/03/2025   FARMACIA DEL PUEBLO      2.450,00
08/03/2025   ESTACION YPF            30.000,00

Pago mínimo: $ 9.500,00
Total a pagar: $ 47.750,50
`

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestParse(t *testing.T) {
	res, err := Parse(sampleStatement)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !res.Total.Equal(d("47750.50")) {
		t.Errorf("Total = %s, want 47750.50", res.Total)
	}
	if res.MinimumPayment == nil || !res.MinimumPayment.Equal(d("9500.00")) {
		t.Errorf("MinimumPayment = %v, want 9500.00", res.MinimumPayment)
	}
	if res.Bank != "VISA" {
		t.Errorf("Bank = %q, want VISA", res.Bank)
	}
	if res.CardNumber != "4517 ****" {
		t.Errorf("CardNumber = %q, want 4517 ****", res.CardNumber)
	}
	if res.Holder != "PEREZ JUAN CARLOS" {
		t.Errorf("Holder = %q, want PEREZ JUAN CARLOS", res.Holder)
	}

	if res.SettlementDate == nil || res.SettlementDate.Format("2006-01-02") != "2025-03-15" {
		t.Errorf("SettlementDate = %v, want 2025-03-15", res.SettlementDate)
	}
	if res.ClosingDate == nil || res.ClosingDate.Format("2006-01-02") != "2025-03-10" {
		t.Errorf("ClosingDate = %v, want 2025-03-10", res.ClosingDate)
	}
	if res.DueDate == nil || res.DueDate.Format("2006-01-02") != "2025-03-25" {
		t.Errorf("DueDate = %v, want 2025-03-25", res.DueDate)
	}

	if len(res.Movements) != 3 {
		t.Fatalf("Movements = %d, want 3", len(res.Movements))
	}
	first := res.Movements[0]
	if first.Description != "SUPERMERCADO DIA" {
		t.Errorf("first movement description = %q", first.Description)
	}
	if !first.Amount.Equal(d("15300.50")) {
		t.Errorf("first movement amount = %s, want 15300.50", first.Amount)
	}
	if first.Date.Format("2006-01-02") != "2025-03-01" {
		t.Errorf("first movement date = %s, want 2025-03-01", first.Date.Format("2006-01-02"))
	}
}

func TestParse_TotalFallsBackToMovementSum(t *testing.T) {
	text := `
NARANJA
01/02/2025   COMPRA UNO    1.000,00
02/02/2025   COMPRA DOS    2.500,50
`
	res, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !res.Total.Equal(d("3500.50")) {
		t.Errorf("Total = %s, want sum of movements 3500.50", res.Total)
	}
	if res.Bank != "NARANJA" {
		t.Errorf("Bank = %q, want NARANJA", res.Bank)
	}
}

func TestParse_TwoDigitYears(t *testing.T) {
	text := `Vencimiento: 25/03/25
01/03/25   COMPRA    100,00
`
	res, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if res.DueDate == nil || res.DueDate.Format("2006-01-02") != "2025-03-25" {
		t.Errorf("DueDate = %v, want 2025-03-25", res.DueDate)
	}
	if len(res.Movements) != 1 || res.Movements[0].Date.Format("2006") != "2025" {
		t.Errorf("movement year not normalized: %+v", res.Movements)
	}
}

func TestParse_Empty(t *testing.T) {
	if _, err := Parse("   \n  "); err == nil {
		t.Error("Parse() should fail on empty text")
	}
}

func TestParse_IgnoresMalformedMovementLines(t *testing.T) {
	text := `VISA
Total a pagar: 500,00
99/99/2025   FECHA ROTA    100,00
01/03/2025   VALIDA        200,00
`
	res, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(res.Movements) != 1 {
		t.Fatalf("Movements = %d, want 1 (malformed line skipped)", len(res.Movements))
	}
	if res.Movements[0].Description != "VALIDA" {
		t.Errorf("kept movement = %q, want VALIDA", res.Movements[0].Description)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"15.300,50", "15300.50"},
		{"1.234.567,89", "1234567.89"},
		{"100,00", "100.00"},
		{"$ 9.500,00", "9500.00"},
		{"1234.56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"1000", "1000"},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		if err != nil {
			t.Errorf("parseAmount(%q) error = %v", tt.in, err)
			continue
		}
		if !got.Equal(d(tt.want)) {
			t.Errorf("parseAmount(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestExtractPDF_InvalidData(t *testing.T) {
	if _, err := ExtractPDF([]byte(strings.Repeat("x", 64))); err == nil {
		t.Error("ExtractPDF() should fail on non-PDF data")
	}
}
