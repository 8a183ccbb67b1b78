// Package statement extracts the key figures of a credit card settlement
// (liquidación) from the PDF the bank sends: dates, total and minimum
// payment, card and holder, and the movement lines.
package statement

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"

	"github.com/Ferchu2021/Finanzas/internal/core"
)

// Movement is one charge line of the statement.
type Movement struct {
	Date        core.Date       `json:"fecha"`
	Description string          `json:"descripcion"`
	Amount      decimal.Decimal `json:"monto"`
}

// Result is everything the extractor could read from a statement. Fields
// the PDF does not carry stay at their zero value.
type Result struct {
	SettlementDate *core.Date       `json:"fecha_liquidacion,omitempty"`
	ClosingDate    *core.Date       `json:"fecha_cierre,omitempty"`
	DueDate        *core.Date       `json:"fecha_vencimiento,omitempty"`
	Total          decimal.Decimal  `json:"monto_total"`
	MinimumPayment *decimal.Decimal `json:"pago_minimo,omitempty"`
	CardNumber     string           `json:"numero_tarjeta,omitempty"`
	Bank           string           `json:"banco,omitempty"`
	Holder         string           `json:"titular,omitempty"`
	Movements      []Movement       `json:"movimientos"`
}

var (
	reSettlement = regexp.MustCompile(`(?i)Liquidaci[oó]n\s+del\s+(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)
	reClosing    = regexp.MustCompile(`(?i)(?:Fecha\s+de\s+)?Cierre[:\s]+(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)
	reDue        = regexp.MustCompile(`(?i)Vencimiento[:\s]+(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)
	reAnyDate    = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})`)

	reTotal   = regexp.MustCompile(`(?i)(?:Total\s+a\s+pagar|Total\s+general|Importe\s+total)[:\s$]*([\d.,]+)`)
	reMinimum = regexp.MustCompile(`(?i)Pago\s+m[ií]nimo[:\s$]*([\d.,]+)`)

	reMovement = regexp.MustCompile(`(?m)^\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\s+(.+?)\s+\$?\s*([\d.]+,\d{2}|[\d,]+\.\d{2}|\d+)\s*$`)

	reCardNumber = regexp.MustCompile(`(\d{4})\s*\*{4,}`)
	reHolder     = regexp.MustCompile(`(?i)Titular[:\s]+([A-ZÁÉÍÓÚÑ][A-ZÁÉÍÓÚÑ\s]+)`)
)

var knownBanks = []string{"VISA", "MASTERCARD", "AMEX", "NARANJA", "CABAL", "ARGENCARD"}

// Parse reads the figures out of the plain text of a statement.
func Parse(text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty statement text")
	}

	res := &Result{}

	res.SettlementDate = matchDate(reSettlement, text)
	res.ClosingDate = matchDate(reClosing, text)
	res.DueDate = matchDate(reDue, text)

	if m := reTotal.FindStringSubmatch(text); m != nil {
		if v, err := parseAmount(m[1]); err == nil {
			res.Total = v
		}
	}
	if m := reMinimum.FindStringSubmatch(text); m != nil {
		if v, err := parseAmount(m[1]); err == nil {
			res.MinimumPayment = &v
		}
	}

	if m := reCardNumber.FindStringSubmatch(text); m != nil {
		res.CardNumber = m[1] + " ****"
	}
	if m := reHolder.FindStringSubmatch(text); m != nil {
		res.Holder = strings.TrimSpace(m[1])
	}

	upper := strings.ToUpper(text)
	for _, bank := range knownBanks {
		if strings.Contains(upper, bank) {
			res.Bank = bank
			break
		}
	}

	for _, m := range reMovement.FindAllStringSubmatch(text, -1) {
		date, err := parseDate(m[1])
		if err != nil {
			continue
		}
		amount, err := parseAmount(m[3])
		if err != nil || amount.Sign() <= 0 {
			continue
		}
		res.Movements = append(res.Movements, Movement{
			Date:        core.DateOf(date),
			Description: strings.TrimSpace(m[2]),
			Amount:      amount,
		})
	}

	// Some banks never print a grand total; fall back to the sum of the
	// movement lines.
	if res.Total.IsZero() && len(res.Movements) > 0 {
		sum := decimal.Zero
		for _, mov := range res.Movements {
			sum = sum.Add(mov.Amount)
		}
		res.Total = sum
	}

	return res, nil
}

// ExtractPDF pulls the plain text out of a PDF statement and parses it.
func ExtractPDF(data []byte) (*Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read PDF page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return Parse(sb.String())
}

func matchDate(re *regexp.Regexp, text string) *core.Date {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	t, err := parseDate(m[1])
	if err != nil {
		return nil
	}
	d := core.DateOf(t)
	return &d
}

// parseDate reads DD/MM/YYYY or DD-MM-YY. Two-digit years are taken as
// 2000s.
func parseDate(s string) (time.Time, error) {
	m := reAnyDate.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	yearText := m[3]
	if len(yearText) == 2 {
		yearText = "20" + yearText
	}
	year, _ := strconv.Atoi(yearText)

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("date %q out of range", s)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// parseAmount normalizes number formatting. Argentine statements use a
// thousand-separator dot and a decimal comma; whichever separator comes
// last is taken as the decimal mark.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	if lastComma > lastDot {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	return decimal.NewFromString(s)
}
