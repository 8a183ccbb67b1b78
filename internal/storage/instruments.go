package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ferchu2021/Finanzas/internal/core"
)

// Credit cards, loans and their payments. Registering a payment and
// adjusting the instrument's balance happen in one transaction.

const cardColumns = `id, nombre, banco, limite, moneda, fecha_cierre, fecha_vencimiento,
	saldo_actual, tasa_interes_mensual, tasa_interes_anual, impuesto_iva, impuesto_ganancias,
	gastos_administrativos, impuesto_sellos, cargo_mantenimiento`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (core.CreditCard, error) {
	var (
		c                                                            core.CreditCard
		limite, saldo, tasaMes, tasaAnual, iva, ganancias            string
		gastosAdmin, sellos, mantenimiento                           string
	)
	err := row.Scan(&c.ID, &c.Name, &c.Bank, &limite, &c.Currency, &c.ClosingDay, &c.DueDay,
		&saldo, &tasaMes, &tasaAnual, &iva, &ganancias, &gastosAdmin, &sellos, &mantenimiento)
	if err != nil {
		return core.CreditCard{}, err
	}
	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&c.Limit, limite}, {&c.Balance, saldo}, {&c.MonthlyRate, tasaMes},
		{&c.AnnualRate, tasaAnual}, {&c.VATRate, iva}, {&c.IncomeTaxRate, ganancias},
		{&c.AdminFee, gastosAdmin}, {&c.StampTaxRate, sellos}, {&c.Maintenance, mantenimiento},
	}
	for _, f := range fields {
		if *f.dst, err = scanDecimal(f.src); err != nil {
			return core.CreditCard{}, err
		}
	}
	return c, nil
}

func (r *SQLiteRepository) CreateCard(ctx context.Context, c core.CreditCard) (core.CreditCard, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tarjetas_credito (nombre, banco, limite, moneda, fecha_cierre, fecha_vencimiento,
		 saldo_actual, tasa_interes_mensual, tasa_interes_anual, impuesto_iva, impuesto_ganancias,
		 gastos_administrativos, impuesto_sellos, cargo_mantenimiento)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Bank, c.Limit.String(), string(c.Currency), c.ClosingDay, c.DueDay,
		c.Balance.String(), c.MonthlyRate.String(), c.AnnualRate.String(), c.VATRate.String(),
		c.IncomeTaxRate.String(), c.AdminFee.String(), c.StampTaxRate.String(), c.Maintenance.String())
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("insert card: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("card id: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetCard(ctx context.Context, id int64) (core.CreditCard, error) {
	c, err := scanCard(r.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM tarjetas_credito WHERE id = ?`, id))
	if err != nil {
		return core.CreditCard{}, notFound(err)
	}
	return c, nil
}

func (r *SQLiteRepository) CreditCards(ctx context.Context) ([]core.CreditCard, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+cardColumns+` FROM tarjetas_credito ORDER BY nombre`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var out []core.CreditCard
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateCard(ctx context.Context, c core.CreditCard) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tarjetas_credito SET nombre = ?, banco = ?, limite = ?, moneda = ?, fecha_cierre = ?,
		 fecha_vencimiento = ?, saldo_actual = ?, tasa_interes_mensual = ?, tasa_interes_anual = ?,
		 impuesto_iva = ?, impuesto_ganancias = ?, gastos_administrativos = ?, impuesto_sellos = ?,
		 cargo_mantenimiento = ? WHERE id = ?`,
		c.Name, c.Bank, c.Limit.String(), string(c.Currency), c.ClosingDay, c.DueDay,
		c.Balance.String(), c.MonthlyRate.String(), c.AnnualRate.String(), c.VATRate.String(),
		c.IncomeTaxRate.String(), c.AdminFee.String(), c.StampTaxRate.String(), c.Maintenance.String(), c.ID)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteCard(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tarjetas_credito WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	return requireRow(res)
}

// CreateCardPayment registers a payment and knocks it off the card's
// balance, which never goes below zero.
func (r *SQLiteRepository) CreateCardPayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	err := r.inTx(func(tx *sql.Tx) error {
		var saldo string
		if err := tx.QueryRowContext(ctx,
			`SELECT saldo_actual FROM tarjetas_credito WHERE id = ?`, p.InstrumentID).Scan(&saldo); err != nil {
			return notFound(err)
		}
		balance, err := scanDecimal(saldo)
		if err != nil {
			return err
		}
		remaining := balance.Sub(p.Amount)
		if remaining.Sign() < 0 {
			remaining = decimal.Zero
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO pagos_tarjeta (tarjeta_id, fecha_pago, monto, descripcion) VALUES (?, ?, ?, ?)`,
			p.InstrumentID, dateText(p.Date), p.Amount.String(), p.Description)
		if err != nil {
			return fmt.Errorf("insert card payment: %w", err)
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("card payment id: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE tarjetas_credito SET saldo_actual = ? WHERE id = ?`,
			remaining.String(), p.InstrumentID); err != nil {
			return fmt.Errorf("update card balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Payment{}, err
	}
	return p, nil
}

func (r *SQLiteRepository) scanPayments(rows *sql.Rows) ([]core.Payment, error) {
	defer rows.Close()
	var out []core.Payment
	for rows.Next() {
		var (
			p            core.Payment
			fecha, monto string
		)
		if err := rows.Scan(&p.ID, &p.InstrumentID, &fecha, &monto, &p.Description); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		var err error
		if p.Date, err = scanDate(fecha); err != nil {
			return nil, err
		}
		if p.Amount, err = scanDecimal(monto); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CardPayments(ctx context.Context, cardID int64) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tarjeta_id, fecha_pago, monto, descripcion FROM pagos_tarjeta
		 WHERE tarjeta_id = ? ORDER BY fecha_pago, id`, cardID)
	if err != nil {
		return nil, fmt.Errorf("list card payments: %w", err)
	}
	return r.scanPayments(rows)
}

func (r *SQLiteRepository) CardPaymentsBetween(ctx context.Context, from, to time.Time) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tarjeta_id, fecha_pago, monto, descripcion FROM pagos_tarjeta
		 WHERE fecha_pago >= ? AND fecha_pago <= ? ORDER BY fecha_pago`,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("list card payments: %w", err)
	}
	return r.scanPayments(rows)
}

const loanColumns = `id, nombre, prestamista, monto_total, monto_pagado, moneda, tasa_interes,
	impuesto_iva, impuesto_ganancias, gastos_administrativos, seguro, impuesto_sellos,
	fecha_inicio, fecha_vencimiento, cuota_mensual, descripcion, activo`

func scanLoan(row rowScanner) (core.Loan, error) {
	var (
		l                                                  core.Loan
		total, pagado, tasa, iva, ganancias, gastos        string
		seguro, sellos, cuota, inicio                      string
		vencimiento                                        sql.NullString
	)
	err := row.Scan(&l.ID, &l.Name, &l.Lender, &total, &pagado, &l.Currency, &tasa,
		&iva, &ganancias, &gastos, &seguro, &sellos, &inicio, &vencimiento, &cuota,
		&l.Description, &l.Active)
	if err != nil {
		return core.Loan{}, err
	}
	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&l.Total, total}, {&l.Paid, pagado}, {&l.AnnualRate, tasa}, {&l.VATRate, iva},
		{&l.IncomeTaxRate, ganancias}, {&l.AdminFee, gastos}, {&l.Insurance, seguro},
		{&l.StampTaxRate, sellos}, {&l.MonthlyInstallment, cuota},
	}
	for _, f := range fields {
		if *f.dst, err = scanDecimal(f.src); err != nil {
			return core.Loan{}, err
		}
	}
	if l.StartDate, err = scanDate(inicio); err != nil {
		return core.Loan{}, err
	}
	if vencimiento.Valid && vencimiento.String != "" {
		due, err := scanDate(vencimiento.String)
		if err != nil {
			return core.Loan{}, err
		}
		l.DueDate = &due
	}
	return l, nil
}

func loanDueText(l core.Loan) any {
	if l.DueDate == nil {
		return nil
	}
	return l.DueDate.String()
}

func (r *SQLiteRepository) CreateLoan(ctx context.Context, l core.Loan) (core.Loan, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO prestamos (nombre, prestamista, monto_total, monto_pagado, moneda, tasa_interes,
		 impuesto_iva, impuesto_ganancias, gastos_administrativos, seguro, impuesto_sellos,
		 fecha_inicio, fecha_vencimiento, cuota_mensual, descripcion, activo)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Name, l.Lender, l.Total.String(), l.Paid.String(), string(l.Currency), l.AnnualRate.String(),
		l.VATRate.String(), l.IncomeTaxRate.String(), l.AdminFee.String(), l.Insurance.String(),
		l.StampTaxRate.String(), dateText(l.StartDate), loanDueText(l), l.MonthlyInstallment.String(),
		l.Description, l.Active)
	if err != nil {
		return core.Loan{}, fmt.Errorf("insert loan: %w", err)
	}
	l.ID, err = res.LastInsertId()
	if err != nil {
		return core.Loan{}, fmt.Errorf("loan id: %w", err)
	}
	return l, nil
}

func (r *SQLiteRepository) GetLoan(ctx context.Context, id int64) (core.Loan, error) {
	l, err := scanLoan(r.db.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM prestamos WHERE id = ?`, id))
	if err != nil {
		return core.Loan{}, notFound(err)
	}
	return l, nil
}

func (r *SQLiteRepository) Loans(ctx context.Context) ([]core.Loan, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+loanColumns+` FROM prestamos ORDER BY nombre`)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	var out []core.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateLoan(ctx context.Context, l core.Loan) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE prestamos SET nombre = ?, prestamista = ?, monto_total = ?, monto_pagado = ?,
		 moneda = ?, tasa_interes = ?, impuesto_iva = ?, impuesto_ganancias = ?,
		 gastos_administrativos = ?, seguro = ?, impuesto_sellos = ?, fecha_inicio = ?,
		 fecha_vencimiento = ?, cuota_mensual = ?, descripcion = ?, activo = ? WHERE id = ?`,
		l.Name, l.Lender, l.Total.String(), l.Paid.String(), string(l.Currency), l.AnnualRate.String(),
		l.VATRate.String(), l.IncomeTaxRate.String(), l.AdminFee.String(), l.Insurance.String(),
		l.StampTaxRate.String(), dateText(l.StartDate), loanDueText(l), l.MonthlyInstallment.String(),
		l.Description, l.Active, l.ID)
	if err != nil {
		return fmt.Errorf("update loan: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteLoan(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM prestamos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	return requireRow(res)
}

// CreateLoanPayment registers a payment and moves the loan's paid total
// forward, capped at the loan amount.
func (r *SQLiteRepository) CreateLoanPayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	err := r.inTx(func(tx *sql.Tx) error {
		var total, pagado string
		if err := tx.QueryRowContext(ctx,
			`SELECT monto_total, monto_pagado FROM prestamos WHERE id = ?`, p.InstrumentID).
			Scan(&total, &pagado); err != nil {
			return notFound(err)
		}
		totalD, err := scanDecimal(total)
		if err != nil {
			return err
		}
		paidD, err := scanDecimal(pagado)
		if err != nil {
			return err
		}
		paidD = paidD.Add(p.Amount)
		if paidD.GreaterThan(totalD) {
			paidD = totalD
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO pagos_prestamo (prestamo_id, fecha_pago, monto, descripcion) VALUES (?, ?, ?, ?)`,
			p.InstrumentID, dateText(p.Date), p.Amount.String(), p.Description)
		if err != nil {
			return fmt.Errorf("insert loan payment: %w", err)
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("loan payment id: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE prestamos SET monto_pagado = ? WHERE id = ?`,
			paidD.String(), p.InstrumentID); err != nil {
			return fmt.Errorf("update loan paid amount: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Payment{}, err
	}
	return p, nil
}

func (r *SQLiteRepository) LoanPayments(ctx context.Context, loanID int64) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, prestamo_id, fecha_pago, monto, descripcion FROM pagos_prestamo
		 WHERE prestamo_id = ? ORDER BY fecha_pago, id`, loanID)
	if err != nil {
		return nil, fmt.Errorf("list loan payments: %w", err)
	}
	return r.scanPayments(rows)
}

func (r *SQLiteRepository) LoanPaymentsBetween(ctx context.Context, from, to time.Time) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, prestamo_id, fecha_pago, monto, descripcion FROM pagos_prestamo
		 WHERE fecha_pago >= ? AND fecha_pago <= ? ORDER BY fecha_pago`,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("list loan payments: %w", err)
	}
	return r.scanPayments(rows)
}
