package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Ferchu2021/Finanzas/internal/core"
)

// Incomes and expenses: flat dated movements with no relations.

func (r *SQLiteRepository) CreateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO ingresos (fecha, monto, moneda, tipo, descripcion) VALUES (?, ?, ?, ?, ?)`,
		dateText(in.Date), in.Amount.String(), string(in.Currency), in.Source, in.Description)
	if err != nil {
		return core.Income{}, fmt.Errorf("insert income: %w", err)
	}
	in.ID, err = res.LastInsertId()
	if err != nil {
		return core.Income{}, fmt.Errorf("income id: %w", err)
	}
	return in, nil
}

func (r *SQLiteRepository) scanIncome(fecha, monto string, in *core.Income) error {
	var err error
	if in.Date, err = scanDate(fecha); err != nil {
		return err
	}
	if in.Amount, err = scanDecimal(monto); err != nil {
		return err
	}
	return nil
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, id int64) (core.Income, error) {
	var (
		in           core.Income
		fecha, monto string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, fecha, monto, moneda, tipo, descripcion FROM ingresos WHERE id = ?`, id).
		Scan(&in.ID, &fecha, &monto, &in.Currency, &in.Source, &in.Description)
	if err != nil {
		return core.Income{}, notFound(err)
	}
	if err := r.scanIncome(fecha, monto, &in); err != nil {
		return core.Income{}, err
	}
	return in, nil
}

func (r *SQLiteRepository) listIncomes(ctx context.Context, query string, args ...any) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		var (
			in           core.Income
			fecha, monto string
		)
		if err := rows.Scan(&in.ID, &fecha, &monto, &in.Currency, &in.Source, &in.Description); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		if err := r.scanIncome(fecha, monto, &in); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context, limit, offset int) ([]core.Income, error) {
	return r.listIncomes(ctx,
		`SELECT id, fecha, monto, moneda, tipo, descripcion FROM ingresos
		 ORDER BY fecha DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
}

func (r *SQLiteRepository) IncomesBetween(ctx context.Context, from, to time.Time) ([]core.Income, error) {
	return r.listIncomes(ctx,
		`SELECT id, fecha, monto, moneda, tipo, descripcion FROM ingresos
		 WHERE fecha >= ? AND fecha <= ? ORDER BY fecha`,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
}

func (r *SQLiteRepository) UpdateIncome(ctx context.Context, in core.Income) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ingresos SET fecha = ?, monto = ?, moneda = ?, tipo = ?, descripcion = ? WHERE id = ?`,
		dateText(in.Date), in.Amount.String(), string(in.Currency), in.Source, in.Description, in.ID)
	if err != nil {
		return fmt.Errorf("update income: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ingresos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO gastos (fecha, monto, moneda, tipo, categoria, descripcion) VALUES (?, ?, ?, ?, ?, ?)`,
		dateText(e.Date), e.Amount.String(), string(e.Currency), string(e.Kind), e.Category, e.Description)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense id: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	var (
		e            core.Expense
		fecha, monto string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, fecha, monto, moneda, tipo, categoria, descripcion FROM gastos WHERE id = ?`, id).
		Scan(&e.ID, &fecha, &monto, &e.Currency, &e.Kind, &e.Category, &e.Description)
	if err != nil {
		return core.Expense{}, notFound(err)
	}
	if e.Date, err = scanDate(fecha); err != nil {
		return core.Expense{}, err
	}
	if e.Amount, err = scanDecimal(monto); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (r *SQLiteRepository) listExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			e            core.Expense
			fecha, monto string
		)
		if err := rows.Scan(&e.ID, &fecha, &monto, &e.Currency, &e.Kind, &e.Category, &e.Description); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Date, err = scanDate(fecha); err != nil {
			return nil, err
		}
		if e.Amount, err = scanDecimal(monto); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, limit, offset int) ([]core.Expense, error) {
	return r.listExpenses(ctx,
		`SELECT id, fecha, monto, moneda, tipo, categoria, descripcion FROM gastos
		 ORDER BY fecha DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
}

func (r *SQLiteRepository) ExpensesBetween(ctx context.Context, from, to time.Time) ([]core.Expense, error) {
	return r.listExpenses(ctx,
		`SELECT id, fecha, monto, moneda, tipo, categoria, descripcion FROM gastos
		 WHERE fecha >= ? AND fecha <= ? ORDER BY fecha`,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE gastos SET fecha = ?, monto = ?, moneda = ?, tipo = ?, categoria = ?, descripcion = ? WHERE id = ?`,
		dateText(e.Date), e.Amount.String(), string(e.Currency), string(e.Kind), e.Category, e.Description, e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM gastos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res)
}
