package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Ferchu2021/Finanzas/internal/core"
)

const investmentColumns = `id, nombre, tipo, monto_inicial, monto_actual, moneda,
	fecha_inicio, fecha_vencimiento, tasa_rendimiento, descripcion, activa`

func scanInvestment(row rowScanner) (core.Investment, error) {
	var (
		v                             core.Investment
		inicial, actual, tasa, inicio string
		vencimiento                   sql.NullString
	)
	err := row.Scan(&v.ID, &v.Name, &v.Kind, &inicial, &actual, &v.Currency,
		&inicio, &vencimiento, &tasa, &v.Description, &v.Active)
	if err != nil {
		return core.Investment{}, err
	}
	if v.InitialAmount, err = scanDecimal(inicial); err != nil {
		return core.Investment{}, err
	}
	if v.CurrentAmount, err = scanDecimal(actual); err != nil {
		return core.Investment{}, err
	}
	if v.YieldRate, err = scanDecimal(tasa); err != nil {
		return core.Investment{}, err
	}
	if v.StartDate, err = scanDate(inicio); err != nil {
		return core.Investment{}, err
	}
	if vencimiento.Valid && vencimiento.String != "" {
		due, err := scanDate(vencimiento.String)
		if err != nil {
			return core.Investment{}, err
		}
		v.DueDate = &due
	}
	return v, nil
}

func investmentDueText(v core.Investment) any {
	if v.DueDate == nil {
		return nil
	}
	return v.DueDate.String()
}

func (r *SQLiteRepository) CreateInvestment(ctx context.Context, v core.Investment) (core.Investment, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO inversiones (nombre, tipo, monto_inicial, monto_actual, moneda,
		 fecha_inicio, fecha_vencimiento, tasa_rendimiento, descripcion, activa)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.Name, v.Kind, v.InitialAmount.String(), v.CurrentAmount.String(), string(v.Currency),
		dateText(v.StartDate), investmentDueText(v), v.YieldRate.String(), v.Description, v.Active)
	if err != nil {
		return core.Investment{}, fmt.Errorf("insert investment: %w", err)
	}
	v.ID, err = res.LastInsertId()
	if err != nil {
		return core.Investment{}, fmt.Errorf("investment id: %w", err)
	}
	return v, nil
}

func (r *SQLiteRepository) GetInvestment(ctx context.Context, id int64) (core.Investment, error) {
	v, err := scanInvestment(r.db.QueryRowContext(ctx,
		`SELECT `+investmentColumns+` FROM inversiones WHERE id = ?`, id))
	if err != nil {
		return core.Investment{}, notFound(err)
	}
	return v, nil
}

func (r *SQLiteRepository) Investments(ctx context.Context) ([]core.Investment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+investmentColumns+` FROM inversiones ORDER BY nombre`)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	defer rows.Close()

	var out []core.Investment
	for rows.Next() {
		v, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan investment: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateInvestment(ctx context.Context, v core.Investment) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE inversiones SET nombre = ?, tipo = ?, monto_inicial = ?, monto_actual = ?,
		 moneda = ?, fecha_inicio = ?, fecha_vencimiento = ?, tasa_rendimiento = ?,
		 descripcion = ?, activa = ? WHERE id = ?`,
		v.Name, v.Kind, v.InitialAmount.String(), v.CurrentAmount.String(), string(v.Currency),
		dateText(v.StartDate), investmentDueText(v), v.YieldRate.String(), v.Description, v.Active, v.ID)
	if err != nil {
		return fmt.Errorf("update investment: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteInvestment(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM inversiones WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete investment: %w", err)
	}
	return requireRow(res)
}
