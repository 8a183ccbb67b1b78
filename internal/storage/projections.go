package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Ferchu2021/Finanzas/internal/core"
)

// Stored projection rows: upcoming payments either generated by the
// refresh worker from cards and loans, or entered by hand.

const projectionColumns = `id, tipo, entidad_id, fecha_vencimiento, monto_estimado, moneda, descripcion, pagado`

func scanProjection(row rowScanner) (core.Projection, error) {
	var (
		p            core.Projection
		fecha, monto string
	)
	err := row.Scan(&p.ID, &p.Kind, &p.EntityID, &fecha, &monto, &p.Currency, &p.Description, &p.Paid)
	if err != nil {
		return core.Projection{}, err
	}
	if p.DueDate, err = scanDate(fecha); err != nil {
		return core.Projection{}, err
	}
	if p.Amount, err = scanDecimal(monto); err != nil {
		return core.Projection{}, err
	}
	return p, nil
}

func (r *SQLiteRepository) CreateProjection(ctx context.Context, p core.Projection) (core.Projection, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO proyecciones_pago (tipo, entidad_id, fecha_vencimiento, monto_estimado, moneda, descripcion, pagado)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Kind, p.EntityID, dateText(p.DueDate), p.Amount.String(), string(p.Currency), p.Description, p.Paid)
	if err != nil {
		return core.Projection{}, fmt.Errorf("insert projection: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return core.Projection{}, fmt.Errorf("projection id: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) listProjections(ctx context.Context, query string, args ...any) ([]core.Projection, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projections: %w", err)
	}
	defer rows.Close()

	var out []core.Projection
	for rows.Next() {
		p, err := scanProjection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan projection: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Projections(ctx context.Context, includePaid bool) ([]core.Projection, error) {
	if includePaid {
		return r.listProjections(ctx,
			`SELECT `+projectionColumns+` FROM proyecciones_pago ORDER BY fecha_vencimiento, id`)
	}
	return r.listProjections(ctx,
		`SELECT `+projectionColumns+` FROM proyecciones_pago WHERE pagado = 0 ORDER BY fecha_vencimiento, id`)
}

func (r *SQLiteRepository) ProjectionsDueBetween(ctx context.Context, from, to time.Time) ([]core.Projection, error) {
	return r.listProjections(ctx,
		`SELECT `+projectionColumns+` FROM proyecciones_pago
		 WHERE fecha_vencimiento >= ? AND fecha_vencimiento <= ? ORDER BY fecha_vencimiento, id`,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
}

func (r *SQLiteRepository) MarkProjectionPaid(ctx context.Context, id int64, paid bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE proyecciones_pago SET pagado = ? WHERE id = ?`, paid, id)
	if err != nil {
		return fmt.Errorf("mark projection paid: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteProjection(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM proyecciones_pago WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete projection: %w", err)
	}
	return requireRow(res)
}

// ReplaceGeneratedProjections swaps the card/loan generated rows for a
// fresh set in one transaction. Manually entered rows ("otro") and rows
// already marked paid are left alone.
func (r *SQLiteRepository) ReplaceGeneratedProjections(ctx context.Context, rows []core.Projection) error {
	return r.inTx(func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM proyecciones_pago WHERE tipo IN ('tarjeta', 'prestamo') AND pagado = 0`); err != nil {
			return fmt.Errorf("clear generated projections: %w", err)
		}
		for _, p := range rows {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO proyecciones_pago (tipo, entidad_id, fecha_vencimiento, monto_estimado, moneda, descripcion, pagado)
				 VALUES (?, ?, ?, ?, ?, ?, 0)`,
				p.Kind, p.EntityID, dateText(p.DueDate), p.Amount.String(), string(p.Currency), p.Description); err != nil {
				return fmt.Errorf("insert generated projection: %w", err)
			}
		}
		return nil
	})
}
