package repo

import (
	"context"
	"database/sql"

	"plantline/internal/domain"
)

const partCols = `id,code,name,min_stock,current_stock,unit_price`

func scanPart(scan func(dest ...any) error) (domain.SparePart, error) {
	var p domain.SparePart
	err := scan(&p.ID, &p.Code, &p.Name, &p.MinStock, &p.CurrentStock, &p.UnitPrice)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

func (r Repo) InsertSparePart(ctx context.Context, tx *sql.Tx, p domain.SparePart) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO spare_parts(`+partCols+`) VALUES (?,?,?,?,?,?)`,
		p.ID, p.Code, p.Name, p.MinStock, p.CurrentStock, p.UnitPrice)
	return err
}

func (r Repo) GetSparePart(ctx context.Context, id string) (domain.SparePart, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+partCols+` FROM spare_parts WHERE id=?`, id)
	return scanPart(row.Scan)
}

func (r Repo) ListSpareParts(ctx context.Context) ([]domain.SparePart, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+partCols+` FROM spare_parts ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.SparePart
	for rows.Next() {
		p, err := scanPart(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r Repo) UpdateSparePartStock(ctx context.Context, tx *sql.Tx, id string, stock int) error {
	res, err := tx.ExecContext(ctx, `UPDATE spare_parts SET current_stock=? WHERE id=?`, stock, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) InsertStockMovement(ctx context.Context, tx *sql.Tx, m domain.StockMovement) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO stock_movements(id,part_id,direction,quantity,work_order_id,moved_at) VALUES (?,?,?,?,?,?)`,
		m.ID, m.PartID, m.Direction, m.Quantity, m.WorkOrderID, m.MovedAt)
	return err
}

func (r Repo) ListStockMovements(ctx context.Context, partID string) ([]domain.StockMovement, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,part_id,direction,quantity,work_order_id,moved_at FROM stock_movements WHERE part_id=? ORDER BY moved_at DESC`, partID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.StockMovement
	for rows.Next() {
		var m domain.StockMovement
		if err := rows.Scan(&m.ID, &m.PartID, &m.Direction, &m.Quantity, &m.WorkOrderID, &m.MovedAt); err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}
