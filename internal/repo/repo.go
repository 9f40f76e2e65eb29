package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"plantline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// --- assets ---

const assetCols = `id,code,name,criticality,COALESCE(location,'') AS location,created_at`

func scanAsset(row *sql.Row) (domain.Asset, error) {
	var a domain.Asset
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Criticality, &a.Location, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	return a, err
}

func (r Repo) InsertAsset(ctx context.Context, tx *sql.Tx, a domain.Asset) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO assets(id,code,name,criticality,location,created_at) VALUES (?,?,?,?,?,?)`,
		a.ID, a.Code, a.Name, string(a.Criticality), nullable(a.Location), a.CreatedAt)
	return err
}

func (r Repo) GetAsset(ctx context.Context, id string) (domain.Asset, error) {
	return scanAsset(r.DB.QueryRowContext(ctx, `SELECT `+assetCols+` FROM assets WHERE id=?`, id))
}

func (r Repo) GetAssetByCode(ctx context.Context, code string) (domain.Asset, error) {
	return scanAsset(r.DB.QueryRowContext(ctx, `SELECT `+assetCols+` FROM assets WHERE code=?`, code))
}

// AssetFilter narrows ListAssets. Zero values mean no filtering.
type AssetFilter struct {
	Criticality string
	Search      string
}

func (r Repo) ListAssets(ctx context.Context, f AssetFilter) ([]domain.Asset, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if f.Criticality != "" {
		clauses = append(clauses, "criticality=?")
		args = append(args, f.Criticality)
	}
	if f.Search != "" {
		clauses = append(clauses, "(name LIKE ? OR code LIKE ?)")
		term := "%" + f.Search + "%"
		args = append(args, term, term)
	}
	query := `SELECT ` + assetCols + ` FROM assets WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Asset
	for rows.Next() {
		var a domain.Asset
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Criticality, &a.Location, &a.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// DeleteAsset removes the asset together with its schedules, their
// checklists, and its work order history. The caller guards against open
// work orders before getting here.
func (r Repo) DeleteAsset(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM checklists WHERE id IN (SELECT checklist_id FROM preventive_schedules WHERE asset_id=?)`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM preventive_schedules WHERE asset_id=?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE stock_movements SET work_order_id=NULL WHERE work_order_id IN (SELECT id FROM work_orders WHERE asset_id=?)`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM work_orders WHERE asset_id=?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM assets WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountOpenWorkOrders counts work orders for an asset that are not in a
// terminal status.
func (r Repo) CountOpenWorkOrders(ctx context.Context, assetID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM work_orders WHERE asset_id=? AND status NOT IN ('closed','canceled')`, assetID).Scan(&n)
	return n, err
}

// --- checklists ---

func (r Repo) InsertChecklist(ctx context.Context, tx *sql.Tx, c domain.Checklist) error {
	tasks, err := json.Marshal(c.Tasks)
	if err != nil {
		return fmt.Errorf("marshal checklist tasks: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO checklists(id,name,tasks_json,is_template,asset_id,work_order_id) VALUES (?,?,?,?,?,?)`,
		c.ID, c.Name, string(tasks), boolInt(c.IsTemplate), c.AssetID, c.WorkOrderID)
	return err
}

func (r Repo) GetChecklist(ctx context.Context, id string) (domain.Checklist, error) {
	var c domain.Checklist
	var tasksJSON string
	var isTemplate int
	err := r.DB.QueryRowContext(ctx,
		`SELECT id,name,tasks_json,is_template,asset_id,work_order_id FROM checklists WHERE id=?`, id).
		Scan(&c.ID, &c.Name, &tasksJSON, &isTemplate, &c.AssetID, &c.WorkOrderID)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}
	c.IsTemplate = isTemplate != 0
	if err := json.Unmarshal([]byte(tasksJSON), &c.Tasks); err != nil {
		return c, fmt.Errorf("decode checklist tasks: %w", err)
	}
	return c, nil
}

// --- preventive schedules ---

const scheduleCols = `id,asset_id,checklist_id,schedule_type,interval_time,interval_usage,usage_unit,usage_accrued,last_executed,next_due,created_at`

func scanSchedule(scan func(dest ...any) error) (domain.PreventiveSchedule, error) {
	var s domain.PreventiveSchedule
	var intervalTime, usageUnit sql.NullString
	var intervalUsage sql.NullInt64
	err := scan(&s.ID, &s.AssetID, &s.ChecklistID, &s.ScheduleType, &intervalTime, &intervalUsage,
		&usageUnit, &s.UsageAccrued, &s.LastExecuted, &s.NextDue, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	if err != nil {
		return s, err
	}
	if intervalTime.Valid {
		v := domain.IntervalTime(intervalTime.String)
		s.IntervalTime = &v
	}
	if intervalUsage.Valid {
		v := int(intervalUsage.Int64)
		s.IntervalUsage = &v
	}
	if usageUnit.Valid {
		v := domain.UsageUnit(usageUnit.String)
		s.UsageUnit = &v
	}
	return s, nil
}

func (r Repo) InsertSchedule(ctx context.Context, tx *sql.Tx, s domain.PreventiveSchedule) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO preventive_schedules(`+scheduleCols+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		s.ID, s.AssetID, s.ChecklistID, string(s.ScheduleType), stringPtr(s.IntervalTime), s.IntervalUsage,
		stringPtr(s.UsageUnit), s.UsageAccrued, s.LastExecuted, s.NextDue, s.CreatedAt)
	return err
}

func (r Repo) GetSchedule(ctx context.Context, id string) (domain.PreventiveSchedule, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+scheduleCols+` FROM preventive_schedules WHERE id=?`, id)
	return scanSchedule(row.Scan)
}

func (r Repo) ListSchedulesForAsset(ctx context.Context, assetID string) ([]domain.PreventiveSchedule, error) {
	return r.listSchedules(ctx, `WHERE asset_id=?`, assetID)
}

// ListScheduledSchedules returns schedules carrying a next_due date, for
// calendar projection.
func (r Repo) ListScheduledSchedules(ctx context.Context) ([]domain.PreventiveSchedule, error) {
	return r.listSchedules(ctx, `WHERE next_due IS NOT NULL`)
}

// ListUsageSchedulesForAsset returns usage-type schedules for an asset,
// optionally narrowed to one unit.
func (r Repo) ListUsageSchedulesForAsset(ctx context.Context, assetID string, unit domain.UsageUnit) ([]domain.PreventiveSchedule, error) {
	return r.listSchedules(ctx, `WHERE asset_id=? AND schedule_type='usage' AND usage_unit=?`, assetID, string(unit))
}

func (r Repo) listSchedules(ctx context.Context, where string, args ...any) ([]domain.PreventiveSchedule, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+scheduleCols+` FROM preventive_schedules `+where+` ORDER BY created_at`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.PreventiveSchedule
	for rows.Next() {
		s, err := scanSchedule(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// UpdateScheduleExecution records an execution: last run date, recomputed
// next_due and reset usage counter.
func (r Repo) UpdateScheduleExecution(ctx context.Context, tx *sql.Tx, id string, lastExecuted string, nextDue *string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE preventive_schedules SET last_executed=?, next_due=?, usage_accrued=0 WHERE id=?`,
		lastExecuted, nextDue, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) UpdateScheduleUsage(ctx context.Context, tx *sql.Tx, id string, accrued int) error {
	res, err := tx.ExecContext(ctx, `UPDATE preventive_schedules SET usage_accrued=? WHERE id=?`, accrued, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- work orders ---

const workOrderCols = `id,asset_id,type,priority,status,description,created_by,assigned_to,start_date,end_date,created_at,updated_at`

func scanWorkOrder(scan func(dest ...any) error) (domain.WorkOrder, error) {
	var w domain.WorkOrder
	err := scan(&w.ID, &w.AssetID, &w.Type, &w.Priority, &w.Status, &w.Description, &w.CreatedBy,
		&w.AssignedTo, &w.StartDate, &w.EndDate, &w.CreatedAt, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return w, ErrNotFound
	}
	return w, err
}

func (r Repo) InsertWorkOrder(ctx context.Context, tx *sql.Tx, w domain.WorkOrder) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO work_orders(`+workOrderCols+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		w.ID, w.AssetID, string(w.Type), string(w.Priority), string(w.Status), w.Description, w.CreatedBy,
		w.AssignedTo, w.StartDate, w.EndDate, w.CreatedAt, w.UpdatedAt)
	return err
}

func (r Repo) GetWorkOrder(ctx context.Context, id string) (domain.WorkOrder, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+workOrderCols+` FROM work_orders WHERE id=?`, id)
	return scanWorkOrder(row.Scan)
}

// WorkOrderFilter narrows ListWorkOrders. Zero values mean no filtering.
type WorkOrderFilter struct {
	AssetID  string
	Type     string
	Status   string
	OpenOnly bool
}

func (r Repo) ListWorkOrders(ctx context.Context, f WorkOrderFilter) ([]domain.WorkOrder, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if f.AssetID != "" {
		clauses = append(clauses, "asset_id=?")
		args = append(args, f.AssetID)
	}
	if f.Type != "" {
		clauses = append(clauses, "type=?")
		args = append(args, f.Type)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.OpenOnly {
		clauses = append(clauses, "status NOT IN ('closed','canceled')")
	}
	query := `SELECT ` + workOrderCols + ` FROM work_orders WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.WorkOrder
	for rows.Next() {
		w, err := scanWorkOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, w)
	}
	return res, rows.Err()
}

func (r Repo) UpdateWorkOrder(ctx context.Context, tx *sql.Tx, w domain.WorkOrder) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE work_orders SET status=?, assigned_to=?, start_date=?, end_date=?, updated_at=? WHERE id=?`,
		string(w.Status), w.AssignedTo, w.StartDate, w.EndDate, w.UpdatedAt, w.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- helpers ---

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func stringPtr[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
