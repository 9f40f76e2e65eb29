package domain

type Asset struct {
	ID          string      `json:"id"`
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Criticality Criticality `json:"criticality" enum:"low,medium,high,critical"`
	Location    string      `json:"location,omitempty"`
	CreatedAt   string      `json:"created_at" format:"date-time"`
}

// ChecklistTask is one entry of a checklist. Status is "pending" on
// templates and flips to ok/nok when results come back.
type ChecklistTask struct {
	ID          int        `json:"id"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status" enum:"ok,nok,pending"`
}

type Checklist struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Tasks       []ChecklistTask `json:"tasks"`
	IsTemplate  bool            `json:"is_template"`
	AssetID     *string         `json:"asset_id,omitempty"`
	WorkOrderID *string         `json:"work_order_id,omitempty"`
}

type PreventiveSchedule struct {
	ID            string        `json:"id"`
	AssetID       string        `json:"asset_id"`
	ChecklistID   string        `json:"checklist_id"`
	ScheduleType  ScheduleType  `json:"schedule_type" enum:"time,usage,condition"`
	IntervalTime  *IntervalTime `json:"interval_time,omitempty" enum:"daily,weekly,monthly,annual"`
	IntervalUsage *int          `json:"interval_usage,omitempty"`
	UsageUnit     *UsageUnit    `json:"usage_unit,omitempty" enum:"hours,km,cycles"`
	UsageAccrued  int           `json:"usage_accrued"`
	LastExecuted  *string       `json:"last_executed,omitempty" format:"date"`
	NextDue       *string       `json:"next_due,omitempty" format:"date"`
	CreatedAt     string        `json:"created_at" format:"date-time"`
}

// Due reports whether a usage-based schedule has accrued past its interval.
// Time-based due-ness lives in NextDue instead.
func (s PreventiveSchedule) Due() bool {
	return s.ScheduleType == ScheduleUsage && s.IntervalUsage != nil && s.UsageAccrued >= *s.IntervalUsage
}

type WorkOrder struct {
	ID          string            `json:"id"`
	AssetID     string            `json:"asset_id"`
	Type        WorkOrderType     `json:"type" enum:"preventive,corrective,predictive,autonomous"`
	Priority    WorkOrderPriority `json:"priority" enum:"urgent,high,medium,low"`
	Status      WorkOrderStatus   `json:"status" enum:"created,approved,assigned,executing,closed,canceled"`
	Description string            `json:"description"`
	CreatedBy   string            `json:"created_by"`
	AssignedTo  *string           `json:"assigned_to,omitempty"`
	StartDate   *string           `json:"start_date,omitempty" format:"date-time"`
	EndDate     *string           `json:"end_date,omitempty" format:"date-time"`
	CreatedAt   string            `json:"created_at" format:"date-time"`
	UpdatedAt   string            `json:"updated_at" format:"date-time"`
}

type SparePart struct {
	ID           string  `json:"id"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	MinStock     int     `json:"min_stock"`
	CurrentStock int     `json:"current_stock"`
	UnitPrice    float64 `json:"unit_price,omitempty"`
}

type StockMovement struct {
	ID          string  `json:"id"`
	PartID      string  `json:"part_id"`
	Direction   string  `json:"direction" enum:"in,out"`
	Quantity    int     `json:"quantity"`
	WorkOrderID *string `json:"work_order_id,omitempty"`
	MovedAt     string  `json:"moved_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}
