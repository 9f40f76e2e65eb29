package server

import (
	"plantline/internal/domain"
	"plantline/internal/engine"
)

// Request payloads

type CreateAssetRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Criticality string `json:"criticality" enum:"low,medium,high,critical"`
	Location    string `json:"location,omitempty"`
}

type ScheduleTaskRequest struct {
	ID          int    `json:"id,omitempty"`
	Description string `json:"description"`
}

type CreateScheduleRequest struct {
	Tasks         []ScheduleTaskRequest `json:"tasks"`
	ScheduleType  string                `json:"schedule_type" enum:"time,usage,condition"`
	IntervalTime  string                `json:"interval_time,omitempty" enum:"daily,weekly,monthly,annual"`
	IntervalUsage int                   `json:"interval_usage,omitempty"`
	UsageUnit     string                `json:"usage_unit,omitempty" enum:"hours,km,cycles"`
}

type RecordUsageRequest struct {
	Amount int    `json:"amount"`
	Unit   string `json:"unit" enum:"hours,km,cycles"`
}

type ReportFaultRequest struct {
	AssetID     string  `json:"asset_id"`
	Description string  `json:"description"`
	Impact      *string `json:"impact,omitempty" enum:"low,medium,high,critical"`
}

type InspectionTaskRequest struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Status      string `json:"status" enum:"ok,nok"`
}

type SubmitInspectionRequest struct {
	AssetID string                  `json:"asset_id"`
	Tasks   []InspectionTaskRequest `json:"tasks"`
	Notes   string                  `json:"notes,omitempty"`
}

type SetStatusRequest struct {
	Status     string  `json:"status" enum:"created,approved,assigned,executing,closed,canceled"`
	AssignedTo *string `json:"assigned_to,omitempty"`
}

type ReportDelayRequest struct {
	Reason      string `json:"reason"`
	NewEstimate string `json:"new_estimate,omitempty" format:"date"`
}

type CreatePartRequest struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	MinStock     int     `json:"min_stock,omitempty"`
	InitialStock int     `json:"initial_stock,omitempty"`
	UnitPrice    float64 `json:"unit_price,omitempty"`
}

type CreateMovementRequest struct {
	Direction   string  `json:"direction" enum:"in,out"`
	Quantity    int     `json:"quantity"`
	WorkOrderID *string `json:"work_order_id,omitempty"`
}

// Response payloads

// ScheduleResponse is the schedule plus its derived due flag, so callers do
// not have to re-implement usage threshold math.
type ScheduleResponse struct {
	domain.PreventiveSchedule
	Due bool `json:"due"`
}

func scheduleResponse(s domain.PreventiveSchedule) ScheduleResponse {
	return ScheduleResponse{PreventiveSchedule: s, Due: s.Due()}
}

func mapSchedules(items []domain.PreventiveSchedule) []ScheduleResponse {
	out := make([]ScheduleResponse, 0, len(items))
	for _, s := range items {
		out = append(out, scheduleResponse(s))
	}
	return out
}

type InspectionResponse struct {
	AnomaliesFound int     `json:"anomalies_found"`
	WorkOrderID    *string `json:"work_order_id,omitempty"`
}

func inspectionResponse(r engine.ChecklistResult) InspectionResponse {
	return InspectionResponse{AnomaliesFound: r.AnomaliesFound, WorkOrderID: r.WorkOrderID}
}
