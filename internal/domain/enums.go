package domain

import "fmt"

// Closed string-backed variants. Each Parse function is the single place a
// raw string becomes a typed value; everything past the DTO layer carries
// the typed form.

type Criticality string

const (
	CriticalityLow      Criticality = "low"
	CriticalityMedium   Criticality = "medium"
	CriticalityHigh     Criticality = "high"
	CriticalityCritical Criticality = "critical"
)

func ParseCriticality(s string) (Criticality, error) {
	switch Criticality(s) {
	case CriticalityLow, CriticalityMedium, CriticalityHigh, CriticalityCritical:
		return Criticality(s), nil
	}
	return "", fmt.Errorf("invalid criticality %q", s)
}

type OperationalImpact string

const (
	ImpactLow      OperationalImpact = "low"
	ImpactMedium   OperationalImpact = "medium"
	ImpactHigh     OperationalImpact = "high"
	ImpactCritical OperationalImpact = "critical"
)

func ParseOperationalImpact(s string) (OperationalImpact, error) {
	switch OperationalImpact(s) {
	case ImpactLow, ImpactMedium, ImpactHigh, ImpactCritical:
		return OperationalImpact(s), nil
	}
	return "", fmt.Errorf("invalid operational impact %q", s)
}

type ScheduleType string

const (
	ScheduleTime      ScheduleType = "time"
	ScheduleUsage     ScheduleType = "usage"
	ScheduleCondition ScheduleType = "condition"
)

func ParseScheduleType(s string) (ScheduleType, error) {
	switch ScheduleType(s) {
	case ScheduleTime, ScheduleUsage, ScheduleCondition:
		return ScheduleType(s), nil
	}
	return "", fmt.Errorf("invalid schedule type %q", s)
}

type IntervalTime string

const (
	IntervalDaily   IntervalTime = "daily"
	IntervalWeekly  IntervalTime = "weekly"
	IntervalMonthly IntervalTime = "monthly"
	IntervalAnnual  IntervalTime = "annual"
)

func ParseIntervalTime(s string) (IntervalTime, error) {
	switch IntervalTime(s) {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalAnnual:
		return IntervalTime(s), nil
	}
	return "", fmt.Errorf("invalid time interval %q", s)
}

type UsageUnit string

const (
	UsageHours  UsageUnit = "hours"
	UsageKm     UsageUnit = "km"
	UsageCycles UsageUnit = "cycles"
)

func ParseUsageUnit(s string) (UsageUnit, error) {
	switch UsageUnit(s) {
	case UsageHours, UsageKm, UsageCycles:
		return UsageUnit(s), nil
	}
	return "", fmt.Errorf("invalid usage unit %q", s)
}

type WorkOrderType string

const (
	WorkOrderPreventive WorkOrderType = "preventive"
	WorkOrderCorrective WorkOrderType = "corrective"
	WorkOrderPredictive WorkOrderType = "predictive"
	WorkOrderAutonomous WorkOrderType = "autonomous"
)

func ParseWorkOrderType(s string) (WorkOrderType, error) {
	switch WorkOrderType(s) {
	case WorkOrderPreventive, WorkOrderCorrective, WorkOrderPredictive, WorkOrderAutonomous:
		return WorkOrderType(s), nil
	}
	return "", fmt.Errorf("invalid work order type %q", s)
}

type WorkOrderPriority string

const (
	PriorityUrgent WorkOrderPriority = "urgent"
	PriorityHigh   WorkOrderPriority = "high"
	PriorityMedium WorkOrderPriority = "medium"
	PriorityLow    WorkOrderPriority = "low"
)

func ParseWorkOrderPriority(s string) (WorkOrderPriority, error) {
	switch WorkOrderPriority(s) {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow:
		return WorkOrderPriority(s), nil
	}
	return "", fmt.Errorf("invalid priority %q", s)
}

type WorkOrderStatus string

const (
	StatusCreated   WorkOrderStatus = "created"
	StatusApproved  WorkOrderStatus = "approved"
	StatusAssigned  WorkOrderStatus = "assigned"
	StatusExecuting WorkOrderStatus = "executing"
	StatusClosed    WorkOrderStatus = "closed"
	StatusCanceled  WorkOrderStatus = "canceled"
)

func ParseWorkOrderStatus(s string) (WorkOrderStatus, error) {
	switch WorkOrderStatus(s) {
	case StatusCreated, StatusApproved, StatusAssigned, StatusExecuting, StatusClosed, StatusCanceled:
		return WorkOrderStatus(s), nil
	}
	return "", fmt.Errorf("invalid work order status %q", s)
}

// Terminal reports whether no further status transition is possible.
func (s WorkOrderStatus) Terminal() bool {
	return s == StatusClosed || s == StatusCanceled
}

type TaskStatus string

const (
	TaskOK      TaskStatus = "ok"
	TaskNOK     TaskStatus = "nok"
	TaskPending TaskStatus = "pending"
)

func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case TaskOK, TaskNOK, TaskPending:
		return TaskStatus(s), nil
	}
	return "", fmt.Errorf("invalid task status %q", s)
}
