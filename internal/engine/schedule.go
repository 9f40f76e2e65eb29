package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"plantline/internal/domain"
	"plantline/internal/events"
)

// NextDue computes the next due date for a time interval relative to ref.
// Monthly is a fixed 30-day step and annual a fixed 365-day step; this is
// deliberately not calendar-aware. A nil interval yields nil: no time-based
// schedule applies.
func NextDue(interval *domain.IntervalTime, ref time.Time) *time.Time {
	if interval == nil {
		return nil
	}
	var due time.Time
	switch *interval {
	case domain.IntervalDaily:
		due = ref.AddDate(0, 0, 1)
	case domain.IntervalWeekly:
		due = ref.AddDate(0, 0, 7)
	case domain.IntervalMonthly:
		due = ref.AddDate(0, 0, 30)
	case domain.IntervalAnnual:
		due = ref.AddDate(0, 0, 365)
	default:
		return nil
	}
	return &due
}

// TaskSpec describes one checklist entry at schedule creation.
type TaskSpec struct {
	ID          int
	Description string
}

// ScheduleCreateOptions are parameters for creating a preventive plan.
type ScheduleCreateOptions struct {
	AssetID       string
	Tasks         []TaskSpec
	ScheduleType  string
	IntervalTime  string
	IntervalUsage int
	UsageUnit     string
	ActorID       string
}

// CreateSchedule validates the wizard input, then persists the checklist and
// the schedule as one transaction. The checklist belongs to the schedule and
// is not a reusable template.
func (e Engine) CreateSchedule(ctx context.Context, opts ScheduleCreateOptions) (domain.PreventiveSchedule, error) {
	fields := map[string]string{}
	if opts.AssetID == "" {
		fields["asset_id"] = "asset_id is required"
	}
	if opts.ScheduleType == "" {
		fields["schedule_type"] = "schedule_type is required"
	}
	if len(opts.Tasks) == 0 {
		fields["tasks"] = "at least one task is required"
	}
	for _, t := range opts.Tasks {
		if t.Description == "" {
			fields["tasks"] = "every task needs a description"
			break
		}
	}

	var (
		scheduleType  domain.ScheduleType
		intervalTime  *domain.IntervalTime
		intervalUsage *int
		usageUnit     *domain.UsageUnit
	)
	if opts.ScheduleType != "" {
		st, err := domain.ParseScheduleType(opts.ScheduleType)
		if err != nil {
			fields["schedule_type"] = err.Error()
		} else {
			scheduleType = st
			switch st {
			case domain.ScheduleTime:
				if opts.IntervalTime == "" {
					fields["interval_time"] = "time-based schedules require interval_time"
				} else if it, err := domain.ParseIntervalTime(opts.IntervalTime); err != nil {
					fields["interval_time"] = err.Error()
				} else {
					intervalTime = &it
				}
			case domain.ScheduleUsage:
				if opts.IntervalUsage <= 0 {
					fields["interval_usage"] = "usage-based schedules require a positive interval_usage"
				} else {
					iu := opts.IntervalUsage
					intervalUsage = &iu
				}
				if opts.UsageUnit == "" {
					fields["usage_unit"] = "usage-based schedules require usage_unit"
				} else if uu, err := domain.ParseUsageUnit(opts.UsageUnit); err != nil {
					fields["usage_unit"] = err.Error()
				} else {
					usageUnit = &uu
				}
			}
		}
	}
	if len(fields) > 0 {
		return domain.PreventiveSchedule{}, ValidationError{Fields: fields}
	}

	asset, err := e.Repo.GetAsset(ctx, opts.AssetID)
	if err != nil {
		return domain.PreventiveSchedule{}, err
	}

	now := e.now().UTC()
	tasks := make([]domain.ChecklistTask, len(opts.Tasks))
	for i, t := range opts.Tasks {
		id := t.ID
		if id == 0 {
			id = i + 1
		}
		tasks[i] = domain.ChecklistTask{ID: id, Description: t.Description, Status: domain.TaskPending}
	}
	checklist := domain.Checklist{
		ID:         uuid.New().String(),
		Name:       fmt.Sprintf("Preventive for %s", asset.Name),
		Tasks:      tasks,
		IsTemplate: false,
		AssetID:    &asset.ID,
	}
	var nextDue *string
	if d := NextDue(intervalTime, now); d != nil {
		s := d.Format(dateFormat)
		nextDue = &s
	}
	schedule := domain.PreventiveSchedule{
		ID:            uuid.New().String(),
		AssetID:       asset.ID,
		ChecklistID:   checklist.ID,
		ScheduleType:  scheduleType,
		IntervalTime:  intervalTime,
		IntervalUsage: intervalUsage,
		UsageUnit:     usageUnit,
		NextDue:       nextDue,
		CreatedAt:     now.Format(time.RFC3339),
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.PreventiveSchedule{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertChecklist(ctx, tx, checklist); err != nil {
		return domain.PreventiveSchedule{}, fmt.Errorf("insert checklist: %w", err)
	}
	if err := e.Repo.InsertSchedule(ctx, tx, schedule); err != nil {
		return domain.PreventiveSchedule{}, fmt.Errorf("insert schedule: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "schedule.created", "schedule", schedule.ID, opts.ActorID, events.EventPayload{
		"asset_id":      schedule.AssetID,
		"schedule_type": schedule.ScheduleType,
		"next_due":      schedule.NextDue,
	}); err != nil {
		return domain.PreventiveSchedule{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.PreventiveSchedule{}, err
	}
	return schedule, nil
}

func (e Engine) ListSchedulesForAsset(ctx context.Context, assetID string) ([]domain.PreventiveSchedule, error) {
	if _, err := e.Repo.GetAsset(ctx, assetID); err != nil {
		return nil, err
	}
	return e.Repo.ListSchedulesForAsset(ctx, assetID)
}

// MarkScheduleExecuted records that the plan ran: last_executed moves to
// today, next_due is recomputed for time-based plans and cleared otherwise,
// and the usage counter starts over.
func (e Engine) MarkScheduleExecuted(ctx context.Context, scheduleID, actorID string) (domain.PreventiveSchedule, error) {
	s, err := e.Repo.GetSchedule(ctx, scheduleID)
	if err != nil {
		return s, err
	}
	now := e.now().UTC()
	today := now.Format(dateFormat)
	var nextDue *string
	if s.ScheduleType == domain.ScheduleTime {
		if d := NextDue(s.IntervalTime, now); d != nil {
			v := d.Format(dateFormat)
			nextDue = &v
		}
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return s, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateScheduleExecution(ctx, tx, s.ID, today, nextDue); err != nil {
		return s, err
	}
	if err := e.Events.Append(ctx, tx, "schedule.executed", "schedule", s.ID, actorID, events.EventPayload{
		"asset_id": s.AssetID,
		"next_due": nextDue,
	}); err != nil {
		return s, err
	}
	if err := tx.Commit(); err != nil {
		return s, err
	}
	s.LastExecuted = &today
	s.NextDue = nextDue
	s.UsageAccrued = 0
	return s, nil
}

// RecordUsage accrues a usage reading onto every usage-based schedule of the
// asset that counts in the same unit. Crossing a schedule's interval emits a
// schedule.usage.due event; no work order is created automatically.
func (e Engine) RecordUsage(ctx context.Context, assetID string, amount int, unit string, actorID string) ([]domain.PreventiveSchedule, error) {
	fields := map[string]string{}
	if amount <= 0 {
		fields["amount"] = "amount must be positive"
	}
	parsedUnit, err := domain.ParseUsageUnit(unit)
	if err != nil {
		fields["unit"] = err.Error()
	}
	if len(fields) > 0 {
		return nil, ValidationError{Fields: fields}
	}
	if _, err := e.Repo.GetAsset(ctx, assetID); err != nil {
		return nil, err
	}
	schedules, err := e.Repo.ListUsageSchedulesForAsset(ctx, assetID, parsedUnit)
	if err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return nil, nil
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	for i := range schedules {
		s := &schedules[i]
		before := s.UsageAccrued
		s.UsageAccrued += amount
		if err := e.Repo.UpdateScheduleUsage(ctx, tx, s.ID, s.UsageAccrued); err != nil {
			return nil, err
		}
		if s.IntervalUsage != nil && before < *s.IntervalUsage && s.UsageAccrued >= *s.IntervalUsage {
			if err := e.Events.Append(ctx, tx, "schedule.usage.due", "schedule", s.ID, actorID, events.EventPayload{
				"asset_id":       s.AssetID,
				"usage_accrued":  s.UsageAccrued,
				"interval_usage": *s.IntervalUsage,
				"unit":           parsedUnit,
			}); err != nil {
				return nil, err
			}
		}
	}
	if err := e.Events.Append(ctx, tx, "schedule.usage.recorded", "asset", assetID, actorID, events.EventPayload{
		"amount": amount,
		"unit":   parsedUnit,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return schedules, nil
}
