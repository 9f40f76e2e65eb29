package engine_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"plantline/internal/config"
	"plantline/internal/db"
	"plantline/internal/domain"
	"plantline/internal/engine"
	"plantline/internal/migrate"
	"plantline/internal/notify"
	"plantline/internal/repo"
)

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notify.Kind
}

func (f *fakeNotifier) Notify(kind notify.Kind, _ notify.Payload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, kind)
}

func (f *fakeNotifier) kinds() []notify.Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.Kind(nil), f.calls...)
}

type testEnv struct {
	Engine   engine.Engine
	Notifier *fakeNotifier
	Ctx      context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	fn := &fakeNotifier{}
	eng := engine.New(conn, config.Default(), fn)
	eng.Now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	return testEnv{Engine: eng, Notifier: fn, Ctx: context.Background()}
}

func (env testEnv) createAsset(t *testing.T, code, criticality string) domain.Asset {
	t.Helper()
	asset, err := env.Engine.CreateAsset(env.Ctx, engine.AssetCreateOptions{
		Code:        code,
		Name:        "Pump " + code,
		Criticality: criticality,
		ActorID:     "tester",
	})
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}
	return asset
}

func TestNextDue(t *testing.T) {
	ref := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		interval domain.IntervalTime
		want     string
	}{
		{domain.IntervalDaily, "2024-03-02"},
		{domain.IntervalWeekly, "2024-03-08"},
		{domain.IntervalMonthly, "2024-03-31"},
		{domain.IntervalAnnual, "2025-03-01"},
	}
	for _, c := range cases {
		got := engine.NextDue(&c.interval, ref)
		if got == nil {
			t.Fatalf("%s: got nil", c.interval)
		}
		if got.Format("2006-01-02") != c.want {
			t.Errorf("%s: got %s, want %s", c.interval, got.Format("2006-01-02"), c.want)
		}
	}
	if engine.NextDue(nil, ref) != nil {
		t.Errorf("nil interval should yield nil")
	}
}

func TestComputePriority(t *testing.T) {
	cases := []struct {
		criticality domain.Criticality
		impact      domain.OperationalImpact
		want        domain.WorkOrderPriority
	}{
		{domain.CriticalityCritical, domain.ImpactLow, domain.PriorityUrgent},
		{domain.CriticalityHigh, domain.ImpactLow, domain.PriorityUrgent},
		{domain.CriticalityLow, domain.ImpactCritical, domain.PriorityUrgent},
		{domain.CriticalityMedium, domain.ImpactLow, domain.PriorityHigh},
		{domain.CriticalityLow, domain.ImpactHigh, domain.PriorityHigh},
		{domain.CriticalityLow, domain.ImpactMedium, domain.PriorityMedium},
		{domain.CriticalityLow, domain.ImpactLow, domain.PriorityLow},
	}
	for _, c := range cases {
		got := engine.ComputePriority(c.criticality, c.impact)
		if got != c.want {
			t.Errorf("(%s,%s): got %s, want %s", c.criticality, c.impact, got, c.want)
		}
	}
}

func TestCreateScheduleTimeBased(t *testing.T) {
	env := newTestEnv(t)
	asset := env.createAsset(t, "P-100", "low")
	s, err := env.Engine.CreateSchedule(env.Ctx, engine.ScheduleCreateOptions{
		AssetID:      asset.ID,
		Tasks:        []engine.TaskSpec{{Description: "check oil"}, {Description: "check belt"}},
		ScheduleType: "time",
		IntervalTime: "weekly",
		ActorID:      "tester",
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	if s.NextDue == nil || *s.NextDue != "2024-03-08" {
		t.Fatalf("next_due = %v, want 2024-03-08", s.NextDue)
	}
	cl, err := env.Engine.Repo.GetChecklist(env.Ctx, s.ChecklistID)
	if err != nil {
		t.Fatalf("get checklist: %v", err)
	}
	if len(cl.Tasks) != 2 || cl.Tasks[0].Status != domain.TaskPending {
		t.Fatalf("unexpected checklist tasks: %+v", cl.Tasks)
	}
}

func TestCreateScheduleValidation(t *testing.T) {
	env := newTestEnv(t)
	asset := env.createAsset(t, "P-101", "low")
	_, err := env.Engine.CreateSchedule(env.Ctx, engine.ScheduleCreateOptions{
		AssetID:      asset.ID,
		ScheduleType: "time",
		ActorID:      "tester",
	})
	var ve engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := ve.Fields["tasks"]; !ok {
		t.Errorf("expected tasks field error, got %v", ve.Fields)
	}
	if _, ok := ve.Fields["interval_time"]; !ok {
		t.Errorf("expected interval_time field error, got %v", ve.Fields)
	}
}

func TestCreateScheduleUsageHasNoDueDate(t *testing.T) {
	env := newTestEnv(t)
	asset := env.createAsset(t, "P-102", "low")
	s, err := env.Engine.CreateSchedule(env.Ctx, engine.ScheduleCreateOptions{
		AssetID:       asset.ID,
		Tasks:         []engine.TaskSpec{{Description: "grease bearings"}},
		ScheduleType:  "usage",
		IntervalUsage: 500,
		UsageUnit:     "hours",
		ActorID:       "tester",
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	if s.NextDue != nil {
		t.Fatalf("usage schedule should not have next_due, got %v", *s.NextDue)
	}
}

func TestMarkScheduleExecuted(t *testing.T) {
	env := newTestEnv(t)
	asset := env.createAsset(t, "P-103", "low")
	s, err := env.Engine.CreateSchedule(env.Ctx, engine.ScheduleCreateOptions{
		AssetID:      asset.ID,
		Tasks:        []engine.TaskSpec{{Description: "inspect seals"}},
		ScheduleType: "time",
		IntervalTime: "daily",
		ActorID:      "tester",
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	got, err := env.Engine.MarkScheduleExecuted(env.Ctx, s.ID, "tester")
	if err != nil {
		t.Fatalf("mark executed: %v", err)
	}
	if got.LastExecuted == nil || *got.LastExecuted != "2024-03-01" {
		t.Errorf("last_executed = %v, want 2024-03-01", got.LastExecuted)
	}
	if got.NextDue == nil || *got.NextDue != "2024-03-02" {
		t.Errorf("next_due = %v, want 2024-03-02", got.NextDue)
	}
}

func TestRecordUsageCrossesThreshold(t *testing.T) {
	env := newTestEnv(t)
	asset := env.createAsset(t, "P-104", "low")
	s, err := env.Engine.CreateSchedule(env.Ctx, engine.ScheduleCreateOptions{
		AssetID:       asset.ID,
		Tasks:         []engine.TaskSpec{{Description: "replace filter"}},
		ScheduleType:  "usage",
		IntervalUsage: 100,
		UsageUnit:     "hours",
		ActorID:       "tester",
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	items, err := env.Engine.RecordUsage(env.Ctx, asset.ID, 60, "hours", "tester")
	if err != nil {
		t.Fatalf("record usage: %v", err)
	}
	if len(items) != 1 || items[0].Due() {
		t.Fatalf("should not be due at 60/100: %+v", items)
	}
	items, err = env.Engine.RecordUsage(env.Ctx, asset.ID, 50, "hours", "tester")
	if err != nil {
		t.Fatalf("record usage: %v", err)
	}
	if !items[0].Due() || items[0].UsageAccrued != 110 {
		t.Fatalf("should be due at 110/100: %+v", items[0])
	}
	events, err := env.Engine.LatestEvents(env.Ctx, 10, "schedule.usage.due", "", "")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 || events[0].EntityID != s.ID {
		t.Fatalf("expected one usage.due event for %s, got %+v", s.ID, events)
	}
}

func TestReportFaultUsesAssetCriticality(t *testing.T) {
	env := newTestEnv(t)
	asset := env.createAsset(t, "C-200", "high")
	wo, err := env.Engine.ReportFault(env.Ctx, engine.FaultReportOptions{
		AssetID:     asset.ID,
		Description: "bearing noise",
		ReporterID:  "operator-1",
	})
	if err != nil {
		t.Fatalf("report fault: %v", err)
	}
	if wo.Type != domain.WorkOrderCorrective {
		t.Errorf("type = %s, want corrective", wo.Type)
	}
	if wo.Priority != domain.PriorityUrgent {
		t.Errorf("priority = %s, want urgent", wo.Priority)
	}
	if wo.Status != domain.StatusCreated {
		t.Errorf("status = %s, want created", wo.Status)
	}
}

func TestReportFaultUnknownAsset(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.ReportFault(env.Ctx, engine.FaultReportOptions{
		AssetID:     "nope",
		Description: "broken",
		ReporterID:  "operator-1",
	})
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	orders, err := env.Engine.ListWorkOrders(env.Ctx, repo.WorkOrderFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 0 {
		t.Fatalf("no work order should exist, got %d", len(orders))
	}
}

func TestProcessChecklistEscalatesAnomalies(t *testing.T) {
	env := newTestEnv(t)
	asset := env.createAsset(t, "P-300", "low")
	result, err := env.Engine.ProcessChecklist(env.Ctx, engine.ChecklistOptions{
		AssetID:    asset.ID,
		ReporterID: "robot-1",
		Tasks: []domain.ChecklistTask{
			{ID: 1, Description: "oil level", Status: domain.TaskOK},
			{ID: 2, Description: "coolant leak", Status: domain.TaskNOK},
			{ID: 3, Description: "belt tension", Status: domain.TaskNOK},
		},
		Notes: "vibration recorded",
	})
	if err != nil {
		t.Fatalf("process checklist: %v", err)
	}
	if result.AnomaliesFound != 2 {
		t.Fatalf("anomalies = %d, want 2", result.AnomaliesFound)
	}
	if result.WorkOrderID == nil {
		t.Fatal("expected a work order")
	}
	wo, err := env.Engine.GetWorkOrder(env.Ctx, *result.WorkOrderID)
	if err != nil {
		t.Fatalf("get work order: %v", err)
	}
	if !strings.Contains(wo.Description, "Task #2: coolant leak") {
		t.Errorf("description misses anomaly: %s", wo.Description)
	}
	if !strings.Contains(wo.Description, "Additional notes: vibration recorded") {
		t.Errorf("description misses notes: %s", wo.Description)
	}
	orders, _ := env.Engine.ListWorkOrders(env.Ctx, repo.WorkOrderFilter{AssetID: asset.ID})
	if len(orders) != 1 {
		t.Fatalf("expected one aggregated work order, got %d", len(orders))
	}
}

func TestProcessChecklistClean(t *testing.T) {
	env := newTestEnv(t)
	asset := env.createAsset(t, "P-301", "low")
	result, err := env.Engine.ProcessChecklist(env.Ctx, engine.ChecklistOptions{
		AssetID:    asset.ID,
		ReporterID: "robot-1",
		Tasks: []domain.ChecklistTask{
			{ID: 1, Description: "oil level", Status: domain.TaskOK},
		},
	})
	if err != nil {
		t.Fatalf("process checklist: %v", err)
	}
	if result.AnomaliesFound != 0 || result.WorkOrderID != nil {
		t.Fatalf("clean checklist should not escalate: %+v", result)
	}
	orders, _ := env.Engine.ListWorkOrders(env.Ctx, repo.WorkOrderFilter{})
	if len(orders) != 0 {
		t.Fatalf("no work order expected, got %d", len(orders))
	}
}

func TestWorkOrderLifecycle(t *testing.T) {
	env := newTestEnv(t)
	asset := env.createAsset(t, "P-400", "low")
	wo, err := env.Engine.ReportFault(env.Ctx, engine.FaultReportOptions{
		AssetID:     asset.ID,
		Description: "jammed conveyor",
		ReporterID:  "operator-1",
	})
	if err != nil {
		t.Fatal(err)
	}

	// skipping steps is rejected
	_, err = env.Engine.SetWorkOrderStatus(env.Ctx, engine.StatusChangeOptions{
		WorkOrderID: wo.ID, Status: domain.StatusExecuting, ActorID: "tech-1",
	})
	var te engine.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected transition error, got %v", err)
	}

	tech := "tech-1"
	for _, next := range []domain.WorkOrderStatus{domain.StatusApproved, domain.StatusAssigned, domain.StatusExecuting, domain.StatusClosed} {
		wo, err = env.Engine.SetWorkOrderStatus(env.Ctx, engine.StatusChangeOptions{
			WorkOrderID: wo.ID, Status: next, AssignedTo: &tech, ActorID: "tech-1",
		})
		if err != nil {
			t.Fatalf("to %s: %v", next, err)
		}
	}
	if wo.StartDate == nil || wo.EndDate == nil {
		t.Fatalf("start/end dates not stamped: %+v", wo)
	}

	kinds := env.Notifier.kinds()
	if len(kinds) != 2 || kinds[0] != notify.KindStart || kinds[1] != notify.KindFinish {
		t.Fatalf("notifications = %v, want [start finish]", kinds)
	}

	// terminal orders reject further changes
	_, err = env.Engine.SetWorkOrderStatus(env.Ctx, engine.StatusChangeOptions{
		WorkOrderID: wo.ID, Status: domain.StatusCanceled, ActorID: "tech-1",
	})
	if !errors.As(err, &te) {
		t.Fatalf("expected transition error on closed order, got %v", err)
	}
}

func TestReportDelayNotifies(t *testing.T) {
	env := newTestEnv(t)
	asset := env.createAsset(t, "P-401", "low")
	wo, err := env.Engine.ReportFault(env.Ctx, engine.FaultReportOptions{
		AssetID: asset.ID, Description: "leaking valve", ReporterID: "operator-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = env.Engine.ReportDelay(env.Ctx, engine.DelayOptions{
		WorkOrderID: wo.ID,
		Reason:      "waiting for gasket",
		NewEstimate: "2024-03-10",
		ActorID:     "tech-1",
	})
	if err != nil {
		t.Fatalf("report delay: %v", err)
	}
	kinds := env.Notifier.kinds()
	if len(kinds) != 1 || kinds[0] != notify.KindDelay {
		t.Fatalf("notifications = %v, want [delay]", kinds)
	}
}

func TestDeleteAssetWithOpenWorkOrders(t *testing.T) {
	env := newTestEnv(t)
	asset := env.createAsset(t, "P-500", "low")
	if _, err := env.Engine.ReportFault(env.Ctx, engine.FaultReportOptions{
		AssetID: asset.ID, Description: "stuck", ReporterID: "operator-1",
	}); err != nil {
		t.Fatal(err)
	}
	err := env.Engine.DeleteAsset(env.Ctx, asset.ID, "tester")
	var ve engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := env.Engine.GetAsset(env.Ctx, asset.ID); err != nil {
		t.Fatalf("asset should still exist: %v", err)
	}
}

func TestDuplicateAssetCode(t *testing.T) {
	env := newTestEnv(t)
	env.createAsset(t, "P-600", "low")
	_, err := env.Engine.CreateAsset(env.Ctx, engine.AssetCreateOptions{
		Code: "P-600", Name: "Other", Criticality: "low", ActorID: "tester",
	})
	var ve engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCalendarEvents(t *testing.T) {
	env := newTestEnv(t)
	asset := env.createAsset(t, "P-700", "low")
	if _, err := env.Engine.CreateSchedule(env.Ctx, engine.ScheduleCreateOptions{
		AssetID:      asset.ID,
		Tasks:        []engine.TaskSpec{{Description: "lubricate"}},
		ScheduleType: "time",
		IntervalTime: "monthly",
		ActorID:      "tester",
	}); err != nil {
		t.Fatal(err)
	}
	wo, err := env.Engine.ReportFault(env.Ctx, engine.FaultReportOptions{
		AssetID: asset.ID, Description: "overheating", ReporterID: "operator-1",
	})
	if err != nil {
		t.Fatal(err)
	}

	events, err := env.Engine.CalendarEvents(env.Ctx)
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	byCategory := map[string]string{}
	for _, ev := range events {
		byCategory[ev.Category] = ev.Color
		if ev.End == nil || *ev.End != ev.Start {
			t.Errorf("%s event %s: end = %v, want %q", ev.Category, ev.ID, ev.End, ev.Start)
		}
	}
	if byCategory["preventive"] != "#3498db" || byCategory["corrective"] != "#e74c3c" {
		t.Fatalf("unexpected colors: %v", byCategory)
	}

	// closed work orders leave the calendar
	tech := "tech-1"
	for _, next := range []domain.WorkOrderStatus{domain.StatusApproved, domain.StatusAssigned, domain.StatusExecuting, domain.StatusClosed} {
		if _, err := env.Engine.SetWorkOrderStatus(env.Ctx, engine.StatusChangeOptions{
			WorkOrderID: wo.ID, Status: next, AssignedTo: &tech, ActorID: "tech-1",
		}); err != nil {
			t.Fatal(err)
		}
	}
	events, err = env.Engine.CalendarEvents(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Category != "preventive" {
		t.Fatalf("expected only the preventive entry, got %+v", events)
	}
}

func TestCalendarSkipsOrphanedRows(t *testing.T) {
	env := newTestEnv(t)
	asset := env.createAsset(t, "P-701", "low")
	if _, err := env.Engine.CreateSchedule(env.Ctx, engine.ScheduleCreateOptions{
		AssetID:      asset.ID,
		Tasks:        []engine.TaskSpec{{Description: "lubricate"}},
		ScheduleType: "time",
		IntervalTime: "weekly",
		ActorID:      "tester",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.ReportFault(env.Ctx, engine.FaultReportOptions{
		AssetID: asset.ID, Description: "grinding noise", ReporterID: "operator-1",
	}); err != nil {
		t.Fatal(err)
	}

	// Plant rows pointing at a missing asset. The write paths cannot produce
	// these, so go under the foreign keys on a dedicated connection.
	conn, err := env.Engine.DB.Conn(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if _, err := conn.ExecContext(env.Ctx, `PRAGMA foreign_keys=OFF`); err != nil {
		t.Fatal(err)
	}
	if _, err := conn.ExecContext(env.Ctx,
		`INSERT INTO preventive_schedules(id,asset_id,checklist_id,schedule_type,interval_time,usage_accrued,next_due,created_at)
		 VALUES ('orphan-sched','gone','gone','time','weekly',0,'2024-03-08','2024-03-01T10:00:00Z')`); err != nil {
		t.Fatal(err)
	}
	if _, err := conn.ExecContext(env.Ctx,
		`INSERT INTO work_orders(id,asset_id,type,priority,status,description,created_by,created_at,updated_at)
		 VALUES ('orphan-wo','gone','corrective','low','created','stuck','operator-1','2024-03-01T10:00:00Z','2024-03-01T10:00:00Z')`); err != nil {
		t.Fatal(err)
	}
	if _, err := conn.ExecContext(env.Ctx, `PRAGMA foreign_keys=ON`); err != nil {
		t.Fatal(err)
	}

	events, err := env.Engine.CalendarEvents(env.Ctx)
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected the 2 healthy entries, got %d: %+v", len(events), events)
	}
	for _, ev := range events {
		if ev.ID == "orphan-sched" || ev.ID == "orphan-wo" {
			t.Fatalf("orphaned row leaked into the feed: %+v", ev)
		}
	}
}

func TestStockMovements(t *testing.T) {
	env := newTestEnv(t)
	part, err := env.Engine.CreateSparePart(env.Ctx, engine.PartCreateOptions{
		Code:         "SP-1",
		Name:         "V-belt",
		MinStock:     5,
		InitialStock: 6,
		ActorID:      "tester",
	})
	if err != nil {
		t.Fatalf("create part: %v", err)
	}

	_, err = env.Engine.RecordStockMovement(env.Ctx, engine.MovementOptions{
		PartID: part.ID, Direction: "out", Quantity: 10, ActorID: "tester",
	})
	var ve engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("overdraw should fail validation, got %v", err)
	}

	got, err := env.Engine.RecordStockMovement(env.Ctx, engine.MovementOptions{
		PartID: part.ID, Direction: "out", Quantity: 2, ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("record movement: %v", err)
	}
	if got.CurrentStock != 4 {
		t.Fatalf("stock = %d, want 4", got.CurrentStock)
	}
	events, err := env.Engine.LatestEvents(env.Ctx, 10, "stock.low", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one stock.low event, got %d", len(events))
	}
}
