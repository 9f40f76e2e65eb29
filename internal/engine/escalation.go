package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"plantline/internal/domain"
	"plantline/internal/events"
)

// ComputePriority maps asset criticality and reported operational impact to
// a work order priority. First matching rule wins.
func ComputePriority(criticality domain.Criticality, impact domain.OperationalImpact) domain.WorkOrderPriority {
	if criticality == domain.CriticalityHigh || criticality == domain.CriticalityCritical || impact == domain.ImpactCritical {
		return domain.PriorityUrgent
	}
	if criticality == domain.CriticalityMedium || impact == domain.ImpactHigh {
		return domain.PriorityHigh
	}
	if impact == domain.ImpactMedium {
		return domain.PriorityMedium
	}
	return domain.PriorityLow
}

// FaultReportOptions are parameters for reporting a fault on an asset.
type FaultReportOptions struct {
	AssetID     string
	Description string
	ReporterID  string
	Impact      *domain.OperationalImpact
}

// ReportFault creates a corrective work order for the asset. All corrective
// work orders go through here, whether reported by a person or escalated
// from an autonomous checklist, so priority computation stays in one place.
func (e Engine) ReportFault(ctx context.Context, opts FaultReportOptions) (domain.WorkOrder, error) {
	fields := map[string]string{}
	if opts.AssetID == "" {
		fields["asset_id"] = "asset_id is required"
	}
	if opts.Description == "" {
		fields["description"] = "description is required"
	}
	if opts.ReporterID == "" {
		fields["reporter_id"] = "reporter_id is required"
	}
	if len(fields) > 0 {
		return domain.WorkOrder{}, ValidationError{Fields: fields}
	}
	asset, err := e.Repo.GetAsset(ctx, opts.AssetID)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	impact := domain.ImpactLow
	if opts.Impact != nil {
		impact = *opts.Impact
	}
	now := e.now().UTC().Format(time.RFC3339)
	wo := domain.WorkOrder{
		ID:          uuid.New().String(),
		AssetID:     asset.ID,
		Type:        domain.WorkOrderCorrective,
		Priority:    ComputePriority(asset.Criticality, impact),
		Status:      domain.StatusCreated,
		Description: opts.Description,
		CreatedBy:   opts.ReporterID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertWorkOrder(ctx, tx, wo); err != nil {
		return domain.WorkOrder{}, fmt.Errorf("insert work order: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "workorder.created", "workorder", wo.ID, opts.ReporterID, events.EventPayload{
		"asset_id": wo.AssetID,
		"type":     wo.Type,
		"priority": wo.Priority,
		"impact":   impact,
	}); err != nil {
		return domain.WorkOrder{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.WorkOrder{}, err
	}
	return wo, nil
}

// ChecklistResult is the outcome of processing an autonomous inspection.
type ChecklistResult struct {
	AnomaliesFound int
	WorkOrderID    *string
}

// ChecklistOptions carry the submitted results of an autonomous inspection.
type ChecklistOptions struct {
	AssetID    string
	ReporterID string
	Tasks      []domain.ChecklistTask
	Notes      string
}

// ProcessChecklist scans submitted checklist results for failed tasks. Any
// anomaly escalates into a single corrective work order whose description
// enumerates every failed task; the impact floor is "low" so that asset
// criticality alone drives the priority until a human re-triages. A clean
// checklist creates nothing and is not persisted.
func (e Engine) ProcessChecklist(ctx context.Context, opts ChecklistOptions) (ChecklistResult, error) {
	fields := map[string]string{}
	if opts.AssetID == "" {
		fields["asset_id"] = "asset_id is required"
	}
	if len(opts.Tasks) == 0 {
		fields["tasks"] = "at least one task result is required"
	}
	if len(fields) > 0 {
		return ChecklistResult{}, ValidationError{Fields: fields}
	}

	var anomalies []domain.ChecklistTask
	for _, t := range opts.Tasks {
		if t.Status == domain.TaskNOK {
			anomalies = append(anomalies, t)
		}
	}
	if len(anomalies) == 0 {
		return ChecklistResult{AnomaliesFound: 0}, nil
	}

	var b strings.Builder
	b.WriteString("Anomalies detected during autonomous checklist:\n")
	for _, a := range anomalies {
		fmt.Fprintf(&b, "- Task #%d: %s\n", a.ID, a.Description)
	}
	if opts.Notes != "" {
		fmt.Fprintf(&b, "\nAdditional notes: %s", opts.Notes)
	}

	impact := domain.ImpactLow
	wo, err := e.ReportFault(ctx, FaultReportOptions{
		AssetID:     opts.AssetID,
		Description: b.String(),
		ReporterID:  opts.ReporterID,
		Impact:      &impact,
	})
	if err != nil {
		return ChecklistResult{}, err
	}
	return ChecklistResult{AnomaliesFound: len(anomalies), WorkOrderID: &wo.ID}, nil
}
